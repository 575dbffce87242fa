package model

// PayRequest represents request for POST /transfer-chewy-coins
type PayRequest struct {
	Amount         uint64 `json:"amount"`
	SenderEmail    string `json:"senderEmail"`
	RecipientEmail string `json:"recipientEmail"`
}

// PayToAddressRequest represents request for POST /transfer-chewy-coins-by-wallet-address
type PayToAddressRequest struct {
	Amount           uint64 `json:"amount"`
	SenderEmail      string `json:"senderEmail"`
	RecipientAddress string `json:"recipientAddress"`
}

// PayResponse represents response for both transfer routes
type PayResponse struct {
	Message string `json:"message"`
	Status  bool   `json:"status"`
	TxID    string `json:"txId"`
}
