package model

// CreateWalletRequest represents request for POST /createWallet
type CreateWalletRequest struct {
	Email string `json:"email"`
}

// WalletResponse is the outcome of provisioning
type WalletResponse struct {
	Message       string         `json:"message"`
	Created       bool           `json:"created"`
	WalletAddress string         `json:"walletAddress"`
	PublicKey     string         `json:"publicKey,omitempty"`
	Balance       uint64         `json:"balance"`
	State         ProvisionState `json:"state"`
	QR            string         `json:"qr,omitempty"` // base64 PNG of the address
	Status        int            `json:"status,omitempty"`
}
