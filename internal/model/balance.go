package model

// BalanceResponse represents response for GET /wallet-balance/{email}
type BalanceResponse struct {
	WalletAddress string `json:"walletAddress"`
	Balance       uint64 `json:"balance"`
	Display       string `json:"balanceDisplay"` // balance with token decimals applied
}
