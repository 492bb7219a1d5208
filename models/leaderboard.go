package models

// LeaderboardEntry is a derived ranking row; it is never stored.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	Username      string  `json:"username"`
	WalletAddress string  `json:"walletAddress"`
	Value         float64 `json:"value"`
	Level         int     `json:"level"`
}
