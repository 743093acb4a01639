package dto

type DashboardResponse struct {
	OK                bool                  `json:"ok"`
	Income            float64               `json:"income"`
	Expenses          float64               `json:"expenses"`
	Balance           float64               `json:"balance"`
	GmailCount        int                   `json:"gmailCount"`
	TotalTransactions int                   `json:"totalTransactions"`
	Points            int                   `json:"points"`
	Tier              string                `json:"tier"`
	ByCategory        map[string]float64    `json:"byCategory"`
	Trend             map[string]float64    `json:"trend"`
	Goals             []GoalResponse        `json:"goals"`
	Transactions      []TransactionResponse `json:"transactions"`
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
