package models

// MonthlyServiceStats is a per-month aggregate of completed services for a
// tenant, used by the shop dashboard.
type MonthlyServiceStats struct {
	Month     string `json:"month"`
	Completed int64  `json:"completed"`
}
