package model

import "github.com/shopspring/decimal"

// UserSpend is one row of the top-spenders report.
type UserSpend struct {
	UserID        uint64          `json:"user_id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	SpendPackages decimal.Decimal `json:"spend_packages"`
	SpendMerch    decimal.Decimal `json:"spend_merch"`
	TotalSpend    decimal.Decimal `json:"total_spend"`
	SpendRank     int             `json:"spend_rank"`
}

// ClassUtilization is one row of the class-utilization report.
// UtilizationPct is booked/capacity*100 rounded to two places.
type ClassUtilization struct {
	ClassID        uint64          `json:"class_id"`
	Date           string          `json:"date"`
	StartTime      string          `json:"start_time"`
	Location       string          `json:"location"`
	Capacity       int             `json:"capacity"`
	Booked         int             `json:"booked"`
	SeatsAvailable int             `json:"seats_available"`
	UtilizationPct decimal.Decimal `json:"utilization_pct"`
	DailyRank      int             `json:"daily_rank"`
}

// TrainingPopularity is one row of the monthly training-popularity report.
type TrainingPopularity struct {
	TrainingID   uint64 `json:"training_id"`
	TrainingName string `json:"training_name"`
	Month        string `json:"month"`
	NumBookings  int    `json:"num_bookings"`
	RankInMonth  int    `json:"rank_in_month"`
}
