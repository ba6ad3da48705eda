package model

import "time"

// Investment lifecycle states. Pending means payment instructions were
// issued but the transfer has not been confirmed by an operator.
const (
	InvestmentStatusPending   = "pending"
	InvestmentStatusActive    = "active"
	InvestmentStatusCompleted = "completed"

	// DefaultProfitRate is the advertised monthly return in percent.
	DefaultProfitRate = 5.0

	// InvestmentTermDays is the length of one investment cycle.
	InvestmentTermDays = 30
)

// Investment is a pooled-investment position. Settlement is manual: the
// user transfers crypto to a posted wallet address and an operator flips
// the status to active once the funds arrive.
type Investment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Amount        float64   `json:"amount"` // USDT
	ProfitRate    float64   `json:"profitRate"`
	PaymentMethod string    `json:"paymentMethod"` // e.g. "usdt-trc20"
	Status        string    `json:"status"`
	StartDate     time.Time `json:"startDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MaturesAt returns the end of the current cycle, calendar-day arithmetic
// like the redemption engine's expiry math.
func (i *Investment) MaturesAt() time.Time {
	return i.StartDate.AddDate(0, 0, InvestmentTermDays)
}

// ProjectedProfit is the return for one full cycle at the stored rate.
func (i *Investment) ProjectedProfit() float64 {
	return i.Amount * i.ProfitRate / 100
}
