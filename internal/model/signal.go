package model

import "time"

// Signal visibility classes and lifecycle states.
const (
	SignalTypeFree = "free"
	SignalTypeVIP  = "vip"

	SignalStatusActive = "active"
	SignalStatusClosed = "closed"
)

// Signal is a published trading call: an entry price, up to three take-profit
// targets, and a stop loss for a market pair.
//
// Targets are pointers because a signal may publish with fewer than three
// take-profit levels; entry and stop loss are always required.
//
// PublishedAt is nil while the signal is scheduled for a future release
// (ScheduledAt set); the public catalog only shows rows with a non-nil
// PublishedAt.
type Signal struct {
	ID          string     `json:"id"`
	Pair        string     `json:"pair"` // e.g. "BTC/USDT"
	EntryPrice  float64    `json:"entryPrice"`
	Target1     *float64   `json:"target1,omitempty"`
	Target2     *float64   `json:"target2,omitempty"`
	Target3     *float64   `json:"target3,omitempty"`
	StopLoss    float64    `json:"stopLoss"`
	Type        string     `json:"type"`   // SignalTypeFree or SignalTypeVIP
	Status      string     `json:"status"` // SignalStatusActive or SignalStatusClosed
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
