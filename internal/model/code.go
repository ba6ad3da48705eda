package model

import "time"

// VIPCode is a single-use entitlement grant.
//
// Two independent clocks live here and are easy to confuse:
//   - ExpiresAt is the code's own shelf-life: the deadline after which an
//     UNUSED code can no longer be redeemed.
//   - DurationDays is the length of the VIP window the code grants ONCE
//     redeemed, counted from the redemption base instant.
//
// Invariant: IsUsed implies UsedBy and UsedAt are non-nil, set together
// exactly once, and never reversed.
type VIPCode struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	DurationDays int        `json:"durationDays"`
	IsUsed       bool       `json:"isUsed"`
	UsedBy       *string    `json:"usedBy,omitempty"` // user ID, lookup only
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Expired reports whether the code's shelf-life has passed. A nil
// ExpiresAt means the code never goes stale on its own.
func (c *VIPCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// VIPCodeWithRedeemer is the admin listing projection: the code joined
// with the redeeming user's email (empty while unused).
type VIPCodeWithRedeemer struct {
	VIPCode
	UsedByEmail string `json:"usedByEmail,omitempty"`
}
