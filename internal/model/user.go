// Package model defines the data structures used throughout the application.
package model

import "time"

// Tier is a user's entitlement level. The three values are mutually
// exclusive; code redemption is the only writer of TierVIP and
// investment creation the only writer of TierInvestor.
type Tier string

const (
	TierFree     Tier = "free"
	TierVIP      Tier = "vip"
	TierInvestor Tier = "investor"
)

// User represents a registered account and its entitlement projection.
//
// WHY VIPExpiresAt *time.Time (not time.Time)?
// "Never held VIP" and "VIP expired at instant X" are different states.
// A nil pointer maps cleanly to SQL NULL; a zero time.Time would be an
// ambiguous sentinel that still scans as a real timestamp.
//
// The stored Tier label is NOT authoritative for signal visibility:
// a nil or past VIPExpiresAt behaves as free regardless of the label.
// Use HasActiveVIP for gating decisions.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // bcrypt digest, never serialized
	IsAdmin      bool       `json:"isAdmin"`
	Tier         Tier       `json:"tier"`
	VIPExpiresAt *time.Time `json:"vipExpiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasActiveVIP reports whether the user's VIP entitlement is live at the
// given instant. Admins are not implicitly VIP; IsAdmin only gates the
// admin API surface.
func (u *User) HasActiveVIP(now time.Time) bool {
	return u.VIPExpiresAt != nil && u.VIPExpiresAt.After(now)
}
