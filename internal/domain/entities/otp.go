package entities

import "time"

// OTPEntry is the stored state of an outstanding one-time code. Only the
// hash of the code is kept.
type OTPEntry struct {
	Hash          string    `json:"hash"`
	ExpiresAt     time.Time `json:"expires_at"`
	Attempts      int       `json:"attempts"`
	LastRequested time.Time `json:"last_requested"`
}

// Expired reports whether the entry is past its lifetime at now
func (e *OTPEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// OTPChannel is how a code reached the requester
type OTPChannel string

const (
	OTPChannelEmail OTPChannel = "email"
	OTPChannelSMS   OTPChannel = "sms"
	OTPChannelDev   OTPChannel = "dev"
)

// OTPIssue describes a freshly issued code. DevCode is only populated when
// the code could not be delivered and the service runs outside production.
type OTPIssue struct {
	Identifier string     `json:"identifier"`
	Channel    OTPChannel `json:"channel"`
	ExpiresAt  time.Time  `json:"expires_at"`
	DevCode    string     `json:"-"`
}
