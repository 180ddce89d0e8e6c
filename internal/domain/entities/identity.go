package entities

import "time"

// IdentityErrorCode is a normalized identity-provider failure
type IdentityErrorCode string

const (
	IdentityUserNotFound        IdentityErrorCode = "user-not-found"
	IdentityWrongPassword       IdentityErrorCode = "wrong-password"
	IdentityInvalidEmail        IdentityErrorCode = "invalid-email"
	IdentityUserDisabled        IdentityErrorCode = "user-disabled"
	IdentityTooManyRequests     IdentityErrorCode = "too-many-requests"
	IdentityNetworkFailure      IdentityErrorCode = "network-request-failed"
	IdentityInvalidCredential   IdentityErrorCode = "invalid-credential"
	IdentityEmailInUse          IdentityErrorCode = "email-already-in-use"
	IdentityOperationNotAllowed IdentityErrorCode = "operation-not-allowed"
	IdentityWeakPassword        IdentityErrorCode = "weak-password"
)

var identityMessages = map[IdentityErrorCode]string{
	IdentityUserNotFound:        "No account found with this email address.",
	IdentityWrongPassword:       "Incorrect password. Please try again.",
	IdentityInvalidEmail:        "Invalid email address format.",
	IdentityUserDisabled:        "This account has been disabled. Please contact support.",
	IdentityTooManyRequests:     "Too many failed login attempts. Please try again later.",
	IdentityNetworkFailure:      "Network error. Please check your internet connection.",
	IdentityInvalidCredential:   "Invalid email or password. Please check your credentials.",
	IdentityEmailInUse:          "An account with this email already exists. Please sign in instead.",
	IdentityOperationNotAllowed: "Email/password accounts are not enabled. Please contact support.",
	IdentityWeakPassword:        "Password is too weak. Please choose a stronger password.",
}

// UserMessage returns the message shown to the person signing in
func (c IdentityErrorCode) UserMessage() string {
	if msg, ok := identityMessages[c]; ok {
		return msg
	}
	return "Authentication failed. Please try again."
}

// Identity is an authenticated account
type Identity struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AgentSession marks a delivery agent as logged in for the lifetime of the
// session.
type AgentSession struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
