package providers

import (
	"context"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// CodeSender delivers a one-time code to an identifier
type CodeSender interface {
	// Channel reports how the sender delivers codes
	Channel() entities.OTPChannel

	// Supports reports whether the sender can reach identifier
	Supports(identifier string) bool

	// Send delivers code to identifier
	Send(ctx context.Context, identifier, code string) error
}
