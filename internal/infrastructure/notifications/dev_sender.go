package notifications

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

// DevEchoSender does not deliver anything; the OTP service returns the code
// in the response instead. It must never be wired in production.
type DevEchoSender struct{}

var _ providers.CodeSender = DevEchoSender{}

// Channel implements providers.CodeSender
func (DevEchoSender) Channel() entities.OTPChannel { return entities.OTPChannelDev }

// Supports implements providers.CodeSender
func (DevEchoSender) Supports(string) bool { return true }

// Send implements providers.CodeSender
func (DevEchoSender) Send(_ context.Context, identifier, _ string) error {
	log.Warn().Str("identifier", identifier).Msg("no delivery provider configured, returning code in response")
	return nil
}
