package providers

import (
	"context"
	"fmt"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// IdentityError is a provider failure normalized to an IdentityErrorCode
type IdentityError struct {
	Code entities.IdentityErrorCode
	Err  error
}

func (e *IdentityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Code, e.Err)
	}
	return "identity: " + string(e.Code)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// IdentityProvider defines the interface for email/password identity services
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*entities.Identity, error)
	SignUp(ctx context.Context, email, password string) (*entities.Identity, error)
}
