package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

var identityEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MinPasswordLength is the shortest password accepted before contacting the
// identity provider
const MinPasswordLength = 6

// IdentityService validates credentials and delegates to the identity provider
type IdentityService struct {
	provider providers.IdentityProvider
}

// NewIdentityService creates a new identity service
func NewIdentityService(provider providers.IdentityProvider) *IdentityService {
	return &IdentityService{provider: provider}
}

// SignIn authenticates an existing account
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*entities.Identity, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	identity, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, identityFailure(ctx, "sign in", err)
	}
	return identity, nil
}

// SignUp registers a new account
func (s *IdentityService) SignUp(ctx context.Context, email, password string) (*entities.Identity, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	identity, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, identityFailure(ctx, "sign up", err)
	}
	return identity, nil
}

func validateCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", apperrors.NewValidationError("Please fill in all fields.")
	}
	if !identityEmailPattern.MatchString(email) {
		return "", apperrors.NewValidationError(entities.IdentityInvalidEmail.UserMessage())
	}
	if len(password) < MinPasswordLength {
		return "", apperrors.NewValidationError("Password must be at least 6 characters long.")
	}
	return email, nil
}

// identityFailure converts a provider error into an AppError carrying the
// user-facing message for its code
func identityFailure(ctx context.Context, op string, err error) error {
	code := entities.IdentityInvalidCredential
	var idErr *providers.IdentityError
	if errors.As(err, &idErr) {
		code = idErr.Code
	}
	observability.LoggerFromContext(ctx).Info().Str("op", op).Str("code", string(code)).Msg("identity request rejected")

	appErr := &apperrors.AppError{Message: code.UserMessage(), Err: err}
	switch code {
	case entities.IdentityTooManyRequests:
		appErr.Type = apperrors.ErrorTypeRateLimited
	case entities.IdentityNetworkFailure:
		appErr.Type = apperrors.ErrorTypeExternal
	case entities.IdentityEmailInUse:
		appErr.Type = apperrors.ErrorTypeConflict
	case entities.IdentityInvalidEmail, entities.IdentityWeakPassword:
		appErr.Type = apperrors.ErrorTypeValidation
	default:
		appErr.Type = apperrors.ErrorTypeUnauthorized
	}
	return appErr
}

// IdentityCode extracts the identity error code from err, if any
func IdentityCode(err error) (entities.IdentityErrorCode, bool) {
	var idErr *providers.IdentityError
	if errors.As(err, &idErr) {
		return idErr.Code, true
	}
	return "", false
}
