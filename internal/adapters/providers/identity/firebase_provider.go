package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/resilience"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	defaultHTTPTimeout = 10 * time.Second
)

// FirebaseProvider implements IdentityProvider with the Firebase Identity
// Toolkit REST API.
type FirebaseProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type firebaseAuthRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type firebaseAuthResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type firebaseErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewFirebaseProvider creates a new Firebase identity provider
func NewFirebaseProvider(apiKey string) providers.IdentityProvider {
	return NewFirebaseProviderWithOptions(apiKey, identityToolkitURL, nil)
}

// NewFirebaseProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewFirebaseProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.IdentityProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = identityToolkitURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &FirebaseProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker:    resilience.NewBreaker("firebase-auth", resilience.DefaultBreakerSettings()),
	}
}

// SignIn authenticates an existing account
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*entities.Identity, error) {
	return p.call(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates a new account
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*entities.Identity, error) {
	return p.call(ctx, "accounts:signUp", email, password)
}

// firebaseOutcome carries a rejection through the breaker as a successful
// call, so wrong passwords never trip it.
type firebaseOutcome struct {
	resp     *firebaseAuthResponse
	rejected *providers.IdentityError
}

func (p *FirebaseProvider) call(ctx context.Context, endpoint, email, password string) (*entities.Identity, error) {
	outcome, err := resilience.Call(p.breaker, func() (*firebaseOutcome, error) {
		return p.post(ctx, endpoint, email, password)
	})
	if err != nil {
		return nil, &providers.IdentityError{Code: entities.IdentityNetworkFailure, Err: err}
	}
	if outcome.rejected != nil {
		return nil, outcome.rejected
	}
	resp := outcome.resp

	return &entities.Identity{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (p *FirebaseProvider) post(ctx context.Context, endpoint, email, password string) (*firebaseOutcome, error) {
	payload, err := json.Marshal(firebaseAuthRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", p.baseURL, endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("identity API returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp firebaseErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &firebaseOutcome{rejected: &providers.IdentityError{
			Code: MapFirebaseError(errResp.Error.Message),
			Err:  errors.New(errResp.Error.Message),
		}}, nil
	}

	var out firebaseAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	return &firebaseOutcome{resp: &out}, nil
}

// MapFirebaseError maps an Identity Toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to a code.
func MapFirebaseError(message string) entities.IdentityErrorCode {
	key := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch key {
	case "EMAIL_NOT_FOUND":
		return entities.IdentityUserNotFound
	case "INVALID_PASSWORD":
		return entities.IdentityWrongPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return entities.IdentityInvalidEmail
	case "USER_DISABLED":
		return entities.IdentityUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return entities.IdentityTooManyRequests
	case "EMAIL_EXISTS":
		return entities.IdentityEmailInUse
	case "OPERATION_NOT_ALLOWED", "PASSWORD_LOGIN_DISABLED":
		return entities.IdentityOperationNotAllowed
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return entities.IdentityWeakPassword
	default:
		return entities.IdentityInvalidCredential
	}
}
