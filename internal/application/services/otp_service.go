package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

var (
	otpEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	otpPhonePattern = regexp.MustCompile(`^[0-9]{8,15}$`)
)

// ValidIdentifier reports whether identifier is an email address or phone number
func ValidIdentifier(identifier string) bool {
	return otpEmailPattern.MatchString(identifier) || otpPhonePattern.MatchString(identifier)
}

// OTPConfig configures code issuance and verification
type OTPConfig struct {
	CodeLength  int
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
	HashCost    int
	TokenSecret []byte
	TokenTTL    time.Duration
	Production  bool
}

// OTPService issues and verifies one-time codes
type OTPService struct {
	mu        sync.Mutex
	store     repositories.OTPRepository
	senders   []providers.CodeSender
	cfg       OTPConfig
	collector *observability.OTPCollector
	now       func() time.Time
}

// NewOTPService creates a new OTP service. Senders are tried in order and
// the first that supports the identifier delivers the code.
func NewOTPService(store repositories.OTPRepository, senders []providers.CodeSender, cfg OTPConfig, collector *observability.OTPCollector) (*OTPService, error) {
	if cfg.CodeLength < 4 || cfg.CodeLength > 10 {
		return nil, fmt.Errorf("invalid code length %d", cfg.CodeLength)
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if len(cfg.TokenSecret) == 0 {
		if cfg.Production {
			return nil, fmt.Errorf("token secret is required in production")
		}
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		cfg.TokenSecret = secret
	}
	return &OTPService{
		store:     store,
		senders:   senders,
		cfg:       cfg,
		collector: collector,
		now:       time.Now,
	}, nil
}

// WithClock replaces the service clock
func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

// RequestCode issues a new code for identifier and delivers it
func (s *OTPService) RequestCode(ctx context.Context, identifier string) (*entities.OTPIssue, error) {
	identifier = strings.TrimSpace(identifier)
	if !ValidIdentifier(identifier) {
		s.collector.ObserveRequest("none", "invalid")
		return nil, apperrors.NewValidationError("invalid identifier")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, err := s.store.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if existing != nil && now.Sub(existing.LastRequested) < s.cfg.Cooldown {
		s.collector.ObserveRequest("none", "cooldown")
		return nil, apperrors.NewRateLimitedError("please wait before requesting another code")
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.HashCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash code", err)
	}

	entry := &entities.OTPEntry{
		Hash:          string(hash),
		ExpiresAt:     now.Add(s.cfg.TTL),
		LastRequested: now,
	}
	// keep the entry until the cooldown is over even when the code expires first
	ttl := s.cfg.TTL
	if s.cfg.Cooldown > ttl {
		ttl = s.cfg.Cooldown
	}
	if err := s.store.Save(ctx, identifier, entry, ttl); err != nil {
		return nil, err
	}

	channel, err := s.deliver(ctx, identifier, code)
	if err != nil {
		s.collector.ObserveRequest(string(channel), "failed")
		return nil, err
	}
	s.collector.ObserveRequest(string(channel), "sent")

	issue := &entities.OTPIssue{
		Identifier: identifier,
		Channel:    channel,
		ExpiresAt:  entry.ExpiresAt,
	}
	if channel == entities.OTPChannelDev {
		issue.DevCode = code
	}
	return issue, nil
}

func (s *OTPService) deliver(ctx context.Context, identifier, code string) (entities.OTPChannel, error) {
	for _, sender := range s.senders {
		if !sender.Supports(identifier) {
			continue
		}
		channel := sender.Channel()
		if channel == entities.OTPChannelDev && s.cfg.Production {
			continue
		}
		if err := sender.Send(ctx, identifier, code); err != nil {
			observability.LoggerFromContext(ctx).Error().Err(err).Str("channel", string(channel)).Msg("failed to deliver code")
			return channel, apperrors.NewInternalError("failed to send code", err)
		}
		return channel, nil
	}
	return "", apperrors.NewInternalError("no delivery provider configured", nil)
}

// VerifyCode checks code for identifier. A correct code is consumed and
// exchanged for a signed token.
func (s *OTPService) VerifyCode(ctx context.Context, identifier, code string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if !ValidIdentifier(identifier) || !isDigits(code, s.cfg.CodeLength) {
		s.collector.ObserveVerification("invalid")
		return "", apperrors.NewValidationError("invalid payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.store.Get(ctx, identifier)
	if err != nil {
		return "", err
	}
	if entry == nil {
		s.collector.ObserveVerification("missing")
		return "", apperrors.NewNotFoundError("no request found")
	}
	if entry.Expired(s.now()) {
		_ = s.store.Delete(ctx, identifier)
		s.collector.ObserveVerification("expired")
		return "", apperrors.NewValidationError("code expired")
	}
	if entry.Attempts >= s.cfg.MaxAttempts {
		_ = s.store.Delete(ctx, identifier)
		s.collector.ObserveVerification("exhausted")
		return "", apperrors.NewRateLimitedError("maximum attempts reached")
	}

	if bcrypt.CompareHashAndPassword([]byte(entry.Hash), []byte(code)) != nil {
		entry.Attempts++
		remaining := entry.ExpiresAt.Sub(s.now())
		if err := s.store.Save(ctx, identifier, entry, remaining); err != nil {
			return "", err
		}
		s.collector.ObserveVerification("mismatch")
		return "", apperrors.NewValidationError("invalid code")
	}

	if err := s.store.Delete(ctx, identifier); err != nil {
		return "", err
	}
	token, err := s.issueToken(identifier)
	if err != nil {
		return "", apperrors.NewInternalError("failed to sign token", err)
	}
	s.collector.ObserveVerification("verified")
	return token, nil
}

func (s *OTPService) issueToken(identifier string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   identifier,
		ID:        uuid.NewString(),
		Issuer:    "otp-service",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.TokenSecret)
}

// ParseToken validates a token issued by VerifyCode and returns its subject
func (s *OTPService) ParseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.TokenSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", apperrors.NewUnauthorizedError("invalid token")
	}
	return claims.Subject, nil
}

// generateCode returns length random digits without a leading zero
func generateCode(length int) (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, low).String(), nil
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
