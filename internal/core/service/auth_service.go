package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/taskboard/authd/internal/core/domain"
	"github.com/taskboard/authd/internal/core/ports"
	"github.com/taskboard/authd/internal/pkg/metrics"
)

const (
	defaultTokenTTL        = time.Hour
	defaultMinSecretLength = 8
	defaultIssuer          = "authd"

	// bcrypt ignores everything past 72 bytes; longer secrets are rejected
	// rather than silently truncated.
	maxSecretBytes = 72

	timingEqualizerSecret = "authd-timing-equalizer"
)

var identifierValidator = validator.New()

// SecretHasher hashes and compares secrets.
type SecretHasher interface {
	Hash(ctx context.Context, secret string) (string, error)
	Compare(ctx context.Context, secret, hash string) (bool, error)
}

// AttemptLimiter throttles repeated failed logins per identifier (Redis).
type AttemptLimiter interface {
	Allowed(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

// Config carries the process-wide settings of the authentication core. It is
// built once at startup and injected; the signing key is never logged.
type Config struct {
	SigningKey      []byte
	Issuer          string
	TokenTTL        time.Duration
	ClockSkew       time.Duration
	MinSecretLength int
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// AuthService implements registration, login and token issuance/validation.
type AuthService struct {
	store     ports.CredentialStore
	hasher    SecretHasher
	limiter   AttemptLimiter
	tokens    *tokenCodec
	minSecret int
	log       zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the service. limiter may be nil to disable login
// throttling.
func NewAuthService(
	store ports.CredentialStore,
	hasher SecretHasher,
	limiter AttemptLimiter,
	cfg Config,
	log zerolog.Logger,
) (*AuthService, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("auth service: signing key must be provided")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.MinSecretLength <= 0 {
		cfg.MinSecretLength = defaultMinSecretLength
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.ClockSkew < 0 {
		cfg.ClockSkew = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	return &AuthService{
		store:   store,
		hasher:  hasher,
		limiter: limiter,
		tokens: &tokenCodec{
			key:    key,
			issuer: cfg.Issuer,
			ttl:    cfg.TokenTTL,
			leeway: cfg.ClockSkew,
			now:    cfg.Now,
		},
		minSecret: cfg.MinSecretLength,
		log:       log,
	}, nil
}

// Register validates the input, hashes the secret and creates the account.
// Validation failures are reported before any hashing or storage access.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (domain.PublicAccountView, error) {
	identifier, err := validateIdentifier(in.Identifier)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid_identifier").Inc()
		return domain.PublicAccountView{}, err
	}
	if err := s.checkSecret(in.Secret); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("weak_secret").Inc()
		return domain.PublicAccountView{}, err
	}

	hash, err := s.hasher.Hash(ctx, in.Secret)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return domain.PublicAccountView{}, fmt.Errorf("register: %w", err)
	}

	account, err := s.store.Create(ctx, identifier, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentifier) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return domain.PublicAccountView{}, domain.ErrDuplicateIdentifier
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return domain.PublicAccountView{}, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("account_id", account.ID).Msg("account registered")
	return account.Public(), nil
}

// Login verifies the secret and issues a session token. An unknown
// identifier and a wrong secret both yield ErrInvalidCredentials; the former
// additionally wraps ErrAccountNotFound for diagnostics.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*domain.SessionToken, error) {
	identifier := domain.NormalizeIdentifier(in.Identifier)
	if identifier == "" || in.Secret == "" || len(in.Secret) > maxSecretBytes {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !s.allowed(ctx, identifier) {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return nil, domain.ErrTooManyAttempts
	}

	account, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.equalizeTiming(ctx, in.Secret)
			s.recordFailure(ctx, identifier)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, domain.ErrAccountNotFound)
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, in.Secret, account.SecretHash)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		s.recordFailure(ctx, identifier)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	s.resetFailures(ctx, identifier)

	token, err := s.IssueToken(account.ID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("account_id", account.ID).Time("expires_at", token.ExpiresAt).Msg("session issued")
	return token, nil
}

// IssueToken mints a signed token for accountID valid for the configured TTL.
func (s *AuthService) IssueToken(accountID string) (*domain.SessionToken, error) {
	return s.tokens.issue(accountID)
}

// ValidateToken verifies signature and validity window and returns the claims.
func (s *AuthService) ValidateToken(token string) (*domain.Claims, error) {
	claims, err := s.tokens.validate(token)
	metrics.TokenValidationsTotal.WithLabelValues(tokenResult(err)).Inc()
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) checkSecret(secret string) error {
	if utf8.RuneCountInString(secret) < s.minSecret {
		return fmt.Errorf("%w: must be at least %d characters", domain.ErrWeakSecret, s.minSecret)
	}
	if len(secret) > maxSecretBytes {
		return fmt.Errorf("%w: must be at most %d bytes", domain.ErrWeakSecret, maxSecretBytes)
	}
	return nil
}

// equalizeTiming runs a throwaway comparison so that a login for an unknown
// identifier costs the same as one with a wrong secret.
func (s *AuthService) equalizeTiming(ctx context.Context, secret string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.Background(), timingEqualizerSecret)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare timing equalizer hash")
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Compare(ctx, secret, s.dummyHash)
	}
}

func (s *AuthService) allowed(ctx context.Context, identifier string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allowed(ctx, identifier)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		return true
	}
	return ok
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, identifier); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

func (s *AuthService) resetFailures(ctx context.Context, identifier string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, identifier); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login failures")
	}
}

// validateIdentifier applies the identifier policy: normalized, a valid
// email address, at most 254 bytes.
func validateIdentifier(raw string) (string, error) {
	identifier := domain.NormalizeIdentifier(raw)
	if identifier == "" {
		return "", fmt.Errorf("%w: must not be empty", domain.ErrInvalidIdentifier)
	}
	if err := identifierValidator.Var(identifier, "email,max=254"); err != nil {
		return "", fmt.Errorf("%w: must be a valid email address", domain.ErrInvalidIdentifier)
	}
	return identifier, nil
}

func tokenResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenNotYetValid):
		return "not_yet_valid"
	default:
		return "malformed"
	}
}
