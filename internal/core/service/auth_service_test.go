package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/authd/internal/core/domain"
	"github.com/taskboard/authd/internal/core/ports"
	"github.com/taskboard/authd/internal/infrastructure/db/memory"
)

const testKey = "test-signing-key-0123456789abcdef"

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCredentialStore struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	createCalls int
	findCalls   int
	createErr   error
	findErr     error
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{accounts: make(map[string]*domain.Account)}
}

func (r *stubCredentialStore) Create(_ context.Context, identifier, secretHash string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.accounts[identifier]; exists {
		return nil, domain.ErrDuplicateIdentifier
	}
	acc := &domain.Account{ID: identifier, Identifier: identifier, SecretHash: secretHash}
	r.accounts[identifier] = acc
	clone := *acc
	return &clone, nil
}

func (r *stubCredentialStore) FindByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	acc, ok := r.accounts[identifier]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *acc
	return &clone, nil
}

func (r *stubCredentialStore) Ping(context.Context) error { return nil }

type stubLimiter struct {
	blocked  bool
	allowErr error
	failures []string
	resets   []string
}

func (l *stubLimiter) Allowed(_ context.Context, _ string) (bool, error) {
	return !l.blocked, l.allowErr
}

func (l *stubLimiter) RecordFailure(_ context.Context, identifier string) error {
	l.failures = append(l.failures, identifier)
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, identifier string) error {
	l.resets = append(l.resets, identifier)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestService(t *testing.T, store ports.CredentialStore, limiter AttemptLimiter, clock *fakeClock) *AuthService {
	t.Helper()
	cfg := Config{
		SigningKey: []byte(testKey),
		Issuer:     "authd-test",
		TokenTTL:   time.Hour,
	}
	if clock != nil {
		cfg.Now = clock.Now
	}
	svc, err := NewAuthService(store, NewBcryptHasher(bcrypt.MinCost, nil), limiter, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func mustRegister(t *testing.T, svc *AuthService, identifier, secret string) domain.PublicAccountView {
	t.Helper()
	view, err := svc.Register(context.Background(), ports.RegisterInput{Identifier: identifier, Secret: secret})
	if err != nil {
		t.Fatalf("register %s: %v", identifier, err)
	}
	return view
}

func mustLogin(t *testing.T, svc *AuthService, identifier, secret string) *domain.SessionToken {
	t.Helper()
	token, err := svc.Login(context.Background(), ports.LoginInput{Identifier: identifier, Secret: secret})
	if err != nil {
		t.Fatalf("login %s: %v", identifier, err)
	}
	return token
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewAuthService_RequiresSigningKey(t *testing.T) {
	_, err := NewAuthService(newStubCredentialStore(), NewBcryptHasher(bcrypt.MinCost, nil), nil, Config{}, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for empty signing key")
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubCredentialStore()
	svc := newTestService(t, repo, nil, nil)

	view := mustRegister(t, svc, "  Alice@Example.com ", "Str0ngPass!")
	if view.Identifier != "alice@example.com" {
		t.Fatalf("expected normalized identifier, got %q", view.Identifier)
	}
	if view.ID == "" {
		t.Fatalf("expected id to be assigned")
	}

	stored := repo.accounts["alice@example.com"]
	if stored == nil {
		t.Fatalf("account not persisted")
	}
	if stored.SecretHash == "Str0ngPass!" {
		t.Fatalf("expected secret to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.SecretHash), []byte("Str0ngPass!")); err != nil {
		t.Fatalf("stored hash does not match secret: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		secret     string
		want       error
	}{
		{"empty identifier", "", "Str0ngPass!", domain.ErrInvalidIdentifier},
		{"blank identifier", "   ", "Str0ngPass!", domain.ErrInvalidIdentifier},
		{"malformed identifier", "not-an-email", "Str0ngPass!", domain.ErrInvalidIdentifier},
		{"oversized identifier", strings.Repeat("a", 250) + "@x.com", "Str0ngPass!", domain.ErrInvalidIdentifier},
		{"short secret", "bob@example.com", "short", domain.ErrWeakSecret},
		{"empty secret", "bob@example.com", "", domain.ErrWeakSecret},
		{"secret over bcrypt limit", "bob@example.com", strings.Repeat("x", 73), domain.ErrWeakSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubCredentialStore()
			svc := newTestService(t, repo, nil, nil)

			_, err := svc.Register(context.Background(), ports.RegisterInput{Identifier: tt.identifier, Secret: tt.secret})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if repo.createCalls != 0 {
				t.Fatalf("validation failure must not reach the store")
			}
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubCredentialStore()
	svc := newTestService(t, repo, nil, nil)

	mustRegister(t, svc, "bob@example.com", "password-one")

	for _, identifier := range []string{"bob@example.com", "BOB@example.com"} {
		_, err := svc.Register(context.Background(), ports.RegisterInput{Identifier: identifier, Secret: "another-secret"})
		if !errors.Is(err, domain.ErrDuplicateIdentifier) {
			t.Fatalf("expected ErrDuplicateIdentifier for %q, got %v", identifier, err)
		}
	}
}

func TestAuthService_Register_StoreFailureIsInternal(t *testing.T) {
	repo := newStubCredentialStore()
	repo.createErr = errors.New("connection reset")
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.Register(context.Background(), ports.RegisterInput{Identifier: "carol@example.com", Secret: "Str0ngPass!"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, domain.ErrDuplicateIdentifier) || errors.Is(err, domain.ErrInvalidIdentifier) {
		t.Fatalf("storage failure must not map to a domain error: %v", err)
	}
}

func TestAuthService_Register_SaltUniqueness(t *testing.T) {
	repo := newStubCredentialStore()
	svc := newTestService(t, repo, nil, nil)

	mustRegister(t, svc, "one@example.com", "SameSecret1")
	mustRegister(t, svc, "two@example.com", "SameSecret1")

	if repo.accounts["one@example.com"].SecretHash == repo.accounts["two@example.com"].SecretHash {
		t.Fatalf("expected distinct hashes for the same secret")
	}

	mustLogin(t, svc, "one@example.com", "SameSecret1")
	mustLogin(t, svc, "two@example.com", "SameSecret1")
}

func TestAuthService_Register_ConcurrentSameIdentifier(t *testing.T) {
	store := memory.NewCredentialStore()
	svc := newTestService(t, store, nil, nil)

	const callers = 50
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
		others     []error
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Register(context.Background(), ports.RegisterInput{Identifier: "a@x.com", Secret: "Str0ngPass!"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrDuplicateIdentifier):
				duplicates++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || duplicates != callers-1 || len(others) != 0 {
		t.Fatalf("expected 1 success and %d duplicates, got %d/%d (others: %v)", callers-1, successes, duplicates, others)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubCredentialStore()
	svc := newTestService(t, repo, nil, nil)

	view := mustRegister(t, svc, "carol@example.com", "s3cret-pass")
	token := mustLogin(t, svc, "Carol@Example.com", "s3cret-pass")

	if token.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if token.AccountID != view.ID {
		t.Fatalf("expected token for %s, got %s", view.ID, token.AccountID)
	}
	if got := token.ExpiresAt.Sub(token.IssuedAt); got != time.Hour {
		t.Fatalf("expected 1h validity, got %s", got)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testKey), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != view.ID {
		t.Fatalf("expected sub %s, got %v", view.ID, claims["sub"])
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Fatalf("expected token id")
	}
}

func TestAuthService_Login_WrongSecretIndistinguishableFromUnknownAccount(t *testing.T) {
	repo := newStubCredentialStore()
	svc := newTestService(t, repo, nil, nil)

	mustRegister(t, svc, "dave@example.com", "goodpass1")

	_, wrongSecret := svc.Login(context.Background(), ports.LoginInput{Identifier: "dave@example.com", Secret: "badpass12"})
	_, unknown := svc.Login(context.Background(), ports.LoginInput{Identifier: "ghost@example.com", Secret: "goodpass1"})

	if !errors.Is(wrongSecret, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong secret, got %v", wrongSecret)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", unknown)
	}
	if !errors.Is(unknown, domain.ErrAccountNotFound) {
		t.Fatalf("unknown account should stay diagnosable internally, got %v", unknown)
	}
	if errors.Is(wrongSecret, domain.ErrAccountNotFound) {
		t.Fatalf("wrong secret must not claim the account is missing")
	}
}

func TestAuthService_Login_RejectsEmptyInput(t *testing.T) {
	repo := newStubCredentialStore()
	svc := newTestService(t, repo, nil, nil)

	for _, in := range []ports.LoginInput{
		{Identifier: "", Secret: "whatever1"},
		{Identifier: "dave@example.com", Secret: ""},
	} {
		if _, err := svc.Login(context.Background(), in); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", in, err)
		}
	}
	if repo.findCalls != 0 {
		t.Fatalf("empty input must not reach the store")
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	repo := newStubCredentialStore()
	repo.findErr = errors.New("timeout")
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.Login(context.Background(), ports.LoginInput{Identifier: "dave@example.com", Secret: "goodpass1"})
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAuthService_Login_Throttle(t *testing.T) {
	repo := newStubCredentialStore()
	limiter := &stubLimiter{}
	svc := newTestService(t, repo, limiter, nil)

	mustRegister(t, svc, "erin@example.com", "goodpass1")

	_, _ = svc.Login(context.Background(), ports.LoginInput{Identifier: "erin@example.com", Secret: "badpass12"})
	_, _ = svc.Login(context.Background(), ports.LoginInput{Identifier: "nobody@example.com", Secret: "badpass12"})
	if len(limiter.failures) != 2 {
		t.Fatalf("expected both failures recorded, got %v", limiter.failures)
	}

	mustLogin(t, svc, "erin@example.com", "goodpass1")
	if len(limiter.resets) != 1 || limiter.resets[0] != "erin@example.com" {
		t.Fatalf("expected counter reset after success, got %v", limiter.resets)
	}

	limiter.blocked = true
	before := repo.findCalls
	_, err := svc.Login(context.Background(), ports.LoginInput{Identifier: "erin@example.com", Secret: "goodpass1"})
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if repo.findCalls != before {
		t.Fatalf("throttled login must not reach the store")
	}
}

func TestAuthService_Login_ThrottleErrorFailsOpen(t *testing.T) {
	repo := newStubCredentialStore()
	limiter := &stubLimiter{blocked: true, allowErr: errors.New("redis down")}
	svc := newTestService(t, repo, limiter, nil)

	mustRegister(t, svc, "frank@example.com", "goodpass1")
	mustLogin(t, svc, "frank@example.com", "goodpass1")
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

func TestAuthService_ValidateToken_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, newStubCredentialStore(), nil, clock)

	token, err := svc.IssueToken("42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.ValidateToken(token.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.AccountID != "42" {
		t.Fatalf("expected account 42, got %s", claims.AccountID)
	}
	if !claims.IssuedAt.Equal(clock.Now()) || !claims.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected window: %s - %s", claims.IssuedAt, claims.ExpiresAt)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected token id")
	}
}

func TestAuthService_ValidateToken_Expiry(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, newStubCredentialStore(), nil, clock)

	token, err := svc.IssueToken("7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.Advance(time.Hour - time.Second)
	if _, err := svc.ValidateToken(token.Token); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	clock.Advance(time.Second)
	if _, err := svc.ValidateToken(token.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at expiresAt, got %v", err)
	}

	clock.Advance(24 * time.Hour)
	if _, err := svc.ValidateToken(token.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthService_ValidateToken_ClockSkew(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewAuthService(newStubCredentialStore(), NewBcryptHasher(bcrypt.MinCost, nil), nil, Config{
		SigningKey: []byte(testKey),
		TokenTTL:   time.Hour,
		ClockSkew:  30 * time.Second,
		Now:        clock.Now,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	token, err := svc.IssueToken("7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.Advance(time.Hour + 10*time.Second)
	if _, err := svc.ValidateToken(token.Token); err != nil {
		t.Fatalf("expected token valid within skew, got %v", err)
	}

	clock.Advance(time.Minute)
	if _, err := svc.ValidateToken(token.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired beyond skew, got %v", err)
	}
}

func TestAuthService_ValidateToken_NotYetValid(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, newStubCredentialStore(), nil, clock)

	clock.Advance(10 * time.Minute)
	token, err := svc.IssueToken("7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock.Advance(-10 * time.Minute)

	if _, err := svc.ValidateToken(token.Token); !errors.Is(err, domain.ErrTokenNotYetValid) {
		t.Fatalf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestAuthService_ValidateToken_TamperedSignature(t *testing.T) {
	svc := newTestService(t, newStubCredentialStore(), nil, nil)

	token, err := svc.IssueToken("7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.ValidateToken(tampered); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestAuthService_ValidateToken_OnlyCanonicalSignatureAccepted(t *testing.T) {
	svc := newTestService(t, newStubCredentialStore(), nil, nil)

	token, err := svc.IssueToken("7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	last := len(token.Token) - 1
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for _, r := range alphabet {
		if byte(r) == token.Token[last] {
			continue
		}
		variant := token.Token[:last] + string(r)
		_, err := svc.ValidateToken(variant)
		if !errors.Is(err, domain.ErrInvalidSignature) && !errors.Is(err, domain.ErrMalformedToken) {
			t.Fatalf("signature ending in %q: expected rejection, got %v", r, err)
		}
	}
}

func TestAuthService_ValidateToken_TamperedPayload(t *testing.T) {
	svc := newTestService(t, newStubCredentialStore(), nil, nil)

	victim, err := svc.IssueToken("1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	attacker, err := svc.IssueToken("2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	v := strings.Split(victim.Token, ".")
	a := strings.Split(attacker.Token, ".")
	forged := a[0] + "." + v[1] + "." + a[2]

	if _, err := svc.ValidateToken(forged); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestAuthService_ValidateToken_ForeignKeyOrAlgorithm(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, newStubCredentialStore(), nil, clock)

	claims := jwt.RegisteredClaims{
		Subject:   "7",
		Issuer:    "authd-test",
		IssuedAt:  jwt.NewNumericDate(clock.Now()),
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-key-entirely-0123456789"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateToken(otherKey); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for foreign key, got %v", err)
	}

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testKey))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateToken(otherAlg); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for HS512, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateToken(none); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for alg none, got %v", err)
	}
}

func TestAuthService_ValidateToken_ClaimProblems(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, newStubCredentialStore(), nil, clock)

	sign := func(c jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testKey))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	now := clock.Now()

	tests := map[string]string{
		"wrong issuer": sign(jwt.RegisteredClaims{
			Subject: "7", Issuer: "someone-else",
			IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}),
		"missing subject": sign(jwt.RegisteredClaims{
			Issuer:   "authd-test",
			IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}),
		"missing expiry": sign(jwt.RegisteredClaims{
			Subject: "7", Issuer: "authd-test",
			IssuedAt: jwt.NewNumericDate(now),
		}),
	}
	for name, token := range tests {
		if _, err := svc.ValidateToken(token); !errors.Is(err, domain.ErrMalformedToken) {
			t.Errorf("%s: expected ErrMalformedToken, got %v", name, err)
		}
	}
}

func TestAuthService_ValidateToken_Malformed(t *testing.T) {
	svc := newTestService(t, newStubCredentialStore(), nil, nil)

	for _, token := range []string{"", "not-a-token", "a.b.c", "a.b"} {
		if _, err := svc.ValidateToken(token); !errors.Is(err, domain.ErrMalformedToken) {
			t.Errorf("%q: expected ErrMalformedToken, got %v", token, err)
		}
	}
}

// ---------------------------------------------------------------------------
// End-to-end scenario
// ---------------------------------------------------------------------------

func TestAuthService_AliceScenario(t *testing.T) {
	clock := newFakeClock()
	svc := newTestService(t, memory.NewCredentialStore(), nil, clock)

	view := mustRegister(t, svc, "alice@example.com", "Str0ngPass!")
	if view.ID != "1" {
		t.Fatalf("expected id 1, got %q", view.ID)
	}

	token := mustLogin(t, svc, "alice@example.com", "Str0ngPass!")

	claims, err := svc.ValidateToken(token.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.AccountID != "1" {
		t.Fatalf("expected account 1, got %s", claims.AccountID)
	}

	if _, err := svc.Login(context.Background(), ports.LoginInput{Identifier: "alice@example.com", Secret: "WrongPass"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	clock.Advance(time.Hour + time.Minute)
	if _, err := svc.ValidateToken(token.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
