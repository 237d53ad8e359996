package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/mock"
	"github.com/MKhiriev/snippet-keeper/internal/store"
	"github.com/MKhiriev/snippet-keeper/models"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testAppConfig() config.App {
	return config.App{
		TokenSignKey:         "test-sign-key",
		TokenIssuer:          "snippet-keeper-test",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		BcryptCost:           bcrypt.MinCost,
		LockoutThreshold:     5,
		LockoutDuration:      30 * time.Minute,
		ResetTokenTTL:        20 * time.Minute,
		Version:              "test",
	}
}

// ── gomock wiring ──

type authMocks struct {
	users       *mock.MockUserRepository
	resetTokens *mock.MockResetTokenRepository
	hasher      *mock.MockPasswordHasher
	issuer      *mock.MockTokenIssuer
	mailer      *mock.MockMailer
}

func newMockedAuthService(t *testing.T, cfg config.App) (*authService, authMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := authMocks{
		users:       mock.NewMockUserRepository(ctrl),
		resetTokens: mock.NewMockResetTokenRepository(ctrl),
		hasher:      mock.NewMockPasswordHasher(ctrl),
		issuer:      mock.NewMockTokenIssuer(ctrl),
		mailer:      mock.NewMockMailer(ctrl),
	}

	svc := NewAuthService(m.users, m.resetTokens, m.hasher, m.issuer, m.mailer, cfg, logger.Nop()).(*authService)
	svc.now = func() time.Time { return fixedNow }

	return svc, m
}

func (m authMocks) expectTokens(userID, email string) {
	m.issuer.EXPECT().IssueAccessToken(userID, email).Return(models.Token{SignedString: "access-" + userID, UserID: userID}, nil)
	m.issuer.EXPECT().IssueRefreshToken(userID).Return(models.Token{SignedString: "refresh-" + userID, UserID: userID}, nil)
}

func returnSavedUser(_ context.Context, user models.User) (models.User, error) {
	return user, nil
}

// ── in-memory collaborators for end-to-end flows ──

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memUserRepository struct {
	mu     sync.Mutex
	seq    int
	users  map[string]models.User
	writes int
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: make(map[string]models.User)}
}

func (r *memUserRepository) CreateUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return models.User{}, store.ErrEmailAlreadyExists
		}
		if u.Username == user.Username {
			return models.User{}, store.ErrUsernameAlreadyExists
		}
	}

	r.seq++
	user.UserID = "user-" + strconv.Itoa(r.seq)
	r.users[user.UserID] = user
	r.writes++

	return user, nil
}

func (r *memUserRepository) find(match func(models.User) bool) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}

func (r *memUserRepository) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *memUserRepository) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *memUserRepository) FindUserByID(_ context.Context, userID string) (models.User, error) {
	return r.find(func(u models.User) bool { return u.UserID == userID })
}

func (r *memUserRepository) SaveUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserID]; !ok {
		return models.User{}, store.ErrUserNotFound
	}
	r.users[user.UserID] = user
	r.writes++

	return user, nil
}

func (r *memUserRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type memResetTokenRepository struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]models.ResetToken
	users  *memUserRepository
}

func newMemResetTokenRepository(users *memUserRepository) *memResetTokenRepository {
	return &memResetTokenRepository{tokens: make(map[string]models.ResetToken), users: users}
}

func (r *memResetTokenRepository) CreateResetToken(_ context.Context, token models.ResetToken) (models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	token.ID = "token-" + strconv.Itoa(r.seq)
	r.tokens[token.ID] = token

	return token, nil
}

func (r *memResetTokenRepository) FindValidResetToken(_ context.Context, tokenHash string, now time.Time) (models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && !t.IsExpired(now) {
			return t, nil
		}
	}
	return models.ResetToken{}, store.ErrResetTokenNotFound
}

func (r *memResetTokenRepository) DeleteResetToken(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, tokenID)
	return nil
}

func (r *memResetTokenRepository) ConsumeResetToken(ctx context.Context, tokenID string, user models.User, now time.Time) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenID]
	if !ok || t.IsExpired(now) {
		return models.User{}, store.ErrResetTokenNotFound
	}

	saved, err := r.users.SaveUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	delete(r.tokens, tokenID)

	return saved, nil
}

func (r *memResetTokenRepository) DeleteExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.IsExpired(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memResetTokenRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type sentEmail struct {
	to, subject, html string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *captureMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, html: html})
	return nil
}

type inMemoryEnv struct {
	svc         *authService
	users       *memUserRepository
	resetTokens *memResetTokenRepository
	mailer      *captureMailer
	clock       *clock
}

// newInMemoryEnv wires the service to in-memory stores, the real bcrypt
// hasher and the real JWT issuer.
func newInMemoryEnv(cfg config.App) *inMemoryEnv {
	users := newMemUserRepository()
	env := &inMemoryEnv{
		users:       users,
		resetTokens: newMemResetTokenRepository(users),
		mailer:      &captureMailer{},
		clock:       &clock{now: fixedNow},
	}

	env.svc = NewAuthService(
		env.users,
		env.resetTokens,
		NewBcryptHasher(cfg.BcryptCost),
		NewJWTTokenIssuer(cfg),
		env.mailer,
		cfg,
		logger.Nop(),
	).(*authService)
	env.svc.now = env.clock.Now

	return env
}
