// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"instaup-service/internal/core"
	authdomain "instaup-service/internal/domain/auth"
	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/domain/user"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/pkg/ratelimit"
	"instaup-service/internal/pkg/token"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the user repository the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// SessionStore owns the authoritative session rows.
type SessionStore interface {
	Upsert(ctx context.Context, userID, jti string, expiresAt time.Time) error
	Delete(ctx context.Context, userID string) error
}

type AuthService struct {
	users       UserStore
	sessions    SessionStore
	registry    *core.Registry
	tokens      *token.Manager
	limiter     *ratelimit.Limiter
	signupBonus int64
	logger      *zap.Logger
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	registry *core.Registry,
	tokens *token.Manager,
	limiter *ratelimit.Limiter,
	signupBonus int64,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		registry:    registry,
		tokens:      tokens,
		limiter:     limiter,
		signupBonus: signupBonus,
		logger:      logger,
	}
}

// Signup registers a new account, grants the welcome balance and opens the
// session core.
func (s *AuthService) Signup(ctx context.Context, in authdomain.SignupInput) (*authdomain.Result, error) {
	if in.Password != in.ConfirmPassword {
		return nil, apperr.ErrPasswordMismatch
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           ulid.Make().String(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hashed),
		Balance:      s.signupBonus,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("user_id", u.ID),
		zap.Int64("signup_bonus", s.signupBonus),
	)

	return s.openSession(ctx, u)
}

// Login authenticates an account and opens (or rejoins) its session core.
func (s *AuthService) Login(ctx context.Context, in authdomain.LoginInput, ip string) (*authdomain.Result, error) {
	allowed, err := s.limiter.CheckLoginAttempt(ctx, ip, in.Email)
	if err != nil {
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, apperr.ErrRateLimited
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	return s.openSession(ctx, u)
}

func (s *AuthService) openSession(ctx context.Context, u *user.User) (*authdomain.Result, error) {
	signed, jti, expiresAt, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Upsert(ctx, u.ID, jti, expiresAt); err != nil {
		return nil, err
	}

	seed := domain.Session{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Balance:      u.Balance,
		IsAdmin:      u.IsAdmin,
		LastActivity: time.Now(),
		ExpiresAt:    expiresAt,
	}
	c := s.registry.Open(ctx, seed)

	snap := seed
	if cur, ok := c.Session.Current(); ok {
		snap = cur
	}

	return &authdomain.Result{Token: signed, Session: snap}, nil
}

// Logout deletes the authoritative session and tears down the cached core.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return err
	}
	s.registry.Close(userID)
	s.logger.Info("logged out", zap.String("user_id", userID))
	return nil
}

// Authenticate resolves a bearer token to the live session core. A valid
// token whose core is gone means the session expired or was logged out
// elsewhere.
func (s *AuthService) Authenticate(raw string) (*core.Core, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	c, ok := s.registry.Get(claims.UserID)
	if !ok {
		return nil, apperr.ErrSessionExpired
	}
	return c, nil
}
