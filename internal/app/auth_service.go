// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"astroplanner/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrEmailTaken indicates that a user with this email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken indicates a missing, malformed, expired or revoked token.
	ErrInvalidToken = errors.New("could not validate credentials")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// DefaultTokenTTL is used when NewAuthService is given a non-positive TTL.
const DefaultTokenTTL = 60 * time.Minute

// AuthService handles registration, login and bearer token checks. Tokens are
// HS256 JWTs whose jti is recorded so logout can revoke them.
type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, tokens domain.TokenRepository, secret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("auth"),
	}
}

// Register creates a user with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("a valid email is required")
	}
	if password == "" {
		return nil, domain.Invalid("password is required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, email, string(hash))
}

// Login checks a password and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || user == nil || user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issue(ctx, user.ID)
}

// LoginWithEmail issues a token for an identity already verified elsewhere
// (single sign-on), creating the user on first sight. SSO users have no
// password and cannot use Login.
func (s *AuthService) LoginWithEmail(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		user, err = s.users.Create(ctx, email, "")
		if err != nil {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
			if err != nil || user == nil {
				return "", fmt.Errorf("provision %s: %w", email, err)
			}
		}
		s.logger.Info("Provisioned SSO user", zap.Int64("user_id", user.ID))
	}
	return s.issue(ctx, user.ID)
}

// Validate parses a bearer token and returns its user.
func (s *AuthService) Validate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	rec, err := s.tokens.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil || !s.now().Before(rec.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID != rec.UserID {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// Logout revokes a token. Revoking an unknown or expired token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.tokens.Delete(ctx, claims.ID)
}

// PurgeExpired removes token records past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged expired tokens", zap.Int64("count", n))
	}
	return n, nil
}

func (s *AuthService) issue(ctx context.Context, userID int64) (string, error) {
	now := s.now()
	rec := domain.AccessToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        rec.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *AuthService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
