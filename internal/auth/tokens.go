// Package auth issues and checks the API's bearer tokens and password hashes.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"matatu_manager/internal/apperr"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

var (
	ErrInvalidToken = apperr.UnauthorizedError{Msg: "Invalid or expired token"}
	ErrRevokedToken = apperr.UnauthorizedError{Msg: "Token has been revoked"}
)

type Claims struct {
	UserID string    `json:"user_id"`
	Role   string    `json:"role"`
	Kind   TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// Tokens is the pair handed out at login and refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	denylist   Denylist
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration, denylist Denylist) *Manager {
	if denylist == nil {
		denylist = NewMemoryDenylist()
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		denylist:   denylist,
		now:        time.Now,
	}
}

// Issue signs a fresh access and refresh token for the user.
func (m *Manager) Issue(userID uuid.UUID, role string) (Tokens, error) {
	access, err := m.sign(userID, role, AccessToken, m.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := m.sign(userID, role, RefreshToken, m.refreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *Manager) sign(userID uuid.UUID, role string, kind TokenKind, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID.String(),
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates a token of the given kind and checks it was not revoked.
func (m *Manager) Parse(ctx context.Context, tokenStr string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, apperr.UnauthorizedError{Msg: ErrInvalidToken.Msg, Err: err}
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := m.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal("checking token denylist", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke denylists the token until it would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return nil
	}
	return m.denylist.Add(ctx, claims.ID, ttl)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
