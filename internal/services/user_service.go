package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/auth"
	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ProfileInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

var errBadCredentials = apperr.UnauthorizedError{Msg: "Incorrect email or password"}

type UserService struct {
	users  UserRepository
	tokens *auth.Manager
}

func NewUserService(users UserRepository, tokens *auth.Manager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates a staff account. The very first account becomes admin so
// a fresh install can be bootstrapped.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, apperr.ValidationError{Field: "email", Msg: "is not a valid address", Err: err}
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}

	existing, err := s.users.List(ctx, store.Page{Limit: 1})
	if err != nil {
		return nil, internal(err)
	}
	role := models.RoleStaff
	if len(existing) == 0 {
		role = models.RoleAdmin
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hashing password", err)
	}
	u := &models.User{
		Email:    addr.Address,
		Password: hash,
		FullName: strings.TrimSpace(in.FullName),
		Phone:    strings.TrimSpace(in.Phone),
		Role:     role,
		IsActive: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, duplicate(err, "duplicate_email", "Email already registered")
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("Register: user created")
	return u, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (auth.Tokens, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return auth.Tokens{}, errBadCredentials
	}
	if err != nil {
		return auth.Tokens{}, internal(err)
	}
	if !auth.CheckPassword(u.Password, in.Password) {
		return auth.Tokens{}, errBadCredentials
	}
	if !u.IsActive {
		return auth.Tokens{}, apperr.ForbiddenError{Msg: "Inactive user"}
	}
	return s.issue(u)
}

// Refresh swaps a refresh token for a new pair. The old refresh token is
// revoked so it cannot be replayed.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	claims, err := s.tokens.Parse(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		return auth.Tokens{}, err
	}
	u, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return auth.Tokens{}, err
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return auth.Tokens{}, internal(err)
	}
	return s.issue(u)
}

// Logout revokes the access token and, when given, the refresh token.
func (s *UserService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, access); err != nil {
		return internal(err)
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.Parse(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		// an already revoked or expired refresh token needs no further work
		return nil
	}
	return internal(s.tokens.Revoke(ctx, claims))
}

func (s *UserService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, in ProfileInput) (*models.User, error) {
	u, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, apperr.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
		}
		if u.Password, err = auth.HashPassword(*in.Password); err != nil {
			return nil, apperr.Internal("hashing password", err)
		}
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, p store.Page) ([]models.User, error) {
	out, err := s.users.List(ctx, p)
	return out, internal(err)
}

func (s *UserService) issue(u *models.User) (auth.Tokens, error) {
	tokens, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return auth.Tokens{}, apperr.Internal("signing token", err)
	}
	return tokens, nil
}

func (s *UserService) userFromClaims(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrInvalidToken
	}
	if err != nil {
		return nil, internal(err)
	}
	if !u.IsActive {
		return nil, apperr.ForbiddenError{Msg: "Inactive user"}
	}
	return u, nil
}
