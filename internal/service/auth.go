package service

import (
	"context"
	"log/slog"
	"net/mail"

	"github.com/hojin-choi/oreum/internal/auth"
	"github.com/hojin-choi/oreum/internal/domain"
)

// AuthService handles registration and login.
type AuthService struct {
	logger *slog.Logger
	users  UserStore
	tokens *auth.TokenIssuer
}

// NewAuthService creates the auth service.
func NewAuthService(logger *slog.Logger, users UserStore, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{logger: logger, users: users, tokens: tokens}
}

// RegisterParams is a signup submission.
type RegisterParams struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a customer account and returns it with a signed token.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*domain.User, string, error) {
	const op = "auth.register"

	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, "", domain.Invalid(op, "invalid email address")
	}
	if params.Name == "" {
		return nil, "", domain.Invalid(op, "name is required")
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, "", domain.Invalid(op, err.Error())
	}

	user, err := s.users.CreateUser(ctx, &domain.User{
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, "", domain.Internal(err, op, "failed to issue token")
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// Unknown email and wrong password produce the same error, so accounts
// cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "auth.login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, "", domain.Unauthorized(op, "invalid email or password")
		}
		return nil, "", err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, "", domain.Unauthorized(op, "invalid email or password")
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, "", domain.Internal(err, op, "failed to issue token")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return user, token, nil
}
