package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/service"
)

// UserStore implements service.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

var _ service.UserStore = (*UserStore)(nil)

// NewUserStore creates a PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// GetUser retrieves a user by ID.
func (s *UserStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role
		FROM users
		WHERE id = $1`,
		userID,
	), "user.get", userID)
}

// GetUserByEmail retrieves a user by email, for login.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role
		FROM users
		WHERE email = $1`,
		email,
	), "user.get_by_email", email)
}

// CreateUser inserts a new user. A duplicate email surfaces as a conflict.
func (s *UserStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		user.Email, user.Name, user.PasswordHash, string(user.Role),
	)
	if err := row.Scan(&user.ID); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, domain.Conflict("user.create", "email already registered")
		}
		return nil, domain.Internal(err, "user.create", "failed to create user")
	}
	return user, nil
}

func (s *UserStore) scanOne(row pgx.Row, op, identifier string) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "user", identifier)
		}
		return nil, domain.Internal(err, op, "failed to get user")
	}
	u.Role = domain.Role(role)
	return &u, nil
}
