package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timonlabs/studyshare/internal/models"
)

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			role       VARCHAR(10)  NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

// CreateUser inserts a new user. A taken username yields ErrDuplicateUser.
func (s *PostgresStore) CreateUser(ctx context.Context, username, hashedPassword, role string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, role, created_at`,
		username, hashedPassword, role,
	).Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx,
		`SELECT id, username, password, role, created_at FROM users WHERE username = $1`,
		username)
}

// GetUserByUsernameAndRole looks a user up by the (username, role) pair the
// login flow asserts. A role mismatch behaves like an unknown user.
func (s *PostgresStore) GetUserByUsernameAndRole(ctx context.Context, username, role string) (*models.User, error) {
	return s.getUser(ctx,
		`SELECT id, username, password, role, created_at FROM users WHERE username = $1 AND role = $2`,
		username, role)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx,
		`SELECT id, username, password, role, created_at FROM users WHERE id = $1`,
		id)
}

// getUser runs a single-row user query, mapping no-rows to (nil, nil).
func (s *PostgresStore) getUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
