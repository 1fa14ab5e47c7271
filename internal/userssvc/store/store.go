// Package store is Users' Postgres persistence layer: plain identity CRUD
// over a single users table. Grounded on the teacher's
// internal/infrastructure/database/postgres/postgres.go create/get
// pattern, narrowed since Users carries no balance or concurrency
// requirements of its own.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/userssvc/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, username, passwordHash string, role domain.Role) (string, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return "", apierror.StorageFailure("failed to check for duplicate username")
	}
	if exists {
		return "", domain.ErrDuplicate
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role, disabled, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)`,
		id, username, passwordHash, role, createdAt)
	if err != nil {
		return "", apierror.StorageFailure("failed to create user")
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, disabled, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Disabled, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, apierror.StorageFailure("failed to read user")
	}
	return u, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, disabled, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Disabled, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, apierror.StorageFailure("failed to read user")
	}
	return u, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return apierror.StorageFailure("failed to update role")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) SetDisabled(ctx context.Context, id string, disabled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET disabled = $1 WHERE id = $2`, disabled, id)
	if err != nil {
		return apierror.StorageFailure("failed to update disabled flag")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
