package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mouthful-app/mouthful/internal/auth/domain"
	autherror "github.com/mouthful-app/mouthful/internal/errors"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// PgxIface is the subset of pgxpool.Pool the repository needs; pgxmock
// implements it for tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ PgxIface = (*pgxpool.Pool)(nil)

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, refresh_token_hash, refresh_token_expires_at,
		       created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email), "email")
}

func (r *PostgresRepository) GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, refresh_token_hash, refresh_token_expires_at,
		       created_at, updated_at
		FROM users
		WHERE refresh_token_hash = $1
		LIMIT 1;
	`
	return r.scanUser(r.db.QueryRow(ctx, query, hash), "refresh token hash")
}

func (r *PostgresRepository) scanUser(row pgx.Row, by string) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.RefreshTokenHash, &user.RefreshTokenExpiresAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}

	return &user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return autherror.ErrEmailAlreadyInUse
	}

	return err
}

func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, userID string, hash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $2, refresh_token_expires_at = $3, updated_at = now()
		WHERE id = $1
	`, userID, hash, expiresAt)

	return err
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`, userID)

	return err
}
