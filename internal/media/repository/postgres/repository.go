package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	autherror "github.com/mouthful-app/mouthful/internal/errors"
	"github.com/mouthful-app/mouthful/internal/media/domain"
)

// PgxIface is the subset of pgxpool.Pool the repository needs; pgxmock
// implements it for tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ PgxIface = (*pgxpool.Pool)(nil)

const entryColumns = `id, user_id, category, title, external_id, score, status, notes,
       started_at, finished_at, created_at, updated_at`

func (r *PostgresRepository) ListByCategory(ctx context.Context, userID string, category domain.Category) ([]domain.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM media_entries
		WHERE user_id = $1 AND category = $2
		ORDER BY updated_at DESC;
	`, entryColumns)

	rows, err := r.db.Query(ctx, query, userID, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list media entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := scanEntry(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, entryID string) (*domain.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM media_entries
		WHERE id = $1 AND user_id = $2
		LIMIT 1;
	`, entryColumns)

	var e domain.Entry
	err := scanEntry(r.db.QueryRow(ctx, query, entryID, userID), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, autherror.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get media entry: %w", err)
	}

	return &e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *domain.Entry) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO media_entries (id, user_id, category, title, external_id, score, status,
                                   notes, started_at, finished_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, entry.ID, entry.UserID, string(entry.Category), entry.Title, entry.ExternalID,
		entry.Score, string(entry.Status), entry.Notes, entry.StartedAt, entry.FinishedAt,
		entry.CreatedAt, entry.UpdatedAt)

	return err
}

// Update builds the SET clause from the already-validated column map. Columns
// are sorted so the generated SQL is deterministic.
func (r *PostgresRepository) Update(ctx context.Context, userID, entryID string, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names)+1)
	args := []any{entryID, userID}
	for _, name := range names {
		args = append(args, columns[name])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	assignments = append(assignments, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE media_entries
		SET %s
		WHERE id = $1 AND user_id = $2
	`, strings.Join(assignments, ", "))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update media entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrEntryNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, entryID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM media_entries
		WHERE id = $1 AND user_id = $2
	`, entryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete media entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrEntryNotFound
	}

	return nil
}

func scanEntry(row pgx.Row, e *domain.Entry) error {
	return row.Scan(&e.ID, &e.UserID, &e.Category, &e.Title, &e.ExternalID, &e.Score,
		&e.Status, &e.Notes, &e.StartedAt, &e.FinishedAt, &e.CreatedAt, &e.UpdatedAt)
}
