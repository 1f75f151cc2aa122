package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/dbx"
	"github.com/prompta-dev/prompta-server/internal/server/models"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const versionColumns = `id, prompt_id, version_number, content, commit_message, is_current, created_at`

func scanVersion(row interface{ Scan(dest ...any) error }) (*models.PromptVersion, error) {
	v := &models.PromptVersion{}
	var message sql.NullString

	err := row.Scan(&v.ID, &v.PromptID, &v.VersionNumber, &v.Content,
		&message, &v.IsCurrent, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	v.CommitMessage = message.String
	return v, nil
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.PromptVersion) (*models.PromptVersion, error) {
	query :=
		`INSERT INTO prompt_versions (id, prompt_id, version_number, content, commit_message, is_current)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	var message sql.NullString
	if v.CommitMessage != "" {
		message = sql.NullString{String: v.CommitMessage, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, v.ID, v.PromptID, v.VersionNumber,
		v.Content, message, v.IsCurrent).Scan(&v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, promptID string, number int) (*models.PromptVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM prompt_versions
		 WHERE prompt_id = $1 AND version_number = $2`

	v, err := scanVersion(r.db.QueryRowContext(ctx, query, promptID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListByPrompt(ctx context.Context, promptID string) ([]*models.PromptVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM prompt_versions
		 WHERE prompt_id = $1
		 ORDER BY version_number`

	rows, err := r.db.QueryContext(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := []*models.PromptVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) MaxNumber(ctx context.Context, promptID string) (int, error) {
	query := `SELECT COALESCE(MAX(version_number), 0) FROM prompt_versions WHERE prompt_id = $1`

	var max int
	if err := r.db.QueryRowContext(ctx, query, promptID).Scan(&max); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return max, nil
}

func (r *PostgresRepository) ClearCurrent(ctx context.Context, promptID string) error {
	query := `UPDATE prompt_versions SET is_current = false WHERE prompt_id = $1 AND is_current`

	if _, err := r.db.ExecContext(ctx, query, promptID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateCommitMessage(ctx context.Context, promptID string, number int, message string) (*models.PromptVersion, error) {
	query :=
		`UPDATE prompt_versions
		 SET commit_message = $1
		 WHERE prompt_id = $2 AND version_number = $3
		 RETURNING ` + versionColumns

	v, err := scanVersion(r.db.QueryRowContext(ctx, query,
		sql.NullString{String: message, Valid: message != ""}, promptID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}
