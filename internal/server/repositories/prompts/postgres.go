package prompts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

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

const promptColumns = `id, user_id, name, description, location, tags, current_version_id, created_at, updated_at`

func scanPrompt(row interface{ Scan(dest ...any) error }) (*models.Prompt, error) {
	p := &models.Prompt{}
	var description, location, currentVersionID sql.NullString
	var tags []byte

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &location, &tags,
		&currentVersionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Location = location.String
	p.CurrentVersionID = currentVersionID.String
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	return p, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Prompt) (*models.Prompt, error) {
	query :=
		`INSERT INTO prompts (id, user_id, name, description, location, tags)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	tags, err := marshalTags(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, p.ID, p.UserID, p.Name,
		nullIfEmpty(p.Description), nullIfEmpty(p.Location), tags).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) getBy(ctx context.Context, cond string, args ...any) (*models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts WHERE ` + cond

	p, err := scanPrompt(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Prompt, error) {
	return r.getBy(ctx, `id = $1 AND user_id = $2`, id, userID)
}

func (r *PostgresRepository) GetByName(ctx context.Context, userID, name string) (*models.Prompt, error) {
	return r.getBy(ctx, `user_id = $1 AND name = $2`, userID, name)
}

func (r *PostgresRepository) GetByLocation(ctx context.Context, userID, location string) (*models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts
		 WHERE user_id = $1 AND location = $2
		 ORDER BY updated_at DESC, id
		 LIMIT 1`

	p, err := scanPrompt(r.db.QueryRowContext(ctx, query, userID, location))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Prompt) (*models.Prompt, error) {
	query :=
		`UPDATE prompts
		 SET name = $1, description = $2, location = $3, tags = $4, updated_at = now()
		 WHERE id = $5 AND user_id = $6
		 RETURNING updated_at
		 `

	tags, err := marshalTags(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, p.Name, nullIfEmpty(p.Description),
		nullIfEmpty(p.Location), tags, p.ID, p.UserID).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) SetCurrentVersion(ctx context.Context, promptID, versionID string) error {
	query :=
		`UPDATE prompts
		 SET current_version_id = $1, updated_at = now()
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, versionID, promptID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, userID, id string) (*models.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts
		 WHERE id = $1 AND user_id = $2
		 FOR UPDATE`

	p, err := scanPrompt(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM prompts WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, f ListFilter) ([]*models.Prompt, int, error) {
	conds := []string{`p.user_id = $1`}
	args := []any{userID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		n := arg(pattern)
		conds = append(conds, fmt.Sprintf(
			`(p.name ILIKE %[1]s OR COALESCE(p.description, '') ILIKE %[1]s OR COALESCE(cv.content, '') ILIKE %[1]s)`, n))
	}

	if len(f.Tags) > 0 {
		tags, err := marshalTags(f.Tags)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding tags: %w", err)
		}
		conds = append(conds, fmt.Sprintf(`p.tags @> %s::jsonb`, arg(tags)))
	}

	if f.Location != "" {
		conds = append(conds, fmt.Sprintf(`COALESCE(p.location, '') ILIKE %s`, arg("%"+f.Location+"%")))
	}

	from := `FROM prompts p
		 LEFT JOIN prompt_versions cv ON cv.id = p.current_version_id
		 WHERE ` + strings.Join(conds, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) ` + from
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	pageQuery := `SELECT p.id, p.user_id, p.name, p.description, p.location, p.tags, p.current_version_id, p.created_at, p.updated_at ` +
		from +
		` ORDER BY p.updated_at DESC, p.id ` +
		fmt.Sprintf(`LIMIT %s OFFSET %s`, arg(f.Limit), arg(f.Offset))

	rows, err := r.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := []*models.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return items, total, nil
}
