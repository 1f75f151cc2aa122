package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/dbx"
	"github.com/prompta-dev/prompta-server/internal/server/migrations"
	"github.com/prompta-dev/prompta-server/internal/server/models"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/prompts"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/versions"
)

// SQLSTATEs treated as transient write failures: serialization failure,
// deadlock detected, lock_timeout expiry.
var retryableSQLStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
	"55P03": {},
}

const retryBaseDelay = 50 * time.Millisecond

// PostgresManager implements RepositoryManager on PostgreSQL via the pgx
// stdlib driver.
type PostgresManager struct {
	db          *sql.DB
	lockTimeout time.Duration
	retryBudget uint64
}

// NewPostgresManager opens the database and runs pending migrations.
// lockTimeout bounds how long a writer waits for a prompt's row lock;
// retryBudget is the number of times a transient write failure is retried
// before it is surfaced as a Conflict.
func NewPostgresManager(ctx context.Context, dsn string, lockTimeout time.Duration, retryBudget uint64) (*PostgresManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresManager{db: db, lockTimeout: lockTimeout, retryBudget: retryBudget}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *PostgresManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresManager) Repos() Repos {
	return reposFor(m.db)
}

func reposFor(db dbx.DBTX) Repos {
	return Repos{
		Prompts:  prompts.NewPostgresRepository(db),
		Versions: versions.NewPostgresRepository(db),
	}
}

func (m *PostgresManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, reposFor(tx))
	})
}

func (m *PostgresManager) WithPromptLock(ctx context.Context, userID, promptID string, fn func(ctx context.Context, r Repos, p *models.Prompt) error) error {
	attempt := func(ctx context.Context) error {
		return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			// SET does not accept bind parameters; the value is a trusted
			// integer from config.
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("db error: %w", err)
			}

			r := reposFor(tx)
			p, err := r.Prompts.LockForUpdate(ctx, userID, promptID)
			if err != nil {
				return err
			}

			return fn(ctx, r, p)
		})
	}

	backoff := retry.WithMaxRetries(m.retryBudget, retry.NewFibonacci(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := attempt(ctx); err != nil {
			if isRetryableWriteError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	if err != nil && isRetryableWriteError(err) {
		return fmt.Errorf("%w: write retry budget exhausted: %v", common.ErrConflict, err)
	}
	return err
}

func isRetryableWriteError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	_, ok := retryableSQLStates[pgErr.Code]
	return ok
}

func (m *PostgresManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresManager) Close() error {
	return m.db.Close()
}
