// Package repomanager defines the persistence port the services are built
// against: it vends entity repositories and owns the transaction and
// per-prompt locking boundary. The PostgreSQL implementation is the real
// backend; the in-memory implementation backs tests and local development.
package repomanager

import (
	"context"

	"github.com/prompta-dev/prompta-server/internal/server/models"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/prompts"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/versions"
)

// Repos bundles the entity repositories bound to one database handle —
// either the autocommit connection or a single transaction.
type Repos struct {
	Prompts  prompts.Repository
	Versions versions.Repository
}

// RepositoryManager is the storage boundary of the core. Reads outside a
// transaction always observe committed state; writes that must be atomic go
// through WithTx or WithPromptLock.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// Repos returns repositories for autocommit access.
	Repos() Repos

	// WithTx runs fn inside one transaction; commit on nil, rollback
	// otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error

	// WithPromptLock resolves the prompt under the caller's ownership,
	// acquires its exclusive write lock, and runs fn inside the same
	// transaction. Writers against the same prompt are serialized; writers
	// against different prompts proceed in parallel. A lost serialization
	// race that survives the retry budget surfaces as common.ErrConflict,
	// a missing or foreign-owned prompt as common.ErrNotFound.
	WithPromptLock(ctx context.Context, userID, promptID string, fn func(ctx context.Context, r Repos, p *models.Prompt) error) error

	Ping(ctx context.Context) error
	Close() error
}
