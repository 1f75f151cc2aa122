package prompts

import (
	"context"

	"github.com/prompta-dev/prompta-server/internal/server/models"
)

// ListFilter narrows and pages a prompt listing. Zero values mean
// "no filtering" for the respective field.
type ListFilter struct {
	// Query matches as a case-insensitive substring against name,
	// description and the current version's content.
	Query string
	// Tags requires the prompt to carry every listed tag.
	Tags []string
	// Location matches as a case-insensitive substring against the
	// location label.
	Location string

	Offset int
	Limit  int
}

// Repository provides persistence for prompts. All lookups are scoped by
// owner: a prompt owned by someone else is reported as not found.
type Repository interface {
	Create(ctx context.Context, p *models.Prompt) (*models.Prompt, error)
	GetByID(ctx context.Context, userID, id string) (*models.Prompt, error)
	GetByName(ctx context.Context, userID, name string) (*models.Prompt, error)
	GetByLocation(ctx context.Context, userID, location string) (*models.Prompt, error)

	// Update persists name, description, location and tags and bumps
	// updated_at.
	Update(ctx context.Context, p *models.Prompt) (*models.Prompt, error)

	// SetCurrentVersion repoints the prompt's current-version reference and
	// bumps updated_at. Only the version sequencer calls this, inside the
	// prompt's write transaction.
	SetCurrentVersion(ctx context.Context, promptID, versionID string) error

	// Delete removes the prompt and, through the schema cascade, all of its
	// versions.
	Delete(ctx context.Context, userID, id string) error

	// LockForUpdate reads the prompt while taking the per-prompt exclusive
	// write lock. It must be called inside a transaction; the lock is held
	// until that transaction settles.
	LockForUpdate(ctx context.Context, userID, id string) (*models.Prompt, error)

	// List returns a filtered page of the owner's prompts ordered by
	// updated_at descending with id as tie-break, plus the total count of
	// the filtered set ignoring pagination.
	List(ctx context.Context, userID string, f ListFilter) ([]*models.Prompt, int, error)
}
