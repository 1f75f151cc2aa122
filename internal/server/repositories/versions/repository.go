package versions

import (
	"context"

	"github.com/prompta-dev/prompta-server/internal/server/models"
)

// Repository provides persistence for prompt versions. Owner scoping happens
// one level up: callers resolve the prompt through the prompts repository
// first, so every promptID passed here has already been authorized.
type Repository interface {
	Create(ctx context.Context, v *models.PromptVersion) (*models.PromptVersion, error)
	GetByNumber(ctx context.Context, promptID string, number int) (*models.PromptVersion, error)

	// ListByPrompt returns all versions ordered by number ascending.
	ListByPrompt(ctx context.Context, promptID string) ([]*models.PromptVersion, error)

	// MaxNumber returns the highest allocated version number, or 0 when the
	// prompt has no versions yet. Call it only while holding the prompt's
	// write lock; otherwise the answer may be stale by the time it is used.
	MaxNumber(ctx context.Context, promptID string) (int, error)

	// ClearCurrent drops the is_current flag from whichever version holds it.
	ClearCurrent(ctx context.Context, promptID string) error

	// UpdateCommitMessage edits the commit message, the only mutable field
	// on a version.
	UpdateCommitMessage(ctx context.Context, promptID string, number int, message string) (*models.PromptVersion, error)
}
