package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/models"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
)

// VersionService is the version sequencer. It owns version-number
// allocation, the single-current-version invariant, and restore semantics.
// Nothing else in the codebase flips the current flag or assigns numbers.
type VersionService struct {
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewVersionService(rm repomanager.RepositoryManager, logger logging.Logger) *VersionService {
	return &VersionService{rm: rm, logger: logger.With("module", "version_service")}
}

// Create appends a new version with number max+1, makes it current, and
// repoints the prompt — one atomic unit under the prompt's write lock.
// Concurrent calls against the same prompt serialize; each gets its own
// number and the last committed one ends up current.
func (s *VersionService) Create(ctx context.Context, userID, promptID, content, commitMessage string) (*models.PromptVersion, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", common.ErrValidation)
	}

	var created *models.PromptVersion

	err := s.rm.WithPromptLock(ctx, userID, promptID, func(ctx context.Context, r repomanager.Repos, p *models.Prompt) error {
		var err error
		created, err = appendVersion(ctx, r, p, content, commitMessage)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "version created",
		"prompt_id", promptID, "version", created.VersionNumber)
	return created, nil
}

// Restore recovers an older snapshot as a new current version. The target
// version is never touched: its content is copied into a fresh version with
// number max+1, keeping history strictly append-only. When commitMessage is
// empty, a message recording the restored number is generated.
func (s *VersionService) Restore(ctx context.Context, userID, promptID string, targetNumber int, commitMessage string) (*models.PromptVersion, error) {
	if targetNumber < 1 {
		return nil, fmt.Errorf("%w: version number must be positive", common.ErrValidation)
	}

	var created *models.PromptVersion

	err := s.rm.WithPromptLock(ctx, userID, promptID, func(ctx context.Context, r repomanager.Repos, p *models.Prompt) error {
		target, err := r.Versions.GetByNumber(ctx, p.ID, targetNumber)
		if err != nil {
			return err
		}

		message := commitMessage
		if message == "" {
			message = fmt.Sprintf("Restored from version %d", targetNumber)
		}

		created, err = appendVersion(ctx, r, p, target.Content, message)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "version restored",
		"prompt_id", promptID, "from_version", targetNumber, "new_version", created.VersionNumber)
	return created, nil
}

// appendVersion performs the sequenced insert. The caller must hold the
// prompt's write lock: the max-number read, the current-flag flip and the
// pointer update below commit or roll back together.
func appendVersion(ctx context.Context, r repomanager.Repos, p *models.Prompt, content, commitMessage string) (*models.PromptVersion, error) {
	max, err := r.Versions.MaxNumber(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if err := r.Versions.ClearCurrent(ctx, p.ID); err != nil {
		return nil, err
	}

	created, err := r.Versions.Create(ctx, &models.PromptVersion{
		ID:            uuid.NewString(),
		PromptID:      p.ID,
		VersionNumber: max + 1,
		Content:       content,
		CommitMessage: commitMessage,
		IsCurrent:     true,
	})
	if err != nil {
		return nil, err
	}

	if err := r.Prompts.SetCurrentVersion(ctx, p.ID, created.ID); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateCommitMessage edits a version's commit message, the only mutation a
// version admits after creation.
func (s *VersionService) UpdateCommitMessage(ctx context.Context, userID, promptID string, number int, message string) (*models.PromptVersion, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: version number must be positive", common.ErrValidation)
	}

	repos := s.rm.Repos()

	prompt, err := repos.Prompts.GetByID(ctx, userID, promptID)
	if err != nil {
		return nil, err
	}

	updated, err := repos.Versions.UpdateCommitMessage(ctx, prompt.ID, number, message)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error updating commit message: %w", err)
	}
	return updated, nil
}
