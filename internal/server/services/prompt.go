// Package services contains the server-side business logic. PromptService
// owns prompt entities and their structural invariants: per-owner name
// uniqueness, owner scoping, and cascade deletion of version history.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/models"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
)

const initialCommitMessage = "Initial version"

type PromptService struct {
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewPromptService(rm repomanager.RepositoryManager, logger logging.Logger) *PromptService {
	return &PromptService{rm: rm, logger: logger.With("module", "prompt_service")}
}

// CreatePromptParams carries everything needed to create a prompt together
// with its first version.
type CreatePromptParams struct {
	Name          string
	Description   string
	Location      string
	Tags          []string
	Content       string
	CommitMessage string
}

// UpdatePromptParams updates prompt metadata. Nil fields are left unchanged.
type UpdatePromptParams struct {
	Name        *string
	Description *string
	Location    *string
	Tags        *[]string
}

// Create stores a new prompt and its version 1 as one atomic unit. The new
// version is current from the start. A name already taken by the same owner
// yields ErrConflict; the same name under a different owner is fine.
func (s *PromptService) Create(ctx context.Context, userID string, params CreatePromptParams) (*models.Prompt, *models.PromptVersion, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if params.Content == "" {
		return nil, nil, fmt.Errorf("%w: content is required", common.ErrValidation)
	}

	message := params.CommitMessage
	if message == "" {
		message = initialCommitMessage
	}

	prompt := &models.Prompt{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        params.Name,
		Description: params.Description,
		Location:    params.Location,
		Tags:        params.Tags,
	}

	var version *models.PromptVersion

	err := s.rm.WithTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		created, err := r.Prompts.Create(ctx, prompt)
		if err != nil {
			return err
		}
		prompt = created

		version, err = r.Versions.Create(ctx, &models.PromptVersion{
			ID:            uuid.NewString(),
			PromptID:      prompt.ID,
			VersionNumber: 1,
			Content:       params.Content,
			CommitMessage: message,
			IsCurrent:     true,
		})
		if err != nil {
			return err
		}

		return r.Prompts.SetCurrentVersion(ctx, prompt.ID, version.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, nil, common.ErrConflict
		}
		return nil, nil, fmt.Errorf("error creating prompt: %w", err)
	}

	prompt.CurrentVersionID = version.ID

	s.logger.Info(ctx, "prompt created", "prompt_id", prompt.ID, "name", prompt.Name)
	return prompt, version, nil
}

// Get returns the prompt by ID, scoped to the owner. A prompt owned by a
// different principal is reported as not found.
func (s *PromptService) Get(ctx context.Context, userID, promptID string) (*models.Prompt, error) {
	return s.rm.Repos().Prompts.GetByID(ctx, userID, promptID)
}

func (s *PromptService) GetByName(ctx context.Context, userID, name string) (*models.Prompt, error) {
	return s.rm.Repos().Prompts.GetByName(ctx, userID, name)
}

func (s *PromptService) GetByLocation(ctx context.Context, userID, location string) (*models.Prompt, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", common.ErrValidation)
	}
	return s.rm.Repos().Prompts.GetByLocation(ctx, userID, location)
}

// UpdateMetadata edits name, description, location and tags. Content is
// never touched here; that is the sequencer's job. Renaming re-checks name
// uniqueness under the same owner.
func (s *PromptService) UpdateMetadata(ctx context.Context, userID, promptID string, params UpdatePromptParams) (*models.Prompt, error) {
	repos := s.rm.Repos()

	prompt, err := repos.Prompts.GetByID(ctx, userID, promptID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		if strings.TrimSpace(*params.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", common.ErrValidation)
		}
		prompt.Name = *params.Name
	}
	if params.Description != nil {
		prompt.Description = *params.Description
	}
	if params.Location != nil {
		prompt.Location = *params.Location
	}
	if params.Tags != nil {
		prompt.Tags = *params.Tags
	}

	updated, err := repos.Prompts.Update(ctx, prompt)
	if err != nil {
		if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating prompt: %w", err)
	}

	return updated, nil
}

// Delete removes the prompt and its whole version history. Irreversible.
func (s *PromptService) Delete(ctx context.Context, userID, promptID string) error {
	err := s.rm.WithTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		return r.Prompts.Delete(ctx, userID, promptID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error deleting prompt: %w", err)
	}

	s.logger.Info(ctx, "prompt deleted", "prompt_id", promptID)
	return nil
}

// ListVersions returns the prompt's full history ordered by version number
// ascending.
func (s *PromptService) ListVersions(ctx context.Context, userID, promptID string) ([]*models.PromptVersion, error) {
	repos := s.rm.Repos()

	prompt, err := repos.Prompts.GetByID(ctx, userID, promptID)
	if err != nil {
		return nil, err
	}
	return repos.Versions.ListByPrompt(ctx, prompt.ID)
}

// GetVersion returns one numbered snapshot of the prompt.
func (s *PromptService) GetVersion(ctx context.Context, userID, promptID string, number int) (*models.PromptVersion, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: version number must be positive", common.ErrValidation)
	}

	repos := s.rm.Repos()

	prompt, err := repos.Prompts.GetByID(ctx, userID, promptID)
	if err != nil {
		return nil, err
	}
	return repos.Versions.GetByNumber(ctx, prompt.ID, number)
}
