package repomanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/server/models"
)

func seedMemoryPrompt(t *testing.T, m *MemoryManager, userID, id, name string) {
	t.Helper()
	_, err := m.Repos().Prompts.Create(context.Background(), &models.Prompt{
		ID: id, UserID: userID, Name: name,
	})
	require.NoError(t, err)
}

func TestMemoryManager_WithTx_RollbackRestoresState(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	seedMemoryPrompt(t, m, "u1", "p1", "keep")

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(ctx context.Context, r Repos) error {
		if _, err := r.Prompts.Create(ctx, &models.Prompt{ID: "p2", UserID: "u1", Name: "discard"}); err != nil {
			return err
		}
		if _, err := r.Versions.Create(ctx, &models.PromptVersion{
			ID: "v1", PromptID: "p2", VersionNumber: 1, Content: "x", IsCurrent: true,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.Repos().Prompts.GetByID(ctx, "u1", "p2")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = m.Repos().Prompts.GetByID(ctx, "u1", "p1")
	assert.NoError(t, err)
}

func TestMemoryManager_WithPromptLock_Scoping(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	seedMemoryPrompt(t, m, "u1", "p1", "mine")

	err := m.WithPromptLock(ctx, "u2", "p1", func(ctx context.Context, r Repos, p *models.Prompt) error {
		t.Fatal("callback must not run for a foreign prompt")
		return nil
	})
	assert.ErrorIs(t, err, common.ErrNotFound)

	ran := false
	err = m.WithPromptLock(ctx, "u1", "p1", func(ctx context.Context, r Repos, p *models.Prompt) error {
		ran = true
		assert.Equal(t, "mine", p.Name)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestMemoryManager_VersionCreate_EnforcesSingleCurrent(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	seedMemoryPrompt(t, m, "u1", "p1", "x")

	repos := m.Repos()
	_, err := repos.Versions.Create(ctx, &models.PromptVersion{
		ID: "v1", PromptID: "p1", VersionNumber: 1, Content: "a", IsCurrent: true,
	})
	require.NoError(t, err)

	// a second current version violates the same constraint the schema's
	// partial unique index enforces
	_, err = repos.Versions.Create(ctx, &models.PromptVersion{
		ID: "v2", PromptID: "p1", VersionNumber: 2, Content: "b", IsCurrent: true,
	})
	assert.ErrorIs(t, err, common.ErrConflict)

	// duplicate number is also rejected
	_, err = repos.Versions.Create(ctx, &models.PromptVersion{
		ID: "v3", PromptID: "p1", VersionNumber: 1, Content: "c",
	})
	assert.ErrorIs(t, err, common.ErrConflict)

	require.NoError(t, repos.Versions.ClearCurrent(ctx, "p1"))
	_, err = repos.Versions.Create(ctx, &models.PromptVersion{
		ID: "v4", PromptID: "p1", VersionNumber: 2, Content: "b", IsCurrent: true,
	})
	assert.NoError(t, err)
}
