package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompta-dev/prompta-server/internal/common"
)

func TestDiffService_CompareVersions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	prompt, _, err := env.prompts.Create(ctx, "user-1", CreatePromptParams{
		Name:    "greeting",
		Content: "Hello\nWorld\n",
	})
	require.NoError(t, err)
	_, err = env.versions.Create(ctx, "user-1", prompt.ID, "Hello\nThere\n", "")
	require.NoError(t, err)

	res, err := env.diffs.CompareVersions(ctx, "user-1", prompt.ID, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"There"}, res.Additions)
	assert.Equal(t, []string{"World"}, res.Deletions)
	assert.Contains(t, res.Unified, "--- Version 1")
	assert.Contains(t, res.Unified, "+++ Version 2")
	assert.False(t, res.Empty())
}

func TestDiffService_CompareVersions_Identical(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	prompt, _, err := env.prompts.Create(ctx, "user-1", CreatePromptParams{Name: "p", Content: "same\n"})
	require.NoError(t, err)
	_, err = env.versions.Restore(ctx, "user-1", prompt.ID, 1, "")
	require.NoError(t, err)

	res, err := env.diffs.CompareVersions(ctx, "user-1", prompt.ID, 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Unified)
}

func TestDiffService_CompareVersions_Errors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	prompt, _, err := env.prompts.Create(ctx, "user-1", CreatePromptParams{Name: "p", Content: "x"})
	require.NoError(t, err)

	_, err = env.diffs.CompareVersions(ctx, "user-1", prompt.ID, 0, 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.diffs.CompareVersions(ctx, "user-1", prompt.ID, 1, 5)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.diffs.CompareVersions(ctx, "user-2", prompt.ID, 1, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
