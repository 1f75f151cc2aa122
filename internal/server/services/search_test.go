package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPrompt(t *testing.T, env *testEnv, userID string, p CreatePromptParams) string {
	t.Helper()
	prompt, _, err := env.prompts.Create(context.Background(), userID, p)
	require.NoError(t, err)
	return prompt.ID
}

func TestSearchService_QueryMatching(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPrompt(t, env, "user-1", CreatePromptParams{
		Name: "greeting", Description: "says hello", Content: "Hello there",
	})
	seedPrompt(t, env, "user-1", CreatePromptParams{
		Name: "farewell", Description: "says goodbye", Content: "Bye now",
	})
	seedPrompt(t, env, "user-1", CreatePromptParams{
		Name: "summary", Description: "", Content: "Summarize with a hello twist",
	})

	// matches name, case-insensitively
	items, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{Query: "GREET"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "greeting", items[0].Name)

	// matches description
	_, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Query: "goodbye"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// matches current version content across prompts
	_, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// no match
	_, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Query: "nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestSearchService_QueryMatchesCurrentContentOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	id := seedPrompt(t, env, "user-1", CreatePromptParams{Name: "p", Content: "alpha"})
	_, err := env.versions.Create(ctx, "user-1", id, "beta", "")
	require.NoError(t, err)

	_, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{Query: "beta"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// superseded content no longer matches
	_, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Query: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestSearchService_TagsRequireAll(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "a", Content: "x", Tags: []string{"chat", "prod"}})
	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "b", Content: "x", Tags: []string{"chat"}})
	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "c", Content: "x"})

	_, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{Tags: []string{"chat"}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	items, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{Tags: []string{"chat", "prod"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Name)
}

func TestSearchService_LocationFilter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "a", Content: "x", Location: "agents/coder/system.md"})
	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "b", Content: "x", Location: "agents/writer/system.md"})

	_, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{Location: "CODER"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Location: "agents/"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSearchService_OwnerScoping(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "mine", Content: "x"})
	seedPrompt(t, env, "user-2", CreatePromptParams{Name: "theirs", Content: "x"})

	items, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "mine", items[0].Name)
}

func TestSearchService_RecentlyUpdatedFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := seedPrompt(t, env, "user-1", CreatePromptParams{Name: "first", Content: "x"})
	seedPrompt(t, env, "user-1", CreatePromptParams{Name: "second", Content: "x"})

	// a new version bumps updated_at, moving the prompt to the front
	_, err := env.versions.Create(ctx, "user-1", first, "y", "")
	require.NoError(t, err)

	items, _, err := env.search.ListPrompts(ctx, "user-1", ListParams{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Name)
	assert.Equal(t, "second", items[1].Name)
}

func TestSearchService_Pagination(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedPrompt(t, env, "user-1", CreatePromptParams{Name: fmt.Sprintf("prompt-%d", i), Content: "x"})
	}

	items, total, err := env.search.ListPrompts(ctx, "user-1", ListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 2)

	items, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 1)

	// past the end: empty page, same total
	items, total, err = env.search.ListPrompts(ctx, "user-1", ListParams{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 0)
}

func TestSearchService_Normalize(t *testing.T) {
	env := newTestEnv()

	page, size := env.search.Normalize(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = env.search.Normalize(-3, 1000)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)

	page, size = env.search.Normalize(4, 30)
	assert.Equal(t, 4, page)
	assert.Equal(t, 30, size)
}
