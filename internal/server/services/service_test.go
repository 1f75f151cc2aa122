package services

import (
	"io"
	"log/slog"

	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testEnv struct {
	rm       *repomanager.MemoryManager
	prompts  *PromptService
	versions *VersionService
	search   *SearchService
	diffs    *DiffService
}

func newTestEnv() *testEnv {
	rm := repomanager.NewMemoryManager()
	logger := testLogger()
	return &testEnv{
		rm:       rm,
		prompts:  NewPromptService(rm, logger),
		versions: NewVersionService(rm, logger),
		search:   NewSearchService(rm, logger, 20, 100),
		diffs:    NewDiffService(rm, logger),
	}
}
