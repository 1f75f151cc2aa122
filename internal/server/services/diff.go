package services

import (
	"context"
	"fmt"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/diffx"
	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
)

// DiffService resolves two versions of one prompt and compares their
// content. The comparison itself lives in diffx and is pure; this service
// only adds entity resolution and owner scoping.
type DiffService struct {
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewDiffService(rm repomanager.RepositoryManager, logger logging.Logger) *DiffService {
	return &DiffService{rm: rm, logger: logger.With("module", "diff_service")}
}

// CompareVersions diffs version v1 against version v2 of the same prompt.
// Either order is allowed; v1 is always the "from" side. Missing versions
// or a foreign-owned prompt yield ErrNotFound.
func (s *DiffService) CompareVersions(ctx context.Context, userID, promptID string, v1, v2 int) (*diffx.Result, error) {
	if v1 < 1 || v2 < 1 {
		return nil, fmt.Errorf("%w: version numbers must be positive", common.ErrValidation)
	}

	repos := s.rm.Repos()

	prompt, err := repos.Prompts.GetByID(ctx, userID, promptID)
	if err != nil {
		return nil, err
	}

	from, err := repos.Versions.GetByNumber(ctx, prompt.ID, v1)
	if err != nil {
		return nil, err
	}
	to, err := repos.Versions.GetByNumber(ctx, prompt.ID, v2)
	if err != nil {
		return nil, err
	}

	return diffx.DiffWithLabels(from.Content, to.Content,
		fmt.Sprintf("Version %d", v1), fmt.Sprintf("Version %d", v2))
}
