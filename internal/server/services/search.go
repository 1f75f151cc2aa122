package services

import (
	"context"

	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/models"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/prompts"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
)

// SearchService lists and filters an owner's prompts with stable ordering
// and pagination.
type SearchService struct {
	rm              repomanager.RepositoryManager
	logger          logging.Logger
	defaultPageSize int
	maxPageSize     int
}

func NewSearchService(rm repomanager.RepositoryManager, logger logging.Logger, defaultPageSize, maxPageSize int) *SearchService {
	return &SearchService{
		rm:              rm,
		logger:          logger.With("module", "search_service"),
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ListParams describes one listing request. Page is 1-based; out-of-range
// values are clamped rather than rejected.
type ListParams struct {
	// Query matches case-insensitively against name, description and the
	// current version's content.
	Query string
	// Tags must all be present on a prompt for it to match.
	Tags []string
	// Location matches case-insensitively as a substring.
	Location string

	Page     int
	PageSize int
}

// Normalize clamps a requested page and page size to valid values: page is
// at least 1, size falls back to the default when unset and is capped at the
// maximum.
func (s *SearchService) Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = s.defaultPageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}
	return page, size
}

// ListPrompts returns one page ordered by last update descending with ID as
// a stable tie-break, plus the total size of the filtered set so callers
// can compute page counts.
func (s *SearchService) ListPrompts(ctx context.Context, userID string, params ListParams) ([]*models.Prompt, int, error) {
	page, size := s.Normalize(params.Page, params.PageSize)

	filter := prompts.ListFilter{
		Query:    params.Query,
		Tags:     params.Tags,
		Location: params.Location,
		Offset:   (page - 1) * size,
		Limit:    size,
	}

	return s.rm.Repos().Prompts.List(ctx, userID, filter)
}
