package httpapi

import (
	"time"

	"github.com/prompta-dev/prompta-server/internal/diffx"
	"github.com/prompta-dev/prompta-server/internal/server/models"
)

type createPromptRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	Tags          []string `json:"tags"`
	Content       string   `json:"content" validate:"required"`
	CommitMessage string   `json:"commit_message"`
}

// updatePromptRequest uses pointers so absent fields stay untouched.
type updatePromptRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	Tags        *[]string `json:"tags"`
}

type createVersionRequest struct {
	Content       string `json:"content" validate:"required"`
	CommitMessage string `json:"commit_message"`
}

type restoreVersionRequest struct {
	CommitMessage string `json:"commit_message"`
}

type updateCommitMessageRequest struct {
	CommitMessage string `json:"commit_message" validate:"required"`
}

type promptResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	Tags             []string  `json:"tags"`
	CurrentVersionID string    `json:"current_version_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type versionResponse struct {
	ID            string    `json:"id"`
	PromptID      string    `json:"prompt_id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	CommitMessage string    `json:"commit_message,omitempty"`
	IsCurrent     bool      `json:"is_current"`
	CreatedAt     time.Time `json:"created_at"`
}

type promptWithVersionResponse struct {
	Prompt  promptResponse  `json:"prompt"`
	Version versionResponse `json:"version"`
}

type promptListResponse struct {
	Items      []promptResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type diffResponse struct {
	FromVersion int      `json:"from_version"`
	ToVersion   int      `json:"to_version"`
	Identical   bool     `json:"identical"`
	Additions   []string `json:"additions"`
	Deletions   []string `json:"deletions"`
	Unified     string   `json:"unified"`
}

func toPromptResponse(p *models.Prompt) promptResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return promptResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Location:         p.Location,
		Tags:             tags,
		CurrentVersionID: p.CurrentVersionID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toVersionResponse(v *models.PromptVersion) versionResponse {
	return versionResponse{
		ID:            v.ID,
		PromptID:      v.PromptID,
		VersionNumber: v.VersionNumber,
		Content:       v.Content,
		CommitMessage: v.CommitMessage,
		IsCurrent:     v.IsCurrent,
		CreatedAt:     v.CreatedAt,
	}
}

func toDiffResponse(from, to int, res *diffx.Result) diffResponse {
	return diffResponse{
		FromVersion: from,
		ToVersion:   to,
		Identical:   res.Empty(),
		Additions:   res.Additions,
		Deletions:   res.Deletions,
		Unified:     res.Unified,
	}
}
