// Package models defines the data models persisted by the prompta server.
package models

import "time"

// Prompt is a named, owned piece of text content whose history lives in
// prompt_versions. Name is unique per owner, not globally. CurrentVersionID
// always points at the single version with IsCurrent set; both are flipped
// together by the version sequencer and never written directly by callers.
type Prompt struct {
	ID          string
	UserID      string
	Name        string
	Description string
	// Location is a free-form, path-like label. It is descriptive only and
	// not unique per owner.
	Location         string
	Tags             []string
	CurrentVersionID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
