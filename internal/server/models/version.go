package models

import "time"

// PromptVersion is an immutable, numbered snapshot of a prompt's content.
// Version numbers form a contiguous sequence starting at 1 and are never
// reused. Content never changes after creation; CommitMessage is the only
// field that may be edited later.
type PromptVersion struct {
	ID            string
	PromptID      string
	VersionNumber int
	Content       string
	CommitMessage string
	IsCurrent     bool
	CreatedAt     time.Time
}
