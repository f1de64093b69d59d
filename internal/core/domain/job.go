package domain

import (
	"errors"
	"time"
)

type JobID string

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// GenerationSettings is the submission-time configuration snapshot.
// Immutable after job creation.
type GenerationSettings struct {
	Platforms      []string `json:"platforms"`
	Tone           string   `json:"tone"`
	Length         string   `json:"length"`
	GenerateImages bool     `json:"generate_images"`
}

// DefaultSettings returns the settings applied when a submission omits fields.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		Platforms:      []string{"blog", "instagram", "twitter", "linkedin"},
		Tone:           "casual",
		Length:         "medium",
		GenerateImages: true,
	}
}

// Job tracks one content-generation request through its lifecycle.
// pending → in_progress → completed|error; terminal states are sticky.
type Job struct {
	ID        JobID              `json:"id"`
	Status    JobStatus          `json:"status"`
	Progress  int                `json:"progress"`
	Topic     string             `json:"topic"`
	Settings  GenerationSettings `json:"settings"`
	Result    *GenerationResult  `json:"result,omitempty"`
	Error     *string            `json:"error,omitempty"`
	Message   *string            `json:"message,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// GenerationResult is the assembled output of a completed pipeline run.
type GenerationResult struct {
	BlogDraft     string         `json:"blog_draft"`
	BlogReviewed  string         `json:"blog_reviewed"`
	FormattedPost map[string]any `json:"formatted_post,omitempty"`
	Images        string         `json:"images,omitempty"`
}

// ProgressEvent is produced once per completed task node and consumed
// exactly once by the job registry. A negative Progress means "message only,
// keep the current percentage".
type ProgressEvent struct {
	JobID    JobID
	Message  string
	Progress int
	Summary  string
}

var ErrJobNotFound = errors.New("job not found")
