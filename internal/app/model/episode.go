package model

import (
	"encoding/json"
	"time"
)

// EpisodeStatus represents the lifecycle state of an episode
type EpisodeStatus string

const (
	StatusPending          EpisodeStatus = "pending"
	StatusSummaryCompleted EpisodeStatus = "summary_completed"
	StatusProcessed        EpisodeStatus = "processed"
	StatusPublished        EpisodeStatus = "published"
	StatusFailed           EpisodeStatus = "failed"
)

// IsTerminal reports whether the status is one of the terminal states.
// Terminal episodes are only mutated by explicit operator or retry action,
// never by a stale pipeline run.
func (s EpisodeStatus) IsTerminal() bool {
	switch s {
	case StatusProcessed, StatusPublished, StatusFailed:
		return true
	default:
		return false
	}
}

// Episode is the unit of work for the post-processing pipeline
type Episode struct {
	ID          string
	PodcastID   string
	CreatedBy   string
	Status      EpisodeStatus
	Title       string
	Description string
	CoverImage  string
	Language    string
	Metadata    EpisodeMetadata
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EpisodeMetadata is the typed form of the episode metadata JSON column.
// It carries the pipeline's side-channel state: the description backup taken
// before the image stage overwrites it, the last image-generation error, and
// the linkage to the credit transaction that paid for this episode.
type EpisodeMetadata struct {
	OriginalDescription  string `json:"original_description,omitempty"`
	ImageGenerationError string `json:"image_generation_error,omitempty"`
	ImageErrorAt         string `json:"image_error_at,omitempty"`
	CreditTransactionID  string `json:"credit_transaction_id,omitempty"`
}

// IsZero reports whether no metadata field is set
func (m EpisodeMetadata) IsZero() bool {
	return m == EpisodeMetadata{}
}

// ParseEpisodeMetadata decodes the metadata column defensively. Malformed
// JSON yields an empty metadata value and a non-nil error for the caller to
// log; it is never fatal.
func ParseEpisodeMetadata(raw string) (EpisodeMetadata, error) {
	var m EpisodeMetadata
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return EpisodeMetadata{}, err
	}
	return m, nil
}

// Encode serializes the metadata for the persistence layer's JSON column.
func (m EpisodeMetadata) Encode() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
