package domain

import "fmt"

// Phase is the stage an item (or job) is in when a progress event is emitted
type Phase string

const (
	PhaseResolving   Phase = "resolving"
	PhaseDownloading Phase = "downloading"
	PhaseConverting  Phase = "converting"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
	PhaseCancelled   Phase = "cancelled"
)

// ProgressEvent is a normalized progress sample
type ProgressEvent struct {
	Phase           Phase    `json:"phase"`
	Percent         float64  `json:"percent"`
	RateBytesPerSec *float64 `json:"rate_bytes_per_sec,omitempty"`
	RateText        string   `json:"rate_text,omitempty"`
}

// RawProgress is the loosely shaped payload an extractor reports, keyed the
// way yt-dlp progress hooks are (status, _percent_str, _speed_str, speed, ...)
type RawProgress map[string]any

// RawProgressFunc receives raw progress payloads from an extractor
type RawProgressFunc func(RawProgress)

// JobStateKind enumerates the controller states
type JobStateKind string

const (
	JobIdle        JobStateKind = "idle"
	JobResolving   JobStateKind = "resolving"
	JobRunningItem JobStateKind = "running_item"
	JobCancelling  JobStateKind = "cancelling"
	JobCompleted   JobStateKind = "completed"
	JobFailed      JobStateKind = "failed"
)

// JobState is the controller state. Index and Total are 1-based and only
// meaningful while running an item.
type JobState struct {
	Kind  JobStateKind `json:"kind"`
	Index int          `json:"index,omitempty"`
	Total int          `json:"total,omitempty"`
}

// IsActive checks if a job is in flight
func (s JobState) IsActive() bool {
	return s.Kind == JobResolving || s.Kind == JobRunningItem || s.Kind == JobCancelling
}

// IsFinished checks if the last job reached a terminal state
func (s JobState) IsFinished() bool {
	return s.Kind == JobCompleted || s.Kind == JobFailed
}

func (s JobState) String() string {
	if s.Kind == JobRunningItem {
		return fmt.Sprintf("%s(%d/%d)", s.Kind, s.Index, s.Total)
	}
	return string(s.Kind)
}
