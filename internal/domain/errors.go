package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for malformed submissions
	ErrInvalidRequest = errors.New("invalid download request")

	// ErrJobActive is returned when a job is submitted while another is in flight
	ErrJobActive = errors.New("a download job is already active")

	// ErrNoActiveJob is returned when cancelling with nothing in flight
	ErrNoActiveJob = errors.New("no active download job")

	// ErrRecordNotFound is returned for history lookups out of range
	ErrRecordNotFound = errors.New("download record not found")

	// ErrCancelled marks work stopped by a user cancellation
	ErrCancelled = &CancelledError{}
)

// ResolutionReason classifies why a URL could not be resolved
type ResolutionReason string

const (
	ResolutionInvalidURL    ResolutionReason = "invalid_url"
	ResolutionUnsupported   ResolutionReason = "unsupported"
	ResolutionUnreachable   ResolutionReason = "unreachable"
	ResolutionEmptyPlaylist ResolutionReason = "empty_playlist"
	ResolutionUnknown       ResolutionReason = "unknown"
)

// ResolutionError means metadata for a URL could not be obtained. The job
// fails and nothing is retried.
type ResolutionError struct {
	Reason ResolutionReason
	URL    string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.URL, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// DownloadReason classifies why an item failed
type DownloadReason string

const (
	DownloadToolMissing       DownloadReason = "tool_missing"
	DownloadNetwork           DownloadReason = "network"
	DownloadFormatUnavailable DownloadReason = "format_unavailable"
	DownloadConversionFailed  DownloadReason = "conversion_failed"
	DownloadNoOutput          DownloadReason = "no_output"
	DownloadIO                DownloadReason = "io"
	DownloadUnknown           DownloadReason = "unknown"
)

// DownloadError means fetching or transcoding one item failed
type DownloadError struct {
	Reason DownloadReason
	Item   string
	Detail string
	Err    error
}

func (e *DownloadError) Error() string {
	msg := "download"
	if e.Item != "" {
		msg += " " + fmt.Sprintf("%q", e.Item)
	}
	msg += ": " + string(e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// CancelledError marks work stopped on request. Not a failure.
type CancelledError struct{}

func (e *CancelledError) Error() string {
	return "download cancelled"
}

// Is lets errors.Is match any CancelledError against ErrCancelled
func (e *CancelledError) Is(target error) bool {
	_, ok := target.(*CancelledError)
	return ok
}

// IsCancelled checks if err is a cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
