package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Quality is the target audio bitrate in kbps
type Quality int

const (
	Quality64  Quality = 64
	Quality128 Quality = 128
	Quality192 Quality = 192
	Quality256 Quality = 256
	Quality320 Quality = 320

	DefaultQuality = Quality192
)

// SupportedQualities lists the selectable bitrates in ascending order
var SupportedQualities = []Quality{Quality64, Quality128, Quality192, Quality256, Quality320}

// IsValid checks if the quality is one of the supported bitrates
func (q Quality) IsValid() bool {
	for _, s := range SupportedQualities {
		if q == s {
			return true
		}
	}
	return false
}

// String returns the bitrate without unit, e.g. "192"
func (q Quality) String() string {
	return strconv.Itoa(int(q))
}

// ParseQuality parses "192", "192k" or "192kbps"
func ParseQuality(s string) (Quality, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "kbps")
	v = strings.TrimSuffix(v, "k")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: quality %q", ErrInvalidRequest, s)
	}
	q := Quality(n)
	if !q.IsValid() {
		return 0, fmt.Errorf("%w: unsupported quality %d", ErrInvalidRequest, n)
	}
	return q, nil
}

// FailurePolicy decides what happens to the remaining items of a job when
// one item fails
type FailurePolicy string

const (
	FailurePolicyAbort FailurePolicy = "abort"
	FailurePolicySkip  FailurePolicy = "skip"
)

// ValidateFailurePolicy checks if a failure policy is valid
func ValidateFailurePolicy(p FailurePolicy) bool {
	return p == FailurePolicyAbort || p == FailurePolicySkip
}

// DownloadRequest describes one submitted job. It is a value type; the
// controller keeps its own copy once submitted.
type DownloadRequest struct {
	URL            string  `json:"url"`
	Quality        Quality `json:"quality"`
	ExpandPlaylist bool    `json:"expand_playlist"`
	DestinationDir string  `json:"destination_dir"`
}

// NewDownloadRequest creates a validated download request
func NewDownloadRequest(rawURL string, quality Quality, expandPlaylist bool, destinationDir string) (DownloadRequest, error) {
	req := DownloadRequest{
		URL:            strings.TrimSpace(rawURL),
		Quality:        quality,
		ExpandPlaylist: expandPlaylist,
		DestinationDir: destinationDir,
	}
	if err := req.Validate(); err != nil {
		return DownloadRequest{}, err
	}
	return req, nil
}

// Validate checks the request fields. The URL is only required to be
// non-empty: search terms and bare video IDs are valid input, and the
// extractor reports anything it cannot handle as a ResolutionError.
func (r DownloadRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	if !r.Quality.IsValid() {
		return fmt.Errorf("%w: unsupported quality %d", ErrInvalidRequest, int(r.Quality))
	}
	if r.DestinationDir == "" {
		return fmt.Errorf("%w: destination directory is required", ErrInvalidRequest)
	}
	return nil
}

// DownloadRecord is an entry in the session history. Created only when an
// item completes successfully and never mutated afterwards.
type DownloadRecord struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null;index"`
	Title      string    `json:"title" gorm:"not null"`
	ResultPath string    `json:"result_path" gorm:"not null"`
	SourceURL  string    `json:"source_url,omitempty"`
	Quality    Quality   `json:"quality,omitempty"`
}

// NewDownloadRecord creates a record for a finished item
func NewDownloadRecord(item MediaItem, resultPath string, quality Quality) DownloadRecord {
	return DownloadRecord{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Title:      item.Title,
		ResultPath: resultPath,
		SourceURL:  item.SourcePageURL,
		Quality:    quality,
	}
}

// DisplayTime formats the timestamp the way the history list shows it
func (r DownloadRecord) DisplayTime() string {
	return r.Timestamp.Format("2006-01-02 15:04")
}
