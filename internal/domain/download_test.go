package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input    string
		expected Quality
		wantErr  bool
	}{
		{"192", Quality192, false},
		{"320k", Quality320, false},
		{" 64kbps ", Quality64, false},
		{"128K", Quality128, false},
		{"100", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := ParseQuality(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q)
		})
	}
}

func TestNewDownloadRequest(t *testing.T) {
	req, err := NewDownloadRequest(" https://www.youtube.com/watch?v=abc ", Quality192, false, "/tmp/out")
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc", req.URL)
	assert.Equal(t, Quality192, req.Quality)
	assert.False(t, req.ExpandPlaylist)
	assert.Equal(t, "/tmp/out", req.DestinationDir)
}

func TestDownloadRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  DownloadRequest
	}{
		{"empty url", DownloadRequest{Quality: Quality192, DestinationDir: "/tmp"}},
		{"blank url", DownloadRequest{URL: "  ", Quality: Quality192, DestinationDir: "/tmp"}},
		{"bad quality", DownloadRequest{URL: "https://example.com/a", Quality: 100, DestinationDir: "/tmp"}},
		{"no destination", DownloadRequest{URL: "https://example.com/a", Quality: Quality192}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.req.Validate(), ErrInvalidRequest)
		})
	}
}

func TestDownloadRequest_ValidateAcceptsNonHTTPInput(t *testing.T) {
	for _, raw := range []string{"single-video-A", "ytsearch:some song", "dQw4w9WgXcQ", "youtube.com/watch?v=abc"} {
		req := DownloadRequest{URL: raw, Quality: Quality192, DestinationDir: "/tmp"}
		assert.NoError(t, req.Validate(), raw)
	}
}

func TestNewDownloadRecord(t *testing.T) {
	item := MediaItem{ID: "a", Title: "Song", SourcePageURL: "https://example.com/a"}

	record := NewDownloadRecord(item, "/music/Song.mp3", Quality192)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Song", record.Title)
	assert.Equal(t, "/music/Song.mp3", record.ResultPath)
	assert.Equal(t, "https://example.com/a", record.SourceURL)
	assert.False(t, record.Timestamp.IsZero())
	assert.Len(t, record.DisplayTime(), len("2006-01-02 15:04"))
}

func TestValidateFailurePolicy(t *testing.T) {
	assert.True(t, ValidateFailurePolicy(FailurePolicyAbort))
	assert.True(t, ValidateFailurePolicy(FailurePolicySkip))
	assert.False(t, ValidateFailurePolicy("retry"))
}

func TestMediaItem_FormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", MediaItem{}.FormatDuration())
	assert.Equal(t, "3:05", MediaItem{DurationSeconds: 185}.FormatDuration())
	assert.Equal(t, "1:01:01", MediaItem{DurationSeconds: 3661}.FormatDuration())
}

func TestPlaylistResolution_Select(t *testing.T) {
	a := MediaItem{ID: "a", Title: "A"}
	b := MediaItem{ID: "b", Title: "B"}
	c := MediaItem{ID: "c", Title: "C"}

	single := NewSingleResolution(a)
	assert.False(t, single.IsPlaylist())
	assert.Equal(t, []MediaItem{a}, single.Select(true))
	assert.Equal(t, []MediaItem{a}, single.Select(false))

	playlist := NewPlaylistResolution("List", []MediaItem{a, b, c})
	assert.True(t, playlist.IsPlaylist())
	assert.Equal(t, []MediaItem{a, b, c}, playlist.Select(true))
	assert.Equal(t, []MediaItem{a}, playlist.Select(false))

	empty := NewPlaylistResolution("Empty", nil)
	assert.Empty(t, empty.Select(true))
}

func TestJobState(t *testing.T) {
	assert.True(t, JobState{Kind: JobResolving}.IsActive())
	assert.True(t, JobState{Kind: JobRunningItem, Index: 1, Total: 2}.IsActive())
	assert.True(t, JobState{Kind: JobCancelling}.IsActive())
	assert.False(t, JobState{Kind: JobIdle}.IsActive())
	assert.True(t, JobState{Kind: JobCompleted}.IsFinished())
	assert.True(t, JobState{Kind: JobFailed}.IsFinished())
	assert.Equal(t, "running_item(2/5)", JobState{Kind: JobRunningItem, Index: 2, Total: 5}.String())
}

func TestErrors(t *testing.T) {
	wrapped := fmt.Errorf("item 3: %w", &CancelledError{})
	assert.True(t, IsCancelled(wrapped))
	assert.True(t, errors.Is(ErrCancelled, ErrCancelled))
	assert.False(t, IsCancelled(errors.New("boom")))

	var resErr *ResolutionError
	err := fmt.Errorf("job: %w", &ResolutionError{Reason: ResolutionUnsupported, URL: "https://x"})
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ResolutionUnsupported, resErr.Reason)

	dlErr := &DownloadError{Reason: DownloadNetwork, Item: "Song", Detail: "HTTP Error 403"}
	assert.Equal(t, `download "Song": network: HTTP Error 403`, dlErr.Error())
}
