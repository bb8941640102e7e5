package infrastructure

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// Line prefixes produced by the progress and print templates passed to yt-dlp
const (
	progressPrefix    = "[progress] "
	postprocessPrefix = "[postprocess] "
	outputPrefix      = "[output] "
)

// ytdlpInfo is the subset of yt-dlp's --dump-single-json document we use
type ytdlpInfo struct {
	Type        string       `json:"_type"`
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Duration    float64      `json:"duration"`
	WebpageURL  string       `json:"webpage_url"`
	URL         string       `json:"url"`
	IEKey       string       `json:"ie_key"`
	Thumbnail   string       `json:"thumbnail"`
	Thumbnails  []ytdlpThumb `json:"thumbnails"`
	Uploader    string       `json:"uploader"`
	Channel     string       `json:"channel"`
	Entries     []*ytdlpInfo `json:"entries"`
	OriginalURL string       `json:"original_url"`
}

type ytdlpThumb struct {
	URL string `json:"url"`
}

// parseResolution maps a yt-dlp info document to a PlaylistResolution
func parseResolution(data []byte, requestURL string) (*domain.PlaylistResolution, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, &domain.ResolutionError{Reason: domain.ResolutionUnknown, URL: requestURL, Err: err}
	}

	if info.Type != "playlist" && info.Type != "multi_video" {
		item := info.toMediaItem()
		if item.SourcePageURL == "" {
			item.SourcePageURL = requestURL
		}
		return domain.NewSingleResolution(item), nil
	}

	entries := make([]domain.MediaItem, 0, len(info.Entries))
	for _, e := range info.Entries {
		if e == nil {
			continue
		}
		item := e.toMediaItem()
		if item.SourcePageURL == "" {
			continue
		}
		entries = append(entries, item)
	}
	if len(entries) == 0 {
		return nil, &domain.ResolutionError{Reason: domain.ResolutionEmptyPlaylist, URL: requestURL}
	}
	return domain.NewPlaylistResolution(info.Title, entries), nil
}

func (i *ytdlpInfo) toMediaItem() domain.MediaItem {
	item := domain.MediaItem{
		ID:              i.ID,
		Title:           i.Title,
		DurationSeconds: int(i.Duration),
		SourcePageURL:   i.pageURL(),
		ThumbnailURL:    i.Thumbnail,
		Uploader:        i.Uploader,
	}
	if item.Title == "" {
		item.Title = i.ID
	}
	if item.ThumbnailURL == "" && len(i.Thumbnails) > 0 {
		item.ThumbnailURL = i.Thumbnails[len(i.Thumbnails)-1].URL
	}
	if item.Uploader == "" {
		item.Uploader = i.Channel
	}
	return item
}

func (i *ytdlpInfo) pageURL() string {
	switch {
	case i.WebpageURL != "":
		return i.WebpageURL
	case strings.HasPrefix(i.URL, "http"):
		return i.URL
	case i.ID != "" && strings.EqualFold(i.IEKey, "youtube"):
		return "https://www.youtube.com/watch?v=" + i.ID
	case i.OriginalURL != "":
		return i.OriginalURL
	}
	return ""
}

// parseOutputLine turns one stdout line into a raw progress payload or a
// produced file path. Lines that are neither return ok == false.
func parseOutputLine(line string) (raw domain.RawProgress, outputPath string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case strings.HasPrefix(line, progressPrefix):
		parts := strings.Split(strings.TrimPrefix(line, progressPrefix), "|")
		if len(parts) < 2 {
			return nil, "", false
		}
		raw = domain.RawProgress{
			"status":       strings.TrimSpace(parts[0]),
			"_percent_str": parts[1],
		}
		if len(parts) > 2 {
			raw["_speed_str"] = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			if speed, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err == nil {
				raw["speed"] = speed
			}
		}
		return raw, "", true
	case strings.HasPrefix(line, postprocessPrefix):
		parts := strings.Split(strings.TrimPrefix(line, postprocessPrefix), "|")
		raw = domain.RawProgress{"status": strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			raw["postprocessor"] = strings.TrimSpace(parts[1])
		}
		return raw, "", true
	case strings.HasPrefix(line, outputPrefix):
		path := strings.TrimSpace(strings.TrimPrefix(line, outputPrefix))
		if path == "" || path == "NA" {
			return nil, "", false
		}
		return nil, path, true
	}
	return nil, "", false
}

// lastErrorLine picks the most telling stderr line
func lastErrorLine(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(lines[i], "ERROR:"))
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}

var networkMarkers = []string{
	"HTTP Error", "Unable to download", "timed out", "Connection reset",
	"Connection refused", "urlopen error", "getaddrinfo", "Name or service not known",
	"Temporary failure in name resolution", "Network is unreachable",
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// classifyDownloadFailure maps a failed yt-dlp run to a DownloadReason
func classifyDownloadFailure(runErr error, stderr string) domain.DownloadReason {
	switch {
	case errors.Is(runErr, exec.ErrNotFound), errors.Is(runErr, fs.ErrNotExist):
		return domain.DownloadToolMissing
	case strings.Contains(stderr, "ffmpeg not found"), strings.Contains(stderr, "ffprobe and ffmpeg not found"),
		strings.Contains(stderr, "ffprobe/avprobe and ffmpeg/avconv not found"):
		return domain.DownloadToolMissing
	case strings.Contains(stderr, "Requested format is not available"):
		return domain.DownloadFormatUnavailable
	case strings.Contains(stderr, "Postprocessing"), strings.Contains(stderr, "Conversion failed"),
		strings.Contains(stderr, "audio conversion failed"):
		return domain.DownloadConversionFailed
	case containsAny(stderr, networkMarkers):
		return domain.DownloadNetwork
	}
	return domain.DownloadUnknown
}

// classifyResolveFailure maps a failed metadata lookup to a ResolutionReason
func classifyResolveFailure(stderr string) domain.ResolutionReason {
	switch {
	case strings.Contains(stderr, "is not a valid URL"):
		return domain.ResolutionInvalidURL
	case strings.Contains(stderr, "Unsupported URL"):
		return domain.ResolutionUnsupported
	case strings.Contains(stderr, "Video unavailable"), strings.Contains(stderr, "Private video"),
		containsAny(stderr, networkMarkers):
		return domain.ResolutionUnreachable
	}
	return domain.ResolutionUnknown
}
