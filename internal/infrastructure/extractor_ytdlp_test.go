package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// writeFakeYTDLP creates an executable shell script standing in for yt-dlp
func writeFakeYTDLP(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

const parseStagingDir = `dir=""
while [ $# -gt 0 ]; do
  case "$1" in
    -P) dir="$2"; shift ;;
  esac
  shift
done
`

func stagingDirs(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, stagingPrefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestYTDLPExtractor_DownloadSuccess(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	bin := writeFakeYTDLP(t, `printf '%s\n' "$@" > '`+argsFile+`'
`+parseStagingDir+`
echo "[download] Destination: ignored"
echo "[progress] downloading|  10.0%|1.00MiB/s|1048576.0"
echo "[progress] downloading|  55.5%|2.00MiB/s|2097152.0"
echo "[progress] finished| 100.0%|NA|NA"
echo "[postprocess] started|ExtractAudio"
printf 'ID3' > "$dir/Song.mp3"
echo "[postprocess] finished|ExtractAudio"
echo "[output] $dir/Song.mp3"
`)
	logsDir := t.TempDir()
	dest := filepath.Join(t.TempDir(), "My Music")

	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin, WriteLog: true}, logsDir, nil)

	var events []domain.RawProgress
	item := domain.MediaItem{ID: "abc", Title: "Song", SourcePageURL: "https://www.youtube.com/watch?v=abc"}
	path, err := extractor.Download(context.Background(), item, domain.Quality192, dest, func(raw domain.RawProgress) {
		events = append(events, raw)
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "Song.mp3"), path)
	assert.FileExists(t, path)
	assert.Empty(t, stagingDirs(t, dest))

	require.Len(t, events, 5)
	assert.Equal(t, "downloading", events[0]["status"])
	assert.Equal(t, "  10.0%", events[0]["_percent_str"])
	assert.Equal(t, 2097152.0, events[1]["speed"])
	assert.Equal(t, "finished", events[2]["status"])
	assert.Equal(t, "ExtractAudio", events[3]["postprocessor"])

	argsData, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(argsData)), "\n")
	assert.Contains(t, args, "bestaudio/best")
	assert.Contains(t, args, "192K")
	assert.Contains(t, args, "mp3")
	assert.Contains(t, args, "--no-playlist")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", args[len(args)-1])

	logs, err := filepath.Glob(filepath.Join(logsDir, "download-*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	logData, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(logData), "=== [")
	assert.Contains(t, string(logData), "SUCCESS: Downloaded: ")
}

func TestYTDLPExtractor_DownloadFallsBackToStagingScan(t *testing.T) {
	bin := writeFakeYTDLP(t, parseStagingDir+`
printf 'ID3' > "$dir/Other Song.mp3"
`)
	dest := t.TempDir()
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	path, err := extractor.Download(context.Background(), domain.MediaItem{Title: "Other Song", SourcePageURL: "https://example.com/v"}, domain.Quality128, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "Other Song.mp3"), path)
}

func TestYTDLPExtractor_DownloadFailure(t *testing.T) {
	bin := writeFakeYTDLP(t, parseStagingDir+`
printf 'partial' > "$dir/Song.webm.part"
echo "ERROR: [youtube] abc: Requested format is not available" >&2
exit 1
`)
	dest := t.TempDir()
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	_, err := extractor.Download(context.Background(), domain.MediaItem{Title: "Song", SourcePageURL: "https://example.com/v"}, domain.Quality192, dest, nil)

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, domain.DownloadFormatUnavailable, dlErr.Reason)
	assert.Equal(t, "[youtube] abc: Requested format is not available", dlErr.Detail)
	assert.Empty(t, stagingDirs(t, dest))
}

func TestYTDLPExtractor_DownloadNoOutput(t *testing.T) {
	bin := writeFakeYTDLP(t, "exit 0\n")
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	_, err := extractor.Download(context.Background(), domain.MediaItem{Title: "Song", SourcePageURL: "https://example.com/v"}, domain.Quality192, t.TempDir(), nil)

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, domain.DownloadNoOutput, dlErr.Reason)
}

func TestYTDLPExtractor_DownloadToolMissing(t *testing.T) {
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: filepath.Join(t.TempDir(), "missing-yt-dlp")}, "", nil)

	_, err := extractor.Download(context.Background(), domain.MediaItem{Title: "Song", SourcePageURL: "https://example.com/v"}, domain.Quality192, t.TempDir(), nil)

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, domain.DownloadToolMissing, dlErr.Reason)
}

func TestYTDLPExtractor_DownloadCancelled(t *testing.T) {
	bin := writeFakeYTDLP(t, parseStagingDir+`
printf 'partial' > "$dir/Song.webm.part"
echo "[progress] downloading|  5.0%|1.00MiB/s|1048576.0"
exec sleep 30
`)
	dest := t.TempDir()
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	_, err := extractor.Download(ctx, domain.MediaItem{Title: "Song", SourcePageURL: "https://example.com/v"}, domain.Quality192, dest, func(domain.RawProgress) {
		cancel()
	})

	assert.True(t, domain.IsCancelled(err))
	assert.Less(t, time.Since(start), 15*time.Second)
	assert.Empty(t, stagingDirs(t, dest))
}

func TestYTDLPExtractor_ResolveSingle(t *testing.T) {
	bin := writeFakeYTDLP(t, `cat <<'JSON'
{"_type": "video", "id": "abc", "title": "Song", "duration": 185.0, "webpage_url": "https://www.youtube.com/watch?v=abc", "thumbnail": "https://i.ytimg.com/vi/abc/hq.jpg", "uploader": "Artist"}
JSON
`)
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	res, err := extractor.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)

	assert.False(t, res.IsPlaylist())
	items := res.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Song", items[0].Title)
	assert.Equal(t, 185, items[0].DurationSeconds)
	assert.Equal(t, "Artist", items[0].Uploader)
	assert.Equal(t, "3:05", items[0].FormatDuration())
}

func TestYTDLPExtractor_ResolvePlaylist(t *testing.T) {
	bin := writeFakeYTDLP(t, `cat <<'JSON'
{"_type": "playlist", "id": "PL1", "title": "Mix", "entries": [
  {"_type": "url", "ie_key": "Youtube", "id": "a", "title": "One", "url": "https://www.youtube.com/watch?v=a"},
  null,
  {"_type": "url", "ie_key": "Youtube", "id": "b", "title": "Two", "url": "b"}
]}
JSON
`)
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	res, err := extractor.Resolve(context.Background(), "https://www.youtube.com/playlist?list=PL1")
	require.NoError(t, err)

	assert.True(t, res.IsPlaylist())
	assert.Equal(t, "Mix", res.Title)
	items := res.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=a", items[0].SourcePageURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=b", items[1].SourcePageURL)
}

func TestYTDLPExtractor_ResolveFailure(t *testing.T) {
	bin := writeFakeYTDLP(t, `echo "ERROR: Unsupported URL: https://example.com/" >&2
exit 1
`)
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: bin}, "", nil)

	_, err := extractor.Resolve(context.Background(), "https://example.com/")

	var resErr *domain.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, domain.ResolutionUnsupported, resErr.Reason)
}

func TestYTDLPExtractor_ResolveToolMissing(t *testing.T) {
	extractor := NewYTDLPExtractor(domain.ExtractorConfig{YTDLPBinary: "definitely-not-a-real-yt-dlp"}, "", nil)

	_, err := extractor.Resolve(context.Background(), "https://example.com/")

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, domain.DownloadToolMissing, dlErr.Reason)
}

func TestYTDLPExtractor_CookiesRedactedInArgs(t *testing.T) {
	cookie := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookie, []byte("# Netscape"), 0600))

	extractor := NewYTDLPExtractor(domain.ExtractorConfig{CookieFile: cookie, FFmpegLocation: "/opt/ffmpeg"}, "", nil)
	args := extractor.downloadArgs(domain.MediaItem{SourcePageURL: "https://example.com/v"}, domain.Quality320, "/tmp/stage")

	assert.Contains(t, args, cookie)
	assert.Contains(t, args, "320K")
	assert.Contains(t, args, "/opt/ffmpeg")

	line := ShellEscapeCommand("yt-dlp", RedactFlagValues(args, "--cookies")...)
	assert.NotContains(t, line, cookie)
}

func TestDrainLines_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	r := strings.NewReader("first\n" + long + "\nlast\n")

	var lines []string
	drainLines(r, func(line string) { lines = append(lines, line) })

	require.Len(t, lines, 3)
	assert.Equal(t, "first", lines[0])
	assert.Len(t, lines[1], len(long))
	assert.Equal(t, "last", lines[2])
}

func TestDrainLines_ConsumesRestAfterOversizedLine(t *testing.T) {
	huge := strings.Repeat("y", maxLineSize+1)
	r := strings.NewReader("first\n" + huge + "\n" + strings.Repeat("tail\n", 1000))

	var lines []string
	drainLines(r, func(line string) { lines = append(lines, line) })

	assert.Equal(t, []string{"first"}, lines)
	assert.Zero(t, r.Len())
}
