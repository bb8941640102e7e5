package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/mp3-extract-go/internal/domain"
	"github.com/yourusername/mp3-extract-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	stagingPrefix  = ".mp3extract-"
	stderrTailSize = 40
	killDelay      = 5 * time.Second
	maxLineSize    = 1024 * 1024
)

// YTDLPExtractor implements domain.Extractor on top of the yt-dlp binary.
// ffmpeg must be reachable by yt-dlp for the audio conversion.
type YTDLPExtractor struct {
	config  domain.ExtractorConfig
	logsDir string
	logger  *zap.Logger
}

// NewYTDLPExtractor creates a new yt-dlp backed extractor
func NewYTDLPExtractor(config domain.ExtractorConfig, logsDir string, log *zap.Logger) *YTDLPExtractor {
	if config.YTDLPBinary == "" {
		config.YTDLPBinary = "yt-dlp"
	}
	if config.AudioFormat == "" {
		config.AudioFormat = "mp3"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &YTDLPExtractor{
		config:  config,
		logsDir: logsDir,
		logger:  log,
	}
}

// Resolve fetches metadata only and maps it to media items
func (e *YTDLPExtractor) Resolve(ctx context.Context, url string) (*domain.PlaylistResolution, error) {
	args := e.resolveArgs(url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.YTDLPBinary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("Resolving URL",
		zap.String("url", url),
		zap.String("command", ShellEscapeCommand(e.config.YTDLPBinary, RedactFlagValues(args, "--cookies")...)))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrCancelled
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.DownloadError{Reason: domain.DownloadToolMissing, Detail: e.config.YTDLPBinary + " not found", Err: err}
		}
		detail := lastErrorLine(strings.Split(stderr.String(), "\n"))
		return nil, &domain.ResolutionError{
			Reason: classifyResolveFailure(stderr.String()),
			URL:    url,
			Err:    fmt.Errorf("%s: %w", detail, err),
		}
	}

	return parseResolution(stdout.Bytes(), url)
}

// Download fetches one item as audio, converts it and moves the result
// into destinationDir. Work happens in a staging directory that is always
// removed, so failures and cancellations leave no partial files.
func (e *YTDLPExtractor) Download(ctx context.Context, item domain.MediaItem, quality domain.Quality, destinationDir string, onProgress domain.RawProgressFunc) (string, error) {
	if onProgress == nil {
		onProgress = func(domain.RawProgress) {}
	}

	if err := os.MkdirAll(destinationDir, 0755); err != nil {
		return "", &domain.DownloadError{Reason: domain.DownloadIO, Item: item.Title, Err: err}
	}
	stagingDir := filepath.Join(destinationDir, stagingPrefix+uuid.New().String()[:8])
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return "", &domain.DownloadError{Reason: domain.DownloadIO, Item: item.Title, Err: err}
	}
	defer os.RemoveAll(stagingDir)

	args := e.downloadArgs(item, quality, stagingDir)
	cmdLine := ShellEscapeCommand(e.config.YTDLPBinary, RedactFlagValues(args, "--cookies")...)

	var rawLog io.Writer
	downloadLog := e.openLogFile()
	if downloadLog != nil {
		defer downloadLog.Close()
		writeLogHeader(downloadLog, item.Title, cmdLine)
		rawLog = downloadLog
	}

	outputPath, stderrTail, runErr := e.run(ctx, args, rawLog, onProgress)

	if ctx.Err() != nil {
		writeLogFooter(downloadLog, false, "cancelled")
		return "", domain.ErrCancelled
	}
	if runErr != nil {
		stderrText := strings.Join(stderrTail, "\n")
		dlErr := &domain.DownloadError{
			Reason: classifyDownloadFailure(runErr, stderrText),
			Item:   item.Title,
			Detail: lastErrorLine(stderrTail),
			Err:    runErr,
		}
		writeLogFooter(downloadLog, false, dlErr.Error())
		return "", dlErr
	}

	if outputPath == "" {
		outputPath = findOutputFile(stagingDir, e.config.AudioFormat)
	}
	if outputPath == "" {
		writeLogFooter(downloadLog, false, "no output file produced")
		return "", &domain.DownloadError{Reason: domain.DownloadNoOutput, Item: item.Title}
	}

	resultPath := filepath.Join(destinationDir, filepath.Base(outputPath))
	if err := moveFile(outputPath, resultPath); err != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("failed to move file: %v", err))
		return "", &domain.DownloadError{Reason: domain.DownloadIO, Item: item.Title, Err: err}
	}

	writeLogFooter(downloadLog, true, "Downloaded: "+resultPath)
	e.logger.Debug("Item downloaded",
		zap.String("title", item.Title),
		zap.String("path", resultPath))

	return resultPath, nil
}

// run executes yt-dlp and streams its output. Both pipes are drained before
// Wait, so every progress callback has happened by the time run returns.
func (e *YTDLPExtractor) run(ctx context.Context, args []string, downloadLog io.Writer, onProgress domain.RawProgressFunc) (string, []string, error) {
	cmd := exec.CommandContext(ctx, e.config.YTDLPBinary, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return interruptProcess(cmd) }
	cmd.WaitDelay = killDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", nil, err
	}

	if err := cmd.Start(); err != nil {
		return "", nil, err
	}

	logW := &lockedWriter{w: downloadLog}
	var (
		wg         sync.WaitGroup
		outputPath string
		tail       []string
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		drainLines(stdout, func(line string) {
			logW.WriteLine(line)
			raw, path, ok := parseOutputLine(line)
			if !ok {
				return
			}
			if path != "" {
				outputPath = path
				return
			}
			onProgress(raw)
		})
	}()

	go func() {
		defer wg.Done()
		drainLines(stderr, func(line string) {
			logW.WriteLine(line)
			tail = append(tail, line)
			if len(tail) > stderrTailSize {
				tail = tail[1:]
			}
		})
	}()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-done:
			case <-time.After(killDelay):
				killProcess(cmd)
			}
		case <-done:
		}
	}()

	wg.Wait()
	close(done)
	err = cmd.Wait()
	return outputPath, tail, err
}

// drainLines calls fn for every line of r and keeps reading until EOF even
// when a line is too long for the scanner, so the child never blocks on a
// full pipe.
func drainLines(r io.Reader, fn func(line string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	io.Copy(io.Discard, r)
}

func (e *YTDLPExtractor) baseArgs() []string {
	args := []string{"--no-warnings", "--no-colors"}
	if e.config.CookieFile != "" && fileExists(e.config.CookieFile) {
		args = append(args, "--cookies", e.config.CookieFile)
	}
	return args
}

func (e *YTDLPExtractor) resolveArgs(url string) []string {
	args := e.baseArgs()
	args = append(args, "--dump-single-json", "--flat-playlist", "--skip-download")
	return append(args, url)
}

func (e *YTDLPExtractor) downloadArgs(item domain.MediaItem, quality domain.Quality, stagingDir string) []string {
	args := e.baseArgs()
	args = append(args,
		"--no-playlist",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", e.config.AudioFormat,
		"--audio-quality", quality.String()+"K",
		"-o", "%(title)s.%(ext)s",
		"-P", stagingDir,
		"--newline",
		"--progress",
		"--progress-template", "download:" + progressPrefix + "%(progress.status)s|%(progress._percent_str)s|%(progress._speed_str)s|%(progress.speed)s",
		"--progress-template", "postprocess:" + postprocessPrefix + "%(progress.status)s|%(progress.postprocessor)s",
		"--print", "after_move:" + outputPrefix + "%(filepath)s",
	)
	if e.config.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", e.config.FFmpegLocation)
	}
	args = append(args, e.config.ExtraArgs...)
	return append(args, item.SourcePageURL)
}

// openLogFile opens today's raw download log, nil when disabled
func (e *YTDLPExtractor) openLogFile() *os.File {
	if !e.config.WriteLog || e.logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		e.logger.Warn("Failed to create logs directory", zap.Error(err))
		return nil
	}
	path := logger.CategoryLogPath(e.logsDir, logger.CategoryDownload, time.Now())
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		e.logger.Warn("Failed to open download log", zap.Error(err))
		return nil
	}
	return file
}

func writeLogHeader(file *os.File, title, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Download: %s ===\n", timestamp, title)
	fmt.Fprintf(file, "$ %s\n", cmdLine)
}

func writeLogFooter(file *os.File, success bool, message string) {
	if file == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n", timestamp, status, message)
	file.WriteString("=== END ===\n\n")
}

// lockedWriter serializes line writes from the stdout and stderr readers
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) WriteLine(line string) {
	if l.w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line+"\n")
}

// findOutputFile falls back to scanning the staging directory when the
// tool did not print the final path
func findOutputFile(dir, ext string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// moveFile renames src to dst, copying when they sit on different devices
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
