package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
	"github.com/yourusername/mp3-extract-go/internal/engine"
)

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download the audio of a video or playlist as mp3",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		req, err := buildRequest(cmd, eng.Config, args[0])
		if err != nil {
			return err
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		result, err := runJob(eng, req, timeout)
		if err != nil {
			return err
		}
		return reportResult(result)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show what a URL resolves to without downloading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		resolution, err := eng.Extractor.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		if resolution.IsPlaylist() {
			fmt.Printf("Playlist: %s (%d entries)\n", resolution.Title, len(resolution.Entries))
		}
		for i, item := range resolution.Items() {
			fmt.Printf("%3d. %s [%s]\n", i+1, item.Title, item.FormatDuration())
			if item.Uploader != "" {
				fmt.Printf("     by %s\n", item.Uploader)
			}
			fmt.Printf("     %s\n", item.SourcePageURL)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringP("quality", "q", "", "Bitrate: 64, 128, 192, 256 or 320 kbps (default: saved preference)")
	downloadCmd.Flags().BoolP("playlist", "p", false, "Download every playlist entry instead of the first")
	downloadCmd.Flags().StringP("dir", "d", "", "Destination directory (default: last used or download.base_dir)")
	downloadCmd.Flags().Duration("timeout", 0, "Cancel the job after this long (0 = no limit)")
}

func buildRequest(cmd *cobra.Command, config *domain.Config, url string) (domain.DownloadRequest, error) {
	quality := domain.Quality(config.Preferences.Quality)
	if q, _ := cmd.Flags().GetString("quality"); q != "" {
		parsed, err := domain.ParseQuality(q)
		if err != nil {
			return domain.DownloadRequest{}, err
		}
		quality = parsed
	}

	expand := config.Preferences.AutoPlaylist
	if cmd.Flags().Changed("playlist") {
		expand, _ = cmd.Flags().GetBool("playlist")
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = config.DestinationDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.DownloadRequest{}, fmt.Errorf("failed to create destination: %w", err)
	}

	return domain.NewDownloadRequest(url, quality, expand, dir)
}

// runJob submits req and drives the event loop on this goroutine until the
// job finishes. Interrupts and the optional timeout request cancellation.
func runJob(eng *engine.Engine, req domain.DownloadRequest, timeout time.Duration) (*app.JobResult, error) {
	handlers := append(eng.Handlers(), newProgressReporter(os.Stderr))
	loop := app.NewEventLoop(eng.Controller.Events(), eng.Logger, handlers...)

	jobID, err := eng.Controller.Submit(req)
	if err != nil {
		return nil, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigCh:
				requestCancel(eng)
			case <-done:
				return
			}
		}
	}()

	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			eng.Logger.Warn("Job timed out", zap.Duration("timeout", timeout))
			requestCancel(eng)
		})
		defer timer.Stop()
	}

	return loop.RunUntilFinished(context.Background(), jobID)
}

func requestCancel(eng *engine.Engine) {
	if err := eng.Controller.Cancel(); err != nil && !errors.Is(err, domain.ErrNoActiveJob) {
		eng.Logger.Error("Failed to cancel job", zap.Error(err))
	}
}

func reportResult(result *app.JobResult) error {
	switch result.Outcome {
	case app.OutcomeCompleted:
		fmt.Printf("Done: %d file(s) saved\n", len(result.Records))
		return nil
	case app.OutcomeCancelled:
		fmt.Printf("Cancelled: %d file(s) saved before stopping\n", len(result.Records))
		return nil
	}
	if len(result.Records) > 0 {
		fmt.Printf("%d file(s) saved before the failure\n", len(result.Records))
	}
	if result.Err != nil {
		return result.Err
	}
	return errors.New(result.Error)
}
