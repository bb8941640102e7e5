// Package engine wires configuration, logging, the extractor, history
// persistence and the job controller into one unit shared by the CLI and
// the server.
package engine

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
	"github.com/yourusername/mp3-extract-go/internal/infrastructure"
	"github.com/yourusername/mp3-extract-go/pkg/logger"
)

// historyRestoreLimit caps how many persisted records are loaded at start
const historyRestoreLimit = 500

// Options tune how the engine is built
type Options struct {
	ConfigPath string
	// LogLevel overrides logging.level when set
	LogLevel string
	// LogOutput overrides logging.output_path when set
	LogOutput string
	// DisableFileLogs skips the per-category log files
	DisableFileLogs bool
}

// Engine holds the long-lived components of one process
type Engine struct {
	Config     *domain.Config
	ConfigPath string
	Logger     *zap.Logger

	MultiLogger *logger.MultiLogger
	Extractor   *infrastructure.YTDLPExtractor
	Repository  *infrastructure.SQLiteHistoryRepository
	Notifier    *infrastructure.NotificationService
	Registry    *app.SessionRegistry
	History     *app.HistoryService
	Controller  *app.JobController
}

// Open loads the configuration and builds every component
func Open(opts Options) (*Engine, error) {
	config, err := app.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Config:     config,
		ConfigPath: app.FindConfigFile(opts.ConfigPath),
	}

	if err := e.createDirectories(); err != nil {
		return nil, err
	}

	if err := e.initLogging(opts); err != nil {
		return nil, err
	}

	e.Extractor = infrastructure.NewYTDLPExtractor(config.Extractor, config.Download.LogsDir, e.Logger)
	e.Notifier = infrastructure.NewNotificationService(&config.Notification, e.Logger)
	e.Registry = app.NewSessionRegistry()

	var repo domain.HistoryRepository
	if config.History.Enabled {
		e.Repository, err = infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		repo = e.Repository
	}

	e.History = app.NewHistoryService(e.Registry, repo, e.Logger)
	if n, err := e.History.Restore(historyRestoreLimit); err != nil {
		e.Logger.Warn("Failed to restore history", zap.Error(err))
	} else if n > 0 {
		e.Logger.Debug("History restored", zap.Int("records", n))
	}

	e.Controller = app.NewJobController(e.Extractor, e.Registry, config.Download.FailurePolicy, e.Logger)
	return e, nil
}

func (e *Engine) initLogging(opts Options) error {
	cfg := logger.Config{
		Level:      e.Config.Logging.Level,
		Format:     e.Config.Logging.Format,
		OutputPath: e.Config.Logging.OutputPath,
	}
	if opts.LogLevel != "" {
		cfg.Level = opts.LogLevel
	}
	if opts.LogOutput != "" {
		cfg.OutputPath = opts.LogOutput
	}

	base, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if opts.DisableFileLogs {
		e.Logger = base
		return nil
	}

	ml, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   e.Config.Logging.Level,
		LogsDir: e.Config.Download.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	e.MultiLogger = ml
	e.Logger = logger.Combine(base, ml)
	return nil
}

func (e *Engine) createDirectories() error {
	dirs := []string{
		e.Config.Download.BaseDir,
		e.Config.Download.LogsDir,
		e.Config.Download.ConfigDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Handlers returns the event handlers every front end attaches: history
// persistence, desktop notifications and remembered preferences
func (e *Engine) Handlers() []app.EventHandler {
	return []app.EventHandler{
		e.History,
		app.NewNotificationHandler(e.Notifier),
		app.NewPreferencesRecorder(e.Config, e.ConfigPath, e.Logger),
	}
}

// Close stops the controller and releases files and the database
func (e *Engine) Close() error {
	var result *multierror.Error
	if e.Controller != nil {
		if err := e.Controller.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if e.Repository != nil {
		if err := e.Repository.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if e.Logger != nil {
		_ = e.Logger.Sync()
	}
	if e.MultiLogger != nil {
		if err := e.MultiLogger.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
