package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// ErrControllerClosed is returned by Submit after Close
var ErrControllerClosed = errors.New("job controller closed")

// JobController runs one download job at a time: it resolves the URL,
// downloads the selected items sequentially, reports progress and records
// every finished item. All notifications go through its dispatcher.
type JobController struct {
	extractor  domain.Extractor
	registry   *SessionRegistry
	dispatcher *Dispatcher
	policy     domain.FailurePolicy
	logger     *zap.Logger

	mu      sync.Mutex
	state   domain.JobState
	current *jobRun
	closed  bool
}

// jobRun is the bookkeeping for one submitted job
type jobRun struct {
	id        string
	req       domain.DownloadRequest
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

// NewJobController creates a new job controller
func NewJobController(
	extractor domain.Extractor,
	registry *SessionRegistry,
	policy domain.FailurePolicy,
	logger *zap.Logger,
) *JobController {
	if registry == nil {
		registry = NewSessionRegistry()
	}
	if !domain.ValidateFailurePolicy(policy) {
		policy = domain.FailurePolicyAbort
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobController{
		extractor:  extractor,
		registry:   registry,
		dispatcher: NewDispatcher(),
		policy:     policy,
		logger:     logger,
		state:      domain.JobState{Kind: domain.JobIdle},
	}
}

// Registry returns the session registry the controller records into
func (c *JobController) Registry() *SessionRegistry {
	return c.registry
}

// Events returns the channel all notifications are delivered on
func (c *JobController) Events() <-chan Event {
	return c.dispatcher.Events()
}

// State returns the current controller state
func (c *JobController) State() domain.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit starts a job and returns its ID without waiting for any work.
// Fails with ErrJobActive while another job is in flight.
func (c *JobController) Submit(req domain.DownloadRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrControllerClosed
	}
	if c.state.IsActive() {
		return "", domain.ErrJobActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &jobRun{
		id:     uuid.New().String(),
		req:    req,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.current = run

	c.logger.Info("Job submitted",
		zap.String("job_id", run.id),
		zap.String("url", req.URL),
		zap.Int("quality", int(req.Quality)),
		zap.Bool("expand_playlist", req.ExpandPlaylist),
		zap.String("destination", req.DestinationDir))

	c.setStateLocked(run, domain.JobState{Kind: domain.JobResolving}, nil)

	go c.run(ctx, run)
	return run.id, nil
}

// Cancel requests the active job to stop. It returns once the request is
// recorded; the job reaches Idle when the in-flight work has stopped.
func (c *JobController) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run := c.current
	if run == nil || !c.state.IsActive() {
		return domain.ErrNoActiveJob
	}
	if c.state.Kind == domain.JobCancelling {
		return nil
	}

	run.cancelled.Store(true)
	c.logger.Info("Job cancellation requested", zap.String("job_id", run.id))
	c.setStateLocked(run, domain.JobState{Kind: domain.JobCancelling, Index: c.state.Index, Total: c.state.Total}, nil)
	run.cancel()
	return nil
}

// Wait blocks until the current job, if any, has finished
func (c *JobController) Wait(ctx context.Context) error {
	c.mu.Lock()
	run := c.current
	c.mu.Unlock()

	if run == nil {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any active job, waits for it and closes the event stream
func (c *JobController) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	run := c.current
	active := c.state.IsActive()
	c.mu.Unlock()

	if run != nil && active {
		if err := c.Cancel(); err != nil && !errors.Is(err, domain.ErrNoActiveJob) {
			return err
		}
		<-run.done
	}
	c.dispatcher.Close()
	return nil
}

func (c *JobController) run(ctx context.Context, run *jobRun) {
	defer close(run.done)
	defer run.cancel()

	req := run.req
	log := c.logger.With(zap.String("job_id", run.id))

	resolution, err := c.extractor.Resolve(ctx, req.URL)
	if run.cancelled.Load() || domain.IsCancelled(err) {
		c.finish(run, OutcomeCancelled, nil, nil)
		return
	}
	if err != nil {
		err = asResolutionError(err, req.URL)
		log.Error("Resolution failed", zap.String("url", req.URL), zap.Error(err))
		c.finish(run, OutcomeFailed, nil, err)
		return
	}

	items := resolution.Select(req.ExpandPlaylist)
	if len(items) == 0 {
		err := &domain.ResolutionError{Reason: domain.ResolutionEmptyPlaylist, URL: req.URL}
		log.Error("Resolution returned no items", zap.String("url", req.URL))
		c.finish(run, OutcomeFailed, nil, err)
		return
	}

	total := len(items)
	log.Info("URL resolved",
		zap.String("title", resolution.Title),
		zap.Bool("playlist", resolution.IsPlaylist()),
		zap.Int("items", total))

	var (
		records  []domain.DownloadRecord
		failures *multierror.Error
	)

	for i, item := range items {
		index := i + 1
		if run.cancelled.Load() {
			c.finish(run, OutcomeCancelled, records, nil)
			return
		}

		item := item
		if !c.setState(run, domain.JobState{Kind: domain.JobRunningItem, Index: index, Total: total}, &item) {
			c.finish(run, OutcomeCancelled, records, nil)
			return
		}

		log.Info("Downloading item",
			zap.Int("index", index),
			zap.Int("total", total),
			zap.String("title", item.Title),
			zap.String("source", item.SourcePageURL))

		path, err := c.extractor.Download(ctx, item, req.Quality, req.DestinationDir, func(raw domain.RawProgress) {
			if run.cancelled.Load() {
				return
			}
			if event, ok := NormalizeProgress(raw); ok {
				c.postProgress(run, index, total, &item, event)
			}
		})

		if err == nil && run.cancelled.Load() {
			// The tool finished despite the interrupt. The item still counts
			// as cancelled and leaves no record.
			log.Info("Discarding item completed after cancel",
				zap.Int("index", index),
				zap.String("path", path))
			c.postProgress(run, index, total, &item, domain.ProgressEvent{Phase: domain.PhaseCancelled})
			c.finish(run, OutcomeCancelled, records, nil)
			return
		}

		if err == nil {
			record := domain.NewDownloadRecord(item, path, req.Quality)
			c.registry.Append(record)
			records = append(records, record)
			c.postProgress(run, index, total, &item, domain.ProgressEvent{Phase: domain.PhaseDone, Percent: 100})
			c.dispatcher.Post(Event{Type: EventItemCompleted, JobID: run.id, Index: index, Total: total, Item: &item, Record: &record})
			log.Info("Item completed",
				zap.Int("index", index),
				zap.String("title", item.Title),
				zap.String("path", path))
			continue
		}

		if run.cancelled.Load() || domain.IsCancelled(err) {
			c.postProgress(run, index, total, &item, domain.ProgressEvent{Phase: domain.PhaseCancelled})
			c.finish(run, OutcomeCancelled, records, nil)
			return
		}

		err = asDownloadError(err, item)
		c.postProgress(run, index, total, &item, domain.ProgressEvent{Phase: domain.PhaseFailed})
		c.dispatcher.Post(Event{Type: EventItemFailed, JobID: run.id, Index: index, Total: total, Item: &item, Error: err.Error()})
		log.Error("Item failed",
			zap.Int("index", index),
			zap.String("title", item.Title),
			zap.Error(err))

		if c.policy != domain.FailurePolicySkip {
			c.finish(run, OutcomeFailed, records, err)
			return
		}
		failures = multierror.Append(failures, fmt.Errorf("item %d/%d: %w", index, total, err))
	}

	if err := failures.ErrorOrNil(); err != nil {
		c.finish(run, OutcomeFailed, records, err)
		return
	}
	c.finish(run, OutcomeCompleted, records, nil)
}

// setState moves to next unless a cancellation already took over. The
// returned flag reports whether the transition happened.
func (c *JobController) setState(run *jobRun, next domain.JobState, item *domain.MediaItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind == domain.JobCancelling {
		return false
	}
	c.setStateLocked(run, next, item)
	return true
}

func (c *JobController) setStateLocked(run *jobRun, next domain.JobState, item *domain.MediaItem) {
	c.state = next
	state := next
	c.dispatcher.Post(Event{
		Type:  EventStateChanged,
		JobID: run.id,
		State: &state,
		Index: next.Index,
		Total: next.Total,
		Item:  item,
	})
}

func (c *JobController) postProgress(run *jobRun, index, total int, item *domain.MediaItem, progress domain.ProgressEvent) {
	c.dispatcher.Post(Event{
		Type:     EventProgress,
		JobID:    run.id,
		Index:    index,
		Total:    total,
		Item:     item,
		Progress: &progress,
	})
}

// finish publishes the terminal state and the single JobFinished event.
// Both are posted under the lock so no later Submit can interleave. Once a
// cancel has been recorded the job always ends as cancelled.
func (c *JobController) finish(run *jobRun, outcome JobOutcome, records []domain.DownloadRecord, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if run.cancelled.Load() {
		outcome = OutcomeCancelled
		err = nil
	}

	result := &JobResult{
		Outcome: outcome,
		Request: run.req,
		Records: records,
		Err:     err,
	}
	if err != nil {
		result.Error = err.Error()
	}
	if result.Records == nil {
		result.Records = []domain.DownloadRecord{}
	}

	var next domain.JobState
	switch outcome {
	case OutcomeCompleted:
		next = domain.JobState{Kind: domain.JobCompleted}
	case OutcomeFailed:
		next = domain.JobState{Kind: domain.JobFailed}
	default:
		next = domain.JobState{Kind: domain.JobIdle}
	}

	c.setStateLocked(run, next, nil)
	c.dispatcher.Post(Event{Type: EventJobFinished, JobID: run.id, Result: result, Error: result.Error})

	c.logger.Info("Job finished",
		zap.String("job_id", run.id),
		zap.String("outcome", string(outcome)),
		zap.Int("records", len(records)),
		zap.Error(err))
}

// asResolutionError classifies errors coming out of Resolve. Tool errors
// keep their DownloadError classification.
func asResolutionError(err error, url string) error {
	var resErr *domain.ResolutionError
	var dlErr *domain.DownloadError
	if errors.As(err, &resErr) || errors.As(err, &dlErr) {
		return err
	}
	return &domain.ResolutionError{Reason: domain.ResolutionUnknown, URL: url, Err: err}
}

// asDownloadError classifies errors coming out of Download
func asDownloadError(err error, item domain.MediaItem) error {
	var dlErr *domain.DownloadError
	if errors.As(err, &dlErr) {
		return err
	}
	return &domain.DownloadError{Reason: domain.DownloadUnknown, Item: item.Title, Err: err}
}
