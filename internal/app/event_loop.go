package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// EventHandler consumes controller events on the foreground goroutine
type EventHandler interface {
	HandleEvent(Event)
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(Event)

// HandleEvent calls f(e)
func (f EventHandlerFunc) HandleEvent(e Event) {
	f(e)
}

// EventLoop is the single consumer of a controller's event channel. It
// delivers every event to its handlers in registration order.
type EventLoop struct {
	events   <-chan Event
	handlers []EventHandler
	logger   *zap.Logger
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewEventLoop creates a loop over events
func NewEventLoop(events <-chan Event, logger *zap.Logger, handlers ...EventHandler) *EventLoop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLoop{
		events:   events,
		handlers: handlers,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// AddHandler registers another handler
func (l *EventLoop) AddHandler(h EventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Run consumes events on the calling goroutine until the channel closes,
// ctx is done or Stop is called
func (l *EventLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopChan:
			l.drain()
			return nil
		case e, ok := <-l.events:
			if !ok {
				return nil
			}
			l.deliver(e)
		}
	}
}

// drain delivers events that are already waiting
func (l *EventLoop) drain() {
	for {
		select {
		case e, ok := <-l.events:
			if !ok {
				return
			}
			l.deliver(e)
		default:
			return
		}
	}
}

// RunUntilFinished consumes events until the JobFinished event of jobID and
// returns its result
func (l *EventLoop) RunUntilFinished(ctx context.Context, jobID string) (*JobResult, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case e, ok := <-l.events:
			if !ok {
				return nil, ErrControllerClosed
			}
			l.deliver(e)
			if e.Type == EventJobFinished && e.JobID == jobID {
				return e.Result, nil
			}
		}
	}
}

// Start runs the loop in the background
func (l *EventLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return fmt.Errorf("event loop already running")
	}
	l.running = true

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.Run(ctx); err != nil && ctx.Err() == nil {
			l.logger.Error("Event loop stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops a loop started with Start
func (l *EventLoop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return fmt.Errorf("event loop not running")
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopChan)
	l.wg.Wait()
	return nil
}

func (l *EventLoop) deliver(e Event) {
	l.mu.RLock()
	handlers := l.handlers
	l.mu.RUnlock()

	for _, h := range handlers {
		l.safeHandle(h, e)
	}
}

func (l *EventLoop) safeHandle(h EventHandler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Event handler panicked",
				zap.String("event", string(e.Type)),
				zap.Any("panic", r))
		}
	}()
	h.HandleEvent(e)
}
