package app

import (
	"sync"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// EventType identifies the kind of notification the controller posts
type EventType string

const (
	EventStateChanged  EventType = "state_changed"
	EventProgress      EventType = "progress"
	EventItemCompleted EventType = "item_completed"
	EventItemFailed    EventType = "item_failed"
	EventJobFinished   EventType = "job_finished"
)

// JobOutcome is the terminal status of a job
type JobOutcome string

const (
	OutcomeCompleted JobOutcome = "completed"
	OutcomeFailed    JobOutcome = "failed"
	OutcomeCancelled JobOutcome = "cancelled"
)

// JobResult is carried by the single JobFinished event of a job
type JobResult struct {
	Outcome JobOutcome              `json:"outcome"`
	Request domain.DownloadRequest  `json:"request"`
	Records []domain.DownloadRecord `json:"records"`
	Err     error                   `json:"-"`
	Error   string                  `json:"error,omitempty"`
}

// Event is one notification from the controller to the foreground. Which
// optional fields are set depends on Type.
type Event struct {
	Type     EventType              `json:"type"`
	JobID    string                 `json:"job_id"`
	State    *domain.JobState       `json:"state,omitempty"`
	Index    int                    `json:"index,omitempty"`
	Total    int                    `json:"total,omitempty"`
	Item     *domain.MediaItem      `json:"item,omitempty"`
	Progress *domain.ProgressEvent  `json:"progress,omitempty"`
	Record   *domain.DownloadRecord `json:"record,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Result   *JobResult             `json:"result,omitempty"`
}

// Dispatcher is an unbounded FIFO mailbox with a single output channel.
// Post never blocks, so it can be called while holding locks; events come
// out of Events in the order they were posted.
type Dispatcher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	out    chan Event
}

// NewDispatcher creates a dispatcher and starts its pump goroutine
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{out: make(chan Event)}
	d.cond = sync.NewCond(&d.mu)
	go d.pump()
	return d
}

// Post enqueues an event. Returns false once the dispatcher is closed.
func (d *Dispatcher) Post(e Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.queue = append(d.queue, e)
	d.cond.Signal()
	return true
}

// Events returns the output channel. It is closed after Close once every
// queued event has been delivered.
func (d *Dispatcher) Events() <-chan Event {
	return d.out
}

// Close stops accepting events
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.cond.Broadcast()
	}
}

func (d *Dispatcher) pump() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			close(d.out)
			return
		}
		e := d.queue[0]
		d.queue[0] = Event{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.out <- e
	}
}
