package app

import (
	"sync"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// SessionRegistry is the in-memory log of completed downloads. Indexes are
// in most-recent-first order, the order the history is displayed in.
type SessionRegistry struct {
	mu      sync.RWMutex
	records []domain.DownloadRecord // oldest first
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{}
}

// Append adds a record as the most recent entry
func (r *SessionRegistry) Append(record domain.DownloadRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

// RemoveAt removes the entry at index (0 = most recent) and returns it
func (r *SessionRegistry) RemoveAt(index int) (domain.DownloadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.position(index)
	if !ok {
		return domain.DownloadRecord{}, domain.ErrRecordNotFound
	}
	removed := r.records[pos]
	r.records = append(r.records[:pos], r.records[pos+1:]...)
	return removed, nil
}

// At returns the entry at index (0 = most recent)
func (r *SessionRegistry) At(index int) (domain.DownloadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.position(index)
	if !ok {
		return domain.DownloadRecord{}, domain.ErrRecordNotFound
	}
	return r.records[pos], nil
}

// Clear removes every entry and returns how many were removed
func (r *SessionRegistry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.records)
	r.records = nil
	return n
}

// List returns a copy of the entries, most recent first
func (r *SessionRegistry) List() []domain.DownloadRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DownloadRecord, len(r.records))
	for i, rec := range r.records {
		out[len(r.records)-1-i] = rec
	}
	return out
}

// Len returns the number of entries
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *SessionRegistry) position(index int) (int, bool) {
	if index < 0 || index >= len(r.records) {
		return 0, false
	}
	return len(r.records) - 1 - index, true
}
