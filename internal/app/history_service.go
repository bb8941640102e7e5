package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// HistoryService keeps the session registry and the optional persistent
// history store in step. The registry is authoritative; store failures are
// logged and never block it.
type HistoryService struct {
	registry *SessionRegistry
	repo     domain.HistoryRepository
	logger   *zap.Logger
}

// NewHistoryService creates a history service. repo may be nil.
func NewHistoryService(registry *SessionRegistry, repo domain.HistoryRepository, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		registry: registry,
		repo:     repo,
		logger:   logger,
	}
}

// Restore loads persisted records into the registry, oldest first, limited
// to the most recent limit entries (limit <= 0 loads everything)
func (s *HistoryService) Restore(limit int) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	records, err := s.repo.FindAll(limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load history: %w", err)
	}
	for i := len(records) - 1; i >= 0; i-- {
		s.registry.Append(*records[i])
	}
	return len(records), nil
}

// HandleEvent persists records of completed items
func (s *HistoryService) HandleEvent(e Event) {
	if e.Type != EventItemCompleted || e.Record == nil || s.repo == nil {
		return
	}
	record := *e.Record
	if err := s.repo.Save(&record); err != nil {
		s.logger.Error("Failed to persist download record",
			zap.String("record_id", record.ID),
			zap.String("title", record.Title),
			zap.Error(err))
	}
}

// List returns the session history, most recent first
func (s *HistoryService) List() []domain.DownloadRecord {
	return s.registry.List()
}

// RemoveAt removes the entry at index (0 = most recent)
func (s *HistoryService) RemoveAt(index int) (domain.DownloadRecord, error) {
	record, err := s.registry.RemoveAt(index)
	if err != nil {
		return domain.DownloadRecord{}, err
	}
	if s.repo != nil {
		if err := s.repo.Delete(record.ID); err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Error("Failed to delete persisted record",
				zap.String("record_id", record.ID),
				zap.Error(err))
		}
	}
	return record, nil
}

// Clear empties the session history and the store
func (s *HistoryService) Clear() int {
	n := s.registry.Clear()
	if s.repo != nil {
		if err := s.repo.DeleteAll(); err != nil {
			s.logger.Error("Failed to clear persisted history", zap.Error(err))
		}
	}
	return n
}
