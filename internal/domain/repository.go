package domain

// HistoryRepository defines the interface for download history persistence
type HistoryRepository interface {
	// Save stores a record
	Save(record *DownloadRecord) error

	// Delete deletes a record by ID
	Delete(id string) error

	// DeleteAll removes every record
	DeleteAll() error

	// FindByID finds a record by ID
	FindByID(id string) (*DownloadRecord, error)

	// FindAll returns records most recent first, limit <= 0 means no limit
	FindAll(limit int) ([]*DownloadRecord, error)

	// Count returns the total number of records
	Count() (int64, error)
}
