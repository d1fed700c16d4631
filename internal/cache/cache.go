package cache

// Cache mirrors per-job import state into Redis so status polling never has to
// touch Postgres.
type Cache interface {
	SetImportStatus(jobID, status string) error
	GetImportStatus(jobID string) (string, error)
	SetImportHistoryID(jobID string, historyID int64) error
	GetImportHistoryID(jobID string) (int64, error)
	ClearImport(jobID string) error

	Clear() error
}
