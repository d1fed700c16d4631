package store

import (
	"context"

	"github.com/webitel/table-importer/internal/model"
)

type Store interface {
	Table() TableStore
	History() HistoryStore

	// ------------ Database Management ------------ //
	Open() error  // Return custom DB error
	Close() error // Return custom DB error
}

// TableStore replaces tenant-scoped rows of a named game-configuration table.
type TableStore interface {
	// Replace deletes every row with the given table_id and inserts the new
	// rows in a single transaction, so a failed insert never leaves the
	// tenant's slice of the table empty.
	Replace(ctx context.Context, tableName, tableID string, columns []string, rows [][]any) (int64, error)
}

type HistoryStore interface {
	InsertImportHistory(ctx context.Context, input *model.NewImportHistory) (int64, error)
	UpdateImportStatus(ctx context.Context, input *model.UpdateImportStatus) error
	GetImportHistory(ctx context.Context, tenantID string, page, size int64) (*model.ImportHistoryPage, error)
}
