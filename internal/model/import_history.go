package model

type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

type ImportHistory struct {
	ID         int64        `db:"id"`
	JobID      string       `db:"job_id"`
	TenantID   string       `db:"tenant_id"`
	TableName  string       `db:"table_name"`
	FileName   string       `db:"file_name"`
	FileSize   int64        `db:"file_size"`
	RowCount   int64        `db:"row_count"`
	Status     ImportStatus `db:"status"`
	Detail     *string      `db:"detail"`
	UploadedAt int64        `db:"uploaded_at"`
	UpdatedAt  int64        `db:"updated_at"`
}

type NewImportHistory struct {
	JobID      string       `db:"job_id"`
	TenantID   string       `db:"tenant_id"`
	TableName  string       `db:"table_name"`
	FileName   string       `db:"file_name"`
	FileSize   int64        `db:"file_size"`
	Status     ImportStatus `db:"status"`
	UploadedAt int64        `db:"uploaded_at"`
}

type UpdateImportStatus struct {
	ID       int64        `db:"id"`
	Status   ImportStatus `db:"status"`
	RowCount int64        `db:"row_count"`
	Detail   *string      `db:"detail"`
}

type ImportHistoryPage struct {
	Page int64
	Next bool
	Data []*ImportHistory
}
