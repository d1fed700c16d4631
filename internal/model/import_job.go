package model

import "path/filepath"

// ImportJob describes one import invocation. It lives only for the duration of
// the request; nothing here is persisted (history rows are a separate concern).
type ImportJob struct {
	JobID     string
	TenantID  string
	TableName string
	FileName  string
	FileSize  int64

	StagingDir string
}

// InputPath is where the uploaded payload is written before conversion.
// The converter derives its output name from the table name only, which is
// why staging directories must be cleaned between runs.
func (j *ImportJob) InputPath() string {
	return filepath.Join(j.StagingDir, j.TableName+filepath.Ext(j.FileName))
}

// OutputPath is where the converter is expected to leave its CSV result.
func (j *ImportJob) OutputPath() string {
	return filepath.Join(j.StagingDir, j.TableName+".csv")
}
