package models

import "time"

const (
	EtlRunStatusQueued  = "queued"
	EtlRunStatusRunning = "running"
	EtlRunStatusSuccess = "success"
	EtlRunStatusPartial = "partial"
	EtlRunStatusFailed  = "failed"
)

const (
	EtlTriggeredManual   = "manual"
	EtlTriggeredSchedule = "schedule"
	EtlTriggeredRetry    = "retry"
)

// EtlRun is one execution of the Intertek download + ingestion pipeline.
type EtlRun struct {
	ID             uint       `gorm:"primary_key" json:"id"`
	Status         string     `gorm:"size:20;not null;index" json:"status"`
	TriggeredBy    string     `gorm:"size:20" json:"triggered_by"`
	ParamsJSON     []byte     `gorm:"type:json" json:"params"`
	StatsJSON      []byte     `gorm:"type:json" json:"stats"`
	RowsCreated    int        `json:"rows_created"`
	RowsSkipped    int        `json:"rows_skipped"`
	ErrorCount     int        `json:"error_count"`
	FailureMessage string     `gorm:"type:text" json:"failure_message"`
	FileArchiveURL string     `gorm:"size:512" json:"file_archive_url"`
	ParentRunId    *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	DurationMs     int64      `json:"duration_ms"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// EtlRunError is a per-row failure recorded during a run. Row errors never
// abort the batch; they are collected here and in the run summary.
type EtlRunError struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	EtlRunId  uint      `gorm:"index;not null" json:"etl_run_id"`
	RowNumber int       `json:"row_number"`
	LabNumber string    `gorm:"size:100" json:"lab_number"`
	ErrorCode string    `gorm:"size:64" json:"error_code"`
	Message   string    `gorm:"type:text" json:"message"`
	Retryable bool      `gorm:"default:false" json:"retryable"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
