package etl

import (
	"encoding/json"
	"time"

	"github.com/tribodata/oilwatch_backend/models"
)

// RunParams are the download parameters of one ingestion run. They travel
// with the run record so a retry reuses exactly what the original asked for.
type RunParams struct {
	SearchText string `json:"searchText"`
	LabNumber  string `json:"labNumber"`
	PageSize   int    `json:"pageSize"`
	FileType   int    `json:"fileType"`
}

func DefaultRunParams() RunParams {
	return RunParams{PageSize: 50, FileType: FileTypeXlsx}
}

func NormalizeRunParams(p RunParams) RunParams {
	if p.PageSize <= 0 || p.PageSize > 500 {
		p.PageSize = 50
	}
	switch p.FileType {
	case FileTypeCsv, FileTypePdf, FileTypeXlsx:
	default:
		p.FileType = FileTypeXlsx
	}
	return p
}

func DecodeRunParams(raw []byte) RunParams {
	if len(raw) == 0 {
		return DefaultRunParams()
	}
	var p RunParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return DefaultRunParams()
	}
	return NormalizeRunParams(p)
}

func EncodeRunParams(p RunParams) []byte {
	b, _ := json.Marshal(NormalizeRunParams(p))
	return b
}

type TriggerRunRequest struct {
	Params RunParams `json:"params"`
}

type RunHistoryResponse struct {
	Items []RunResponse `json:"items"`
}

type RunResponse struct {
	ID          uint    `json:"id"`
	Status      string  `json:"status"`
	TriggeredBy string  `json:"triggeredBy"`
	StartedAt   *string `json:"startedAt"`
	FinishedAt  *string `json:"finishedAt"`
	DurationMs  int64   `json:"durationMs"`
	RowsCreated int     `json:"rowsCreated"`
	RowsSkipped int     `json:"rowsSkipped"`
	ErrorCount  int     `json:"errorCount"`
}

type RunDetailResponse struct {
	RunResponse
	FailureMessage string             `json:"failureMessage"`
	FileArchiveURL string             `json:"fileArchiveUrl"`
	Params         RunParams          `json:"params"`
	Errors         []RunErrorResponse `json:"errors"`
}

type RunErrorResponse struct {
	ID        uint   `json:"id"`
	RowNumber int    `json:"rowNumber"`
	LabNumber string `json:"labNumber"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type RunPubSubPayload struct {
	RunId uint `json:"run_id"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapRunToResponse(run models.EtlRun) RunResponse {
	return RunResponse{
		ID:          run.ID,
		Status:      run.Status,
		TriggeredBy: run.TriggeredBy,
		StartedAt:   formatTime(run.StartedAt),
		FinishedAt:  formatTime(run.FinishedAt),
		DurationMs:  run.DurationMs,
		RowsCreated: run.RowsCreated,
		RowsSkipped: run.RowsSkipped,
		ErrorCount:  run.ErrorCount,
	}
}

func mapErrors(errs []models.EtlRunError) []RunErrorResponse {
	items := make([]RunErrorResponse, 0, len(errs))
	for _, e := range errs {
		items = append(items, RunErrorResponse{
			ID:        e.ID,
			RowNumber: e.RowNumber,
			LabNumber: e.LabNumber,
			ErrorCode: e.ErrorCode,
			Message:   e.Message,
			Retryable: e.Retryable,
		})
	}
	return items
}
