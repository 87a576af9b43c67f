package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/models"
	"github.com/tribodata/oilwatch_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer trace.Tracer = otel.Tracer("oilwatch-etl")

const (
	// The Intertek portal throttles aggressively; failed downloads back off
	// hard before retrying.
	maxDownloadAttempts = 3
	defaultRetryDelay   = 300 * time.Second

	ingestLockKey = "etl:ingest"
	ingestLockTTL = 30 * time.Minute
)

func retryDelay() time.Duration {
	if v := strings.TrimSpace(os.Getenv("ETL_RETRY_DELAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultRetryDelay
}

// CreateRun records a queued run with its parameters. The run is executed
// later, either via pub/sub push or inline by ExecuteRun.
func CreateRun(ctx context.Context, db *gorm.DB, params RunParams, triggeredBy string, parentRunId *uint) (*models.EtlRun, error) {
	run := models.EtlRun{
		Status:      models.EtlRunStatusQueued,
		TriggeredBy: triggeredBy,
		ParamsJSON:  EncodeRunParams(params),
		ParentRunId: parentRunId,
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ProcessRun executes the queued run identified by the payload: download
// the export, ingest it, finalize the run record. Already-finished runs are
// a no-op so a redelivered pub/sub message never ingests twice.
func ProcessRun(ctx context.Context, payload RunPubSubPayload) error {
	if payload.RunId == 0 {
		return errors.New("invalid payload")
	}

	db := config.GetDB()
	if db == nil {
		return errors.New("db is nil")
	}

	var run models.EtlRun
	if err := db.WithContext(ctx).Take(&run, payload.RunId).Error; err != nil {
		return err
	}
	switch run.Status {
	case models.EtlRunStatusSuccess, models.EtlRunStatusPartial, models.EtlRunStatusFailed:
		return nil
	}

	return ExecuteRun(ctx, db, &run)
}

// ExecuteRun runs the full pipeline against an existing run record and
// finalizes it. Only one ingestion may run at a time; overlapping triggers
// fail their run instead of racing the watermark.
func ExecuteRun(ctx context.Context, db *gorm.DB, run *models.EtlRun) error {
	// Span lives here, not in ProcessRun, so inline CLI runs are traced too.
	ctx, span := tracer.Start(ctx, "etl.ExecuteRun")
	defer span.End()

	logger := config.GetLogger()

	if config.IngestRunLockEnabled() {
		lock, err := obtainIngestLock(ctx)
		if err != nil {
			return finalizeRun(ctx, db, run, nil, run.StartedAt, err)
		}
		if lock != nil {
			defer func() { _ = lock.Release(ctx) }()
		}
	}

	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	if err := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":     models.EtlRunStatusRunning,
		"started_at": startedAt,
	}).Error; err != nil {
		return err
	}

	summary, err := runPipeline(ctx, db, run)
	if err != nil {
		config.LogError(logger, "etl", "ExecuteRun", "run failed", run.ID, err)
	}
	return finalizeRun(ctx, db, run, summary, startedAt, err)
}

func obtainIngestLock(ctx context.Context) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, ingestLockKey, ingestLockTTL, nil)
	if err == redislock.ErrNotObtained {
		return nil, errors.New("another ingestion run is already in progress")
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// runPipeline is the download + ingest + archive sequence. The downloaded
// temp file is removed on every path out of this function.
func runPipeline(ctx context.Context, db *gorm.DB, run *models.EtlRun) (*ImportSummary, error) {
	logger := config.GetLogger()
	params := DecodeRunParams(run.ParamsJSON)

	client, err := NewClientFromEnv(NewTokenCache())
	if err != nil {
		return nil, err
	}

	filePath, err := downloadWithRetry(ctx, client, params)
	if err != nil {
		return nil, err
	}
	defer func() {
		if removeErr := os.Remove(filePath); removeErr != nil && !os.IsNotExist(removeErr) {
			config.LogError(logger, "etl", "runPipeline", "remove temp file", filePath, removeErr)
		}
	}()

	summary, err := IngestReportFile(ctx, db, filePath, run.ID, "etl")
	if err != nil {
		return summary, err
	}

	archiveReportFile(ctx, db, run, filePath)
	return summary, nil
}

func downloadWithRetry(ctx context.Context, client *Client, params RunParams) (string, error) {
	logger := config.GetLogger()

	dp := DefaultDownloadParams()
	dp.SearchText = params.SearchText
	dp.LabNumber = params.LabNumber
	dp.PageSize = params.PageSize
	dp.FileType = params.FileType

	var lastErr error
	for attempt := 1; attempt <= maxDownloadAttempts; attempt++ {
		filePath, err := client.DownloadInspectionReport(ctx, dp)
		if err == nil {
			return filePath, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == maxDownloadAttempts {
			break
		}

		delay := retryDelay()
		logger.WithFields(logrus.Fields{
			"module":  "etl",
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warn("report download failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", lastErr
}

// archiveReportFile copies the raw export into the archive bucket. Archiving
// is best effort: a bucket failure never fails an otherwise good run.
func archiveReportFile(ctx context.Context, db *gorm.DB, run *models.EtlRun, filePath string) {
	logger := config.GetLogger()
	if strings.TrimSpace(os.Getenv("GCS_BUCKET")) == "" {
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		config.LogError(logger, "etl", "archiveReportFile", "open temp file", filePath, err)
		return
	}
	defer f.Close()

	objectName := fmt.Sprintf("etl-archive/run-%d/%s", run.ID, utils.GenerateUniqueFilename()+fileNameExt(filePath))
	if err := utils.UploadFileToGCS(ctx, objectName, f); err != nil {
		config.LogError(logger, "etl", "archiveReportFile", "upload archive", objectName, err)
		return
	}
	run.FileArchiveURL = utils.GCSObjectURL(objectName)
	if err := db.WithContext(ctx).Model(run).Update("file_archive_url", run.FileArchiveURL).Error; err != nil {
		config.LogError(logger, "etl", "archiveReportFile", "update archive url", run.ID, err)
	}
}

func fileNameExt(filePath string) string {
	if i := strings.LastIndex(filePath, "."); i >= 0 {
		return filePath[i:]
	}
	return ""
}

func finalizeRun(ctx context.Context, db *gorm.DB, run *models.EtlRun, summary *ImportSummary, startedAt *time.Time, runErr error) error {
	finishedAt := time.Now()
	var durationMs int64
	if startedAt != nil {
		durationMs = finishedAt.Sub(*startedAt).Milliseconds()
	}

	created, skipped, errorCount := 0, 0, 0
	if summary != nil {
		created = summary.Created
		skipped = summary.Skipped
		errorCount = len(summary.Errors)
	}

	status := models.EtlRunStatusSuccess
	failureMessage := ""
	switch {
	case runErr != nil:
		status = models.EtlRunStatusFailed
		failureMessage = runErr.Error()
	case errorCount > 0:
		status = models.EtlRunStatusPartial
	}

	stats := map[string]int{
		"created": created,
		"skipped": skipped,
		"errors":  errorCount,
	}
	statsJSON, _ := json.Marshal(stats)

	if err := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":          status,
		"finished_at":     finishedAt,
		"duration_ms":     durationMs,
		"rows_created":    created,
		"rows_skipped":    skipped,
		"error_count":     errorCount,
		"failure_message": failureMessage,
		"stats_json":      statsJSON,
	}).Error; err != nil {
		return err
	}

	return runErr
}
