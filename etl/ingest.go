package etl

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Data rows start at the third sheet row: the export carries a banner row
// and a header row above them.
const firstDataRow = 2

// ImportSummary reports what one ingestion did with a file.
type ImportSummary struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// IngestReportFile reads the lab export at filePath and ingests its rows:
// extract, watermark + duplicate filtering, entity resolution, then a
// single transactional bulk insert. Row-level failures are collected into
// the summary (and recorded against runId when non-zero); only file-level
// and batch-level failures return an error.
func IngestReportFile(ctx context.Context, db *gorm.DB, filePath string, runId uint, actor string) (*ImportSummary, error) {
	logger := config.GetLogger()
	summary := &ImportSummary{Errors: []string{}}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return summary, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return summary, fmt.Errorf("failed to read report sheet: %w", err)
	}

	var recs []*rowRecord
	var rowErrs []*rowError
	for i := firstDataRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		if isTitleOrHeaderRow(row) {
			summary.Skipped++
			continue
		}

		rec, err := extractRow(row, i+1)
		if err != nil {
			rowErrs = append(rowErrs, asRowError(err, i+1))
			continue
		}
		recs = append(recs, rec)
	}

	watermark, err := loadWatermark(ctx, db)
	if err != nil {
		return summary, fmt.Errorf("failed to load ingestion watermark: %w", err)
	}
	recs, dropped := filterAfterWatermark(recs, watermark)
	summary.Skipped += dropped

	existing, err := existingLabNumbers(ctx, db, recs)
	if err != nil {
		return summary, fmt.Errorf("failed to check existing lab numbers: %w", err)
	}
	recs, skipped := partitionByExisting(recs, existing)
	summary.Skipped += skipped

	resolver := newEntityResolver(db)
	persistable := make([]*rowRecord, 0, len(recs))
	for _, rec := range recs {
		refs, err := resolver.resolve(ctx, rec)
		if err != nil {
			rowErrs = append(rowErrs, asRowError(err, rec.RowNumber))
			continue
		}
		applyResolved(rec, refs)
		persistable = append(persistable, rec)
	}

	for _, re := range rowErrs {
		summary.Errors = append(summary.Errors, re.Error())
	}
	if runId != 0 && len(rowErrs) > 0 {
		recordRowErrors(ctx, db, runId, rowErrs)
	}

	created, err := persistBatch(ctx, db, persistable, actor)
	if err != nil {
		return summary, fmt.Errorf("failed to persist report batch: %w", err)
	}
	summary.Created = created

	logger.WithFields(logrus.Fields{
		"module":  "etl",
		"file":    filePath,
		"created": summary.Created,
		"skipped": summary.Skipped,
		"errors":  len(summary.Errors),
	}).Info("report file ingested")

	return summary, nil
}

func applyResolved(rec *rowRecord, refs resolved) {
	if refs.Organization != nil {
		id := refs.Organization.ID
		rec.Report.OrganizationId = &id
	}
	if refs.Machine != nil {
		id := refs.Machine.ID
		rec.Report.MachineId = &id
	}
	if refs.Component != nil {
		id := refs.Component.ID
		rec.Report.ComponentId = &id
	}
}

func asRowError(err error, rowNum int) *rowError {
	if re, ok := err.(*rowError); ok {
		return re
	}
	return &rowError{Row: rowNum, Message: err.Error()}
}

// recordRowErrors persists per-row failures for later inspection. This is
// best effort: a failure here must not fail the run.
func recordRowErrors(ctx context.Context, db *gorm.DB, runId uint, rowErrs []*rowError) {
	records := make([]*models.EtlRunError, len(rowErrs))
	for i, re := range rowErrs {
		records[i] = &models.EtlRunError{
			EtlRunId:  runId,
			RowNumber: re.Row,
			LabNumber: re.LabNumber,
			ErrorCode: "row_rejected",
			Message:   re.Message,
		}
	}
	if err := db.WithContext(ctx).Create(&records).Error; err != nil {
		config.LogError(config.GetLogger(), "etl", "recordRowErrors", "persist run errors", nil, err)
	}
}
