package etl

import (
	"context"

	"github.com/tribodata/oilwatch_backend/models"
	"github.com/tribodata/oilwatch_backend/utils"
	"gorm.io/gorm"
)

// persistBatch writes the surviving rows in one transaction: all reports in
// a single bulk insert, then the analyses zipped against the same-order
// report slice (gorm backfills each report's ID on batch create, so linkage
// does not assume contiguous auto-increment values). A failure anywhere
// rolls back the whole batch; partial ingestion is never committed.
func persistBatch(ctx context.Context, db *gorm.DB, recs []*rowRecord, actor string) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	reports := make([]*models.Report, len(recs))
	for i, rec := range recs {
		report := rec.Report
		report.Status = models.StatusPending
		report.IsActive = utils.NewTrue()
		report.CreatedBy = actor
		report.ModifiedBy = actor
		reports[i] = &report
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reports).Error; err != nil {
			return err
		}

		analyses := make([]*models.LabAnalysis, len(recs))
		for i, rec := range recs {
			analysis := rec.Analysis
			analysis.ReportId = reports[i].ID
			analysis.CreatedBy = actor
			analysis.ModifiedBy = actor
			analyses[i] = &analysis
		}

		return tx.Create(&analyses).Error
	})
	if err != nil {
		return 0, err
	}

	return len(reports), nil
}
