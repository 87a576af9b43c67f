package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/tribodata/oilwatch_backend/models"
	"gorm.io/gorm"
)

// Incremental filtering happens in two stages before any row is resolved:
// a coarse watermark on sample_date shrinks the candidate set cheaply, then
// an exact lab_number existence check removes true duplicates. The
// watermark over-discards nothing on an empty database (no watermark, all
// rows pass) and keeps stage 2's IN query small on repeated runs.

// loadWatermark returns the maximum sample_date already persisted, or nil
// when no reports exist yet. MAX over an empty table is SQL NULL, so the
// scan target must be NULL-aware.
func loadWatermark(ctx context.Context, db *gorm.DB) (*time.Time, error) {
	var watermark sql.NullTime
	err := db.WithContext(ctx).
		Model(&models.Report{}).
		Select("MAX(sample_date)").
		Scan(&watermark).Error
	if err != nil {
		return nil, err
	}
	if !watermark.Valid {
		return nil, nil
	}
	t := watermark.Time
	return &t, nil
}

// filterAfterWatermark keeps only rows whose sample date is strictly after
// the watermark. Rows without a parseable sample date cannot be ordered
// against the watermark and are dropped with the rest.
func filterAfterWatermark(recs []*rowRecord, watermark *time.Time) (kept []*rowRecord, dropped int) {
	if watermark == nil {
		return recs, 0
	}

	kept = make([]*rowRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Report.SampleDate != nil && rec.Report.SampleDate.After(*watermark) {
			kept = append(kept, rec)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// existingLabNumbers queries which of the batch's lab numbers are already
// persisted.
func existingLabNumbers(ctx context.Context, db *gorm.DB, recs []*rowRecord) (map[string]bool, error) {
	if len(recs) == 0 {
		return map[string]bool{}, nil
	}

	labNumbers := make([]string, 0, len(recs))
	for _, rec := range recs {
		labNumbers = append(labNumbers, rec.Report.LabNumber)
	}

	var found []string
	err := db.WithContext(ctx).
		Model(&models.Report{}).
		Where("lab_number IN ?", labNumbers).
		Pluck("lab_number", &found).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(found))
	for _, n := range found {
		existing[n] = true
	}
	return existing, nil
}

// partitionByExisting drops rows whose lab_number already exists in storage
// or earlier in the same batch. Duplicates are skipped, never merged.
func partitionByExisting(recs []*rowRecord, existing map[string]bool) (kept []*rowRecord, skipped int) {
	seen := make(map[string]bool, len(recs))
	kept = make([]*rowRecord, 0, len(recs))
	for _, rec := range recs {
		n := rec.Report.LabNumber
		if existing[n] || seen[n] {
			skipped++
			continue
		}
		seen[n] = true
		kept = append(kept, rec)
	}
	return kept, skipped
}
