package etl

import (
	"testing"
	"time"

	"github.com/tribodata/oilwatch_backend/models"
)

func recordWithSample(labNumber string, sampleDate *time.Time) *rowRecord {
	return &rowRecord{
		Report: models.Report{LabNumber: labNumber, SampleDate: sampleDate},
	}
}

func dateOf(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFilterAfterWatermark_NoWatermarkKeepsAll(t *testing.T) {
	recs := []*rowRecord{
		recordWithSample("A", dateOf("2025-11-01")),
		recordWithSample("B", nil),
	}
	kept, dropped := filterAfterWatermark(recs, nil)
	if len(kept) != 2 || dropped != 0 {
		t.Fatalf("expected all kept on empty database, got kept=%d dropped=%d", len(kept), dropped)
	}
}

func TestFilterAfterWatermark_StrictlyAfter(t *testing.T) {
	watermark := dateOf("2025-11-30")
	recs := []*rowRecord{
		recordWithSample("OLD", dateOf("2025-11-29")),
		recordWithSample("SAME", dateOf("2025-11-30")),
		recordWithSample("NEW", dateOf("2025-12-01")),
		recordWithSample("NODATE", nil),
	}
	kept, dropped := filterAfterWatermark(recs, watermark)
	if len(kept) != 1 || dropped != 3 {
		t.Fatalf("expected 1 kept / 3 dropped, got kept=%d dropped=%d", len(kept), dropped)
	}
	if kept[0].Report.LabNumber != "NEW" {
		t.Fatalf("expected NEW to survive, got %q", kept[0].Report.LabNumber)
	}
}

func TestPartitionByExisting(t *testing.T) {
	recs := []*rowRecord{
		recordWithSample("A", nil),
		recordWithSample("B", nil),
		recordWithSample("A", nil), // in-batch duplicate
		recordWithSample("C", nil),
	}
	existing := map[string]bool{"B": true}

	kept, skipped := partitionByExisting(recs, existing)
	if skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", skipped)
	}
	if len(kept) != 2 || kept[0].Report.LabNumber != "A" || kept[1].Report.LabNumber != "C" {
		names := make([]string, 0, len(kept))
		for _, r := range kept {
			names = append(names, r.Report.LabNumber)
		}
		t.Fatalf("expected [A C], got %v", names)
	}
}
