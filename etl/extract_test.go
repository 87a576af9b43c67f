package etl

import (
	"testing"
)

func sampleRow() []string {
	row := make([]string, numColumns)
	row[colRowNumber] = "1"
	row[colLabNumber] = "LAB-00123"
	row[colOrganizationName] = "MINERA ANDINA S.A."
	row[colMachineName] = "EXCAVADORA CAT 336"
	row[colComponentName] = "MOTOR DIESEL"
	row[colSerialNumberCode] = "SN-9981"
	row[colLubricant] = "MOBIL DELVAC 15W40"
	row[colSampleDate] = "15/12/2025"
	row[colMachineHoursKms] = "12,400 horas"
	row[colLubricantHoursKms] = "250 horas"
	row[colReceptionDate] = "17/12/2025"
	row[colReportDate] = "18/12/2025"
	row[colCondition] = "PRECAUCION"
	row[colNotes] = "Viscosidad al límite"
	row[18] = "NEG"       // water crackle
	row[20] = "110.3"     // viscosity 40c
	row[32] = "45"        // pq index
	row[33] = "18/16/13"  // particle count ISO
	row[34] = "120"       // iron
	row[56] = "Oscuro"    // visual appearance
	return row
}

func TestExtractRow_MapsColumns(t *testing.T) {
	rec, err := extractRow(sampleRow(), 3)
	if err != nil {
		t.Fatalf("extractRow error: %v", err)
	}

	if rec.Report.LabNumber != "LAB-00123" {
		t.Fatalf("expected lab number LAB-00123, got %q", rec.Report.LabNumber)
	}
	if rec.OrganizationName != "MINERA ANDINA S.A." {
		t.Fatalf("unexpected organization: %q", rec.OrganizationName)
	}
	if rec.Report.SampleDate == nil || rec.Report.SampleDate.Format("2006-01-02") != "2025-12-15" {
		t.Fatalf("unexpected sample date: %v", rec.Report.SampleDate)
	}
	if rec.Report.Condition != "CAUTION" {
		t.Fatalf("expected CAUTION, got %s", rec.Report.Condition)
	}

	if rec.Analysis.WaterCrackle != "NEG" {
		t.Fatalf("unexpected water crackle: %q", rec.Analysis.WaterCrackle)
	}
	if rec.Analysis.Viscosity40c == nil || rec.Analysis.Viscosity40c.String() != "110.3" {
		t.Fatalf("unexpected viscosity 40c: %v", rec.Analysis.Viscosity40c)
	}
	if rec.Analysis.Tbn != nil {
		t.Fatalf("expected nil tbn for empty cell, got %v", rec.Analysis.Tbn)
	}
	if rec.Analysis.PqIndex != 45 {
		t.Fatalf("expected pq index 45, got %d", rec.Analysis.PqIndex)
	}
	if rec.Analysis.ParticleCountIso != "18/16/13" {
		t.Fatalf("unexpected particle count: %q", rec.Analysis.ParticleCountIso)
	}
	if rec.Analysis.IronFe != 120 {
		t.Fatalf("expected iron 120, got %d", rec.Analysis.IronFe)
	}
	if rec.Analysis.VisualAppearance != "Oscuro" {
		t.Fatalf("unexpected visual appearance: %q", rec.Analysis.VisualAppearance)
	}
}

func TestExtractRow_UsageRouting(t *testing.T) {
	// Non-transport machines report hours.
	rec, err := extractRow(sampleRow(), 3)
	if err != nil {
		t.Fatalf("extractRow error: %v", err)
	}
	if rec.Report.MachineHours != 12400 || rec.Report.MachineKms != 0 {
		t.Fatalf("expected hours=12400 kms=0, got hours=%d kms=%d", rec.Report.MachineHours, rec.Report.MachineKms)
	}
	if rec.Report.LubricantHours != 250 || rec.Report.LubricantKms != 0 {
		t.Fatalf("expected lubricant hours=250 kms=0, got hours=%d kms=%d", rec.Report.LubricantHours, rec.Report.LubricantKms)
	}

	// Transport machines report kilometers instead.
	row := sampleRow()
	row[colMachineName] = "TRANSPORTES DEL SUR - VOLVO FH"
	row[colMachineHoursKms] = "85,000 km"
	row[colLubricantHoursKms] = "5,000 km"
	rec, err = extractRow(row, 4)
	if err != nil {
		t.Fatalf("extractRow error: %v", err)
	}
	if rec.Report.MachineKms != 85000 || rec.Report.MachineHours != 0 {
		t.Fatalf("expected kms=85000 hours=0, got kms=%d hours=%d", rec.Report.MachineKms, rec.Report.MachineHours)
	}
	if rec.Report.LubricantKms != 5000 || rec.Report.LubricantHours != 0 {
		t.Fatalf("expected lubricant kms=5000 hours=0, got kms=%d hours=%d", rec.Report.LubricantKms, rec.Report.LubricantHours)
	}
}

func TestExtractRow_MissingLabNumber(t *testing.T) {
	row := sampleRow()
	row[colLabNumber] = ""
	_, err := extractRow(row, 7)
	if err == nil {
		t.Fatal("expected error for missing lab number")
	}
	re, ok := err.(*rowError)
	if !ok {
		t.Fatalf("expected *rowError, got %T", err)
	}
	if re.Row != 7 {
		t.Fatalf("expected row 7 in error, got %d", re.Row)
	}
}

func TestIsTitleOrHeaderRow(t *testing.T) {
	cases := []struct {
		name     string
		row      []string
		expected bool
	}{
		{"banner", []string{"REPORTE DE ANALISIS DE ACEITE"}, true},
		{"header", []string{"N°", "No. Lab", "Cliente", "Equipo"}, true},
		{"empty first cell", []string{"", "LAB-1", "X"}, true},
		{"data row", sampleRow(), false},
	}
	for _, tc := range cases {
		if got := isTitleOrHeaderRow(tc.row); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestIsEmptyRow(t *testing.T) {
	if !isEmptyRow([]string{"", "   ", ""}) {
		t.Fatal("expected blank row to be empty")
	}
	if isEmptyRow(sampleRow()) {
		t.Fatal("expected data row to be non-empty")
	}
}
