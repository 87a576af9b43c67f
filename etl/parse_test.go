package etl

import (
	"testing"
	"time"

	"github.com/tribodata/oilwatch_backend/models"
)

func TestParseDate_AcceptsLabFormats(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"15/12/2025", "2025-12-15"},
		{"15-12-2025", "2025-12-15"},
		{"2025-12-15", "2025-12-15"},
		{"12/15/2025", "2025-12-15"},
		{"01/02/2025", "2025-02-01"}, // day-first wins on ambiguous dates
	}
	for _, tc := range cases {
		got := ParseDate(tc.in)
		if got == nil {
			t.Fatalf("ParseDate(%q) returned nil", tc.in)
		}
		if got.Format("2006-01-02") != tc.expected {
			t.Fatalf("ParseDate(%q) expected %s, got %s", tc.in, tc.expected, got.Format("2006-01-02"))
		}
		if got.Location() != time.UTC {
			t.Fatalf("ParseDate(%q) expected UTC, got %v", tc.in, got.Location())
		}
	}
}

func TestParseDate_UnparseableReturnsNil(t *testing.T) {
	for _, in := range []string{"", "-", "not a date", "40/40/2025"} {
		if got := ParseDate(in); got != nil {
			t.Fatalf("ParseDate(%q) expected nil, got %v", in, got)
		}
	}
}

func TestParseUsageInt_StripsUnitsAndSeparators(t *testing.T) {
	cases := []struct {
		in       string
		expected int
	}{
		{"720", 720},
		{"720 horas", 720},
		{"720 HORAS", 720},
		{"1,234 km", 1234},
		{"12,345", 12345},
		{"305.7", 305},
		{"", 0},
		{"-", 0},
		{"sin dato", 0},
	}
	for _, tc := range cases {
		if got := ParseUsageInt(tc.in); got != tc.expected {
			t.Fatalf("ParseUsageInt(%q) expected %d, got %d", tc.in, tc.expected, got)
		}
	}
}

func TestParseMeasurementDecimal(t *testing.T) {
	for _, in := range []string{"", "-", "n/a"} {
		if got := ParseMeasurementDecimal(in); got != nil {
			t.Fatalf("ParseMeasurementDecimal(%q) expected nil, got %v", in, got)
		}
	}

	got := ParseMeasurementDecimal("12.5")
	if got == nil {
		t.Fatal("ParseMeasurementDecimal(\"12.5\") returned nil")
	}
	if got.String() != "12.5" {
		t.Fatalf("ParseMeasurementDecimal(\"12.5\") expected 12.5, got %s", got.String())
	}
}

func TestParseCondition_SynonymsAndDefault(t *testing.T) {
	cases := []struct {
		in       string
		expected models.ReportCondition
	}{
		{"Normal", models.ConditionNormal},
		{"PRECAUCION", models.ConditionCaution},
		{"Precaución", models.ConditionCaution},
		{"caution", models.ConditionCaution},
		{"CRITICO", models.ConditionCritical},
		{"crítico", models.ConditionCritical},
		{"alerta", models.ConditionCritical},
		{"SEVERO", models.ConditionSevere},
		{"", models.ConditionNormal},
		{"whatever", models.ConditionNormal},
	}
	for _, tc := range cases {
		if got := ParseCondition(tc.in); got != tc.expected {
			t.Fatalf("ParseCondition(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}
