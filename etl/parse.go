package etl

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tribodata/oilwatch_backend/models"
)

// Cell formats in the export are not uniform: dates arrive in four layouts,
// usage numbers carry unit suffixes and thousands separators, and the
// condition column is free text in Spanish or English.

var dateLayouts = []string{
	"02/01/2006", // 18/12/2025
	"02-01-2006", // 18-12-2025
	"2006-01-02", // 2025-12-18 (ISO)
	"01/02/2006", // 12/18/2025 (US)
}

var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate tries the supported layouts in priority order. Malformed dates
// yield nil, never an error; a bad date must not kill the row.
func ParseDate(value string) *time.Time {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}

	return nil
}

// ParseUsageInt parses integer cells that may carry unit text ("720 horas",
// "1,234 km"). Empty and placeholder cells yield zero, not null: usage
// fields always need a value for arithmetic downstream.
func ParseUsageInt(value string) int {
	s := strings.TrimSpace(value)
	if s == "" || s == "-" {
		return 0
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "horas", "")
	s = strings.ReplaceAll(s, "km", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// ParseMeasurementDecimal parses chemistry cells. Empty and placeholder
// cells yield nil: a measurement can be genuinely absent, which is distinct
// from measuring zero.
func ParseMeasurementDecimal(value string) *decimal.Decimal {
	s := strings.TrimSpace(value)
	if s == "" || s == "-" {
		return nil
	}

	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

var conditionSynonyms = map[string]models.ReportCondition{
	"normal":     models.ConditionNormal,
	"caution":    models.ConditionCaution,
	"precaution": models.ConditionCaution,
	"precaucion": models.ConditionCaution,
	"precaución": models.ConditionCaution,
	"critical":   models.ConditionCritical,
	"critico":    models.ConditionCritical,
	"crítico":    models.ConditionCritical,
	"alerta":     models.ConditionCritical,
	"severe":     models.ConditionSevere,
	"severo":     models.ConditionSevere,
}

// ParseCondition maps free-text condition cells onto the canonical enum.
// Unknown or empty input defaults to NORMAL.
func ParseCondition(value string) models.ReportCondition {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return models.ConditionNormal
	}
	if cond, ok := conditionSynonyms[s]; ok {
		return cond
	}
	return models.ConditionNormal
}
