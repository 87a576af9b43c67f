package etl

import (
	"fmt"
	"strings"

	"github.com/tribodata/oilwatch_backend/models"
)

// transportMarker decides the usage unit: machine names containing it are
// vehicles measured in kilometers, everything else runs on hours.
const transportMarker = "TRANSPORTES"

// rowError is a per-row failure. It excludes the row from persistence but
// never unwinds the batch.
type rowError struct {
	Row       int
	LabNumber string
	Message   string
}

func (e *rowError) Error() string { return fmt.Sprintf("Row %d: %s", e.Row, e.Message) }

// rowRecord is one extracted data row: parsed report and analysis payloads
// plus the raw entity names still to be resolved.
type rowRecord struct {
	RowNumber        int
	OrganizationName string
	MachineName      string
	ComponentName    string

	Report   models.Report
	Analysis models.LabAnalysis
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var titleMarkers = []string{
	"REPORTE",
	"REPORT",
	"LAB",
	"LABORATORIO",
	"LABORATORY",
	"NUMERO",
	"NUMBER",
	"N°",
}

// isTitleOrHeaderRow detects banner and header rows that the export repeats
// inside the data region: a marker in the first cell, or markers in two or
// more cells.
func isTitleOrHeaderRow(row []string) bool {
	if len(row) == 0 || cell(row, 0) == "" {
		return true
	}

	marked := 0
	for i := 0; i < len(row) && i < numColumns; i++ {
		c := strings.ToUpper(cell(row, i))
		if c == "" {
			continue
		}
		for _, marker := range titleMarkers {
			if strings.Contains(c, marker) {
				marked++
				if i == 0 || marked >= 2 {
					return true
				}
				break
			}
		}
	}
	return false
}

// extractRow maps one source row onto a rowRecord using the fixed column
// schema. Returns a rowError when the row is structurally unusable.
func extractRow(row []string, rowNum int) (*rowRecord, error) {
	labNumber := cell(row, colLabNumber)
	if labNumber == "" {
		return nil, &rowError{Row: rowNum, Message: "Lab Number is required"}
	}

	machineName := cell(row, colMachineName)
	isTransport := strings.Contains(strings.ToUpper(machineName), transportMarker)

	machineHours, machineKms := splitUsage(cell(row, colMachineHoursKms), isTransport)
	lubricantHours, lubricantKms := splitUsage(cell(row, colLubricantHoursKms), isTransport)

	rec := &rowRecord{
		RowNumber:        rowNum,
		OrganizationName: cell(row, colOrganizationName),
		MachineName:      machineName,
		ComponentName:    cell(row, colComponentName),
		Report: models.Report{
			LabNumber:        labNumber,
			SerialNumberCode: cell(row, colSerialNumberCode),
			Lubricant:        cell(row, colLubricant),
			SampleDate:       ParseDate(cell(row, colSampleDate)),
			MachineHours:     machineHours,
			MachineKms:       machineKms,
			LubricantHours:   lubricantHours,
			LubricantKms:     lubricantKms,
			ReceptionDate:    ParseDate(cell(row, colReceptionDate)),
			ReportDate:       ParseDate(cell(row, colReportDate)),
			FilterChange:     cell(row, colFilterChange),
			OilChange:        cell(row, colOilChange),
			PerNumber:        cell(row, colPerNumber),
			Others:           cell(row, colOthers),
			Condition:        ParseCondition(cell(row, colCondition)),
			Notes:            cell(row, colNotes),
		},
	}

	for _, col := range analysisColumns {
		raw := cell(row, col.index)
		switch {
		case col.text != nil:
			*col.text(&rec.Analysis) = raw
		case col.dec != nil:
			*col.dec(&rec.Analysis) = ParseMeasurementDecimal(raw)
		case col.num != nil:
			*col.num(&rec.Analysis) = ParseUsageInt(raw)
		}
	}

	return rec, nil
}

// splitUsage routes a combined hours/kms cell to exactly one side of the
// pair: kilometers for transport machines, hours for everything else.
func splitUsage(raw string, isTransport bool) (hours int, kms int) {
	v := ParseUsageInt(raw)
	if isTransport {
		return 0, v
	}
	return v, 0
}
