package importer

import (
	"fmt"
	"sort"
)

// RowOutcome is the terminal result of processing one data row. Exactly
// one outcome exists per data line; blank lines are marked Skipped and
// excluded from every report count.
type RowOutcome struct {
	Line    int
	Fields  map[string]string
	Record  *DecodedRow
	Skipped bool
	Err     error
}

// RowError describes one failed row in the final report.
type RowError struct {
	Line  int               `json:"line"`
	Data  map[string]string `json:"data"`
	Error string            `json:"error"`
}

// ImportReport summarizes one import run. It is the value handed back to
// the transport layer and serialized as-is.
type ImportReport struct {
	Message        string     `json:"message"`
	TotalLinesRead int        `json:"totalLinesRead"`
	ImportedCount  int        `json:"importedCount"`
	ErrorCount     int        `json:"errorCount"`
	Errors         []RowError `json:"errors"`
}

// buildReport assembles the final report from settled outcomes and the
// extra failures produced by the write phase. Errors are ordered by
// original line number, not completion order.
func buildReport(outcomes []RowOutcome, imported int, writeErrors []RowError) *ImportReport {
	report := &ImportReport{
		ImportedCount: imported,
		Errors:        make([]RowError, 0, len(writeErrors)),
	}

	for _, outcome := range outcomes {
		if outcome.Skipped {
			continue
		}
		report.TotalLinesRead++
		if outcome.Err != nil {
			report.Errors = append(report.Errors, RowError{
				Line:  outcome.Line,
				Data:  outcome.Fields,
				Error: outcome.Err.Error(),
			})
		}
	}

	report.Errors = append(report.Errors, writeErrors...)
	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].Line < report.Errors[j].Line
	})

	report.ErrorCount = len(report.Errors)
	report.Message = fmt.Sprintf("imported %d of %d rows (%d errors)",
		report.ImportedCount, report.TotalLinesRead, report.ErrorCount)

	return report
}
