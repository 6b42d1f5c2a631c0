// Package report builds the tabular grading artifact. One grading run
// produces one report; the next run replaces it wholesale.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// StatusGraded marks a successfully graded row.
const StatusGraded = "graded"

// ErrorStatus builds the status value for a failed row.
func ErrorStatus(reason string) string {
	return "error:" + reason
}

// Row is one GradeResult in the report. Rows are append-only and never
// mutated after creation.
type Row struct {
	EnrollmentID     string
	StudentName      string
	Score            float64
	Status           string
	Filename         string
	StartTimeUTC     string
	SubmitTimeUTC    string
	TotalTimeSeconds *int64
}

// Header is the fixed column order of the CSV artifact. Consumers depend on
// it; do not reorder.
var Header = []string{
	"enrollment_id",
	"student_name",
	"score",
	"status",
	"filename",
	"start_time_utc",
	"submit_time_utc",
	"total_time_seconds",
}

// CSV serializes rows with the fixed header.
func CSV(rows []Row) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}

	for _, row := range rows {
		total := ""
		if row.TotalTimeSeconds != nil {
			total = strconv.FormatInt(*row.TotalTimeSeconds, 10)
		}
		record := []string{
			row.EnrollmentID,
			row.StudentName,
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			row.Status,
			row.Filename,
			row.StartTimeUTC,
			row.SubmitTimeUTC,
			total,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}

	return buf.Bytes(), nil
}
