package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/shrimpsizemoose/scratchdrop/internal/models"
)

const (
	ExportFilename = "y8_scratch_submissions.csv"
	ExportMIME     = "text/csv;charset=utf-8"

	csvHeader         = "created_at,class,student_name,scratch_username,project_url,project_id,features,ua"
	featuresSeparator = ";"
)

// ExportCSV renders rows in the given order. Every data field is quoted;
// the header is not. Lines are joined by "\n" with no trailing newline.
func ExportCSV(rows []models.Row) string {
	var b strings.Builder
	// strings.Builder never returns a write error
	_ = WriteCSV(&b, rows)
	return b.String()
}

func WriteCSV(w io.Writer, rows []models.Row) error {
	if _, err := io.WriteString(w, csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range rows {
		fields := []string{
			r.CreatedAt,
			r.Class,
			r.StudentName,
			r.ScratchUsername,
			r.ProjectURL,
			r.ProjectID,
			strings.Join(r.Features, featuresSeparator),
			r.UserAgent,
		}
		for i, f := range fields {
			fields[i] = quote(f)
		}

		if _, err := io.WriteString(w, "\n"+strings.Join(fields, ",")); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
