// Package report summarizes bulk upload results and renders them as CSV.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/resume-intake/internal/types"
)

// ContentType is the MIME type of the CSV report.
const ContentType = "text/csv"

// Header is the first line of every report.
var Header = []string{"Filename", "Status", "Email", "AccountId", "Error"}

// Status labels used in the report.
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// Summarize counts successes and failures.
func Summarize(results []types.BulkUploadItemResult) types.BulkUploadSummary {
	var summary types.BulkUploadSummary
	for _, r := range results {
		if r.Success {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
		}
	}
	return summary
}

// Filename returns the download name of a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("mass-upload-report-%s.csv", t.Format("2006-01-02"))
}

// ContentDisposition returns the attachment header value for a report generated at t.
func ContentDisposition(t time.Time) string {
	return fmt.Sprintf("attachment; filename=%s", Filename(t))
}

// ToCSV renders results as CSV text.
func ToCSV(results []types.BulkUploadItemResult) string {
	var sb strings.Builder
	// strings.Builder never returns a write error
	_ = WriteCSV(&sb, results)
	return sb.String()
}

// WriteCSV writes the header and one row per result. Every cell is quoted.
func WriteCSV(w io.Writer, results []types.BulkUploadItemResult) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, Header); err != nil {
		return err
	}
	for _, r := range results {
		status := StatusFailed
		if r.Success {
			status = StatusSuccess
		}
		if err := writeRow(bw, []string{r.Filename, status, r.Email, r.AccountID, r.ErrorReason}); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
		if _, err := w.WriteString(quote(cell)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
