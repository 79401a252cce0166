package report

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-intake/internal/types"
)

func sampleResults() []types.BulkUploadItemResult {
	return []types.BulkUploadItemResult{
		{Filename: "a.pdf", Success: true, Email: "a@example.com", AccountID: "acc-1"},
		{Filename: "b \"final\".pdf", Success: false, ErrorReason: "NoEmailFound"},
		{Filename: "c,d.docx", Success: false, Email: "c@example.com", ErrorReason: "line one\nline two"},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleResults())
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 2, summary.FailureCount)

	assert.Equal(t, types.BulkUploadSummary{}, Summarize(nil))
}

func TestToCSV_Format(t *testing.T) {
	out := ToCSV(sampleResults()[:2])

	expected := `"Filename","Status","Email","AccountId","Error"` + "\n" +
		`"a.pdf","Success","a@example.com","acc-1",""` + "\n" +
		`"b ""final"".pdf","Failed","","","NoEmailFound"` + "\n"
	assert.Equal(t, expected, out)
}

func TestToCSV_RoundTrip(t *testing.T) {
	results := sampleResults()

	records, err := csv.NewReader(strings.NewReader(ToCSV(results))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(results)+1)
	assert.Equal(t, Header, records[0])

	for i, r := range results {
		row := records[i+1]
		assert.Equal(t, r.Filename, row[0])
		if r.Success {
			assert.Equal(t, StatusSuccess, row[1])
		} else {
			assert.Equal(t, StatusFailed, row[1])
		}
		assert.Equal(t, r.Email, row[2])
		assert.Equal(t, r.AccountID, row[3])
		assert.Equal(t, r.ErrorReason, row[4])
	}
}

func TestToCSV_Empty(t *testing.T) {
	assert.Equal(t, `"Filename","Status","Email","AccountId","Error"`+"\n", ToCSV(nil))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_PropagatesWriteError(t *testing.T) {
	err := WriteCSV(failingWriter{}, sampleResults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "mass-upload-report-2026-03-07.csv", Filename(ts))
	assert.Equal(t, "attachment; filename=mass-upload-report-2026-03-07.csv", ContentDisposition(ts))
	assert.Equal(t, "text/csv", ContentType)
}
