package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-intake/internal/extraction"
	"github.com/jonathan/resume-intake/internal/intake"
	"github.com/jonathan/resume-intake/internal/messaging"
	"github.com/jonathan/resume-intake/internal/report"
	"github.com/jonathan/resume-intake/internal/types"
)

var bulkImportCmd = &cobra.Command{
	Use:   "bulk-import",
	Short: "Provision accounts from a directory of résumés",
	Long:  "Provision one account per résumé in a directory and write the per-file outcome as a CSV report.",
	RunE:  runBulkImport,
}

var (
	bulkDir string
	bulkOut string
)

func init() {
	bulkImportCmd.Flags().StringVar(&bulkDir, "dir", "", "Directory of résumé documents (required)")
	bulkImportCmd.Flags().StringVarP(&bulkOut, "out", "o", "", "Path of the CSV report (default: stdout)")
	_ = bulkImportCmd.MarkFlagRequired("dir")

	rootCmd.AddCommand(bulkImportCmd)
}

func runBulkImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	docs, err := readDocuments(bulkDir)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{database: true, extractor: true, messaging: true})
	if err != nil {
		return err
	}
	defer a.Close()

	batchID := uuid.New()
	ctx = messaging.WithCorrelationID(ctx, batchID.String())

	orchestrator := a.orchestrator()
	orchestrator.Progress = func(index, total int, result types.BulkUploadItemResult) {
		status := report.StatusSuccess
		if !result.Success {
			status = report.StatusFailed + " (" + result.ErrorReason + ")"
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", index+1, total, result.Filename, status)
	}

	results, err := orchestrator.RunBatch(ctx, docs)
	if err != nil {
		return fmt.Errorf("bulk import failed: %w", err)
	}

	summary := report.Summarize(results)
	batch := &types.BulkBatch{
		ID:           batchID,
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		CreatedAt:    time.Now().UTC(),
		Results:      results,
	}
	if err := a.db.SaveBulkBatch(context.WithoutCancel(ctx), batch); err != nil {
		a.log.Warn().Err(err).Str("batch_id", batchID.String()).Msg("failed to save bulk batch")
	}

	if err := writeReport(bulkOut, results); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Batch %s: %d succeeded, %d failed\n", batchID, summary.SuccessCount, summary.FailureCount)
	return nil
}

// readDocuments loads every regular file of dir, ordered by name
func readDocuments(dir string) ([]intake.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []intake.Document
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		docs = append(docs, intake.Document{
			Filename: entry.Name(),
			MIMEType: extraction.DetectMIMEType("", entry.Name(), data),
			Data:     data,
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found in %s", dir)
	}
	return docs, nil
}

func writeReport(path string, results []types.BulkUploadItemResult) error {
	if path == "" {
		return report.WriteCSV(os.Stdout, results)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return writeAndClose(f, results)
}

// writeAndClose writes the report and reports a failed close, which can mean
// the file was truncated.
func writeAndClose(w io.WriteCloser, results []types.BulkUploadItemResult) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()
	return report.WriteCSV(w, results)
}
