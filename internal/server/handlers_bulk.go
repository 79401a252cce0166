package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/extraction"
	"github.com/jonathan/resume-intake/internal/intake"
	"github.com/jonathan/resume-intake/internal/messaging"
	"github.com/jonathan/resume-intake/internal/report"
	"github.com/jonathan/resume-intake/internal/server/middleware"
	"github.com/jonathan/resume-intake/internal/types"
)

// bulkDeadlineSlack covers auditing and encoding around the batch itself.
const bulkDeadlineSlack = time.Minute

// bulkWriteBudget is how long a bulk upload of n files may take to answer.
func (s *Server) bulkWriteBudget(n int) time.Duration {
	return time.Duration(n)*s.deps.BulkCallTimeout + bulkDeadlineSlack
}

// handleBulkUpload provisions one account per uploaded résumé
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	submittedBy, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.deps.MaxFiles)*s.deps.MaxFileBytes+multipartSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.uploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.errorResponse(w, r, intake.ErrNoDocuments)
		return
	}
	if len(headers) > s.deps.MaxFiles {
		s.badRequest(w, fmt.Sprintf("too many files: %d (max %d)", len(headers), s.deps.MaxFiles))
		return
	}

	docs := make([]intake.Document, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			s.badRequest(w, fmt.Sprintf("failed to read %s", fh.Filename))
			return
		}
		data, err := readLimited(file, s.deps.MaxFileBytes)
		file.Close()
		if err != nil {
			s.uploadError(w, err)
			return
		}
		docs = append(docs, intake.Document{
			Filename: fh.Filename,
			MIMEType: extraction.DetectMIMEType(fh.Header.Get("Content-Type"), fh.Filename, data),
			Data:     data,
		})
	}

	batchID := uuid.New()
	ctx := messaging.WithCorrelationID(r.Context(), batchID.String())

	log := s.log.With().
		Str("batch_id", batchID.String()).
		Str("submitted_by", submittedBy.String()).
		Logger()
	log.Info().Int("files", len(docs)).Msg("bulk upload started")

	deadline := time.Now().Add(s.bulkWriteBudget(len(docs)))
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
		log.Debug().Err(err).Msg("write deadline not extended")
	}

	results, err := s.deps.Bulk.RunBatch(ctx, docs)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	summary := report.Summarize(results)
	batch := &types.BulkBatch{
		ID:           batchID,
		SubmittedBy:  submittedBy,
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		CreatedAt:    time.Now().UTC(),
		Results:      results,
	}

	// Best effort: the results are returned even when the audit write fails.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.deps.Batches.SaveBulkBatch(auditCtx, batch); err != nil {
		log.Warn().Err(err).Msg("failed to save bulk batch")
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Publish(auditCtx, messaging.EventBulkBatchCompleted, messaging.BulkBatchCompletedData{
			BatchID:      batchID.String(),
			SubmittedBy:  submittedBy.String(),
			SuccessCount: summary.SuccessCount,
			FailureCount: summary.FailureCount,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to publish batch completion")
		}
	}

	log.Info().
		Int("succeeded", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Msg("bulk upload finished")

	s.jsonResponse(w, http.StatusOK, types.BulkUploadResponse{
		Success: true,
		Message: fmt.Sprintf("processed %d files: %d succeeded, %d failed", len(results), summary.SuccessCount, summary.FailureCount),
		BatchID: batchID,
		Summary: summary,
		Results: results,
	})
}

// handleGetBulkBatch returns a stored batch with its results
func (s *Server) handleGetBulkBatch(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.loadBatch(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, batch)
}

// handleBulkReport streams a stored batch as a CSV attachment
func (s *Server) handleBulkReport(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.loadBatch(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", report.ContentDisposition(batch.CreatedAt))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, batch.Results); err != nil {
		s.log.Error().Err(err).Str("batch_id", batch.ID.String()).Msg("failed to write report")
	}
}

func (s *Server) loadBatch(w http.ResponseWriter, r *http.Request) (*types.BulkBatch, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.badRequest(w, "invalid batch id")
		return nil, false
	}

	batch, err := s.deps.Batches.GetBulkBatch(r.Context(), id)
	if err != nil {
		s.errorResponse(w, r, err)
		return nil, false
	}
	if batch == nil {
		s.jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: "batch not found"})
		return nil, false
	}
	return batch, true
}
