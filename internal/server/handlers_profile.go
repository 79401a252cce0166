package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/resume-intake/internal/extraction"
	"github.com/jonathan/resume-intake/internal/server/middleware"
	"github.com/jonathan/resume-intake/internal/storage"
	"github.com/jonathan/resume-intake/internal/types"
)

// multipartSlack covers multipart headers and boundaries on top of file bytes
const multipartSlack = 1 << 20

// UploadResponse is returned after a résumé upload
type UploadResponse struct {
	DocumentPath string `json:"documentPath"`
	MIMEType     string `json:"mimeType"`
	Size         int    `json:"size"`
}

// AcceptResponse is returned after an accepted review
type AcceptResponse struct {
	Success       bool     `json:"success"`
	UpdatedFields []string `json:"updatedFields"`
}

// handleUploadResume stores one résumé under the caller's folder
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxFileBytes+multipartSlack)
	if err := r.ParseMultipartForm(s.deps.MaxFileBytes); err != nil {
		s.uploadError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, err := readLimited(file, s.deps.MaxFileBytes)
	if err != nil {
		s.uploadError(w, err)
		return
	}

	mimeType := extraction.DetectMIMEType(header.Header.Get("Content-Type"), header.Filename, data)
	if mimeType == "" {
		unsupported := &extraction.UnsupportedDocumentError{Filename: header.Filename, MIMEType: header.Header.Get("Content-Type")}
		s.jsonResponse(w, http.StatusUnsupportedMediaType, ErrorResponse{Error: unsupported.Error()})
		return
	}

	objectPath := storage.ResumePath(userID.String(), header.Filename)
	if err := s.deps.Documents.Put(r.Context(), objectPath, data, mimeType); err != nil {
		s.log.Error().Err(err).Str("path", objectPath).Msg("failed to store résumé")
		s.jsonResponse(w, http.StatusInternalServerError, ErrorResponse{
			Error:     "failed to store document",
			Reason:    types.ReasonStorageWriteFailed,
			Retryable: true,
		})
		return
	}

	s.jsonResponse(w, http.StatusCreated, UploadResponse{
		DocumentPath: objectPath,
		MIMEType:     mimeType,
		Size:         len(data),
	})
}

// handleImport runs a single-item import in apply or review mode
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req types.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, r, validationError(err))
		return
	}

	resp, err := s.deps.Single.Import(r.Context(), userID, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAcceptImport persists the fields a user accepted after review
func (s *Server) handleAcceptImport(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req types.AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, r, validationError(err))
		return
	}

	fields, err := s.deps.Single.Accept(r.Context(), userID, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, AcceptResponse{Success: true, UpdatedFields: fields})
}

// handleGetProfile returns the caller's stored profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	profile, err := s.deps.Profiles.GetProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if profile == nil {
		s.jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: "profile not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// errFileTooLarge is returned by readLimited when the limit is exceeded
var errFileTooLarge = errors.New("file exceeds the size limit")

// readLimited reads at most limit bytes and fails when more are available
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errFileTooLarge
	}
	return data, nil
}

// uploadError maps multipart read failures to 413 or 400
func (s *Server) uploadError(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError
	if errors.Is(err, errFileTooLarge) || errors.As(err, &maxBytes) {
		s.jsonResponse(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "upload too large"})
		return
	}
	s.badRequest(w, "invalid multipart upload")
}
