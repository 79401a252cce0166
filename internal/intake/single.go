package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/extraction"
	"github.com/jonathan/resume-intake/internal/logger"
	"github.com/jonathan/resume-intake/internal/reconcile"
	"github.com/jonathan/resume-intake/internal/storage"
	"github.com/jonathan/resume-intake/internal/types"
)

// SingleFlow imports one document into the caller's own profile
type SingleFlow struct {
	extractor ProfileExtractor
	store     DocumentStore
	profiles  ProfileStore
	logger    *logger.Logger
}

// NewSingleFlow creates a single-item flow
func NewSingleFlow(extractor ProfileExtractor, store DocumentStore, profiles ProfileStore, log *logger.Logger) *SingleFlow {
	if log == nil {
		log = logger.Nop()
	}
	return &SingleFlow{
		extractor: extractor,
		store:     store,
		profiles:  profiles,
		logger:    log.WithComponent("single_import"),
	}
}

// Import extracts the document at req.DocumentPath. In apply mode every non-empty
// extracted field is written to the profile; in review mode the extraction is
// reconciled against the stored profile and nothing is written.
// The first error is returned as is; nothing is retried.
func (f *SingleFlow) Import(ctx context.Context, userID uuid.UUID, req types.ImportRequest) (*types.ImportResponse, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}
	if f.extractor == nil {
		return nil, ErrExtractorNotConfigured
	}
	mode := req.Mode
	if mode == "" {
		mode = types.ImportModeApply
	}

	log := f.logger.WithUserID(userID.String())
	state := types.ImportRequested
	log.Debug().Str("state", string(state)).Str("path", req.DocumentPath).Msg("import requested")

	data, err := f.download(ctx, userID, req.DocumentPath)
	if err != nil {
		return nil, err
	}
	state = types.ImportDownloaded
	log.Debug().Str("state", string(state)).Int("bytes", len(data)).Msg("document downloaded")

	parsed, err := f.extractor.Extract(ctx, data, extraction.DetectMIMEType("", req.DocumentPath, data))
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		return nil, err
	}
	state = types.ImportExtracted
	log.Debug().Str("state", string(state)).Msg("document extracted")

	resp := &types.ImportResponse{Success: true, Parsed: parsed, UpdatedFields: []string{}}

	switch mode {
	case types.ImportModeReview:
		existing, err := f.profiles.GetProfile(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		resp.Diffs = reconcile.Reconcile(existing.Extracted(), parsed)
		resp.ChangedFields = reconcile.ChangedFields(resp.Diffs)
		resp.SectionsWithChanges = reconcile.SectionsWithChanges(resp.Diffs)
		resp.State = types.ImportReconciled

	default:
		upd := db.ProfileUpdate{Values: parsed, Fields: parsed.PresentFields()}
		path := req.DocumentPath
		upd.ResumePath = &path
		upd.ImportStatus = db.ImportStatusImported
		if err := f.profiles.UpsertProfile(ctx, userID, upd); err != nil {
			return nil, fmt.Errorf("failed to apply profile: %w", err)
		}
		resp.UpdatedFields = upd.Fields
		resp.State = types.ImportApplied
	}

	log.Info().
		Str("state", string(resp.State)).
		Int("updated_fields", len(resp.UpdatedFields)).
		Int("sections_with_changes", resp.SectionsWithChanges).
		Msg("import finished")
	return resp, nil
}

// Accept writes the accepted fields of a reviewed extraction. Fields that are
// empty in the extraction are skipped. Returns the fields actually written.
func (f *SingleFlow) Accept(ctx context.Context, userID uuid.UUID, req types.AcceptRequest) ([]string, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}
	for _, field := range req.Fields {
		if !types.IsProfileField(field) {
			return nil, &UnknownFieldError{Field: field}
		}
	}
	if req.Parsed == nil {
		return []string{}, nil
	}

	upd := applyUpdate(req.Parsed, dedupe(req.Fields))
	upd.ImportStatus = db.ImportStatusImported
	if req.DocumentPath != "" {
		if !storage.OwnedBy(req.DocumentPath, userID.String()) {
			return nil, &DocumentNotFoundError{Path: req.DocumentPath}
		}
		path := req.DocumentPath
		upd.ResumePath = &path
	}

	if err := f.profiles.UpsertProfile(ctx, userID, upd); err != nil {
		return nil, fmt.Errorf("failed to apply profile: %w", err)
	}

	f.logger.Info().
		Str("user_id", userID.String()).
		Strs("fields", upd.Fields).
		Msg("accepted reviewed fields")
	return upd.Fields, nil
}

// download fetches a document owned by the user. Documents outside the user's
// prefix are reported as missing.
func (f *SingleFlow) download(ctx context.Context, userID uuid.UUID, path string) ([]byte, error) {
	if !storage.OwnedBy(path, userID.String()) {
		return nil, &DocumentNotFoundError{Path: path}
	}
	data, err := f.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &DocumentNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	return data, nil
}

func dedupe(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
