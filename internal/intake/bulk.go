package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/extraction"
	"github.com/jonathan/resume-intake/internal/logger"
	"github.com/jonathan/resume-intake/internal/messaging"
	"github.com/jonathan/resume-intake/internal/storage"
	"github.com/jonathan/resume-intake/internal/types"
)

// BulkConfig holds the provisioning settings of a bulk run
type BulkConfig struct {
	// DefaultPassword is shared by every provisioned account and must be rotated on first login.
	DefaultPassword string
	DefaultRole     types.Role
	// CallTimeout bounds each external call of an item.
	CallTimeout time.Duration
}

// ProgressFunc is called after each item with its zero-based index
type ProgressFunc func(index, total int, result types.BulkUploadItemResult)

// Orchestrator provisions accounts from a batch of résumé documents.
// Items are processed one at a time, in input order; a failing item never stops the batch.
type Orchestrator struct {
	extractor ProfileExtractor
	store     DocumentStore
	accounts  AccountDirectory
	hasher    PasswordHasher
	publisher EventPublisher
	cfg       BulkConfig
	logger    *logger.Logger

	// Progress, if set, observes each recorded result
	Progress ProgressFunc
}

// NewOrchestrator creates a bulk orchestrator. publisher may be nil.
func NewOrchestrator(
	extractor ProfileExtractor,
	store DocumentStore,
	accounts AccountDirectory,
	hasher PasswordHasher,
	publisher EventPublisher,
	cfg BulkConfig,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = types.RoleCandidate
	}
	return &Orchestrator{
		extractor: extractor,
		store:     store,
		accounts:  accounts,
		hasher:    hasher,
		publisher: publisher,
		cfg:       cfg,
		logger:    log.WithComponent("bulk_import"),
	}
}

// RunBatch processes docs and returns exactly one result per document, in order.
// An error is returned only when a batch precondition is missing, before any item runs.
func (o *Orchestrator) RunBatch(ctx context.Context, docs []Document) ([]types.BulkUploadItemResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	if o.extractor == nil {
		return nil, ErrExtractorNotConfigured
	}
	if o.cfg.DefaultPassword == "" || o.hasher == nil {
		return nil, ErrDefaultCredentialNotConfigured
	}

	passwordHash, err := o.hasher.HashPassword(o.cfg.DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default password: %w", err)
	}

	log := o.logger
	if batchID := messaging.CorrelationID(ctx); batchID != "" {
		log = log.WithBatchID(batchID)
	}
	log.Info().Int("files", len(docs)).Msg("bulk batch started")

	results := make([]types.BulkUploadItemResult, 0, len(docs))
	for i, doc := range docs {
		result := o.runItem(ctx, log, doc, passwordHash)
		results = append(results, result)
		if o.Progress != nil {
			o.Progress(i, len(docs), result)
		}
	}

	var failed int
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	log.Info().
		Int("succeeded", len(results)-failed).
		Int("failed", failed).
		Msg("bulk batch finished")
	return results, nil
}

// runItem runs one document through the pipeline. Panics are recovered here and
// recorded as a failure carrying the panic message.
func (o *Orchestrator) runItem(ctx context.Context, log *logger.Logger, doc Document, passwordHash string) (result types.BulkUploadItemResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("filename", doc.Filename).Interface("panic", r).Msg("bulk item panicked")
			result = failedResult(doc.Filename, "", "", &ItemFailure{Message: fmt.Sprint(r)})
		}
	}()

	email, accountID, failure := o.provision(ctx, log, doc, passwordHash)
	if failure != nil {
		log.Warn().
			Str("filename", doc.Filename).
			Str("reason", failure.label()).
			AnErr("cause", failure.Err).
			Msg("bulk item failed")
		return failedResult(doc.Filename, email, accountID, failure)
	}

	log.Info().Str("filename", doc.Filename).Str("account_id", accountID).Msg("account provisioned")
	return types.BulkUploadItemResult{
		Filename:  doc.Filename,
		Success:   true,
		Email:     email,
		AccountID: accountID,
	}
}

// provision runs the item stages in order. It returns the normalized email and
// the account ID as far as they were reached, and the first failure.
func (o *Orchestrator) provision(ctx context.Context, log *logger.Logger, doc Document, passwordHash string) (string, string, *ItemFailure) {
	parsed, failure := o.extract(ctx, doc)
	if failure != nil {
		return "", "", failure
	}

	email := parsed.NormalizedEmail()
	if email == "" {
		return "", "", fail(types.ReasonNoEmailFound, nil)
	}
	parsed.Email = email

	accountID, failure := o.createAccount(ctx, parsed, passwordHash)
	if failure != nil {
		return email, "", failure
	}

	upd := db.ProfileUpdate{Values: parsed, Fields: parsed.PresentFields()}
	upd.ImportStatus = db.ImportStatusImported
	if path, err := o.storeDocument(ctx, accountID, doc); err != nil {
		log.Warn().
			Err(err).
			Str("filename", doc.Filename).
			Str("reason", string(types.ReasonStorageWriteFailed)).
			Msg("document not stored, continuing without it")
	} else {
		upd.ResumePath = &path
	}

	if failure := o.writeProfile(ctx, log, accountID, upd); failure != nil {
		return email, accountID.String(), failure
	}

	o.announce(ctx, log, accountID, parsed)
	return email, accountID.String(), nil
}

func (o *Orchestrator) extract(ctx context.Context, doc Document) (*types.ExtractedProfile, *ItemFailure) {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	mimeType := extraction.DetectMIMEType(doc.MIMEType, doc.Filename, doc.Data)
	parsed, err := o.extractor.Extract(callCtx, doc.Data, mimeType)
	if err != nil {
		reason := ReasonOf(err)
		if reason == "" {
			reason = types.ReasonExtractionUnavailable
		}
		return nil, fail(reason, err)
	}
	if parsed == nil {
		return nil, fail(types.ReasonNoStructuredOutput, nil)
	}
	return parsed, nil
}

func (o *Orchestrator) createAccount(ctx context.Context, parsed *types.ExtractedProfile, passwordHash string) (uuid.UUID, *ItemFailure) {
	lookupCtx, cancel := o.callContext(ctx)
	existing, err := o.accounts.GetAccountByEmail(lookupCtx, parsed.Email)
	cancel()
	if err != nil {
		return uuid.Nil, &ItemFailure{Reason: types.ReasonProfileWriteFailed, Detail: "account lookup failed", Err: err}
	}
	if existing != nil {
		return uuid.Nil, fail(types.ReasonAccountAlreadyExists, nil)
	}

	createCtx, cancel := o.callContext(ctx)
	defer cancel()
	id, err := o.accounts.CreateAccount(createCtx, db.NewAccount{
		Name:               parsed.FullName,
		Email:              parsed.Email,
		Role:               o.cfg.DefaultRole,
		PasswordHash:       passwordHash,
		MustChangePassword: true,
	})
	if err != nil {
		if errors.Is(err, db.ErrAccountExists) {
			return uuid.Nil, fail(types.ReasonAccountAlreadyExists, nil)
		}
		return uuid.Nil, &ItemFailure{Reason: types.ReasonProfileWriteFailed, Detail: "account creation failed", Err: err}
	}
	return id, nil
}

func (o *Orchestrator) storeDocument(ctx context.Context, accountID uuid.UUID, doc Document) (string, error) {
	if o.store == nil {
		return "", errors.New("no document store configured")
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	path := storage.ResumePath(accountID.String(), doc.Filename)
	mimeType := extraction.DetectMIMEType(doc.MIMEType, doc.Filename, doc.Data)
	if err := o.store.Put(callCtx, path, doc.Data, mimeType); err != nil {
		return "", err
	}
	return path, nil
}

// writeProfile stores the extracted fields. When that fails the account is kept
// and its profile is flagged for re-import.
func (o *Orchestrator) writeProfile(ctx context.Context, log *logger.Logger, accountID uuid.UUID, upd db.ProfileUpdate) *ItemFailure {
	callCtx, cancel := o.callContext(ctx)
	err := o.accounts.UpsertProfile(callCtx, accountID, upd)
	cancel()
	if err == nil {
		return nil
	}

	// The parent context may be what failed the write; the flag gets its own budget.
	flagCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout())
	defer cancel()
	if flagErr := o.accounts.SetImportStatus(flagCtx, accountID, db.ImportStatusNeedsReimport); flagErr != nil {
		log.Error().Err(flagErr).Str("account_id", accountID.String()).Msg("failed to flag profile for re-import")
	}
	return fail(types.ReasonProfileWriteFailed, err)
}

func (o *Orchestrator) announce(ctx context.Context, log *logger.Logger, accountID uuid.UUID, parsed *types.ExtractedProfile) {
	if o.publisher == nil {
		return
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	err := o.publisher.Publish(callCtx, messaging.EventAccountProvisioned, messaging.AccountProvisionedData{
		AccountID:          accountID.String(),
		Email:              parsed.Email,
		FullName:           parsed.FullName,
		BatchID:            messaging.CorrelationID(ctx),
		MustChangePassword: true,
	})
	if err != nil {
		log.Warn().Err(err).Str("account_id", accountID.String()).Msg("failed to publish account event")
	}
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.timeout())
}

func (o *Orchestrator) timeout() time.Duration {
	if o.cfg.CallTimeout > 0 {
		return o.cfg.CallTimeout
	}
	return 90 * time.Second
}

func failedResult(filename, email, accountID string, failure *ItemFailure) types.BulkUploadItemResult {
	return types.BulkUploadItemResult{
		Filename:    filename,
		Success:     false,
		Email:       email,
		AccountID:   accountID,
		ErrorReason: failure.label(),
	}
}
