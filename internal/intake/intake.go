// Package intake runs résumé documents through extraction into stored profiles,
// one document at a time for a signed-in user or in bulk for an administrator.
package intake

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/types"
)

// ProfileExtractor turns a document into a structured profile
type ProfileExtractor interface {
	Extract(ctx context.Context, doc []byte, mimeType string) (*types.ExtractedProfile, error)
}

// DocumentStore keeps uploaded documents
type DocumentStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
}

// ProfileStore reads and writes stored profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*db.Profile, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, upd db.ProfileUpdate) error
	SetImportStatus(ctx context.Context, userID uuid.UUID, status string) error
}

// AccountDirectory is the account and profile store used for bulk provisioning
type AccountDirectory interface {
	ProfileStore
	GetAccountByEmail(ctx context.Context, email string) (*db.Account, error)
	CreateAccount(ctx context.Context, acc db.NewAccount) (uuid.UUID, error)
}

// PasswordHasher hashes the default provisioning credential
type PasswordHasher interface {
	HashPassword(pw string) (string, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Document is one uploaded file of a bulk batch
type Document struct {
	Filename string
	MIMEType string
	Data     []byte
}

// applyUpdate builds an update carrying only the non-empty fields of p
func applyUpdate(p *types.ExtractedProfile, fields []string) db.ProfileUpdate {
	present := make([]string, 0, len(fields))
	for _, f := range fields {
		if p.HasValue(f) {
			present = append(present, f)
		}
	}
	return db.ProfileUpdate{Values: p, Fields: present}
}
