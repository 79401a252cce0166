// Package storage provides object storage for original résumé documents.
package storage

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
)

// ErrNotFound is returned when no object exists at a path.
var ErrNotFound = errors.New("object not found")

// Store reads and writes whole objects by path.
type Store interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) error
	Get(ctx context.Context, objectPath string) ([]byte, error)
}

// resumePrefix is the top-level folder for uploaded résumés.
const resumePrefix = "resumes"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces an uploaded filename to a safe object name segment.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "document"
	}
	return name
}

// ResumePath returns the object path of a résumé owned by ownerID.
func ResumePath(ownerID, filename string) string {
	return path.Join(resumePrefix, ownerID, SanitizeFilename(filename))
}

// OwnedBy reports whether objectPath lives under ownerID's résumé folder.
func OwnedBy(objectPath, ownerID string) bool {
	cleaned := path.Clean("/" + objectPath)
	return strings.HasPrefix(cleaned, "/"+resumePrefix+"/"+ownerID+"/")
}
