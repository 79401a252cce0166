package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/types"
)

// Account represents a login identity
type Account struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               types.Role `json:"role"`
	PasswordHash       string     `json:"-"` // Never serialize to JSON
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToUser converts the row to its API representation
func (a *Account) ToUser() *types.User {
	return &types.User{
		ID:                 a.ID,
		Name:               a.Name,
		Email:              a.Email,
		Role:               a.Role,
		MustChangePassword: a.MustChangePassword,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// NewAccount holds the values of an account to create
type NewAccount struct {
	Name               string
	Email              string
	Role               types.Role
	PasswordHash       string
	MustChangePassword bool
}

// Import status values stored on profiles
const (
	ImportStatusNone          = "none"
	ImportStatusImported      = "imported"
	ImportStatusNeedsReimport = "needs_reimport"
)

// Profile is a stored professional profile
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	types.ExtractedProfile
	ResumePath   *string   `json:"resume_path,omitempty"`
	ImportStatus string    `json:"import_status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Extracted returns the profile content without provenance
func (p *Profile) Extracted() *types.ExtractedProfile {
	if p == nil {
		return &types.ExtractedProfile{}
	}
	out := p.ExtractedProfile
	return &out
}

// ProfileUpdate writes the listed fields of Values; every other column is left untouched.
type ProfileUpdate struct {
	Values       *types.ExtractedProfile
	Fields       []string
	ResumePath   *string
	ImportStatus string
}

// profileColumns maps profile field names to columns
var profileColumns = map[string]string{
	types.FieldFullName:     "full_name",
	types.FieldRole:         "role",
	types.FieldHeadline:     "headline",
	types.FieldSummary:      "summary",
	types.FieldLocation:     "location",
	types.FieldPhone:        "phone",
	types.FieldEmail:        "email",
	types.FieldSkills:       "skills",
	types.FieldExperience:   "experience",
	types.FieldEducation:    "education",
	types.FieldAchievements: "achievements",
	types.FieldPublications: "publications",
}

// columnValue returns the database value of a profile field.
// JSONB columns are passed as marshaled bytes.
func columnValue(p *types.ExtractedProfile, field string) (any, error) {
	switch field {
	case types.FieldSkills:
		return marshalList(p.Skills)
	case types.FieldAchievements:
		return marshalList(p.Achievements)
	case types.FieldExperience:
		return marshalList(p.Experience)
	case types.FieldEducation:
		return marshalList(p.Education)
	case types.FieldPublications:
		return marshalList(p.Publications)
	default:
		return p.Scalar(field), nil
	}
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
