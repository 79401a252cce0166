// Package types provides type definitions for structured data used throughout the resume-intake system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// MaxPublications bounds how many publications an extraction may carry.
const MaxPublications = 10

// ExtractedProfile is the structured professional profile pulled out of a résumé.
// Every field is optional; the bulk path additionally requires Email.
type ExtractedProfile struct {
	FullName     string             `json:"fullName,omitempty"`
	Role         string             `json:"role,omitempty"`
	Headline     string             `json:"headline,omitempty"`
	Summary      string             `json:"summary,omitempty"`
	Location     string             `json:"location,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Email        string             `json:"email,omitempty"`
	Skills       []string           `json:"skills,omitempty"`
	Experience   []ExperienceEntry  `json:"experience,omitempty"`
	Education    []EducationEntry   `json:"education,omitempty"`
	Achievements []string           `json:"achievements,omitempty"`
	Publications []PublicationEntry `json:"publications,omitempty"`
}

// ExistingProfile is the persisted profile an extraction is reconciled against.
// It shares the extracted shape; provenance lives on the stored row.
type ExistingProfile = ExtractedProfile

// ExperienceEntry is one position in the work history.
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
	IsCurrent   bool   `json:"isCurrent,omitempty"`
}

// EducationEntry is one degree or program.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Field       string `json:"field,omitempty"`
	StartYear   string `json:"startYear,omitempty"`
	EndYear     string `json:"endYear,omitempty"`
}

// PublicationEntry is one published work.
type PublicationEntry struct {
	Title   string `json:"title"`
	Journal string `json:"journal,omitempty"`
	Year    string `json:"year,omitempty"`
	DOI     string `json:"doi,omitempty"`
	Authors string `json:"authors,omitempty"`
}

// Profile field names, shared by the reconciler, the persistence layer and the API.
const (
	FieldFullName     = "fullName"
	FieldRole         = "role"
	FieldHeadline     = "headline"
	FieldSummary      = "summary"
	FieldLocation     = "location"
	FieldPhone        = "phone"
	FieldEmail        = "email"
	FieldSkills       = "skills"
	FieldExperience   = "experience"
	FieldEducation    = "education"
	FieldAchievements = "achievements"
	FieldPublications = "publications"
)

// ScalarFields lists the single-valued text fields in display order.
var ScalarFields = []string{
	FieldFullName, FieldRole, FieldHeadline, FieldSummary, FieldLocation, FieldPhone, FieldEmail,
}

// ListFields lists the plain string-list fields.
var ListFields = []string{FieldSkills, FieldAchievements}

// SectionFields lists the composite sections that are replaced wholesale.
var SectionFields = []string{FieldExperience, FieldEducation, FieldPublications}

// AllFields returns every profile field name in display order.
func AllFields() []string {
	all := make([]string, 0, len(ScalarFields)+len(ListFields)+len(SectionFields))
	all = append(all, ScalarFields...)
	all = append(all, ListFields...)
	all = append(all, SectionFields...)
	return all
}

// IsProfileField reports whether name is a known profile field.
func IsProfileField(name string) bool {
	for _, f := range AllFields() {
		if f == name {
			return true
		}
	}
	return false
}

// Scalar returns the value of a scalar field by name, or "" for unknown names.
func (p *ExtractedProfile) Scalar(field string) string {
	if p == nil {
		return ""
	}
	switch field {
	case FieldFullName:
		return p.FullName
	case FieldRole:
		return p.Role
	case FieldHeadline:
		return p.Headline
	case FieldSummary:
		return p.Summary
	case FieldLocation:
		return p.Location
	case FieldPhone:
		return p.Phone
	case FieldEmail:
		return p.Email
	}
	return ""
}

// List returns the value of a string-list field by name.
func (p *ExtractedProfile) List(field string) []string {
	if p == nil {
		return nil
	}
	switch field {
	case FieldSkills:
		return p.Skills
	case FieldAchievements:
		return p.Achievements
	}
	return nil
}

// SectionLen returns the number of entries in a composite section.
func (p *ExtractedProfile) SectionLen(field string) int {
	if p == nil {
		return 0
	}
	switch field {
	case FieldExperience:
		return len(p.Experience)
	case FieldEducation:
		return len(p.Education)
	case FieldPublications:
		return len(p.Publications)
	}
	return 0
}

// HasValue reports whether the named field carries a non-empty value.
func (p *ExtractedProfile) HasValue(field string) bool {
	if p == nil {
		return false
	}
	switch field {
	case FieldSkills, FieldAchievements:
		for _, v := range p.List(field) {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
		return false
	case FieldExperience, FieldEducation, FieldPublications:
		return p.SectionLen(field) > 0
	default:
		return strings.TrimSpace(p.Scalar(field)) != ""
	}
}

// PresentFields returns the fields that carry a non-empty value, in display order.
func (p *ExtractedProfile) PresentFields() []string {
	present := make([]string, 0, len(AllFields()))
	for _, f := range AllFields() {
		if p.HasValue(f) {
			present = append(present, f)
		}
	}
	return present
}

// NormalizedEmail returns the trimmed, lowercased email address.
func (p *ExtractedProfile) NormalizedEmail() string {
	if p == nil {
		return ""
	}
	return NormalizeEmail(p.Email)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
