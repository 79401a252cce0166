// Package reconcile compares an extracted profile with the stored one and
// produces a field-level change-set for human review.
package reconcile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-intake/internal/types"
)

// Reconcile returns one diff per profile field, in display order.
// An empty extracted value never counts as a change.
func Reconcile(existing, extracted *types.ExtractedProfile) []types.FieldDiff {
	if existing == nil {
		existing = &types.ExtractedProfile{}
	}
	if extracted == nil {
		extracted = &types.ExtractedProfile{}
	}

	diffs := make([]types.FieldDiff, 0, len(types.AllFields()))

	for _, field := range types.ScalarFields {
		current := existing.Scalar(field)
		next := extracted.Scalar(field)
		diffs = append(diffs, types.FieldDiff{
			Field:          field,
			CurrentValue:   current,
			ExtractedValue: next,
			Changed:        normalizeScalar(next) != "" && normalizeScalar(next) != normalizeScalar(current),
		})
	}

	for _, field := range types.ListFields {
		current := existing.List(field)
		next := extracted.List(field)
		nextKey := listKey(next)
		diffs = append(diffs, types.FieldDiff{
			Field:          field,
			CurrentValue:   nonNil(current),
			ExtractedValue: nonNil(next),
			Changed:        nextKey != "" && nextKey != listKey(current),
		})
	}

	for _, field := range types.SectionFields {
		n := extracted.SectionLen(field)
		m := existing.SectionLen(field)
		diffs = append(diffs, types.FieldDiff{
			Field:          field,
			CurrentValue:   fmt.Sprintf("%d entries", m),
			ExtractedValue: fmt.Sprintf("%d entries extracted", n),
			Changed:        n > 0 && sectionKey(extracted, field) != sectionKey(existing, field),
		})
	}

	return diffs
}

// SectionsWithChanges counts the diffs marked as changed.
func SectionsWithChanges(diffs []types.FieldDiff) int {
	count := 0
	for _, d := range diffs {
		if d.Changed {
			count++
		}
	}
	return count
}

// ChangedFields returns the names of the changed fields, in diff order.
func ChangedFields(diffs []types.FieldDiff) []string {
	var fields []string
	for _, d := range diffs {
		if d.Changed {
			fields = append(fields, d.Field)
		}
	}
	return fields
}

func normalizeScalar(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// listKey renders a list as a canonical, order-independent string.
// Blank items are ignored, so a list of blanks has the empty key.
func listKey(values []string) string {
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		if n := normalizeScalar(v); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return ""
	}
	sort.Strings(normalized)
	data, _ := json.Marshal(normalized)
	return string(data)
}

// sectionKey renders a composite section as a sorted multiset of normalized entries.
func sectionKey(p *types.ExtractedProfile, field string) string {
	var entries []string
	switch field {
	case types.FieldExperience:
		for _, e := range p.Experience {
			entries = append(entries, entryKey(e.Title, e.Company, e.Location, e.StartDate, e.EndDate, e.Description, fmt.Sprint(e.IsCurrent)))
		}
	case types.FieldEducation:
		for _, e := range p.Education {
			entries = append(entries, entryKey(e.Degree, e.Institution, e.Field, e.StartYear, e.EndYear))
		}
	case types.FieldPublications:
		for _, e := range p.Publications {
			entries = append(entries, entryKey(e.Title, e.Journal, e.Year, e.DOI, e.Authors))
		}
	}
	sort.Strings(entries)
	return strings.Join(entries, "\x1e")
}

func entryKey(parts ...string) string {
	for i := range parts {
		parts[i] = normalizeScalar(parts[i])
	}
	return strings.Join(parts, "\x1f")
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
