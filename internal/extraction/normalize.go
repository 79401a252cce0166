package extraction

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jonathan/resume-intake/internal/types"
)

// decodeProfile decodes a validated payload into a profile. Numbers become
// strings and "true"/"false" become booleans.
func decodeProfile(payload map[string]any) (*types.ExtractedProfile, error) {
	var profile types.ExtractedProfile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &profile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// Normalize trims every string, lowercases the email, drops empty list items and
// entries, dedupes skills and achievements case-insensitively and caps publications.
func Normalize(p *types.ExtractedProfile) *types.ExtractedProfile {
	if p == nil {
		return &types.ExtractedProfile{}
	}

	out := &types.ExtractedProfile{
		FullName:     strings.TrimSpace(p.FullName),
		Role:         strings.TrimSpace(p.Role),
		Headline:     strings.TrimSpace(p.Headline),
		Summary:      strings.TrimSpace(p.Summary),
		Location:     strings.TrimSpace(p.Location),
		Phone:        strings.TrimSpace(p.Phone),
		Email:        types.NormalizeEmail(p.Email),
		Skills:       dedupeStrings(p.Skills),
		Achievements: dedupeStrings(p.Achievements),
	}

	for _, e := range p.Experience {
		e = types.ExperienceEntry{
			Title:       strings.TrimSpace(e.Title),
			Company:     strings.TrimSpace(e.Company),
			Location:    strings.TrimSpace(e.Location),
			StartDate:   strings.TrimSpace(e.StartDate),
			EndDate:     strings.TrimSpace(e.EndDate),
			Description: strings.TrimSpace(e.Description),
			IsCurrent:   e.IsCurrent,
		}
		if e.Title == "" && e.Company == "" {
			continue
		}
		out.Experience = append(out.Experience, e)
	}

	for _, e := range p.Education {
		e = types.EducationEntry{
			Degree:      strings.TrimSpace(e.Degree),
			Institution: strings.TrimSpace(e.Institution),
			Field:       strings.TrimSpace(e.Field),
			StartYear:   strings.TrimSpace(e.StartYear),
			EndYear:     strings.TrimSpace(e.EndYear),
		}
		if e.Degree == "" && e.Institution == "" {
			continue
		}
		out.Education = append(out.Education, e)
	}

	for _, e := range p.Publications {
		e = types.PublicationEntry{
			Title:   strings.TrimSpace(e.Title),
			Journal: strings.TrimSpace(e.Journal),
			Year:    strings.TrimSpace(e.Year),
			DOI:     strings.TrimSpace(e.DOI),
			Authors: strings.TrimSpace(e.Authors),
		}
		if e.Title == "" {
			continue
		}
		if len(out.Publications) == types.MaxPublications {
			break
		}
		out.Publications = append(out.Publications, e)
	}

	return out
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
