package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetProfile retrieves the profile of a user. Returns nil, nil when none exists.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	var fullName, role, headline, summary, location, phone, email *string
	var skills, experience, education, achievements, publications []byte

	err := db.pool.QueryRow(ctx,
		`SELECT user_id, full_name, role, headline, summary, location, phone, email,
		        skills, experience, education, achievements, publications,
		        resume_path, import_status, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &fullName, &role, &headline, &summary, &location, &phone, &email,
		&skills, &experience, &education, &achievements, &publications,
		&p.ResumePath, &p.ImportStatus, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.FullName = deref(fullName)
	p.Role = deref(role)
	p.Headline = deref(headline)
	p.Summary = deref(summary)
	p.Location = deref(location)
	p.Phone = deref(phone)
	p.Email = deref(email)

	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"skills", skills, &p.Skills},
		{"experience", experience, &p.Experience},
		{"education", education, &p.Education},
		{"achievements", achievements, &p.Achievements},
		{"publications", publications, &p.Publications},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", col.name, err)
		}
	}

	return &p, nil
}

// UpsertProfile writes the fields named in the update, creating the profile row if needed.
// Columns not named in the update keep their stored value.
func (db *DB) UpsertProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) error {
	query, args, err := buildProfileUpsert(userID, upd)
	if err != nil {
		return err
	}
	if _, err := db.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// SetImportStatus records the import status of a profile, creating the row if needed.
func (db *DB) SetImportStatus(ctx context.Context, userID uuid.UUID, status string) error {
	return db.UpsertProfile(ctx, userID, ProfileUpdate{ImportStatus: status})
}

// buildProfileUpsert builds an INSERT ... ON CONFLICT statement touching only the requested columns.
func buildProfileUpsert(userID uuid.UUID, upd ProfileUpdate) (string, []any, error) {
	columns := []string{"user_id"}
	args := []any{userID}

	add := func(column string, value any) {
		columns = append(columns, column)
		args = append(args, value)
	}

	if len(upd.Fields) > 0 && upd.Values == nil {
		return "", nil, fmt.Errorf("profile update names fields but carries no values")
	}
	seen := make(map[string]bool, len(upd.Fields))
	for _, field := range upd.Fields {
		column, ok := profileColumns[field]
		if !ok {
			return "", nil, fmt.Errorf("unknown profile field %q", field)
		}
		if seen[field] {
			continue
		}
		seen[field] = true
		value, err := columnValue(upd.Values, field)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode %s: %w", field, err)
		}
		add(column, value)
	}
	if upd.ResumePath != nil {
		add("resume_path", *upd.ResumePath)
	}
	if upd.ImportStatus != "" {
		add("import_status", upd.ImportStatus)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updates := make([]string, 0, len(columns))
	for _, column := range columns[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(
		`INSERT INTO profiles (%s) VALUES (%s) ON CONFLICT (user_id) DO UPDATE SET %s`,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
	return query, args, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
