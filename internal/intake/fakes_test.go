package intake

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/types"
)

type extractOutcome struct {
	profile *types.ExtractedProfile
	err     error
	panic   any
}

// fakeExtractor answers by document content
type fakeExtractor struct {
	outcomes map[string]extractOutcome
	calls    []string
}

func (f *fakeExtractor) Extract(_ context.Context, doc []byte, _ string) (*types.ExtractedProfile, error) {
	f.calls = append(f.calls, string(doc))
	out, ok := f.outcomes[string(doc)]
	if !ok {
		return &types.ExtractedProfile{}, nil
	}
	if out.panic != nil {
		panic(out.panic)
	}
	if out.profile == nil {
		return nil, out.err
	}
	cp := *out.profile
	return &cp, out.err
}

// fakeDirectory is an in-memory account and profile store with case-insensitive email uniqueness
type fakeDirectory struct {
	mu       sync.Mutex
	accounts map[string]*db.Account
	profiles map[uuid.UUID]*db.Profile
	statuses map[uuid.UUID][]string

	lookupErr  error
	createErr  error
	upsertErr  error
	skipLookup bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		accounts: make(map[string]*db.Account),
		profiles: make(map[uuid.UUID]*db.Profile),
		statuses: make(map[uuid.UUID][]string),
	}
}

func (f *fakeDirectory) GetAccountByEmail(_ context.Context, email string) (*db.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.skipLookup {
		return nil, nil
	}
	return f.accounts[types.NormalizeEmail(email)], nil
}

func (f *fakeDirectory) CreateAccount(_ context.Context, acc db.NewAccount) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	email := types.NormalizeEmail(acc.Email)
	if _, ok := f.accounts[email]; ok {
		return uuid.Nil, db.ErrAccountExists
	}
	id := uuid.New()
	f.accounts[email] = &db.Account{
		ID:                 id,
		Name:               acc.Name,
		Email:              email,
		Role:               acc.Role,
		PasswordHash:       acc.PasswordHash,
		MustChangePassword: acc.MustChangePassword,
	}
	return id, nil
}

func (f *fakeDirectory) GetProfile(_ context.Context, userID uuid.UUID) (*db.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[userID], nil
}

func (f *fakeDirectory) UpsertProfile(_ context.Context, userID uuid.UUID, upd db.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		p = &db.Profile{UserID: userID, ImportStatus: db.ImportStatusNone}
		f.profiles[userID] = p
	}
	for _, field := range upd.Fields {
		copyField(&p.ExtractedProfile, upd.Values, field)
	}
	if upd.ResumePath != nil {
		path := *upd.ResumePath
		p.ResumePath = &path
	}
	if upd.ImportStatus != "" {
		p.ImportStatus = upd.ImportStatus
	}
	return nil
}

func (f *fakeDirectory) SetImportStatus(_ context.Context, userID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[userID] = append(f.statuses[userID], status)
	return nil
}

func copyField(dst, src *types.ExtractedProfile, field string) {
	switch field {
	case types.FieldFullName:
		dst.FullName = src.FullName
	case types.FieldRole:
		dst.Role = src.Role
	case types.FieldHeadline:
		dst.Headline = src.Headline
	case types.FieldSummary:
		dst.Summary = src.Summary
	case types.FieldLocation:
		dst.Location = src.Location
	case types.FieldPhone:
		dst.Phone = src.Phone
	case types.FieldEmail:
		dst.Email = src.Email
	case types.FieldSkills:
		dst.Skills = src.Skills
	case types.FieldAchievements:
		dst.Achievements = src.Achievements
	case types.FieldExperience:
		dst.Experience = src.Experience
	case types.FieldEducation:
		dst.Education = src.Education
	case types.FieldPublications:
		dst.Publications = src.Publications
	}
}

type fakeHasher struct{ calls int }

func (h *fakeHasher) HashPassword(pw string) (string, error) {
	h.calls++
	return "hashed:" + pw, nil
}

type publishedEvent struct {
	eventType string
	data      any
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, data any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, data: data})
	return nil
}

// failingStore rejects every write
type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unavailable")
}
