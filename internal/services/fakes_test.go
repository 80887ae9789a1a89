package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/cache"
	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/llm"
	"github.com/tbourn/go-roadmap-backend/internal/roadmap"
)

// ---- roadmap repo fake ----

type fakeRoadmapRepo struct {
	mu      sync.Mutex
	items   []*domain.Roadmap
	seq     int
	bumps   map[string]int
	saveErr error
	findErr error
	saves   int
}

func newFakeRoadmapRepo() *fakeRoadmapRepo {
	return &fakeRoadmapRepo{bumps: map[string]int{}}
}

func (f *fakeRoadmapRepo) add(title, author string, v domain.Visibility, searchCount int64, tree []domain.Node) *domain.Roadmap {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	b, _ := json.Marshal(tree)
	r := &domain.Roadmap{
		ID:              "rm-" + string(rune('a'+f.seq-1)),
		Title:           title,
		NormalizedTitle: roadmap.Normalize(title),
		Content:         string(b),
		SearchCount:     searchCount,
		Visibility:      v,
		AuthorID:        author,
		CreatedAt:       time.Unix(int64(f.seq), 0),
	}
	f.items = append(f.items, r)
	return r
}

func (f *fakeRoadmapRepo) FindRoadmapByNormalizedTitle(_ context.Context, _ *gorm.DB, normalized string) (*domain.Roadmap, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.NormalizedTitle == normalized {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoadmapRepo) IncrementRoadmapSearchCount(_ context.Context, _ *gorm.DB, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumps[id]++
	for _, r := range f.items {
		if r.ID == id {
			r.SearchCount++
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRoadmapRepo) SaveRoadmap(_ context.Context, _ *gorm.DB, title string, tree []domain.Node, authorID string) (*domain.Roadmap, error) {
	f.mu.Lock()
	f.saves++
	err := f.saveErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	r := f.add(title, authorID, domain.VisibilityPublic, 0, tree)
	cp := *r
	return &cp, nil
}

func (f *fakeRoadmapRepo) GetRoadmap(_ context.Context, _ *gorm.DB, id string) (*domain.Roadmap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoadmapRepo) public() []domain.Roadmap {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Roadmap
	for _, r := range f.items {
		if r.Visibility == domain.VisibilityPublic {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SearchCount != out[j].SearchCount {
			return out[i].SearchCount > out[j].SearchCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeRoadmapRepo) CountPublicRoadmaps(context.Context, *gorm.DB) (int64, error) {
	return int64(len(f.public())), nil
}

func (f *fakeRoadmapRepo) ListPublicRoadmapsPage(_ context.Context, _ *gorm.DB, offset, limit int) ([]domain.Roadmap, error) {
	all := f.public()
	if offset >= len(all) {
		return []domain.Roadmap{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeRoadmapRepo) ListPublicTitles(_ context.Context, _ *gorm.DB, limit int) ([]domain.Roadmap, error) {
	all := f.public()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeRoadmapRepo) UpdateRoadmapVisibility(_ context.Context, _ *gorm.DB, id, authorID string, v domain.Visibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id && r.AuthorID == authorID {
			r.Visibility = v
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ---- credit ledger fake ----

type fakeLedger struct {
	mu         sync.Mutex
	credits    map[string]int
	ensureErr  error
	decErr     error
	decrements int
	increments int
}

func newFakeLedger() *fakeLedger { return &fakeLedger{credits: map[string]int{}} }

func (f *fakeLedger) EnsureUser(_ context.Context, _ *gorm.DB, id string, initial int) (*domain.User, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.credits[id]; !ok {
		f.credits[id] = initial
	}
	return &domain.User{ID: id, Credits: f.credits[id]}, nil
}

func (f *fakeLedger) DecrementCredits(_ context.Context, _ *gorm.DB, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrements++
	if f.decErr != nil {
		return false, f.decErr
	}
	if f.credits[id] <= 0 {
		return false, nil
	}
	f.credits[id]--
	return true, nil
}

func (f *fakeLedger) IncrementCredits(_ context.Context, _ *gorm.DB, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments++
	f.credits[id]++
	return nil
}

func (f *fakeLedger) touched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decrements > 0 || f.increments > 0 || len(f.credits) > 0
}

// ---- model fake ----

type fakeModel struct {
	mu    sync.Mutex
	calls int
	creds []llm.Credential
	text  string
	err   error
}

func (f *fakeModel) Invoke(_ context.Context, cred llm.Credential, _ []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.creds = append(f.creds, cred)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// ---- idempotency fake ----

type idemKey struct{ user, scope, key string }

type fakeIdem struct {
	mu   sync.Mutex
	recs map[idemKey]string
}

func newFakeIdem() *fakeIdem { return &fakeIdem{recs: map[idemKey]string{}} }

func (f *fakeIdem) Lookup(_ context.Context, _ *gorm.DB, userID, scope, key string, _ time.Time) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.recs[idemKey{userID, scope, key}]
	return id, ok
}

func (f *fakeIdem) Remember(_ context.Context, _ *gorm.DB, userID, scope, key, roadmapID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := idemKey{userID, scope, key}
	if _, ok := f.recs[k]; ok {
		return errors.New("duplicate")
	}
	f.recs[k] = roadmapID
	return nil
}

// ---- cache fake ----

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
	sets    int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]cache.Entry{}} }

func (f *fakeCache) Get(_ context.Context, normalized string) (cache.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[normalized]
	return e, ok
}

func (f *fakeCache) Set(_ context.Context, normalized string, e cache.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.entries[normalized] = e
}
