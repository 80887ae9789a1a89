// Package services – RoadmapService
//
// This file implements RoadmapService, which owns the generation pipeline:
//
//	credential → query check → dedup (cache, then store) → prompt → model
//	  → credit charge → extraction → tree → best-effort persistence
//
// Dedup hits return the stored tree and bump its search count without calling
// the model. Server-funded generations are charged one credit after the model
// answers; the credit is given back if the answer turns out to be unusable.
// Persistence failures are logged and never fail the request.
//
// Observability: public methods are OpenTelemetry-instrumented and outcomes
// are counted in Prometheus (see metrics.go).
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/cache"
	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/llm"
	"github.com/tbourn/go-roadmap-backend/internal/roadmap"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GenerateScope is the idempotency scope under which generation keys are stored.
const GenerateScope = "roadmaps.generate"

// RoadmapRepo defines the repository contract required by RoadmapService.
type RoadmapRepo interface {
	// FindRoadmapByNormalizedTitle returns the oldest exact match or repo.ErrNotFound.
	FindRoadmapByNormalizedTitle(ctx context.Context, db *gorm.DB, normalized string) (*domain.Roadmap, error)
	// IncrementRoadmapSearchCount bumps the popularity counter.
	IncrementRoadmapSearchCount(ctx context.Context, db *gorm.DB, id string) error
	// SaveRoadmap persists a generated tree.
	SaveRoadmap(ctx context.Context, db *gorm.DB, title string, tree []domain.Node, authorID string) (*domain.Roadmap, error)
	// GetRoadmap fetches a roadmap by ID regardless of visibility.
	GetRoadmap(ctx context.Context, db *gorm.DB, id string) (*domain.Roadmap, error)
	// CountPublicRoadmaps returns the number of PUBLIC roadmaps.
	CountPublicRoadmaps(ctx context.Context, db *gorm.DB) (int64, error)
	// ListPublicRoadmapsPage returns a popularity-ordered page of PUBLIC roadmaps.
	ListPublicRoadmapsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Roadmap, error)
	// ListPublicTitles returns up to limit PUBLIC roadmaps for title search.
	ListPublicTitles(ctx context.Context, db *gorm.DB, limit int) ([]domain.Roadmap, error)
	// UpdateRoadmapVisibility changes visibility of a roadmap owned by authorID.
	UpdateRoadmapVisibility(ctx context.Context, db *gorm.DB, id, authorID string, v domain.Visibility) error
}

// CreditLedger defines the per-user credit operations used to meter
// server-funded generations.
type CreditLedger interface {
	// EnsureUser returns the user's ledger row, creating it with initial credits.
	EnsureUser(ctx context.Context, db *gorm.DB, id string, initial int) (*domain.User, error)
	// DecrementCredits atomically takes one credit; ok=false means none left.
	DecrementCredits(ctx context.Context, db *gorm.DB, id string) (ok bool, err error)
	// IncrementCredits gives one credit back.
	IncrementCredits(ctx context.Context, db *gorm.DB, id string) error
}

// IdempotencyStore records and replays completed generations per
// (user, scope, key).
type IdempotencyStore interface {
	// Lookup returns the roadmap ID stored for the key, or ok=false.
	Lookup(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (roadmapID string, ok bool)
	// Remember stores roadmapID for the key; duplicates are ignored.
	Remember(ctx context.Context, db *gorm.DB, userID, scope, key, roadmapID string, ttl time.Duration) error
}

// Invoker runs one model completion (see llm.Invoker).
type Invoker interface {
	Invoke(ctx context.Context, cred llm.Credential, messages []llm.Message) (string, error)
}

// DedupCache is the optional fast path in front of the store (see cache.RoadmapCache).
type DedupCache interface {
	Get(ctx context.Context, normalized string) (cache.Entry, bool)
	Set(ctx context.Context, normalized string, e cache.Entry)
}

// GenerateInput carries one generation request.
type GenerateInput struct {
	UserID string
	// Query is the topic exactly as the user typed it.
	Query string
	// CallerKey is an optional caller-supplied model API key.
	CallerKey string
	// IdempotencyKey, when set, makes retries return the first result.
	IdempotencyKey string
}

// GenerateResult is a produced or reused roadmap tree.
type GenerateResult struct {
	Tree []domain.Node
	// RoadmapID is empty when a fresh roadmap could not be persisted.
	RoadmapID string
	// Deduplicated is true when an existing roadmap was returned.
	Deduplicated bool
	// Replayed is true when the result came from an idempotency record.
	Replayed bool
	// Charged is true when a credit was consumed.
	Charged bool
}

// RoadmapService coordinates roadmap generation and browsing.
type RoadmapService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the roadmap repository.
	Repo RoadmapRepo
	// Ledger meters server-funded generations.
	Ledger CreditLedger
	// Idem stores completed generations for Idempotency-Key replays; optional.
	Idem IdempotencyStore
	// Model invokes the language model.
	Model Invoker
	// Cache fronts dedup lookups; optional.
	Cache DedupCache

	// SystemKey is the server's model API key (may be empty).
	SystemKey string
	// DefaultCredits seeds a user's balance on first charge.
	DefaultCredits int
	// SearchLimit caps how many public titles explore search considers.
	SearchLimit int
	// IdempotencyTTL is how long a generation can be replayed.
	IdempotencyTTL time.Duration
}

// NewRoadmapService constructs a RoadmapService with sane defaults.
func NewRoadmapService(db *gorm.DB, r RoadmapRepo, ledger CreditLedger, model Invoker) *RoadmapService {
	return &RoadmapService{
		DB:             db,
		Repo:           r,
		Ledger:         ledger,
		Model:          model,
		Cache:          cache.Disabled(),
		DefaultCredits: 5,
		SearchLimit:    500,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Generate runs the pipeline for one query. Checks happen in this order:
// credential, query, dedup, model. Errors are service sentinels or the llm
// and roadmap package sentinels, all matchable with errors.Is.
func (s *RoadmapService) Generate(ctx context.Context, in GenerateInput) (res *GenerateResult, err error) {
	tr := otel.Tracer("services/RoadmapService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("user.id", in.UserID),
			attribute.Bool("roadmap.caller_key", strings.TrimSpace(in.CallerKey) != ""),
		),
	)
	defer func() {
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			generations.WithLabelValues(outcomeOf(err)).Inc()
		case res.Replayed:
			generations.WithLabelValues(outcomeReplay).Inc()
		case res.Deduplicated:
			generations.WithLabelValues(outcomeDedupHit).Inc()
		default:
			generations.WithLabelValues(outcomeGenerated).Inc()
		}
		span.End()
	}()
	lg := zerolog.Ctx(ctx)

	cred, err := llm.ResolveCredential(in.CallerKey, s.SystemKey)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, ErrEmptyQuery
	}

	if prev, ok := s.replay(ctx, in); ok {
		return prev, nil
	}

	normalized := roadmap.Normalize(in.Query)
	span.SetAttributes(attribute.String("roadmap.normalized", normalized))

	if hit, ok := s.dedup(ctx, normalized); ok {
		s.remember(ctx, in, hit.RoadmapID)
		return hit, nil
	}

	started := time.Now()
	raw, err := s.Model.Invoke(ctx, cred, roadmap.BuildPrompt(in.Query))
	modelLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	charged := false
	if !cred.CallerSupplied {
		if err := s.charge(ctx, in.UserID); err != nil {
			return nil, err
		}
		charged = true
	}

	tree, err := s.extract(raw, in.Query, lg)
	if err != nil {
		if charged {
			s.refund(ctx, in.UserID)
		}
		return nil, err
	}

	res = &GenerateResult{Tree: tree, Charged: charged}
	saved, err := s.Repo.SaveRoadmap(ctx, s.DB, in.Query, tree, in.UserID)
	if err != nil {
		lg.Error().Err(err).Str("query", in.Query).Msg("roadmap not persisted")
		return res, nil
	}
	res.RoadmapID = saved.ID
	s.cacheSet(ctx, normalized, saved)
	s.remember(ctx, in, saved.ID)
	return res, nil
}

// extract turns raw model text into a tree.
func (s *RoadmapService) extract(raw, query string, lg *zerolog.Logger) ([]domain.Node, error) {
	env, err := roadmap.ParseEnvelope(raw, query)
	if err != nil {
		return nil, err
	}
	if env.QueryDrifted() {
		lg.Debug().Str("query", env.Query).Str("model_query", env.ModelQuery).Msg("model echoed a different query")
	}
	return roadmap.BuildTree(env)
}

// dedup looks for an existing roadmap, first in the cache and then in the
// store. Lookup failures and undecodable content count as misses.
func (s *RoadmapService) dedup(ctx context.Context, normalized string) (*GenerateResult, bool) {
	lg := zerolog.Ctx(ctx)

	if s.Cache != nil {
		if e, ok := s.Cache.Get(ctx, normalized); ok {
			if tree, err := decodeTree(e.Content); err == nil {
				s.bumpSearchCount(ctx, e.ID)
				return &GenerateResult{Tree: tree, RoadmapID: e.ID, Deduplicated: true}, true
			}
		}
	}

	found, err := s.Repo.FindRoadmapByNormalizedTitle(ctx, s.DB, normalized)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			lg.Warn().Err(err).Msg("dedup lookup failed; generating")
		}
		return nil, false
	}

	s.bumpSearchCount(ctx, found.ID)
	tree, err := decodeTree(found.Content)
	if err != nil {
		lg.Warn().Err(err).Str("roadmap_id", found.ID).Msg("stored roadmap unreadable; generating")
		return nil, false
	}
	s.cacheSet(ctx, normalized, found)
	return &GenerateResult{Tree: tree, RoadmapID: found.ID, Deduplicated: true}, true
}

func (s *RoadmapService) bumpSearchCount(ctx context.Context, id string) {
	if err := s.Repo.IncrementRoadmapSearchCount(ctx, s.DB, id); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("roadmap_id", id).Msg("search count not incremented")
	}
}

func (s *RoadmapService) cacheSet(ctx context.Context, normalized string, r *domain.Roadmap) {
	if s.Cache == nil || r == nil {
		return
	}
	s.Cache.Set(ctx, normalized, cache.Entry{ID: r.ID, Content: r.Content})
}

// charge takes one credit from userID, creating the ledger row on first use.
func (s *RoadmapService) charge(ctx context.Context, userID string) error {
	lg := zerolog.Ctx(ctx)
	if _, err := s.Ledger.EnsureUser(ctx, s.DB, userID, s.DefaultCredits); err != nil {
		lg.Error().Err(err).Msg("credit ledger unavailable")
		return ErrCreditLedger
	}
	ok, err := s.Ledger.DecrementCredits(ctx, s.DB, userID)
	if err != nil {
		lg.Error().Err(err).Msg("credit decrement failed")
		s.refund(ctx, userID)
		return ErrCreditLedger
	}
	if !ok {
		return ErrNoCredits
	}
	return nil
}

func (s *RoadmapService) refund(ctx context.Context, userID string) {
	if err := s.Ledger.IncrementCredits(ctx, s.DB, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("credit refund failed")
		creditRefunds.WithLabelValues("failed").Inc()
		return
	}
	creditRefunds.WithLabelValues("ok").Inc()
}

// replay returns the roadmap previously produced for the request's
// idempotency key, if any.
func (s *RoadmapService) replay(ctx context.Context, in GenerateInput) (*GenerateResult, bool) {
	if s.Idem == nil || in.IdempotencyKey == "" {
		return nil, false
	}
	id, ok := s.Idem.Lookup(ctx, s.DB, in.UserID, GenerateScope, in.IdempotencyKey, time.Now().UTC())
	if !ok {
		return nil, false
	}
	r, err := s.Repo.GetRoadmap(ctx, s.DB, id)
	if err != nil {
		return nil, false
	}
	tree, err := decodeTree(r.Content)
	if err != nil {
		return nil, false
	}
	return &GenerateResult{Tree: tree, RoadmapID: r.ID, Replayed: true}, true
}

func (s *RoadmapService) remember(ctx context.Context, in GenerateInput, roadmapID string) {
	if s.Idem == nil || in.IdempotencyKey == "" || roadmapID == "" {
		return
	}
	if err := s.Idem.Remember(ctx, s.DB, in.UserID, GenerateScope, in.IdempotencyKey, roadmapID, s.IdempotencyTTL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency record not stored")
	}
}

func decodeTree(content string) ([]domain.Node, error) {
	var tree []domain.Node
	if err := json.Unmarshal([]byte(content), &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
