package definition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wordhoard/wordhoard/internal/source"
)

//go:generate mockgen -source=engine.go -destination=../mocks/definition/mock_engine.go -package=mock_definition

// Adapter is the contract every dictionary source fulfils. Fetch
// returns the definitions the source has for an already-normalized
// term, tagged with the source's name and tier; an empty slice (not an
// error) means the source has no entry. Errors are isolated per source:
// the engine logs them and treats the source as having contributed
// nothing. Adapters may perform network I/O but must not mutate shared
// state.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, term string) ([]Definition, error)
}

// Credentialed is implemented by adapters that need an API credential.
// Sources whose config requires a credential are skipped when the
// adapter reports none is configured.
type Credentialed interface {
	HasCredential() bool
}

// Registration pairs an adapter with its static source configuration.
type Registration struct {
	Adapter Adapter
	Config  source.Config
}

// Engine resolves a term across all registered sources: cache check,
// per-source rate limiting and headword-validated fetching, similarity
// grouping, cross-source reliability boosting, and cache write-back.
type Engine struct {
	registrations  []Registration
	limiter        *RateLimiter
	cache          Cache
	overrides      Overrides
	cacheMaxAge    time.Duration
	adapterTimeout time.Duration

	now func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithCacheMaxAge overrides the default 24h freshness window.
func WithCacheMaxAge(maxAge time.Duration) EngineOption {
	return func(e *Engine) { e.cacheMaxAge = maxAge }
}

// WithAdapterTimeout overrides the default 20s per-adapter deadline.
func WithAdapterTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) { e.adapterTimeout = timeout }
}

// WithOverrides replaces the built-in last-resort override table.
func WithOverrides(overrides Overrides) EngineOption {
	return func(e *Engine) { e.overrides = overrides }
}

// NewEngine creates an Engine consulting the given sources in slice
// order. The cache may be nil, in which case caching is disabled regardless
// of the useCache argument to Lookup.
func NewEngine(registrations []Registration, limiter *RateLimiter, cache Cache, opts ...EngineOption) *Engine {
	e := &Engine{
		registrations:  registrations,
		limiter:        limiter,
		cache:          cache,
		overrides:      DefaultOverrides(),
		cacheMaxAge:    24 * time.Hour,
		adapterTimeout: 20 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup resolves definitions for term across all configured sources.
// A term with no resolvable definitions yields a valid empty result,
// not an error; only unrecoverable conditions surface as errors.
func (e *Engine) Lookup(ctx context.Context, term string, useCache bool) (LookupResult, error) {
	normalized := NormalizeTerm(term)
	if normalized == "" {
		return e.emptyResult(normalized), nil
	}

	if useCache && e.cache != nil {
		cached, err := e.cache.Get(ctx, normalized, e.cacheMaxAge)
		if err != nil {
			slog.Default().Warn("Cache read failed, falling through to sources",
				"term", normalized,
				"error", err)
		}
		if cached != nil {
			slog.Default().Debug("Cache hit", "term", normalized)
			return *cached, nil
		}
	}

	slog.Default().Info("Looking up definitions", "term", normalized)

	var allDefinitions []Definition
	sourcesConsulted := []string{}

	for _, reg := range e.registrations {
		name := reg.Adapter.Name()
		if reg.Config.RequiresCredential && !hasCredential(reg.Adapter) {
			slog.Default().Info("Skipping source: no credential configured", "source", name)
			continue
		}

		definitions, err := e.fetchFromSource(ctx, reg, normalized)
		if err != nil {
			if ctx.Err() != nil {
				return LookupResult{}, fmt.Errorf("lookup cancelled > %w", ctx.Err())
			}
			slog.Default().Warn("Source lookup failed",
				"term", normalized,
				"source", name,
				"error", err)
			continue
		}
		if len(definitions) == 0 {
			continue
		}

		allDefinitions = append(allDefinitions, definitions...)
		sourcesConsulted = append(sourcesConsulted, name)
		slog.Default().Debug("Source contributed definitions",
			"term", normalized,
			"source", name,
			"count", len(definitions))
	}

	// Last resort only: the override table never shadows a live source.
	if len(allDefinitions) == 0 {
		if overrides := e.overrides.Lookup(normalized); len(overrides) > 0 {
			slog.Default().Info("Using override definitions", "term", normalized)
			allDefinitions = append(allDefinitions, overrides...)
			sourcesConsulted = append(sourcesConsulted, OverrideSource)
		}
	}

	definitionsByPOS := GroupByPOS(allDefinitions)
	ApplyCrossSourceBoost(definitionsByPOS)

	var scored []Definition
	for _, defs := range definitionsByPOS {
		scored = append(scored, defs...)
	}

	result := LookupResult{
		Term:               normalized,
		DefinitionsByPOS:   definitionsByPOS,
		OverallReliability: OverallReliability(scored),
		SourcesConsulted:   sourcesConsulted,
		LookupTimestamp:    e.now(),
	}

	if useCache && e.cache != nil {
		if err := e.cache.Put(ctx, normalized, result); err != nil {
			slog.Default().Warn("Cache write failed",
				"term", normalized,
				"error", err)
		}
	}

	slog.Default().Info("Lookup complete",
		"term", normalized,
		"definitions", result.DefinitionCount(),
		"sources", len(sourcesConsulted),
		"reliability", result.OverallReliability)

	return result, nil
}

// fetchFromSource runs the rate-limit wait and the adapter call under a
// per-adapter deadline so one slow source cannot stall the whole pass.
func (e *Engine) fetchFromSource(ctx context.Context, reg Registration, term string) ([]Definition, error) {
	ctx, cancel := context.WithTimeout(ctx, e.adapterTimeout)
	defer cancel()

	if err := e.limiter.Wait(ctx, reg.Adapter.Name(), reg.Config.MinInterval); err != nil {
		return nil, fmt.Errorf("limiter.Wait > %w", err)
	}
	definitions, err := reg.Adapter.Fetch(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("adapter.Fetch > %w", err)
	}
	return definitions, nil
}

func (e *Engine) emptyResult(term string) LookupResult {
	return LookupResult{
		Term:             term,
		DefinitionsByPOS: map[string][]Definition{},
		SourcesConsulted: []string{},
		LookupTimestamp:  e.now(),
	}
}

func hasCredential(adapter Adapter) bool {
	c, ok := adapter.(Credentialed)
	return ok && c.HasCredential()
}
