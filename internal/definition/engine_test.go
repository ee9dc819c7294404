package definition_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wordhoard/wordhoard/internal/definition"
	mock_definition "github.com/wordhoard/wordhoard/internal/mocks/definition"
	"github.com/wordhoard/wordhoard/internal/source"
)

func newTestEngine(t *testing.T, registrations []definition.Registration, opts ...definition.EngineOption) *definition.Engine {
	t.Helper()
	cache, err := definition.OpenResultCache(filepath.Join(t.TempDir(), "definition_cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, cache.Close())
	})
	return definition.NewEngine(registrations, definition.NewRateLimiter(), cache, opts...)
}

func newMockAdapter(ctrl *gomock.Controller, name string) *mock_definition.MockAdapter {
	adapter := mock_definition.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return(name).AnyTimes()
	return adapter
}

func TestEngine_Lookup(t *testing.T) {
	t.Run("aggregates definitions across sources", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		cambridge := newMockAdapter(ctrl, "cambridge")
		cambridge.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", SourceTier: 1, ReliabilityScore: 0.9},
		}, nil)
		wiktionary := newMockAdapter(ctrl, "wiktionary")
		wiktionary.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "to vomit, of a person", PartOfSpeech: "verb", Source: "wiktionary", SourceTier: 3, ReliabilityScore: 0.7},
		}, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: cambridge, Config: source.Config{Tier: 1}},
			{Adapter: wiktionary, Config: source.Config{Tier: 3}},
		})

		got, err := engine.Lookup(context.Background(), "Cat", false)
		require.NoError(t, err)

		assert.Equal(t, "cat", got.Term)
		assert.Equal(t, []string{"cambridge", "wiktionary"}, got.SourcesConsulted)
		assert.Len(t, got.DefinitionsByPOS["noun"], 1)
		assert.Len(t, got.DefinitionsByPOS["verb"], 1)
		assert.False(t, got.CacheHit)
		assert.Greater(t, got.OverallReliability, 0.0)
	})

	t.Run("second lookup is served from the cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := newMockAdapter(ctrl, "cambridge")
		adapter.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", SourceTier: 1, ReliabilityScore: 0.9},
		}, nil).Times(1)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		first, err := engine.Lookup(context.Background(), "cat", true)
		require.NoError(t, err)
		assert.False(t, first.CacheHit)

		second, err := engine.Lookup(context.Background(), "cat", true)
		require.NoError(t, err)
		assert.True(t, second.CacheHit)
		assert.Equal(t, first.Term, second.Term)
		assert.InDelta(t, first.OverallReliability, second.OverallReliability, 1e-9)
	})

	t.Run("no-cache bypasses a cached result", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := newMockAdapter(ctrl, "cambridge")
		adapter.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", SourceTier: 1, ReliabilityScore: 0.9},
		}, nil).Times(2)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		_, err := engine.Lookup(context.Background(), "cat", true)
		require.NoError(t, err)

		got, err := engine.Lookup(context.Background(), "cat", false)
		require.NoError(t, err)
		assert.False(t, got.CacheHit)
	})

	t.Run("blank term short-circuits without touching any adapter", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := mock_definition.NewMockAdapter(ctrl)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		got, err := engine.Lookup(context.Background(), "   ", true)
		require.NoError(t, err)

		assert.Empty(t, got.DefinitionsByPOS)
		assert.Empty(t, got.SourcesConsulted)
		assert.Zero(t, got.OverallReliability)
		assert.False(t, got.CacheHit)
	})

	t.Run("one failing source does not abort the lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		failing := newMockAdapter(ctrl, "cambridge")
		failing.EXPECT().Fetch(gomock.Any(), "cat").Return(nil, errors.New("connection refused"))
		working := newMockAdapter(ctrl, "wiktionary")
		working.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "wiktionary", SourceTier: 3, ReliabilityScore: 0.7},
		}, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: failing, Config: source.Config{Tier: 1}},
			{Adapter: working, Config: source.Config{Tier: 3}},
		})

		got, err := engine.Lookup(context.Background(), "cat", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"wiktionary"}, got.SourcesConsulted)
		assert.Equal(t, 1, got.DefinitionCount())
	})

	t.Run("credentialed source without a key is skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		// MockAdapter does not implement Credentialed, so the source is
		// treated as having no key; Fetch must never be called on it.
		credentialed := newMockAdapter(ctrl, "wordnik")
		open := newMockAdapter(ctrl, "wiktionary")
		open.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "wiktionary", SourceTier: 3, ReliabilityScore: 0.7},
		}, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: credentialed, Config: source.Config{Tier: 2, RequiresCredential: true}},
			{Adapter: open, Config: source.Config{Tier: 3}},
		})

		got, err := engine.Lookup(context.Background(), "cat", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"wiktionary"}, got.SourcesConsulted)
	})

	t.Run("override table serves terms no source defines", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := newMockAdapter(ctrl, "cambridge")
		adapter.EXPECT().Fetch(gomock.Any(), "jimping").Return(nil, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		got, err := engine.Lookup(context.Background(), "jimping", false)
		require.NoError(t, err)

		assert.Equal(t, []string{definition.OverrideSource}, got.SourcesConsulted)
		require.Len(t, got.DefinitionsByPOS["noun"], 1)
		assert.Equal(t, definition.OverrideSource, got.DefinitionsByPOS["noun"][0].Source)
	})

	t.Run("override table never shadows a live source", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := newMockAdapter(ctrl, "cambridge")
		adapter.EXPECT().Fetch(gomock.Any(), "jimping").Return([]definition.Definition{
			{Text: "notches filed into the spine of a blade", PartOfSpeech: "noun", Source: "cambridge", SourceTier: 1, ReliabilityScore: 0.9},
		}, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		got, err := engine.Lookup(context.Background(), "jimping", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"cambridge"}, got.SourcesConsulted)
	})

	t.Run("term with no definitions anywhere yields a valid empty result", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := newMockAdapter(ctrl, "cambridge")
		adapter.EXPECT().Fetch(gomock.Any(), "zzzz").Return(nil, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		got, err := engine.Lookup(context.Background(), "zzzz", false)
		require.NoError(t, err)
		assert.Equal(t, 0, got.DefinitionCount())
		assert.Zero(t, got.OverallReliability)
		assert.Empty(t, got.SourcesConsulted)
	})

	t.Run("cancelled context surfaces as an error", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		adapter := newMockAdapter(ctrl, "cambridge")
		adapter.EXPECT().Fetch(gomock.Any(), "cat").
			DoAndReturn(func(ctx context.Context, term string) ([]definition.Definition, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: adapter, Config: source.Config{Tier: 1}},
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := engine.Lookup(ctx, "cat", false)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("corroborated definitions are boosted across sources", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		first := newMockAdapter(ctrl, "cambridge")
		first.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", SourceTier: 1, ReliabilityScore: 0.9},
		}, nil)
		second := newMockAdapter(ctrl, "wiktionary")
		second.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
			{Text: "a small domesticated feline animal kept as a pet", PartOfSpeech: "noun", Source: "wiktionary", SourceTier: 3, ReliabilityScore: 0.7},
		}, nil)

		engine := newTestEngine(t, []definition.Registration{
			{Adapter: first, Config: source.Config{Tier: 1}},
			{Adapter: second, Config: source.Config{Tier: 3}},
		})

		got, err := engine.Lookup(context.Background(), "cat", false)
		require.NoError(t, err)

		require.Len(t, got.DefinitionsByPOS["noun"], 2)
		// Two distinct sources corroborate: +0.10 each, capped at 1.0.
		assert.InDelta(t, 1.0, got.DefinitionsByPOS["noun"][0].ReliabilityScore, 1e-9)
		assert.InDelta(t, 0.8, got.DefinitionsByPOS["noun"][1].ReliabilityScore, 1e-9)
	})
}

func TestEngine_Lookup_nilCacheDisablesCaching(t *testing.T) {
	ctrl := gomock.NewController(t)

	adapter := newMockAdapter(ctrl, "cambridge")
	adapter.EXPECT().Fetch(gomock.Any(), "cat").Return([]definition.Definition{
		{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", SourceTier: 1, ReliabilityScore: 0.9},
	}, nil).Times(2)

	engine := definition.NewEngine([]definition.Registration{
		{Adapter: adapter, Config: source.Config{Tier: 1}},
	}, definition.NewRateLimiter(), nil)

	for i := 0; i < 2; i++ {
		got, err := engine.Lookup(context.Background(), "cat", true)
		require.NoError(t, err)
		assert.False(t, got.CacheHit)
	}
}
