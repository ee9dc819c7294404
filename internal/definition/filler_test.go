package definition

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookupService struct {
	results map[string]LookupResult
	errs    map[string]error
	calls   []string
}

func (f *fakeLookupService) Lookup(ctx context.Context, term string, useCache bool) (LookupResult, error) {
	f.calls = append(f.calls, term)
	if err, ok := f.errs[term]; ok {
		return LookupResult{}, err
	}
	return f.results[term], nil
}

type fakeDefinedRepository struct {
	missing    []MissingDefinitionRow
	posLabels  []string
	filledRows []FilledRow

	updates []UpdateAction
	inserts []InsertAction

	updateErr error
}

func (f *fakeDefinedRepository) FindMissingDefinitions(ctx context.Context, limit int) ([]MissingDefinitionRow, error) {
	if limit > 0 && limit < len(f.missing) {
		return f.missing[:limit], nil
	}
	return f.missing, nil
}

func (f *fakeDefinedRepository) DistinctPartsOfSpeech(ctx context.Context) ([]string, error) {
	return f.posLabels, nil
}

func (f *fakeDefinedRepository) FilledRows(ctx context.Context) ([]FilledRow, error) {
	return f.filledRows, nil
}

func (f *fakeDefinedRepository) UpdateDefinition(ctx context.Context, action UpdateAction) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, action)
	return nil
}

func (f *fakeDefinedRepository) InsertDefinition(ctx context.Context, action InsertAction) error {
	f.inserts = append(f.inserts, action)
	return nil
}

func lookupResultWith(term string, defs ...Definition) LookupResult {
	return LookupResult{
		Term:             term,
		DefinitionsByPOS: GroupByPOS(defs),
	}
}

func TestFiller_Run(t *testing.T) {
	t.Run("updates rows with a declared part of speech", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "Cat", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
			},
			posLabels: []string{"noun", "verb"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"cat": lookupResultWith("cat",
					Definition{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, FillSummary{LookedUp: 1, Updated: 1}, summary)
		require.Len(t, repo.updates, 1)
		assert.Equal(t, int64(1), repo.updates[0].RowID)
		assert.Equal(t, "noun", repo.updates[0].PartOfSpeech)
		assert.Equal(t, "a small domesticated feline animal", repo.updates[0].DefinitionText)
		assert.Equal(t, "cambridge", repo.updates[0].DefinitionSource)
	})

	t.Run("assigns the most reliable leftovers to rows without a part of speech", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "run"},
			},
			posLabels: []string{"noun", "verb"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"run": lookupResultWith("run",
					Definition{Text: "an act of running", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.7},
					Definition{Text: "to move quickly on foot", PartOfSpeech: "verb", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)

		// The POS-less row takes the most reliable sense; the other
		// sense becomes a new row.
		assert.Equal(t, FillSummary{LookedUp: 1, Updated: 1, Inserted: 1}, summary)
		require.Len(t, repo.updates, 1)
		assert.Equal(t, "verb", repo.updates[0].PartOfSpeech)
		require.Len(t, repo.inserts, 1)
		assert.Equal(t, "noun", repo.inserts[0].PartOfSpeech)
	})

	t.Run("verbose source labels are mapped onto canonical ones", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "fast", PartOfSpeech: sql.NullString{String: "adjective", Valid: true}},
			},
			posLabels: []string{"adjective"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"fast": lookupResultWith("fast",
					Definition{Text: "moving or able to move quickly", PartOfSpeech: "adjective, adverb", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, FillSummary{LookedUp: 1, Updated: 1}, summary)
		require.Len(t, repo.updates, 1)
		assert.Equal(t, "adjective", repo.updates[0].PartOfSpeech)
	})

	t.Run("rows of the same term share one lookup", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "run", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
				{ID: 2, Term: "Run", PartOfSpeech: sql.NullString{String: "verb", Valid: true}},
			},
			posLabels: []string{"noun", "verb"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"run": lookupResultWith("run",
					Definition{Text: "an act of running", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.7},
					Definition{Text: "to move quickly on foot", PartOfSpeech: "verb", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"run"}, lookups.calls)
		assert.Equal(t, FillSummary{LookedUp: 1, Updated: 2}, summary)
	})

	t.Run("failed lookups skip their rows after retries", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "cat", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
				{ID: 2, Term: "dog", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
			},
			posLabels: []string{"noun"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"dog": lookupResultWith("dog",
					Definition{Text: "a domesticated canine animal", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
			errs: map[string]error{
				"cat": errors.New("all sources unavailable"),
			},
		}

		summary, err := NewFiller(lookups, repo, WithRetryAttempts(2)).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, FillSummary{LookedUp: 2, Updated: 1, Skipped: 1}, summary)
		// Two attempts for cat, one for dog.
		assert.Equal(t, []string{"cat", "cat", "dog"}, lookups.calls)
	})

	t.Run("rows whose part of speech found no definition are skipped", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "cat", PartOfSpeech: sql.NullString{String: "verb", Valid: true}},
			},
			posLabels: []string{"noun", "verb"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"cat": lookupResultWith("cat",
					Definition{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, FillSummary{LookedUp: 1, Inserted: 1, Skipped: 1}, summary)
		assert.Empty(t, repo.updates)
		// The noun sense is new for this term, so it is inserted.
		require.Len(t, repo.inserts, 1)
		assert.Equal(t, "noun", repo.inserts[0].PartOfSpeech)
	})

	t.Run("already filled term and part of speech pairs are not re-inserted", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "run", PartOfSpeech: sql.NullString{String: "verb", Valid: true}},
			},
			posLabels: []string{"noun", "verb"},
			filledRows: []FilledRow{
				{TermLower: "run", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
			},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"run": lookupResultWith("run",
					Definition{Text: "an act of running", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.7},
					Definition{Text: "to move quickly on foot", PartOfSpeech: "verb", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, FillSummary{LookedUp: 1, Updated: 1}, summary)
		assert.Empty(t, repo.inserts)
	})

	t.Run("dry run touches nothing", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "cat", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
			},
			posLabels: []string{"noun"},
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"cat": lookupResultWith("cat",
					Definition{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		summary, err := NewFiller(lookups, repo, WithDryRun(true)).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, FillSummary{LookedUp: 1}, summary)
		assert.Empty(t, repo.updates)
		assert.Empty(t, repo.inserts)
	})

	t.Run("database failures abort the run", func(t *testing.T) {
		repo := &fakeDefinedRepository{
			missing: []MissingDefinitionRow{
				{ID: 1, Term: "cat", PartOfSpeech: sql.NullString{String: "noun", Valid: true}},
			},
			posLabels: []string{"noun"},
			updateErr: errors.New("connection lost"),
		}
		lookups := &fakeLookupService{
			results: map[string]LookupResult{
				"cat": lookupResultWith("cat",
					Definition{Text: "a small domesticated feline animal", PartOfSpeech: "noun", Source: "cambridge", ReliabilityScore: 0.9},
				),
			},
		}

		_, err := NewFiller(lookups, repo).Run(context.Background())
		assert.ErrorContains(t, err, "connection lost")
	})

	t.Run("nothing to fill", func(t *testing.T) {
		repo := &fakeDefinedRepository{posLabels: []string{"noun"}}
		lookups := &fakeLookupService{}

		summary, err := NewFiller(lookups, repo).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, FillSummary{}, summary)
		assert.Empty(t, lookups.calls)
	})
}

func TestNormalizePOS(t *testing.T) {
	assert.Equal(t, "noun", NormalizePOS("  Noun "))
	assert.Equal(t, "phrasal verb", NormalizePOS("Phrasal  Verb"))
	assert.Equal(t, "", NormalizePOS("   "))
}

func TestMapToExistingPOS(t *testing.T) {
	existing := map[string]string{
		"noun":      "noun",
		"verb":      "Verb",
		"adjective": "adjective",
	}

	tests := []struct {
		name string
		pos  string
		want string
	}{
		{name: "exact match", pos: "noun", want: "noun"},
		{name: "case-insensitive match keeps the canonical label", pos: "VERB", want: "Verb"},
		{name: "comma-separated label matches its first known fragment", pos: "adjective, adverb", want: "adjective"},
		{name: "or-separated label", pos: "noun or verb", want: "noun"},
		{name: "slash-separated label", pos: "intransitive/verb", want: "Verb"},
		{name: "unknown label", pos: "interjection", want: ""},
		{name: "blank label", pos: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapToExistingPOS(tt.pos, existing))
		})
	}
}

func TestBestDefinitionsByPOS(t *testing.T) {
	existing := map[string]string{"noun": "noun", "verb": "verb"}

	result := lookupResultWith("run",
		Definition{Text: "weaker noun sense", PartOfSpeech: "noun", ReliabilityScore: 0.6},
		Definition{Text: "stronger noun sense", PartOfSpeech: "noun", ReliabilityScore: 0.9},
		Definition{Text: "verb sense", PartOfSpeech: "verb", ReliabilityScore: 0.8},
		Definition{Text: "unmapped sense", PartOfSpeech: "interjection", ReliabilityScore: 0.9},
	)

	got := BestDefinitionsByPOS(result, existing)

	require.Len(t, got, 2)
	assert.Equal(t, "stronger noun sense", got["noun"].Text)
	assert.Equal(t, "verb sense", got["verb"].Text)
}
