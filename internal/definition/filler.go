package definition

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/avast/retry-go"
)

var posFragmentPattern = regexp.MustCompile(`[;,/]|\bor\b`)

// LookupService is the fill pipeline's view of the resolution engine.
type LookupService interface {
	Lookup(ctx context.Context, term string, useCache bool) (LookupResult, error)
}

// FillSummary reports what a fill run did.
type FillSummary struct {
	LookedUp int
	Updated  int
	Inserted int
	Skipped  int
}

// Filler repairs rows in the defined table that lack a definition, by
// resolving each distinct term through the engine and mapping resolved
// parts of speech onto the canonical labels the table already uses.
type Filler struct {
	lookups       LookupService
	repo          DefinedRepository
	retryAttempts uint
	dryRun        bool
}

// FillerOption customizes a Filler.
type FillerOption func(*Filler)

// WithDryRun logs the actions a run would take without touching the
// database.
func WithDryRun(dryRun bool) FillerOption {
	return func(f *Filler) { f.dryRun = dryRun }
}

// WithRetryAttempts overrides how many times a failed term lookup is
// retried before its rows are skipped.
func WithRetryAttempts(attempts uint) FillerOption {
	return func(f *Filler) { f.retryAttempts = attempts }
}

// NewFiller creates a Filler.
func NewFiller(lookups LookupService, repo DefinedRepository, opts ...FillerOption) *Filler {
	f := &Filler{
		lookups:       lookups,
		repo:          repo,
		retryAttempts: 3,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run fills every row missing a definition. Lookup failures skip the
// affected rows; database failures abort the run.
func (f *Filler) Run(ctx context.Context) (FillSummary, error) {
	return f.RunLimited(ctx, 0)
}

// RunLimited is Run with a cap on the number of rows processed; a
// non-positive limit processes all of them.
func (f *Filler) RunLimited(ctx context.Context, limit int) (FillSummary, error) {
	var summary FillSummary

	existingPOS, err := f.existingPOSMap(ctx)
	if err != nil {
		return summary, err
	}

	missing, err := f.repo.FindMissingDefinitions(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("repo.FindMissingDefinitions > %w", err)
	}
	if len(missing) == 0 {
		slog.Default().Info("No definitions to fill")
		return summary, nil
	}

	filledKeys, err := f.filledKeys(ctx, existingPOS)
	if err != nil {
		return summary, err
	}

	rowsByTerm := make(map[string][]MissingDefinitionRow)
	var termOrder []string
	for _, row := range missing {
		key := strings.ToLower(row.Term)
		if _, ok := rowsByTerm[key]; !ok {
			termOrder = append(termOrder, key)
		}
		rowsByTerm[key] = append(rowsByTerm[key], row)
	}
	sort.Strings(termOrder)
	summary.LookedUp = len(termOrder)

	var updates []UpdateAction
	var inserts []InsertAction

	for _, termLower := range termOrder {
		rows := rowsByTerm[termLower]

		result, err := f.lookupWithRetry(ctx, termLower)
		if err != nil {
			summary.Skipped += len(rows)
			slog.Default().Warn("Skipping rows: lookup unavailable",
				"term", rows[0].Term,
				"rows", len(rows),
				"error", err)
			continue
		}

		bestByPOS := BestDefinitionsByPOS(result, existingPOS)
		termUpdates, termInserts, skipped := prepareActions(rows, bestByPOS, existingPOS, filledKeys)
		updates = append(updates, termUpdates...)
		inserts = append(inserts, termInserts...)
		summary.Skipped += skipped
	}

	if f.dryRun {
		for _, action := range updates {
			slog.Default().Info("Dry run: would update row",
				"id", action.RowID,
				"term", action.Term,
				"pos", action.PartOfSpeech,
				"source", action.DefinitionSource)
		}
		for _, action := range inserts {
			slog.Default().Info("Dry run: would insert row",
				"term", action.Term,
				"pos", action.PartOfSpeech,
				"source", action.DefinitionSource)
		}
		return summary, nil
	}

	for _, action := range updates {
		if err := f.repo.UpdateDefinition(ctx, action); err != nil {
			return summary, fmt.Errorf("repo.UpdateDefinition > %w", err)
		}
		summary.Updated++
	}
	for _, action := range inserts {
		if err := f.repo.InsertDefinition(ctx, action); err != nil {
			return summary, fmt.Errorf("repo.InsertDefinition > %w", err)
		}
		summary.Inserted++
	}

	slog.Default().Info("Filled definitions",
		"updated", summary.Updated,
		"inserted", summary.Inserted,
		"skipped", summary.Skipped)
	return summary, nil
}

// lookupWithRetry retries transient lookup failures; cancellation is
// not retried.
func (f *Filler) lookupWithRetry(ctx context.Context, term string) (LookupResult, error) {
	var result LookupResult
	err := retry.Do(
		func() error {
			var err error
			result, err = f.lookups.Lookup(ctx, term, true)
			if err != nil {
				if ctx.Err() != nil {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.retryAttempts),
	)
	if err != nil {
		return LookupResult{}, fmt.Errorf("lookups.Lookup > %w", err)
	}
	return result, nil
}

func (f *Filler) existingPOSMap(ctx context.Context) (map[string]string, error) {
	labels, err := f.repo.DistinctPartsOfSpeech(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.DistinctPartsOfSpeech > %w", err)
	}

	posMap := make(map[string]string, len(labels))
	for _, label := range labels {
		canonical := strings.TrimSpace(label)
		norm := NormalizePOS(canonical)
		if canonical == "" || norm == "" {
			continue
		}
		if _, ok := posMap[norm]; !ok {
			posMap[norm] = canonical
		}
	}
	return posMap, nil
}

type filledKey struct {
	termLower string
	pos       string
}

func (f *Filler) filledKeys(ctx context.Context, existingPOS map[string]string) (map[filledKey]struct{}, error) {
	rows, err := f.repo.FilledRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.FilledRows > %w", err)
	}

	keys := make(map[filledKey]struct{}, len(rows))
	for _, row := range rows {
		canonical := MapToExistingPOS(row.PartOfSpeech.String, existingPOS)
		if row.TermLower == "" || canonical == "" {
			continue
		}
		keys[filledKey{termLower: row.TermLower, pos: NormalizePOS(canonical)}] = struct{}{}
	}
	return keys, nil
}

// prepareActions builds the update and insert actions for one term.
// Rows that declared a part of speech are updated with the best
// definition mapped to that label; rows without one receive the most
// reliable leftover definitions; leftovers not already filled become
// inserts for additional parts of speech.
func prepareActions(
	rows []MissingDefinitionRow,
	bestByPOS map[string]Definition,
	existingPOS map[string]string,
	filledKeys map[filledKey]struct{},
) (updates []UpdateAction, inserts []InsertAction, skipped int) {
	if len(bestByPOS) == 0 {
		return nil, nil, len(rows)
	}

	available := make(map[string]Definition, len(bestByPOS))
	for pos, d := range bestByPOS {
		available[pos] = d
	}
	assigned := make(map[int64]bool, len(rows))

	for _, row := range rows {
		if !row.PartOfSpeech.Valid || strings.TrimSpace(row.PartOfSpeech.String) == "" {
			continue
		}

		canonical := MapToExistingPOS(row.PartOfSpeech.String, existingPOS)
		if canonical == "" {
			slog.Default().Warn("Skipping row: part of speech not recognised",
				"id", row.ID,
				"term", row.Term,
				"pos", row.PartOfSpeech.String)
			skipped++
			continue
		}

		best, ok := available[canonical]
		if !ok {
			slog.Default().Info("No definition found for part of speech",
				"id", row.ID,
				"term", row.Term,
				"pos", canonical)
			skipped++
			continue
		}

		updates = append(updates, UpdateAction{
			RowID:            row.ID,
			Term:             row.Term,
			PartOfSpeech:     canonical,
			DefinitionText:   best.Text,
			DefinitionSource: best.Source,
		})
		assigned[row.ID] = true
		filledKeys[filledKey{termLower: strings.ToLower(row.Term), pos: NormalizePOS(canonical)}] = struct{}{}
		delete(available, canonical)
	}

	// Most reliable leftovers go to the rows that never declared a POS.
	leftovers := make([]string, 0, len(available))
	for pos := range available {
		leftovers = append(leftovers, pos)
	}
	sort.Slice(leftovers, func(i, j int) bool {
		if available[leftovers[i]].ReliabilityScore != available[leftovers[j]].ReliabilityScore {
			return available[leftovers[i]].ReliabilityScore > available[leftovers[j]].ReliabilityScore
		}
		return leftovers[i] < leftovers[j]
	})

	used := 0
	for _, row := range rows {
		if row.PartOfSpeech.Valid && strings.TrimSpace(row.PartOfSpeech.String) != "" {
			continue
		}
		if used >= len(leftovers) {
			break
		}
		pos := leftovers[used]
		best := available[pos]
		updates = append(updates, UpdateAction{
			RowID:            row.ID,
			Term:             row.Term,
			PartOfSpeech:     pos,
			DefinitionText:   best.Text,
			DefinitionSource: best.Source,
		})
		assigned[row.ID] = true
		filledKeys[filledKey{termLower: strings.ToLower(row.Term), pos: NormalizePOS(pos)}] = struct{}{}
		used++
	}

	// Remaining senses become new rows, unless that pair is filled.
	termLower := strings.ToLower(rows[0].Term)
	for _, pos := range leftovers[used:] {
		key := filledKey{termLower: termLower, pos: NormalizePOS(pos)}
		if _, ok := filledKeys[key]; ok {
			continue
		}
		best := available[pos]
		inserts = append(inserts, InsertAction{
			Term:             rows[0].Term,
			PartOfSpeech:     pos,
			DefinitionText:   best.Text,
			DefinitionSource: best.Source,
		})
		filledKeys[key] = struct{}{}
	}

	for _, row := range rows {
		if !assigned[row.ID] && (!row.PartOfSpeech.Valid || strings.TrimSpace(row.PartOfSpeech.String) == "") {
			skipped++
		}
	}
	return updates, inserts, skipped
}

// NormalizePOS normalizes a part-of-speech label for matching: trimmed,
// inner whitespace collapsed, lower-cased. Blank labels map to "".
func NormalizePOS(pos string) string {
	return NormalizeTerm(pos)
}

// MapToExistingPOS maps a resolved part-of-speech label onto the
// canonical label already stored in the defined table, trying fragment
// matches (split on ";,/" and " or ") for verbose labels. Returns ""
// when nothing matches.
func MapToExistingPOS(pos string, existingPOS map[string]string) string {
	norm := NormalizePOS(pos)
	if norm == "" {
		return ""
	}
	if canonical, ok := existingPOS[norm]; ok {
		return canonical
	}
	for _, fragment := range posFragmentPattern.Split(norm, -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if canonical, ok := existingPOS[fragment]; ok {
			return canonical
		}
	}
	return ""
}

// BestDefinitionsByPOS maps each canonical part of speech to the most
// reliable definition the lookup produced for it.
func BestDefinitionsByPOS(result LookupResult, existingPOS map[string]string) map[string]Definition {
	best := make(map[string]Definition)
	for posLabel, definitions := range result.DefinitionsByPOS {
		canonical := MapToExistingPOS(posLabel, existingPOS)
		if canonical == "" || len(definitions) == 0 {
			continue
		}

		top := definitions[0]
		for _, d := range definitions[1:] {
			if d.ReliabilityScore > top.ReliabilityScore {
				top = d
			}
		}
		if current, ok := best[canonical]; !ok || top.ReliabilityScore > current.ReliabilityScore {
			best[canonical] = top
		}
	}
	return best
}
