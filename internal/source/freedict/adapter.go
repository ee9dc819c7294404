// Package freedict looks up terms through the Free Dictionary API
// (dictionaryapi.dev).
package freedict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/wordhoard/wordhoard/internal/definition"
	"github.com/wordhoard/wordhoard/internal/source"
)

const defaultBaseURL = "https://api.dictionaryapi.dev"

// Adapter fetches definitions from the Free Dictionary API.
type Adapter struct {
	client *resty.Client
	config source.Config
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithBaseURL points the adapter at a different endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) { a.client.SetBaseURL(baseURL) }
}

// New creates an Adapter with the given source configuration.
func New(config source.Config, opts ...Option) *Adapter {
	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	a := &Adapter{client: client, config: config}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements definition.Adapter.
func (a *Adapter) Name() string { return source.NameFreeDict }

type entry struct {
	Word      string     `json:"word"`
	Phonetics []phonetic `json:"phonetics"`
	Meanings  []meaning  `json:"meanings"`
}

type phonetic struct {
	Text string `json:"text"`
}

type meaning struct {
	PartOfSpeech string  `json:"partOfSpeech"`
	Definitions  []sense `json:"definitions"`
}

type sense struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

// Fetch implements definition.Adapter. Entries whose headword is a
// near-miss of the requested term are skipped; a 404 means the source
// has no entry and is not an error.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]definition.Definition, error) {
	res, err := a.client.R().
		SetContext(ctx).
		Get("/api/v2/entries/en/" + url.PathEscape(term))
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
	}

	var entries []entry
	if err := json.Unmarshal(res.Body(), &entries); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}
	return a.parse(entries, term), nil
}

func (a *Adapter) parse(entries []entry, term string) []definition.Definition {
	normalized := definition.NormalizeTerm(term)

	var definitions []definition.Definition
	for _, e := range entries {
		if word := definition.NormalizeTerm(e.Word); word != "" && word != normalized {
			continue
		}

		pronunciation := ""
		for _, p := range e.Phonetics {
			if p.Text != "" {
				pronunciation = p.Text
				break
			}
		}

		for _, m := range e.Meanings {
			pos := m.PartOfSpeech
			if pos == "" {
				pos = "unknown"
			}
			for _, s := range m.Definitions {
				if s.Definition == "" {
					continue
				}
				var examples []string
				if s.Example != "" {
					examples = []string{s.Example}
				}
				definitions = append(definitions, definition.Definition{
					Text:             s.Definition,
					PartOfSpeech:     pos,
					Source:           a.Name(),
					SourceTier:       a.config.Tier,
					ReliabilityScore: a.config.BaseReliability,
					Examples:         examples,
					Pronunciation:    pronunciation,
				})
			}
		}
	}
	return definitions
}
