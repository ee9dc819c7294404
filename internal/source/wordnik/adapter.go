// Package wordnik looks up terms through the Wordnik REST API. The API
// needs a key; without one configured the engine skips this source.
package wordnik

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

const defaultBaseURL = "https://api.wordnik.com"

// Adapter fetches definitions from the Wordnik API.
type Adapter struct {
	client *resty.Client
	config source.Config
	apiKey string
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithBaseURL points the adapter at a different endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) { a.client.SetBaseURL(baseURL) }
}

// New creates an Adapter with the given source configuration and API
// key. An empty key leaves the adapter registered but skipped.
func New(config source.Config, apiKey string, opts ...Option) *Adapter {
	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	a := &Adapter{client: client, config: config, apiKey: apiKey}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements definition.Adapter.
func (a *Adapter) Name() string { return source.NameWordnik }

// HasCredential implements definition.Credentialed.
func (a *Adapter) HasCredential() bool { return a.apiKey != "" }

type apiDefinition struct {
	Word             string `json:"word"`
	Text             string `json:"text"`
	PartOfSpeech     string `json:"partOfSpeech"`
	AttributionText  string `json:"attributionText"`
	SourceDictionary string `json:"sourceDictionary"`
}

// Fetch implements definition.Adapter. Entries Wordnik resolved to a
// different headword are skipped.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]definition.Definition, error) {
	res, err := a.client.R().
		SetContext(ctx).
		SetHeader("api_key", a.apiKey).
		Get("/v4/word.json/" + url.PathEscape(term) + "/definitions")
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
	}

	var entries []apiDefinition
	if err := json.Unmarshal(res.Body(), &entries); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}

	normalized := definition.NormalizeTerm(term)
	var definitions []definition.Definition
	for _, e := range entries {
		if e.Text == "" {
			continue
		}
		if word := definition.NormalizeTerm(e.Word); word != "" && word != normalized {
			continue
		}

		pos := e.PartOfSpeech
		if pos == "" {
			pos = "unknown"
		}
		etymology := ""
		if e.AttributionText != "" {
			etymology = "Source: " + e.AttributionText
		} else if e.SourceDictionary != "" {
			etymology = "Source: " + e.SourceDictionary
		}

		definitions = append(definitions, definition.Definition{
			Text:             e.Text,
			PartOfSpeech:     pos,
			Source:           a.Name(),
			SourceTier:       a.config.Tier,
			ReliabilityScore: a.config.BaseReliability,
			Etymology:        etymology,
		})
	}
	return definitions, nil
}
