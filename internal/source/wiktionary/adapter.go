// Package wiktionary looks up terms through the English Wiktionary
// MediaWiki parse API and extracts senses from the rendered page HTML.
package wiktionary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/wordhoard/wordhoard/internal/definition"
	"github.com/wordhoard/wordhoard/internal/source"
)

const defaultBaseURL = "https://en.wiktionary.org"

// minDefinitionLength filters out stub list items such as bare links.
const minDefinitionLength = 10

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	citationPattern     = regexp.MustCompile(`\[\d+\]`)
	leadingLabelPattern = regexp.MustCompile(`^\([^)]+\)\s*`)
)

var posKeywords = []string{
	"noun", "verb", "adjective", "adverb",
	"preposition", "interjection", "conjunction", "pronoun",
}

// Adapter fetches definitions from Wiktionary.
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
func (a *Adapter) Name() string { return source.NameWiktionary }

type parseResponse struct {
	Parse *parsePayload `json:"parse"`
}

type parsePayload struct {
	Title string    `json:"title"`
	Text  parseText `json:"text"`
}

type parseText struct {
	Content string `json:"*"`
}

// Fetch implements definition.Adapter. The page title returned by the
// API must match the requested term exactly (after normalization);
// MediaWiki resolves near-miss titles, and those pages are rejected.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]definition.Definition, error) {
	res, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action": "parse",
			"format": "json",
			"page":   term,
			"prop":   "text",
		}).
		Get("/w/api.php")
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
	}

	var payload parseResponse
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}
	// Missing pages come back as an error object without "parse".
	if payload.Parse == nil || payload.Parse.Text.Content == "" {
		return nil, nil
	}
	if title := definition.NormalizeTerm(payload.Parse.Title); title != "" && title != definition.NormalizeTerm(term) {
		return nil, nil
	}

	definitions, err := a.parseHTML(payload.Parse.Text.Content)
	if err != nil {
		return nil, fmt.Errorf("parseHTML > %w", err)
	}
	return definitions, nil
}

// parseHTML walks the rendered page: everything between the English h2
// and the next language h2, tracking the current part of speech from
// h3/h4 headers and collecting senses from ordered lists. Handles both
// the legacy layout (bare h2/h3/h4) and the current one where headings
// are wrapped in div.mw-heading containers.
func (a *Adapter) parseHTML(content string) ([]definition.Definition, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("html.Parse > %w", err)
	}

	anchor := findEnglishAnchor(doc)
	if anchor == nil {
		return nil, nil
	}

	var definitions []definition.Definition
	currentPOS := "unknown"

	for n := anchor.NextSibling; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		if isLanguageBoundary(n) {
			break
		}

		if heading := sectionHeading(n); heading != nil {
			if pos := matchPOS(textContent(heading)); pos != "" {
				currentPOS = pos
			}
			continue
		}

		if n.Data != "ol" {
			continue
		}
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type != html.ElementNode || li.Data != "li" {
				continue
			}
			text := cleanSense(senseText(li))
			if len(text) <= minDefinitionLength {
				continue
			}
			definitions = append(definitions, definition.Definition{
				Text:             text,
				PartOfSpeech:     currentPOS,
				Source:           a.Name(),
				SourceTier:       a.config.Tier,
				ReliabilityScore: a.config.BaseReliability,
			})
		}
	}
	return definitions, nil
}

// findEnglishAnchor returns the sibling-walk starting point: the h2
// with id "English", or its div.mw-heading wrapper when present.
func findEnglishAnchor(doc *html.Node) *html.Node {
	var anchor *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if anchor != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "h2" && attr(n, "id") == "English" {
			if p := n.Parent; p != nil && p.Data == "div" && hasClass(p, "mw-heading") {
				anchor = p
			} else {
				anchor = n
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return anchor
}

// isLanguageBoundary reports whether n starts another language section.
func isLanguageBoundary(n *html.Node) bool {
	if n.Data == "h2" {
		return true
	}
	return n.Data == "div" && hasClass(n, "mw-heading2")
}

// sectionHeading unwraps n to the part-of-speech heading it carries, if
// any: a bare h3/h4, or one inside a div.mw-heading3/4 wrapper.
func sectionHeading(n *html.Node) *html.Node {
	if n.Data == "h3" || n.Data == "h4" {
		return n
	}
	if n.Data == "div" && (hasClass(n, "mw-heading3") || hasClass(n, "mw-heading4")) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "h3" || c.Data == "h4") {
				return c
			}
		}
	}
	return nil
}

func matchPOS(headingText string) string {
	lowered := strings.ToLower(headingText)
	for _, pos := range posKeywords {
		if strings.Contains(lowered, pos) {
			return pos
		}
	}
	return ""
}

// senseText extracts the sense text of a list item, skipping nested
// lists (quotations and usage examples live there).
func senseText(li *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.Data == "ul" || n.Data == "ol") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return b.String()
}

func cleanSense(text string) string {
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = citationPattern.ReplaceAllString(text, "")
	text = leadingLabelPattern.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(text)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(attr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
