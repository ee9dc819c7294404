// Package cambridge scrapes definition pages from the Cambridge
// Dictionary website.
package cambridge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/wordhoard/wordhoard/internal/definition"
	"github.com/wordhoard/wordhoard/internal/source"
	"github.com/wordhoard/wordhoard/internal/source/headword"
)

const (
	defaultBaseURL = "https://dictionary.cambridge.org"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// maxExamplesPerSense keeps example lists short.
	maxExamplesPerSense = 3
	minDefinitionLength = 5
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Adapter fetches definitions by scraping Cambridge Dictionary pages.
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
	client.SetHeader("User-Agent", userAgent)
	a := &Adapter{client: client, config: config}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements definition.Adapter.
func (a *Adapter) Name() string { return source.NameCambridge }

// Fetch implements definition.Adapter. Pages whose extracted headword
// does not match the requested term contribute nothing, even when they
// contain well-formed definition markup; Cambridge serves the nearest
// entry for unknown terms.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]definition.Definition, error) {
	res, err := a.client.R().
		SetContext(ctx).
		Get("/dictionary/english/" + url.PathEscape(term))
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
	}

	doc, err := html.Parse(strings.NewReader(string(res.Body())))
	if err != nil {
		return nil, fmt.Errorf("html.Parse > %w", err)
	}
	if !headword.Matches(doc, term) {
		return nil, nil
	}
	return a.parse(doc), nil
}

// parse walks the page in document order: part-of-speech markers
// (span.pos / span.dpos) set the POS for the definition blocks that
// follow them, and each div.def-block yields one definition with up to
// three example sentences.
func (a *Adapter) parse(doc *html.Node) []definition.Definition {
	var definitions []definition.Definition
	currentPOS := "unknown"

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "span" && (hasClass(n, "pos") || hasClass(n, "dpos")) {
				if pos := cleanText(textContent(n)); pos != "" {
					currentPOS = strings.ToLower(pos)
				}
				return
			}
			if n.Data == "div" && hasClass(n, "def-block") {
				if d, ok := a.parseBlock(n, currentPOS); ok {
					definitions = append(definitions, d)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return definitions
}

func (a *Adapter) parseBlock(block *html.Node, pos string) (definition.Definition, bool) {
	defNode := findFirst(block, func(n *html.Node) bool {
		return n.Data == "div" && (hasClass(n, "def") || hasClass(n, "ddef_d"))
	})
	if defNode == nil {
		return definition.Definition{}, false
	}

	text := strings.TrimSpace(strings.TrimRight(cleanText(textContent(defNode)), ":"))
	if len(text) < minDefinitionLength {
		return definition.Definition{}, false
	}

	var examples []string
	collect(block, func(n *html.Node) bool {
		return n.Data == "span" && hasClass(n, "eg")
	}, func(n *html.Node) {
		if len(examples) >= maxExamplesPerSense {
			return
		}
		if example := cleanText(textContent(n)); example != "" {
			examples = append(examples, example)
		}
	})

	return definition.Definition{
		Text:             text,
		PartOfSpeech:     pos,
		Source:           a.Name(),
		SourceTier:       a.config.Tier,
		ReliabilityScore: a.config.BaseReliability,
		Examples:         examples,
	}, true
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func collect(root *html.Node, match func(*html.Node) bool, visit func(*html.Node)) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			visit(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(a.Val) {
			if token == class {
				return true
			}
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

func cleanText(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
