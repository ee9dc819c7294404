// Package headword validates that a fetched dictionary page is about
// the exact requested term. Candidate headwords are pulled from
// title-like elements and canonical metadata; when none can be
// extracted at all the page is accepted (many sources omit a clean
// headword element but still return correct content), but when
// candidates exist and none matches, the page is rejected wholesale.
// That asymmetry is deliberate and load-bearing: changing it would
// shift downstream reliability scores.
package headword

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	whitespacePattern    = regexp.MustCompile(`\s+`)
	trailingLabelPattern = regexp.MustCompile(`(?i)\b(noun|verb|adjective|adverb|pronoun|preposition|conjunction|interjection|determiner|exclamation|definition|meaning)\b.*$`)
)

// headwordClasses are class tokens that mark an element as carrying the
// page's headword across the configured dictionary sites.
var headwordClasses = map[string]bool{
	"hw":       true,
	"headword": true,
	"hwd":      true,
	"hword":    true,
	"dhw":      true,
	"di-title": true,
	"word":     true,
}

// Matches reports whether the parsed page is about term. No extractable
// candidates means accept; candidates with no exact normalized match
// means reject.
func Matches(doc *html.Node, term string) bool {
	target := normalize(term)
	candidates := Extract(doc)

	if len(candidates) == 0 {
		return true
	}
	for _, candidate := range candidates {
		if normalize(candidate) == target {
			return true
		}
	}
	return false
}

// Extract collects candidate headword strings from structural hints:
// h1/h2/span elements with headword-ish classes, data-headword
// attributes, and og:title / twitter:title metadata.
func Extract(doc *html.Node) []string {
	seen := map[string]bool{}
	var candidates []string
	add := func(raw string) {
		cleaned := CleanCandidate(raw)
		if cleaned != "" && !seen[cleaned] {
			seen[cleaned] = true
			candidates = append(candidates, cleaned)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "span":
				if hasHeadwordClass(n) {
					add(textContent(n))
				}
				if v := attr(n, "data-headword"); v != "" && n.Data != "span" {
					add(v)
				}
			case "meta":
				if isTitleMeta(n) {
					content := attr(n, "content")
					content = strings.SplitN(content, "|", 2)[0]
					content = strings.SplitN(content, "-", 2)[0]
					add(content)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return candidates
}

// CleanCandidate reduces a raw headword string to its comparable form:
// whitespace collapsed, trailing part-of-speech labels and punctuation
// stripped.
func CleanCandidate(raw string) string {
	cleaned := strings.TrimSpace(whitespacePattern.ReplaceAllString(raw, " "))
	cleaned = strings.TrimSpace(trailingLabelPattern.ReplaceAllString(cleaned, ""))
	return strings.TrimRight(cleaned, ":-–—;,. ")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " ")))
}

func hasHeadwordClass(n *html.Node) bool {
	for _, token := range strings.Fields(attr(n, "class")) {
		if headwordClasses[token] {
			return true
		}
		// h1 class="hword something" style variants
		if strings.Contains(token, "headword") {
			return true
		}
	}
	return false
}

func isTitleMeta(n *html.Node) bool {
	return attr(n, "property") == "og:title" || attr(n, "name") == "twitter:title"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
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
