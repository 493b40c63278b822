package models

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is one accepted review-page URL plus a short slug derived from its
// path, used for logging and labeling. Immutable once built.
type Target struct {
	URL  string
	Slug string
}

// NewTarget validates rawURL as a Capterra product-review URL and derives
// the company slug. URLs that do not match the /p/<id>/<slug>/reviews shape
// are rejected with ErrCodeInvalidInput and never scheduled.
func NewTarget(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Target{}, NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("not a valid URL: %s", rawURL), err)
	}
	if !strings.Contains(rawURL, "capterra.com/p/") || !strings.Contains(rawURL, "/reviews") {
		return Target{}, NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("invalid Capterra review URL format: %s", rawURL), nil)
	}
	return Target{URL: rawURL, Slug: slugFromPath(u.Path)}, nil
}

// slugFromPath extracts the company slug from a /p/<product-id>/<slug>/reviews
// style path. Falls back to the last non-empty segment, then "unknown-slug".
func slugFromPath(path string) string {
	segments := []string{}
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 || !strings.EqualFold(segments[0], "p") {
		return "unknown-slug"
	}
	for i, seg := range segments {
		if strings.EqualFold(seg, "reviews") && i > 1 {
			return segments[i-1]
		}
	}
	if len(segments) > 1 {
		return segments[len(segments)-1]
	}
	return "unknown-slug"
}

// NameGuess turns the slug into a human-readable product name used when the
// page itself yields no product name.
func (t Target) NameGuess() string {
	words := strings.Split(t.Slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Label is the short identifier used in log lines, mirroring the per-target
// worker names of the original service.
func (t Target) Label() string {
	slug := t.Slug
	if len(slug) > 10 {
		slug = slug[:10]
	}
	return "load-" + slug
}
