// Package targets finds the open page a token should be delivered to.
package targets

import (
	"context"
	"strings"

	"github.com/gobwas/glob"
	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/diaglog"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/pkg/errors"
)

// Descriptor identifies the page selected for injection.
type Descriptor struct {
	PageID  string `json:"pageId"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Matches int    `json:"matches"`
}

// Resolver matches open pages against URL patterns.
type Resolver struct {
	browser browser.Browser
	log     diaglog.Log
}

func NewResolver(b browser.Browser, log diaglog.Log) (*Resolver, error) {
	if b == nil {
		return nil, errors.New("[NewResolver] browser is required")
	}
	if log == nil {
		return nil, errors.New("[NewResolver] diagnostic log is required")
	}
	return &Resolver{browser: b, log: log}, nil
}

// Resolve returns the first open page, in enumeration order, whose URL matches
// any of patterns.
func (r *Resolver) Resolve(ctx context.Context, patterns []string) (Descriptor, error) {
	label := strings.Join(patterns, ", ")
	r.log.Append("Finding tabs matching "+label, nil)

	matchers, err := compilePatterns(patterns)
	if err != nil {
		return Descriptor{}, err
	}

	pages, err := r.browser.Pages(ctx)
	if err != nil {
		r.log.Append("Failed to enumerate tabs", err.Error())
		return Descriptor{}, relayerrors.Newf(relayerrors.ErrNoActiveTarget, "no active tab found for %s: %s", label, err)
	}

	var matched []browser.Page
	for _, page := range pages {
		if matchesAny(matchers, page.URL) {
			matched = append(matched, page)
		}
	}

	if len(matched) == 0 {
		r.log.Append("No tabs found matching "+label, nil)
		return Descriptor{}, relayerrors.Newf(relayerrors.ErrNoActiveTarget, "no active tab found for %s", label)
	}

	r.log.Append("Found matching tabs", map[string]any{"count": len(matched), "selected": matched[0].URL})
	first := matched[0]
	return Descriptor{PageID: first.ID, URL: first.URL, Title: first.Title, Matches: len(matched)}, nil
}

// CompilePattern compiles a URL match pattern where '*' matches any run of
// characters. A pattern without '*' matches as a prefix.
func CompilePattern(pattern string) (glob.Glob, error) {
	if !strings.Contains(pattern, "*") {
		pattern += "*"
	}
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = glob.QuoteMeta(part)
	}
	g, err := glob.Compile(strings.Join(parts, "*"))
	if err != nil {
		return nil, relayerrors.Newf(relayerrors.ErrInvalidRequest, "invalid target pattern '%s': %s", pattern, err)
	}
	return g, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := CompilePattern(pattern)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func matchesAny(matchers []glob.Glob, url string) bool {
	for _, m := range matchers {
		if m.Match(url) {
			return true
		}
	}
	return false
}
