// Package browser exposes the few page capabilities the relay needs: listing
// open pages and running a script inside one of them.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Page is an open top-level page (a tab).
type Page struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Browser runs scripts in pages of a browser the relay is attached to.
type Browser interface {
	// Pages lists open pages in browser enumeration order.
	Pages(ctx context.Context) ([]Page, error)
	// ActivePage returns the page user actions are directed at.
	ActivePage(ctx context.Context) (Page, error)
	// RunInPage evaluates script in the page, awaiting a returned promise, and
	// decodes the JSON result into result.
	RunInPage(ctx context.Context, pageID string, script string, result any) error
	Close() error
}

// Script renders a call of the JavaScript function fn with args embedded as
// JSON literals.
func Script(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("[Script] argument %d: %w", i, err)
		}
		encoded = append(encoded, string(raw))
	}
	return fmt.Sprintf("(%s)(%s)", strings.TrimSpace(fn), strings.Join(encoded, ", ")), nil
}

// RestrictedScheme returns the privileged scheme prefix url starts with, if any.
func RestrictedScheme(url string, schemes []string) (string, bool) {
	lower := strings.ToLower(url)
	for _, scheme := range schemes {
		if scheme != "" && strings.HasPrefix(lower, strings.ToLower(scheme)) {
			return scheme, true
		}
	}
	return "", false
}
