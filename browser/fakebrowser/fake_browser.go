package fakebrowser

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jrsteele09/go-token-relay/browser"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
)

var _ browser.Browser = (*FakeBrowser)(nil)

// Handler produces the result of a script run in a page. The returned value is
// round-tripped through JSON, as the DevTools protocol would.
type Handler func(script string) (any, error)

// Call records one RunInPage invocation.
type Call struct {
	PageID string
	Script string
}

// FakeBrowser is an in-memory browser.Browser for tests.
type FakeBrowser struct {
	lock     sync.RWMutex
	pages    []browser.Page
	handlers map[string]Handler
	calls    []Call
	pagesErr error
	closed   bool
}

func NewFakeBrowser(pages ...browser.Page) *FakeBrowser {
	return &FakeBrowser{
		pages:    pages,
		handlers: make(map[string]Handler),
	}
}

// OnRun installs the handler for scripts run in pageID.
func (fb *FakeBrowser) OnRun(pageID string, handler Handler) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.handlers[pageID] = handler
}

// FailPages makes Pages and ActivePage return err.
func (fb *FakeBrowser) FailPages(err error) {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.pagesErr = err
}

// Calls returns every script run so far.
func (fb *FakeBrowser) Calls() []Call {
	fb.lock.RLock()
	defer fb.lock.RUnlock()
	return append([]Call(nil), fb.calls...)
}

func (fb *FakeBrowser) Closed() bool {
	fb.lock.RLock()
	defer fb.lock.RUnlock()
	return fb.closed
}

func (fb *FakeBrowser) Pages(ctx context.Context) ([]browser.Page, error) {
	fb.lock.RLock()
	defer fb.lock.RUnlock()
	if fb.pagesErr != nil {
		return nil, fb.pagesErr
	}
	return append([]browser.Page(nil), fb.pages...), nil
}

func (fb *FakeBrowser) ActivePage(ctx context.Context) (browser.Page, error) {
	pages, err := fb.Pages(ctx)
	if err != nil {
		return browser.Page{}, err
	}
	if len(pages) == 0 {
		return browser.Page{}, relayerrors.Newf(relayerrors.ErrNoActiveTarget, "no active tab found")
	}
	return pages[0], nil
}

func (fb *FakeBrowser) RunInPage(ctx context.Context, pageID string, script string, result any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fb.lock.Lock()
	fb.calls = append(fb.calls, Call{PageID: pageID, Script: script})
	handler, ok := fb.handlers[pageID]
	fb.lock.Unlock()

	if !ok {
		return errors.New("no tab with id: " + pageID)
	}
	value, err := handler(script)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

func (fb *FakeBrowser) Close() error {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	fb.closed = true
	return nil
}
