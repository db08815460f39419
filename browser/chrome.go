package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/rs/zerolog/log"
)

const pageTargetType = "page"

// ChromeOptions selects how the browser is reached.
type ChromeOptions struct {
	// CDPURL attaches to an already running browser (remote debugging URL).
	// When empty a local browser is launched.
	CDPURL      string
	Headless    bool
	UserDataDir string
	// StartupTimeout bounds the initial connection check.
	StartupTimeout time.Duration
}

// ChromeBrowser implements Browser over the Chrome DevTools Protocol.
//
// Cancelling a chromedp context bound to a target closes that tab, so contexts
// attached to the user's tabs are detached from browserCtx's cancellation and
// only released once the tab is already gone.
type ChromeBrowser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	remote        bool
	// selfID is the tab chromedp attached to for its own session. It is never
	// reported as a page.
	selfID target.ID

	mu   sync.Mutex
	tabs map[target.ID]tab
}

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ Browser = (*ChromeBrowser)(nil)

// NewChromeBrowser connects to (or launches) a browser and verifies that its
// targets can be listed.
func NewChromeBrowser(opts ChromeOptions) (*ChromeBrowser, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if opts.CDPURL != "" {
		log.Info().Str("url", opts.CDPURL).Msg("Connecting to Chrome")
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.CDPURL)
	} else {
		log.Info().Bool("headless", opts.Headless).Msg("Launching Chrome")
		allocatorOpts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
		)
		if opts.UserDataDir != "" {
			allocatorOpts = append(allocatorOpts, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("[NewChromeBrowser] failed to start browser session: %w", err)
	}

	startupTimeout := opts.StartupTimeout
	if startupTimeout <= 0 {
		startupTimeout = 30 * time.Second
	}
	testCtx, testCancel := context.WithTimeout(browserCtx, startupTimeout)
	defer testCancel()

	infos, err := chromedp.Targets(testCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("[NewChromeBrowser] browser failed startup check: %w", err)
	}
	log.Debug().Int("targets", len(infos)).Msg("Chrome connection established")

	b := &ChromeBrowser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		remote:        opts.CDPURL != "",
		tabs:          make(map[target.ID]tab),
	}
	if c := chromedp.FromContext(browserCtx); c != nil && c.Target != nil {
		b.selfID = c.Target.TargetID
	}
	return b, nil
}

func (b *ChromeBrowser) Pages(ctx context.Context) ([]Page, error) {
	runCtx, cancel := b.bind(ctx, b.browserCtx)
	defer cancel()

	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		return nil, fmt.Errorf("[ChromeBrowser Pages] %w", err)
	}

	pages := make([]Page, 0, len(infos))
	open := make(map[target.ID]struct{}, len(infos))
	for _, info := range infos {
		if info.Type != pageTargetType || info.TargetID == b.selfID {
			continue
		}
		open[info.TargetID] = struct{}{}
		pages = append(pages, Page{ID: string(info.TargetID), URL: info.URL, Title: info.Title})
	}
	b.forgetClosedTabs(open)
	return pages, nil
}

func (b *ChromeBrowser) ActivePage(ctx context.Context) (Page, error) {
	pages, err := b.Pages(ctx)
	if err != nil {
		return Page{}, err
	}
	if len(pages) == 0 {
		return Page{}, relayerrors.Newf(relayerrors.ErrNoActiveTarget, "no active tab found")
	}
	return pages[0], nil
}

func (b *ChromeBrowser) RunInPage(ctx context.Context, pageID string, script string, result any) error {
	id := target.ID(pageID)
	tabCtx, err := b.tabContext(id)
	if err != nil {
		return fmt.Errorf("[ChromeBrowser RunInPage] failed to attach to page %s: %w", pageID, err)
	}

	runCtx, cancel := b.bind(ctx, tabCtx)
	defer cancel()

	err = chromedp.Run(runCtx, chromedp.Evaluate(script, result, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		if tabCtx.Err() != nil {
			b.mu.Lock()
			delete(b.tabs, id)
			b.mu.Unlock()
		}
		return err
	}
	return nil
}

// Close detaches from a remote browser, or shuts down a launched one. The
// user's tabs are left open.
func (b *ChromeBrowser) Close() error {
	var err error
	if b.remote && b.selfID != "" {
		closeCtx, cancel := context.WithTimeout(b.browserCtx, 2*time.Second)
		err = chromedp.Run(closeCtx, page.Close())
		cancel()
	}
	b.browserCancel()
	b.allocCancel()
	if err != nil {
		return fmt.Errorf("[ChromeBrowser Close] %w", err)
	}
	return nil
}

// tabContext returns a chromedp context attached to the tab. chromedp runs the
// target's event loop on the context of the first Run, so the attach must not
// use a per-call context.
func (b *ChromeBrowser) tabContext(id target.ID) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tabs[id]; ok && t.ctx.Err() == nil {
		return t.ctx, nil
	}
	tabCtx, tabCancel := chromedp.NewContext(context.WithoutCancel(b.browserCtx), chromedp.WithTargetID(id))
	if err := chromedp.Run(tabCtx); err != nil {
		// Cancelling an attached context closes the tab.
		if c := chromedp.FromContext(tabCtx); c == nil || c.Target == nil {
			tabCancel()
		}
		return nil, err
	}
	b.tabs[id] = tab{ctx: tabCtx, cancel: tabCancel}
	return tabCtx, nil
}

func (b *ChromeBrowser) forgetClosedTabs(open map[target.ID]struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.tabs {
		if _, ok := open[id]; !ok {
			// The tab is already gone, releasing its context is safe.
			t.cancel()
			delete(b.tabs, id)
		}
	}
}

// bind derives a context from the chromedp context chromeCtx that is also
// cancelled when the caller's ctx is done.
func (b *ChromeBrowser) bind(ctx, chromeCtx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(chromeCtx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
