package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/require"
)

func setupChromeBrowser(t *testing.T) *ChromeBrowser {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Chrome test in short mode")
	}
	b, err := NewChromeBrowser(ChromeOptions{Headless: true, StartupTimeout: 10 * time.Second})
	if err != nil {
		t.Skipf("Chrome not available: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func openTab(t *testing.T, b *ChromeBrowser) target.ID {
	t.Helper()
	var id target.ID
	require.NoError(t, chromedp.Run(b.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		id, err = target.CreateTarget("about:blank").Do(ctx)
		return err
	})))
	return id
}

func TestChromeBrowser_RunInPageRepeatedly(t *testing.T) {
	b := setupChromeBrowser(t)
	id := openTab(t, b)

	for i := 1; i <= 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var got int
		err := b.RunInPage(ctx, string(id), "Promise.resolve(40 + 2)", &got)
		cancel()
		require.NoError(t, err, "run %d", i)
		require.Equal(t, 42, got)
	}
}

func TestChromeBrowser_PagesExcludesOwnTab(t *testing.T) {
	b := setupChromeBrowser(t)
	require.NotEmpty(t, b.selfID)
	id := openTab(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pages, err := b.Pages(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	require.Contains(t, ids, string(id))
	require.NotContains(t, ids, string(b.selfID))

	active, err := b.ActivePage(ctx)
	require.NoError(t, err)
	require.NotEqual(t, string(b.selfID), active.ID)
}
