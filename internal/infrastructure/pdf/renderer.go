package pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var errClosed = errors.New("pdf renderer is closed")

// Renderer prints HTML documents to PDF with headless Chrome. One browser
// process is started on first use and shared; each Render opens its own tab.
type Renderer struct {
	timeout  time.Duration
	allocOps []chromedp.ExecAllocatorOption

	mu          sync.Mutex
	browser     context.Context
	stopBrowser context.CancelFunc
	launches    int
	closed      bool
}

func NewRenderer(timeout time.Duration) *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	return &Renderer{timeout: timeout, allocOps: opts}
}

// browserContext returns the shared browser, launching it if it is not
// running or has exited.
func (r *Renderer) browserContext() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errClosed
	}
	if r.browser != nil && r.browser.Err() == nil {
		return r.browser, nil
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), r.allocOps...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	r.browser = browserCtx
	r.stopBrowser = func() {
		cancelBrowser()
		cancelAlloc()
	}
	r.launches++
	return r.browser, nil
}

// Close shuts the browser down. Render fails afterwards.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.stopBrowser != nil {
		r.stopBrowser()
		r.stopBrowser = nil
		r.browser = nil
	}
}

// Render loads html into a new tab and prints it landscape with backgrounds.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := r.browserContext()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browser)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	var out []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithLandscape(true).
				WithPrintBackground(true).
				Do(ctx)
			out = buf
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return out, nil
}
