package fetch

import (
	"context"
	"errors"
	"net/url"

	"github.com/chromedp/chromedp"
)

// Chromedp renders the page in headless Chrome before extraction, for
// sites that build their content client-side.
type Chromedp struct {
	allocCtx   context.Context
	cancel     context.CancelFunc
	MaxContent int
}

func NewChromedp(userAgent string, maxContent int) *Chromedp {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if maxContent <= 0 {
		maxContent = defaultMaxContent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Chromedp{allocCtx: allocCtx, cancel: cancel, MaxContent: maxContent}
}

func (c *Chromedp) Name() string { return MethodChromedp }

func (c *Chromedp) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	taskCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()
	// tie the browser tab to the caller's deadline
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html, location string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Join(ctx.Err(), err)
		}
		return nil, err
	}

	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		u, _ = url.Parse(pageURL)
	}
	res, err := Extract([]byte(html), u, c.MaxContent)
	if err != nil {
		return nil, err
	}
	return &Page{Result: res}, nil
}

// Close shuts down the browser allocator.
func (c *Chromedp) Close() { c.cancel() }
