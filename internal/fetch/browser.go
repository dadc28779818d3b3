package fetch

import (
	"context"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BrowserStrategy renders the interactive viewer in headless Chrome and
// captures the page source of the content frame. A browser process is
// spun up per call, so every invocation is logged as a warning: frequent
// use means the faster strategies are failing systematically.
type BrowserStrategy struct {
	client  Client
	settle  time.Duration
	timeout time.Duration
}

// NewBrowserStrategy creates the browser-automation fallback.
func NewBrowserStrategy(client Client) *BrowserStrategy {
	return &BrowserStrategy{
		client:  client,
		settle:  1200 * time.Millisecond,
		timeout: 30 * time.Second,
	}
}

func (s *BrowserStrategy) Name() string { return "headless_browser" }

func (s *BrowserStrategy) Fetch(ctx context.Context, receiptNo string) (string, error) {
	zap.L().Warn("fetch: falling back to headless browser",
		zap.String("rcept_no", receiptNo),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.timeout)
	defer cancelRun()

	mainURL := s.client.MainViewerURL(receiptNo)

	// The report body lives in the #ifrm content frame; read its src and
	// navigate into it directly rather than scraping the outer shell.
	var frameSrc string
	var hasFrame bool
	err := chromedp.Run(runCtx,
		chromedp.Navigate(mainURL),
		chromedp.Sleep(s.settle),
		chromedp.AttributeValue("#ifrm", "src", &frameSrc, &hasFrame, chromedp.ByID),
	)
	if err != nil {
		return "", eris.Wrapf(err, "headless_browser: load viewer for %s", receiptNo)
	}
	if !hasFrame || frameSrc == "" {
		return "", eris.Errorf("headless_browser: no content frame for %s", receiptNo)
	}

	frameURL, err := resolveFrameURL(mainURL, frameSrc)
	if err != nil {
		return "", err
	}

	var html string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(frameURL),
		chromedp.Sleep(s.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "headless_browser: capture frame for %s", receiptNo)
	}
	return html, nil
}

func resolveFrameURL(base, src string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrap(err, "headless_browser: parse viewer url")
	}
	s, err := url.Parse(src)
	if err != nil {
		return "", eris.Wrap(err, "headless_browser: parse frame src")
	}
	return b.ResolveReference(s).String(), nil
}
