// Package dart provides the shared DART OpenAPI client. One Client is
// constructed at startup and handed to every component that issues
// requests; there is no ambient session state.
package dart

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/dartlab/divcollect/internal/resilience"
)

// Options configures the client.
type Options struct {
	APIKey         string
	BaseURL        string // OpenAPI endpoints (opendart.fss.or.kr/api)
	ViewerBaseURL  string // report viewer host (dart.fss.or.kr)
	UserAgent      string
	Timeout        time.Duration
	RequestsPerSec float64
	MaxAttempts    int
}

// Client issues rate-limited, retried GET requests against DART.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	viewerURL  string
	userAgent  string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://opendart.fss.or.kr/api"
	}
	if opts.ViewerBaseURL == "" {
		opts.ViewerBaseURL = "https://dart.fss.or.kr"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 10
	}

	retry := resilience.DefaultRetryConfig()
	if opts.MaxAttempts > 0 {
		retry.MaxAttempts = opts.MaxAttempts
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:    opts.APIKey,
		baseURL:   opts.BaseURL,
		viewerURL: opts.ViewerBaseURL,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSec), int(opts.RequestsPerSec)),
		retry:     retry,
	}
}

// Get fetches rawURL and returns the response body. Transient failures
// (429/5xx, network timeouts) are retried with exponential backoff.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "dart: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "dart: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "dart: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("dart: http %d from %s", resp.StatusCode, rawURL),
				resp.StatusCode,
			)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("dart: http %d from %s", resp.StatusCode, rawURL)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "dart: read body")
		}
		return body, nil
	})
}

// CorpCodeURL returns the corp-code registry download URL.
func (c *Client) CorpCodeURL() string {
	q := url.Values{}
	q.Set("crtfc_key", c.apiKey)
	return c.baseURL + "/corpCode.xml?" + q.Encode()
}

// ListURL returns one page of the filing-list query for a company and
// date range (YYYYMMDD).
func (c *Client) ListURL(corpCode, begin, end string, page, pageSize int) string {
	q := url.Values{}
	q.Set("crtfc_key", c.apiKey)
	q.Set("corp_code", corpCode)
	q.Set("bgn_de", begin)
	q.Set("end_de", end)
	q.Set("page_count", strconv.Itoa(pageSize))
	q.Set("page_no", strconv.Itoa(page))
	return c.baseURL + "/list.json?" + q.Encode()
}

// DocumentURL returns the structured-document endpoint for a filing.
func (c *Client) DocumentURL(receiptNo string) string {
	q := url.Values{}
	q.Set("crtfc_key", c.apiKey)
	q.Set("rcept_no", receiptNo)
	return c.baseURL + "/document.xml?" + q.Encode()
}

// StaticViewerURL returns the static rendered-HTML viewer page for a
// filing. dcmNo=0 selects the latest document revision.
func (c *Client) StaticViewerURL(receiptNo string) string {
	q := url.Values{}
	q.Set("rcpNo", receiptNo)
	q.Set("dcmNo", "0")
	q.Set("eleId", "0")
	return c.viewerURL + "/report/viewer.do?" + q.Encode()
}

// MainViewerURL returns the interactive viewer page for a filing, used
// by the browser-automation fallback.
func (c *Client) MainViewerURL(receiptNo string) string {
	q := url.Values{}
	q.Set("rcpNo", receiptNo)
	return c.viewerURL + "/dsaf001/main.do?" + q.Encode()
}
