// Package lister pages through the DART filing-list endpoint for one
// company and date range.
package lister

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dartlab/divcollect/internal/model"
)

// pageSize is the fixed page_count sent on every list query.
const pageSize = 100

// Client issues list queries. Satisfied by *dart.Client.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
	ListURL(corpCode, begin, end string, page, pageSize int) string
}

// Lister fetches filing-list pages until exhaustion.
type Lister struct {
	client    Client
	maxPages  int
	pageDelay time.Duration
}

// New creates a Lister. maxPages bounds pagination against pathological
// responses; pageDelay is the fixed pause between successful page fetches.
func New(client Client, maxPages int, pageDelay time.Duration) *Lister {
	if maxPages <= 0 {
		maxPages = 10
	}
	if pageDelay < 0 {
		pageDelay = 0
	}
	return &Lister{client: client, maxPages: maxPages, pageDelay: pageDelay}
}

type listResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	List    []struct {
		CorpCode    string `json:"corp_code"`
		ReportName  string `json:"report_nm"`
		ReceiptNo   string `json:"rcept_no"`
		ReceiptDate string `json:"rcept_dt"`
	} `json:"list"`
}

// List returns filings for corpCode in [begin, end] (YYYYMMDD). It never
// fails: on any page error it stops paginating and returns what was
// accumulated, leaving the company to be retried on the next run.
func (l *Lister) List(ctx context.Context, corpCode, begin, end string) []model.FilingReference {
	var refs []model.FilingReference

	for page := 1; page <= l.maxPages; page++ {
		raw, err := l.client.Get(ctx, l.client.ListURL(corpCode, begin, end, page, pageSize))
		if err != nil {
			zap.L().Warn("lister: page fetch failed, returning partial results",
				zap.String("corp_code", corpCode),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		var resp listResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			zap.L().Warn("lister: page unparseable, returning partial results",
				zap.String("corp_code", corpCode),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		if len(resp.List) == 0 {
			break
		}

		for _, it := range resp.List {
			cc := it.CorpCode
			if cc == "" {
				cc = corpCode
			}
			refs = append(refs, model.FilingReference{
				CorpCode:    cc,
				ReportName:  it.ReportName,
				ReceiptNo:   it.ReceiptNo,
				ReceiptDate: it.ReceiptDate,
			})
		}

		// Fewer items than a full page means the last page.
		if len(resp.List) < pageSize {
			break
		}

		// Self-throttle between pages.
		if l.pageDelay > 0 {
			timer := time.NewTimer(l.pageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return refs
			case <-timer.C:
			}
		}
	}

	return refs
}
