// Package collector drives one incremental collection run: discover new
// dividend filings, fetch and extract them concurrently, and persist
// records plus updated checkpoints.
package collector

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dartlab/divcollect/internal/checkpoint"
	"github.com/dartlab/divcollect/internal/corpus"
	"github.com/dartlab/divcollect/internal/extract"
	"github.com/dartlab/divcollect/internal/model"
)

// dividendKeyword filters filing titles down to dividend disclosures.
// Applied exactly once, here.
const dividendKeyword = "배당"

// Registry enumerates the companies to scan.
type Registry interface {
	Load(ctx context.Context, forceRefresh bool) ([]model.Company, error)
}

// Lister discovers candidate filings for one company and date range.
type Lister interface {
	List(ctx context.Context, corpCode, begin, end string) []model.FilingReference
}

// Fetcher retrieves the raw body of one filing; an empty string means
// every retrieval strategy failed.
type Fetcher interface {
	Fetch(ctx context.Context, receiptNo string) string
}

// Collector wires discovery, retrieval, extraction, and persistence.
type Collector struct {
	registry    Registry
	lister      Lister
	fetcher     Fetcher
	corpus      *corpus.Store
	checkpoints *checkpoint.Store
	workers     int
}

// New creates a Collector. workers bounds the concurrent fetch+extract
// pool; the discovery path stays sequential.
func New(registry Registry, lister Lister, fetcher Fetcher, corpusStore *corpus.Store, checkpoints *checkpoint.Store, workers int) *Collector {
	if workers <= 0 {
		workers = 10
	}
	return &Collector{
		registry:    registry,
		lister:      lister,
		fetcher:     fetcher,
		corpus:      corpusStore,
		checkpoints: checkpoints,
		workers:     workers,
	}
}

type task struct {
	ref     model.FilingReference
	company model.Company
}

// Run performs one incremental pass over [startDate, endDate] (YYYYMMDD)
// and returns the newly collected records, sorted by receipt number.
// Already-collected filings are never re-fetched; a company whose list
// query fails is left unadvanced and retried naturally next run.
func (c *Collector) Run(ctx context.Context, startDate, endDate string) ([]model.FilingRecord, error) {
	seen, err := c.corpus.SeenReceipts()
	if err != nil {
		return nil, err
	}

	companies, err := c.registry.Load(ctx, false)
	if err != nil {
		return nil, err
	}

	zap.L().Info("collector: starting incremental run",
		zap.String("start", startDate),
		zap.String("end", endDate),
		zap.Int("companies", len(companies)),
		zap.Int("known_receipts", len(seen)),
	)

	tasks := c.discover(ctx, companies, startDate, endDate, seen)

	zap.L().Info("collector: discovery complete",
		zap.Int("new_filings", len(tasks)),
	)

	records := c.collect(ctx, tasks)

	if len(records) > 0 {
		if err := c.corpus.Append(records); err != nil {
			return nil, err
		}
		if err := c.corpus.WriteSnapshot(records); err != nil {
			return nil, err
		}
	}

	if err := c.checkpoints.Flush(); err != nil {
		return nil, err
	}

	zap.L().Info("collector: run complete", zap.Int("new_records", len(records)))
	return records, nil
}

// discover walks the registry sequentially, querying each company's
// unscanned tail and collecting the not-yet-seen dividend filings.
func (c *Collector) discover(ctx context.Context, companies []model.Company, startDate, endDate string, seen map[string]struct{}) []task {
	var tasks []task

	for _, co := range companies {
		if ctx.Err() != nil {
			break
		}

		begin := startDate
		if last, ok := c.checkpoints.LastScanned(co.CorpCode); ok && last > begin {
			begin = last
		}

		refs := c.lister.List(ctx, co.CorpCode, begin, endDate)
		if len(refs) == 0 {
			// Failed or empty query: the checkpoint stays put and the
			// company is rescanned from the same date next run.
			continue
		}

		// The whole range has been scanned, regardless of how many of
		// its filings turn out to be new.
		c.checkpoints.Advance(co.CorpCode, endDate)

		for _, ref := range refs {
			if !strings.Contains(ref.ReportName, dividendKeyword) {
				continue
			}
			if _, dup := seen[ref.ReceiptNo]; dup {
				continue
			}
			seen[ref.ReceiptNo] = struct{}{}
			tasks = append(tasks, task{ref: ref, company: co})
		}
	}

	return tasks
}

// collect fans fetch+extract out over a bounded worker pool and returns
// the records sorted by receipt number. Workers only touch their own
// task; the shared map is guarded and merged by completion order, which
// is immaterial given unique receipt numbers.
func (c *Collector) collect(ctx context.Context, tasks []task) []model.FilingRecord {
	var mu sync.Mutex
	byReceipt := make(map[string]model.FilingRecord, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, tk := range tasks {
		g.Go(func() error {
			body := c.fetcher.Fetch(gctx, tk.ref.ReceiptNo)
			fields := extract.Extract(body)

			rec := model.FilingRecord{
				CorpCode:       tk.ref.CorpCode,
				CorpName:       tk.company.CorpName,
				StockCode:      tk.company.StockCode,
				ReceiptDate:    tk.ref.ReceiptDate,
				ReportName:     tk.ref.ReportName,
				ReceiptNo:      tk.ref.ReceiptNo,
				HTML:           body,
				DividendFields: fields,
			}

			mu.Lock()
			byReceipt[rec.ReceiptNo] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	keys := make([]string, 0, len(byReceipt))
	for k := range byReceipt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]model.FilingRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, byReceipt[k])
	}
	return records
}
