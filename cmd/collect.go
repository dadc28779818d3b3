package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dartlab/divcollect/internal/checkpoint"
	"github.com/dartlab/divcollect/internal/collector"
	"github.com/dartlab/divcollect/internal/corpus"
	"github.com/dartlab/divcollect/internal/dart"
	"github.com/dartlab/divcollect/internal/fetch"
	"github.com/dartlab/divcollect/internal/lister"
	"github.com/dartlab/divcollect/internal/registry"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one incremental collection pass",
	Long: `Run one incremental collection pass over the configured date range.

Companies are scanned from their per-company checkpoint (or --start for
companies never scanned); filings already in the corpus are skipped.
New dividend filings are fetched concurrently, parsed, and appended to
the JSONL corpus and CSV snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "collect"))

		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		workers, _ := cmd.Flags().GetInt("workers")

		if start == "" {
			start = cfg.Collect.StartDate
		}
		if end == "" {
			end = time.Now().Format("20060102")
		}
		if workers <= 0 {
			workers = cfg.Collect.MaxWorkers
		}
		if err := validateDate(start); err != nil {
			return err
		}
		if err := validateDate(end); err != nil {
			return err
		}

		client := newDARTClient()

		dataDir := cfg.Data.Dir
		regCache := registry.NewCache(client, filepath.Join(dataDir, cfg.Data.RegistryFile), cfg.RegistryMaxAge())
		pager := lister.New(client, cfg.Collect.MaxPages, time.Duration(cfg.Collect.PageDelayMillis)*time.Millisecond)
		chain := fetch.NewChain(
			fetch.NewDocumentStrategy(client),
			fetch.NewStaticViewerStrategy(client),
			fetch.NewBrowserStrategy(client),
		)
		corpusStore := corpus.New(
			filepath.Join(dataDir, cfg.Data.CorpusLog),
			filepath.Join(dataDir, cfg.Data.CorpusSnapshot),
		)
		checkpoints, err := checkpoint.Load(filepath.Join(dataDir, cfg.Data.CheckpointFile))
		if err != nil {
			return err
		}

		log.Info("starting collection",
			zap.String("start", start),
			zap.String("end", end),
			zap.Int("workers", workers),
		)

		c := collector.New(regCache, pager, chain, corpusStore, checkpoints, workers)
		records, err := c.Run(ctx, start, end)
		if err != nil {
			return eris.Wrap(err, "collect")
		}

		fmt.Printf("Collected %d new dividend filings\n", len(records))
		return nil
	},
}

func init() {
	collectCmd.Flags().String("start", "", "range start date YYYYMMDD (default: configured start_date)")
	collectCmd.Flags().String("end", "", "range end date YYYYMMDD (default: today)")
	collectCmd.Flags().Int("workers", 0, "concurrent document fetches (default: configured max_workers)")
	rootCmd.AddCommand(collectCmd)
}

func newDARTClient() *dart.Client {
	return dart.New(dart.Options{
		APIKey:         cfg.DART.APIKey,
		BaseURL:        cfg.DART.BaseURL,
		ViewerBaseURL:  cfg.DART.ViewerBaseURL,
		UserAgent:      cfg.DART.UserAgent,
		Timeout:        time.Duration(cfg.DART.TimeoutSecs) * time.Second,
		RequestsPerSec: cfg.DART.RequestsPerSec,
		MaxAttempts:    cfg.DART.MaxAttempts,
	})
}

func validateDate(d string) error {
	if _, err := time.Parse("20060102", d); err != nil {
		return eris.Errorf("invalid date %q, want YYYYMMDD", d)
	}
	return nil
}
