package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinysift/sift/internal/classify"
	"github.com/tinysift/sift/internal/httpserver"
	"github.com/tinysift/sift/internal/logsource"
	"github.com/tinysift/sift/internal/mine"
	"github.com/tinysift/sift/internal/normalize"
	"github.com/tinysift/sift/internal/pipeline"
	"github.com/tinysift/sift/internal/session"
	"github.com/tinysift/sift/internal/store"
	"github.com/tinysift/sift/internal/threat"
)

// runAnalysis executes one batch run: read the input, run the pipeline,
// persist results, then optionally keep the HTTP API up until interrupted.
func runAnalysis(cfg appConfig) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	src, err := openSource(ctx, cfg.InputPath)
	if err != nil {
		return err
	}
	defer src.Stop()

	result, err := p.Run(ctx, src.Lines())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	// The store is opened only after a successful run so a failed analysis
	// leaves no half-written database behind.
	st, err := store.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer st.Close()

	if err := persist(st, result); err != nil {
		return err
	}
	printSummary(result, cfg.DBPath)

	if cfg.Serve {
		apiServer := httpserver.NewServer(cfg.APIAddr, st)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
		log.Printf("serving API on %s, press Ctrl+C to stop", cfg.APIAddr)
		<-ctx.Done()
	}

	return nil
}

func buildPipeline(cfg appConfig) (*pipeline.Pipeline, error) {
	tables := classify.DefaultTables()
	if cfg.ClassifyTablesPath != "" {
		var err error
		tables, err = classify.LoadTables(cfg.ClassifyTablesPath)
		if err != nil {
			return nil, fmt.Errorf("loading classification tables: %w", err)
		}
	}

	var prefilter *normalize.Prefilter
	if cfg.PrefilterEnabled {
		prefilter = normalize.NewPrefilter(cfg.PrefilterKeywords...)
	}

	miner := mine.New(mine.Options{
		Depth:       cfg.DrainDepth,
		Similarity:  cfg.DrainSimilarity,
		MaxChildren: cfg.DrainMaxChildren,
	})

	return pipeline.New(pipeline.Options{
		Miner:     miner,
		Prefilter: prefilter,
		Tables:    tables,
		Session: session.Options{
			DedupeWindow: cfg.SessionDedupe,
			StaleAfter:   cfg.SessionStaleAfter,
		},
		Threat: threat.Options{
			Window:    cfg.ThreatWindow,
			Threshold: cfg.ThreatThreshold,
		},
		AnchorFallbackYear: cfg.AnchorYear,
	})
}

func openSource(ctx context.Context, path string) (logsource.LogSource, error) {
	if path == "-" {
		return logsource.NewStdinSource(ctx), nil
	}
	return logsource.NewFileSource(ctx, path)
}

// persist writes one run's output. The tables are independent, so the
// four inserts go through an errgroup.
func persist(st *store.Store, result *pipeline.Result) error {
	var g errgroup.Group
	g.Go(func() error { return st.InsertRecordBatch(result.Records) })
	g.Go(func() error { return st.InsertClusters(result.Clusters) })
	g.Go(func() error { return st.InsertSessions(result.Sessions) })
	g.Go(func() error { return st.InsertThreats(result.Threats) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("persisting results: %w", err)
	}
	return nil
}

func printSummary(result *pipeline.Result, dbPath string) {
	s := result.Summary
	fmt.Printf("Processed %d lines in %s\n", s.TotalLines, s.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Records:   %d (%d empty, %d filtered)\n", s.Records, s.EmptyLines, s.FilteredLines)
	fmt.Printf("  Clusters:  %d\n", s.Clusters)
	fmt.Printf("  Sessions:  %d\n", s.Sessions)
	fmt.Printf("  Threats:   %d\n", s.Threats)
	if s.AnchorFromLogs {
		fmt.Printf("  Year:      %d (from logs)\n", s.AnchorYear)
	} else {
		fmt.Printf("  Year:      %d (assumed)\n", s.AnchorYear)
	}
	if s.Rollover {
		fmt.Println("  Rollover:  December to January boundary corrected")
	}

	if len(result.Threats) > 0 {
		fmt.Println("\nFlagged hosts:")
		for _, t := range result.Threats {
			fmt.Printf("  %-40s burst=%d total=%d first=%s\n",
				t.Host, t.MaxBurst, t.TotalFailures, t.TriggeredAt.Format(time.RFC3339))
		}
	}

	where := dbPath
	if where == "" {
		where = "in-memory (gone after exit)"
	}
	fmt.Printf("\nResults stored in %s\n", where)
}
