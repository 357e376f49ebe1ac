package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/receipts/internal/config"
	"github.com/jackzampolin/receipts/internal/home"
	"github.com/jackzampolin/receipts/internal/ledger"
	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/payees"
	"github.com/jackzampolin/receipts/internal/pdfout"
	"github.com/jackzampolin/receipts/internal/reconcile"
)

// runParams are the per-invocation inputs of a reconciliation.
type runParams struct {
	inputs     []string
	payeeFile  string
	outputDir  string
	reportDir  string
	force      bool
	backend    string
	historyLoc string
}

// openHistory opens the configured history store. The caller closes it.
func openHistory(ctx context.Context, cfg *config.Config, h *home.Dir, backend, path string, logger *slog.Logger) (*ledger.History, error) {
	if backend == "" {
		backend = cfg.History.Backend
	}
	if path == "" {
		path = cfg.History.Path
	}
	if path == "" {
		if err := h.EnsureExists(); err != nil {
			return nil, err
		}
		path = h.HistoryPath(backend)
	}

	var store ledger.Store
	switch backend {
	case config.BackendSQLite:
		s, err := ledger.OpenSQLiteStore(ctx, path)
		if err != nil {
			return nil, err
		}
		store = s
	case config.BackendJSON:
		store = ledger.NewJSONStore(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}

	hist, err := ledger.OpenHistory(ctx, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Debug("history loaded", "backend", backend, "path", path, "documents", hist.Len())
	return hist, nil
}

// reconcileOnce loads the payees, discovers the documents and runs one
// reconciliation with the given configuration.
func reconcileOnce(ctx context.Context, cfg *config.Config, h *home.Dir, p runParams, logger *slog.Logger) (*reconcile.Summary, error) {
	loaded, err := payees.Load(p.payeeFile, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("payees loaded",
		"file", p.payeeFile,
		"records", len(loaded.Records),
		"skipped", loaded.Skipped,
	)

	docs, err := reconcile.Discover(p.inputs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		logger.Warn("no PDF documents found", "inputs", p.inputs)
	}

	analyzer, err := pagetext.NewAnalyzer(cfg.AnalyzerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build page analyzer: %w", err)
	}

	hist, err := openHistory(ctx, cfg, h, p.backend, p.historyLoc, logger)
	if err != nil {
		return nil, err
	}
	defer hist.Close()

	outputDir := p.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	reportDir := p.reportDir
	if reportDir == "" {
		reportDir = h.ReportsDir()
	}

	pipeline := reconcile.New(reconcile.Config{
		Extractor: pagetext.NewExtractor(analyzer, logger),
		Writer:    pdfout.NewWriter(logger),
		History:   hist,
		Options: reconcile.Options{
			Matcher:       cfg.MatcherOptions(),
			Orphans:       cfg.OrphanOptions(),
			MaxNameLength: cfg.Output.MaxNameLength,
			ReportDir:     reportDir,
		},
		Logger: logger,
	})

	return pipeline.Run(ctx, reconcile.Request{
		Documents: docs,
		Payees:    loaded.Records,
		OutputDir: outputDir,
		Force:     p.force,
	})
}
