// Package reconcile runs the reconciliation of receipt PDFs against a payee
// list: each payee's receipt pages are located and written to their own file,
// and receipts nobody claimed are reported.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/receipts/internal/ledger"
	"github.com/jackzampolin/receipts/internal/matcher"
	"github.com/jackzampolin/receipts/internal/orphans"
	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/pdfout"
	"github.com/jackzampolin/receipts/internal/types"
)

// ErrOutputDir is returned when the output directory cannot be created.
// Nothing is processed in that case.
var ErrOutputDir = errors.New("cannot create output directory")

// Extractor indexes the pages of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]pagetext.Page, error)
}

// PageWriter writes a page subset of a document to a new file.
type PageWriter interface {
	Write(ctx context.Context, src string, pages []int, target string) (pdfout.WriteResult, error)
}

// Options tunes a Pipeline.
type Options struct {
	Matcher       matcher.Options
	Orphans       orphans.Options
	MaxNameLength int
	// ReportDir receives the orphan and not-found reports. Defaults to the
	// request's output directory.
	ReportDir string
}

// Config holds the Pipeline's collaborators.
type Config struct {
	Extractor Extractor
	Writer    PageWriter
	History   *ledger.History
	Options   Options
	Logger    *slog.Logger
}

// Pipeline processes documents one at a time in name order.
type Pipeline struct {
	extractor Extractor
	writer    PageWriter
	history   *ledger.History
	matcher   *matcher.Matcher
	scanner   *orphans.Scanner
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: cfg.Extractor,
		writer:    cfg.Writer,
		history:   cfg.History,
		matcher:   matcher.New(cfg.Options.Matcher),
		scanner:   orphans.NewScanner(cfg.Options.Orphans, logger),
		opts:      cfg.Options,
		logger:    logger,
		now:       time.Now,
	}
}

// Request is the input of one run.
type Request struct {
	Documents []string
	Payees    []types.PayeeRecord
	OutputDir string
	// Force reprocesses documents the history already knows.
	Force bool
}

// run is the state owned by a single Run call.
type run struct {
	req     Request
	payees  []types.PayeeRecord
	claims  *ledger.PageClaims
	found   []bool
	indexed []orphans.Document
	summary *Summary
}

// Run processes every document of req. Only a failure to create the output
// directory is returned as an error; per-document problems are reported in
// the summary. Cancellation is honored between documents.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOutputDir, req.OutputDir, err)
	}

	r := &run{
		req:    req,
		claims: ledger.NewPageClaims(),
		summary: &Summary{
			RunID:     uuid.New().String(),
			StartedAt: p.now(),
		},
	}
	for _, rec := range req.Payees {
		if rec.Valid() {
			r.payees = append(r.payees, rec)
		}
	}
	r.found = make([]bool, len(r.payees))
	r.summary.Payees = len(r.payees)

	docs := append([]string(nil), req.Documents...)
	sortDocuments(docs)

	p.logger.Info("starting run",
		"run_id", r.summary.RunID,
		"documents", len(docs),
		"payees", len(r.payees),
		"force", req.Force,
	)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			r.summary.Canceled = true
			p.logger.Warn("run canceled", "remaining", len(docs)-len(r.summary.Documents))
			break
		}
		// A started document runs to completion so the history stays
		// consistent with what was written.
		res := p.processDocument(context.WithoutCancel(ctx), r, doc)
		r.summary.add(res)
	}

	p.finish(r)
	r.summary.FinishedAt = p.now()

	p.logger.Info("run complete",
		"run_id", r.summary.RunID,
		"processed", r.summary.Processed,
		"skipped", r.summary.Skipped,
		"failed", r.summary.Failed,
		"files", r.summary.FilesWritten,
		"orphans", len(r.summary.Orphans),
		"not_found", len(r.summary.NotFound),
	)
	return r.summary, nil
}

func (p *Pipeline) processDocument(ctx context.Context, r *run, path string) DocumentResult {
	name := filepath.Base(path)
	res := DocumentResult{Document: name}
	logger := p.logger.With("document", name)

	fp, err := ledger.Fingerprint(path)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		logger.Error("failed to fingerprint document", "error", err)
		return res
	}
	res.Fingerprint = fp

	if !r.req.Force && p.history != nil && p.history.IsProcessed(fp) {
		res.Status = StatusSkipped
		res.Reason = "already processed"
		logger.Info("skipping processed document")
		return res
	}

	pages, err := p.extractor.Extract(ctx, path)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		logger.Error("failed to extract document", "error", err)
		return res
	}
	res.Pages = len(pages)
	r.indexed = append(r.indexed, orphans.Document{ID: fp, Name: name, Pages: pages})
	logger.Info("extracted document", "pages", len(pages))

	for i, payee := range r.payees {
		p.extractPayee(ctx, r, path, fp, i, payee, pages, &res, logger)
	}

	res.Status = StatusProcessed
	res.PagesExtracted = r.claims.Count(fp)

	if p.history != nil {
		entry := ledger.Entry{
			DisplayName:    name,
			Timestamp:      p.now(),
			PagesExtracted: res.PagesExtracted,
			PagesUnmatched: res.Pages - res.PagesExtracted,
			FilesWritten:   len(res.Files),
		}
		if err := p.history.MarkProcessed(ctx, fp, entry); err != nil {
			res.Error = err.Error()
			logger.Error("failed to record document in history", "error", err)
		}
	}

	logger.Info("document complete",
		"files", len(res.Files),
		"pages_extracted", res.PagesExtracted,
		"unmatched_records", res.Unmatched,
		"duplicates", res.Duplicates,
	)
	return res
}

func (p *Pipeline) extractPayee(ctx context.Context, r *run, path, fp string, i int, payee types.PayeeRecord, pages []pagetext.Page, res *DocumentResult, logger *slog.Logger) {
	m := p.matcher.Match(payee.Account, payee.Agency, pages)
	if !m.Matched() {
		res.Unmatched++
		return
	}
	if len(m.Pages) > 1 {
		res.MultiPage++
		logger.Warn("payee matched several pages", "payee", payee.Name, "pages", displayPages(m.Pages))
	}
	if m.UsedSwappedFields {
		logger.Warn("account and agency appear swapped in payee file", "payee", payee.Name, "row", payee.Row)
	}

	fresh := r.claims.Unclaimed(fp, m.Pages)
	if len(fresh) == 0 {
		res.Duplicates++
		logger.Debug("pages already extracted", "payee", payee.Name, "pages", displayPages(m.Pages))
		return
	}

	target, err := pdfout.NextFreePath(pdfout.TargetPath(r.req.OutputDir, payee.CostCenter, payee.Name, p.opts.MaxNameLength))
	if err != nil {
		res.WriteErrors++
		logger.Error("failed to choose output path", "payee", payee.Name, "error", err)
		return
	}

	written, err := p.writer.Write(ctx, path, fresh, target)
	if err != nil {
		res.WriteErrors++
		logger.Error("failed to write receipt", "payee", payee.Name, "path", target, "error", err)
		return
	}

	for _, pg := range written.Pages {
		r.claims.Claim(fp, pg)
	}
	r.found[i] = true
	res.Files = append(res.Files, Extraction{
		Payee:   payee.Name,
		Row:     payee.Row,
		Pages:   displayPages(written.Pages),
		Tier:    m.Tier,
		Swapped: m.UsedSwappedFields,
		Path:    written.Path,
	})
	logger.Info("extracted receipt",
		"payee", payee.Name,
		"pages", displayPages(written.Pages),
		"tier", m.Tier,
		"path", written.Path,
	)
}

// finish scans for orphan pages and writes the run's reports.
func (p *Pipeline) finish(r *run) {
	s := r.summary
	reportDir := p.opts.ReportDir
	if reportDir == "" {
		reportDir = r.req.OutputDir
	} else if err := os.MkdirAll(reportDir, 0o755); err != nil {
		p.logger.Error("failed to create report directory", "dir", reportDir, "error", err)
	}
	at := p.now()

	known := orphans.NewKnownAccounts(r.req.Payees)
	s.Orphans = p.scanner.Scan(r.indexed, r.claims, known)
	if len(s.Orphans) > 0 {
		path, err := orphans.WriteReportFile(reportDir, s.RunID, at, len(r.indexed), s.Orphans)
		if err != nil {
			p.logger.Error("failed to write orphan report", "error", err)
		} else {
			s.OrphanReport = path
			p.logger.Warn("receipts without a matching payee", "count", len(s.Orphans), "report", path)
		}
	}

	if s.Processed == 0 {
		return
	}
	for i, rec := range r.payees {
		if !r.found[i] {
			s.NotFound = append(s.NotFound, rec)
		}
	}
	if len(s.NotFound) > 0 {
		path, err := WriteNotFoundReportFile(reportDir, at, s.NotFound, len(r.payees))
		if err != nil {
			p.logger.Error("failed to write not-found report", "error", err)
		} else {
			s.NotFoundReport = path
			p.logger.Warn("payees without a receipt", "count", len(s.NotFound), "report", path)
		}
	}
}

func displayPages(pages []int) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p + 1
	}
	return out
}
