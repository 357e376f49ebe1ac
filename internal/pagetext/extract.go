package pagetext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ledongthuc/pdf"
)

// Extractor reads PDF documents and builds their page indexes.
type Extractor struct {
	analyzer *Analyzer
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger uses slog.Default().
func NewExtractor(analyzer *Analyzer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{analyzer: analyzer, logger: logger}
}

// Extract opens the PDF at path and indexes every page.
// A document that cannot be opened or parsed is an error; a single page whose
// text cannot be extracted yields an empty page instead.
func (e *Extractor) Extract(ctx context.Context, path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}
	return e.ExtractReader(ctx, f, info.Size())
}

// ExtractReader indexes the PDF read from r.
func (e *Extractor) ExtractReader(ctx context.Context, r io.ReaderAt, size int64) ([]Page, error) {
	texts, err := e.pageTexts(ctx, r, size)
	if err != nil {
		return nil, err
	}
	return e.analyzer.Pages(texts), nil
}

func (e *Extractor) pageTexts(ctx context.Context, r io.ReaderAt, size int64) (texts []string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			texts = nil
			err = fmt.Errorf("failed to parse PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	n := reader.NumPage()
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		texts[i-1] = e.pageText(reader, i)
	}
	return texts, nil
}

// pageText returns the plain text of page i (1-indexed), "" on failure.
func (e *Extractor) pageText(reader *pdf.Reader, i int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Debug("page text extraction panicked", "page", i, "error", rec)
			text = ""
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.logger.Debug("page text extraction failed", "page", i, "error", err)
		return ""
	}
	return text
}
