// Package pdfout writes subsets of a receipt PDF to new files without ever
// overwriting an existing one.
package pdfout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoPages is returned when none of the requested pages exist in the source.
var ErrNoPages = errors.New("no pages to write")

// WriteResult describes a published file.
type WriteResult struct {
	Path  string
	Pages []int // 0-indexed source pages, ascending
}

// Writer copies pages of a source PDF into new files.
type Writer struct {
	conf   *model.Configuration
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter creates a Writer with relaxed PDF validation.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Writer{conf: conf, logger: logger, now: time.Now}
}

// PageCount returns the number of pages in the PDF at path.
func (w *Writer) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()
	return w.pageCount(f, path)
}

func (w *Writer) pageCount(rs io.ReadSeeker, path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to get page count for %s: %v", path, r)
		}
	}()
	n, err = api.PageCount(rs, w.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	return n, nil
}

// Write copies pages (0-indexed) of src into a new PDF at target. Pages
// outside the document are dropped; if none remain, ErrNoPages is returned
// and nothing is written. If target exists, a unique sibling name is used
// instead. The output appears under its final name only once complete.
func (w *Writer) Write(ctx context.Context, src string, pages []int, target string) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}

	f, err := os.Open(src)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to open PDF %s: %w", src, err)
	}
	defer f.Close()

	count, err := w.pageCount(f, src)
	if err != nil {
		return WriteResult{}, err
	}
	selected := filterPages(pages, count)
	if len(selected) == 0 {
		return WriteResult{}, ErrNoPages
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return WriteResult{}, fmt.Errorf("failed to rewind %s: %w", src, err)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".receipt-*.pdf.tmp")
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := w.collect(f, tmp, selected); err != nil {
		tmp.Close()
		return WriteResult{}, fmt.Errorf("failed to write pages of %s: %w", filepath.Base(src), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return WriteResult{}, fmt.Errorf("failed to sync output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("failed to close output: %w", err)
	}

	final, err := w.publish(tmpName, target)
	if err != nil {
		return WriteResult{}, err
	}

	w.logger.Debug("wrote receipt", "source", filepath.Base(src), "pages", len(selected), "path", final)
	return WriteResult{Path: final, Pages: selected}, nil
}

func (w *Writer) collect(rs io.ReadSeeker, out io.Writer, pages []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()
	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = strconv.Itoa(p + 1)
	}
	return api.Collect(rs, out, sel, w.conf)
}

// publish places tmp under target or, if taken, the first free collision
// name. os.Link refuses to replace an existing file, so a name claimed
// concurrently just moves us on to the next candidate.
func (w *Writer) publish(tmp, target string) (string, error) {
	candidates := w.candidates(target)
	for {
		candidate := candidates()
		err := os.Link(tmp, candidate)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, os.ErrExist) {
			continue
		}

		// Filesystems without hard links.
		free, statErr := isFree(candidate)
		if statErr != nil {
			return "", statErr
		}
		if !free {
			continue
		}
		if err := os.Rename(tmp, candidate); err != nil {
			return "", fmt.Errorf("failed to publish %s: %w", candidate, err)
		}
		return candidate, nil
	}
}

// candidates yields target, then <base>_<millis><ext>, then
// <base>_<millis>_<i><ext> for i = 1, 2, ...
func (w *Writer) candidates(target string) func() string {
	ext := filepath.Ext(target)
	base := strings.TrimSuffix(target, ext)
	stamp := ""
	n := -1
	return func() string {
		n++
		switch {
		case n == 0:
			return target
		case n == 1:
			stamp = strconv.FormatInt(w.now().UnixMilli(), 10)
			return base + "_" + stamp + ext
		default:
			return base + "_" + stamp + "_" + strconv.Itoa(n-1) + ext
		}
	}
}

// filterPages keeps pages in [0, count), sorted and unique.
func filterPages(pages []int, count int) []int {
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if p >= 0 && p < count {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	uniq := out[:0]
	for _, p := range out {
		if len(uniq) > 0 && uniq[len(uniq)-1] == p {
			continue
		}
		uniq = append(uniq, p)
	}
	return uniq
}
