package orphans

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportTimeLayout is the timestamp used in report file names.
const ReportTimeLayout = "20060102_150405"

var suggestions = []string{
	"Check whether the payee is missing from the payee file.",
	"Check the payee file for typos in the account or agency number.",
	"Check whether account and agency were entered in each other's columns.",
	"Confirm the receipt belongs to this payment batch.",
}

// WriteReport writes a plain-text orphan report. scanned is the number of
// documents read in the run; documents skipped as already processed are not
// scanned and the header says so.
func WriteReport(w io.Writer, runID string, at time.Time, scanned int, orphans []Orphan) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 80)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "RECEIPTS WITHOUT A MATCHING PAYEE")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Run: %s\n", runID)
	fmt.Fprintf(bw, "Generated: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(bw, "Pages: %d\n", len(orphans))
	fmt.Fprintf(bw, "Scope: %d document(s) read in this run; documents skipped as already processed were not scanned\n", scanned)
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	for i, o := range orphans {
		fmt.Fprintf(bw, "%d. %s, page %d\n", i+1, o.Document, o.Page+1)
		fmt.Fprintf(bw, "   Account: %s\n", o.Account)
		fmt.Fprintf(bw, "   Agency:  %s\n", o.Agency)
		fmt.Fprintf(bw, "   Excerpt: %s\n", o.Excerpt)
		fmt.Fprintln(bw, strings.Repeat("-", 80))
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Suggestions:")
	for _, s := range suggestions {
		fmt.Fprintf(bw, "  - %s\n", s)
	}
	return bw.Flush()
}

// WriteReportFile writes the report to dir/orphans_<timestamp>.txt and
// returns its path.
func WriteReportFile(dir, runID string, at time.Time, scanned int, orphans []Orphan) (string, error) {
	path := filepath.Join(dir, "orphans_"+at.Format(ReportTimeLayout)+".txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create orphan report: %w", err)
	}
	if err := WriteReport(f, runID, at, scanned, orphans); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write orphan report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close orphan report: %w", err)
	}
	return path, nil
}
