package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackzampolin/receipts/internal/orphans"
	"github.com/jackzampolin/receipts/internal/types"
)

// WriteNotFoundReport lists payees for which no receipt page was found.
func WriteNotFoundReport(w io.Writer, at time.Time, missing []types.PayeeRecord, total int) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 80)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "PAYEES WITHOUT A RECEIPT")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Generated: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(bw, "Not found: %d\n", len(missing))
	fmt.Fprintf(bw, "Payees: %d\n", total)
	fmt.Fprintf(bw, "Found: %d\n", total-len(missing))
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	for i, rec := range missing {
		fmt.Fprintf(bw, "%d. Account: %s\n", i+1, rec.Account)
		if rec.Agency != "" {
			fmt.Fprintf(bw, "   Agency: %s\n", rec.Agency)
		}
		fmt.Fprintf(bw, "   Name: %s\n", rec.Name)
		fmt.Fprintf(bw, "   Cost center: %s\n", rec.CostCenter)
		fmt.Fprintln(bw, strings.Repeat("-", 80))
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "These payees were not found in any document processed in this run.")
	fmt.Fprintln(bw, "Check the payee data or whether the receipts are in the input folder.")
	return bw.Flush()
}

// WriteNotFoundReportFile writes dir/nao_encontrados_<timestamp>.txt.
func WriteNotFoundReportFile(dir string, at time.Time, missing []types.PayeeRecord, total int) (string, error) {
	path := filepath.Join(dir, "nao_encontrados_"+at.Format(orphans.ReportTimeLayout)+".txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create not-found report: %w", err)
	}
	if err := WriteNotFoundReport(f, at, missing, total); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write not-found report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close not-found report: %w", err)
	}
	return path, nil
}
