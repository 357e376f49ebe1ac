package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/receipts/internal/ledger"
	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/pdfout"
	"github.com/jackzampolin/receipts/internal/testutil"
	"github.com/jackzampolin/receipts/internal/types"
)

func TestPipeline_RealDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WritePDF(t, in, "D.pdf",
		"Comprovante de transferência\nDADOS DO PAGADOR\nConta: 999999 Agência: 0001\n"+
			"Conta creditada\nNome: Maria Souza\nConta corrente: 52938-2\nAgência: 1234\n",
		"Comprovante de transferência\nConta creditada\nNome: João Lima\nConta corrente: 77100-4\nAgência: 0987\n",
	)

	historyPath := filepath.Join(dir, "history.json")
	newPipeline := func() *Pipeline {
		h, err := ledger.OpenHistory(ctx, ledger.NewJSONStore(historyPath), nil)
		if err != nil {
			t.Fatalf("OpenHistory: %v", err)
		}
		return New(Config{
			Extractor: pagetext.NewExtractor(pagetext.MustAnalyzer(pagetext.DefaultOptions()), nil),
			Writer:    pdfout.NewWriter(nil),
			History:   h,
		})
	}

	docs, err := Discover([]string{in})
	if err != nil {
		t.Fatal(err)
	}
	payees := []types.PayeeRecord{{Account: "529382", Agency: "1234", Name: "Maria", CostCenter: "TI"}}

	s, err := newPipeline().Run(ctx, Request{Documents: docs, Payees: payees, OutputDir: out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.FilesWritten != 1 {
		t.Fatalf("expected 1 file, got %+v", s.Documents)
	}

	target := filepath.Join(out, "TI", "TI_Maria.pdf")
	n, err := pdfout.NewWriter(nil).PageCount(target)
	if err != nil {
		t.Fatalf("output not readable: %v", err)
	}
	if n != 1 {
		t.Errorf("output has %d pages, want 1", n)
	}
	if len(s.Orphans) != 1 || s.Orphans[0].Page != 1 {
		t.Errorf("expected page 2 reported as orphan, got %+v", s.Orphans)
	}

	// A fresh process with the persisted history writes nothing new.
	s, err = newPipeline().Run(ctx, Request{Documents: docs, Payees: payees, OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	if s.Skipped != 1 || s.FilesWritten != 0 {
		t.Errorf("second run should skip the document, got %+v", s)
	}
	entries, err := os.ReadDir(filepath.Join(out, "TI"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single output file, found %d", len(entries))
	}
}
