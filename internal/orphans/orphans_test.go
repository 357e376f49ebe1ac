package orphans

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/receipts/internal/ledger"
	"github.com/jackzampolin/receipts/internal/pagetext"
	"github.com/jackzampolin/receipts/internal/types"
)

func page(n int, text string) pagetext.Page {
	return pagetext.MustAnalyzer(pagetext.DefaultOptions()).Page(n, text)
}

func TestKnownAccounts(t *testing.T) {
	k := NewKnownAccounts([]types.PayeeRecord{
		{Account: "52938-2", Agency: "1234", Name: "Maria", CostCenter: "TI"},
		{Account: "", Agency: "999", Name: "Sem conta", CostCenter: "TI"},
	})

	tests := []struct {
		name            string
		account, agency string
		want            bool
	}{
		{"exact pair", "529382", "1234", true},
		{"bare account", "529382", "5555", true},
		{"leading zeros", "0529382", "1234", true},
		{"unknown", "777777", "1234", false},
		{"agency alone is not enough", "999", "1234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Known(tt.account, tt.agency); got != tt.want {
				t.Errorf("Known(%q, %q) = %v, want %v", tt.account, tt.agency, got, tt.want)
			}
		})
	}
	if k.Len() != 1 {
		t.Errorf("Len = %d, want 1", k.Len())
	}
}

func TestKnownAccounts_Swapped(t *testing.T) {
	k := NewKnownAccounts([]types.PayeeRecord{{Account: "1234", Agency: "529382", Name: "Maria", CostCenter: "TI"}})
	if !k.Known("529382", "1234") {
		t.Error("swapped pair should be known")
	}
}

func TestScanner_Scan(t *testing.T) {
	docs := []Document{{
		ID:   "lote.pdf_1_1",
		Name: "lote.pdf",
		Pages: []pagetext.Page{
			page(0, "Conta creditada\nNome: Maria Souza\nConta corrente: 52938-2\nAgência: 1234\n"),
			page(1, "Conta creditada\nNome: Pedro Alves\nConta corrente: 77100-4\nAgência: 0987\n"),
			page(2, "Conta creditada\nNome: Outro\nConta corrente: 88888-1\nAgência: 0001\n"),
			page(3, "Conta creditada\nNome: Curto\nConta: 123\nAgência: 0987\n"),
			page(4, "Pagina sem cabecalho Conta corrente: 66666-1 Agência: 0987"),
		},
	}}
	known := NewKnownAccounts([]types.PayeeRecord{{Account: "529382", Agency: "1234", Name: "Maria", CostCenter: "TI"}})

	claims := ledger.NewPageClaims()
	claims.Claim("lote.pdf_1_1", 2)

	got := NewScanner(Options{}, nil).Scan(docs, claims, known)
	if len(got) != 1 {
		t.Fatalf("expected 1 orphan, got %+v", got)
	}
	o := got[0]
	if o.Document != "lote.pdf" || o.Page != 1 || o.Account != "771004" || o.Agency != "0987" {
		t.Errorf("unexpected orphan %+v", o)
	}
	if !strings.Contains(o.Excerpt, "77100-4") {
		t.Errorf("excerpt should show the account, got %q", o.Excerpt)
	}
	if claims.Len() != 1 {
		t.Error("scan must not claim pages")
	}
}

func TestWriteReport(t *testing.T) {
	at := time.Date(2024, 5, 2, 14, 3, 9, 0, time.UTC)
	orphans := []Orphan{{Document: "lote.pdf", Page: 1, Account: "771004", Agency: "0987", Excerpt: "Conta corrente: 77100-4"}}

	var buf bytes.Buffer
	if err := WriteReport(&buf, "run-1", at, 3, orphans); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"run-1",
		"Scope: 3 document(s) read in this run; documents skipped as already processed were not scanned",
		"lote.pdf, page 2",
		"Account: 771004",
		"Agency:  0987",
		"Suggestions:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	dir := t.TempDir()
	path, err := WriteReportFile(dir, "run-1", at, 3, orphans)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "orphans_20240502_140309.txt" {
		t.Errorf("unexpected report name %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Error("file report differs from written report")
	}
}
