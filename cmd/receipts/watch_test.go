package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/receipts/internal/config"
	"github.com/jackzampolin/receipts/internal/home"
	"github.com/jackzampolin/receipts/internal/testutil"
)

func receipt(name, account, agency string) string {
	return "Comprovante de transferência\nConta creditada\nNome: " + name +
		"\nConta corrente: " + account + "\nAgência: " + agency + "\n"
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s was not written", path)
}

func TestFolderWatch_Loop(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}

	payeeFile := filepath.Join(dir, "payees.csv")
	csv := "conta;agencia;nome;ccusto\n529382;1234;Maria;TI\n771004;0987;Joao;RH\n"
	if err := os.WriteFile(payeeFile, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("watch:\n  debounce: 10ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := home.New(filepath.Join(dir, "home"))
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		t.Fatal(err)
	}

	testutil.WritePDF(t, in, "A.pdf", receipt("Maria Souza", "52938-2", "1234"))

	w := &folderWatch{
		mgr:  mgr,
		home: h,
		params: runParams{
			inputs:    []string{in},
			payeeFile: payeeFile,
			outputDir: out,
		},
		logger: slog.New(slog.DiscardHandler),
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	done := make(chan error, 1)
	go func() { done <- w.loop(ctx, events, errs) }()

	// The initial run handles what is already in the folder.
	waitForFile(t, filepath.Join(out, "TI", "TI_Maria.pdf"))

	newDoc := testutil.WritePDF(t, in, "B.pdf", receipt("Joao Lima", "77100-4", "0987"))
	events <- fsnotify.Event{Name: filepath.Join(in, "notes.txt"), Op: fsnotify.Create}
	events <- fsnotify.Event{Name: newDoc, Op: fsnotify.Create}
	waitForFile(t, filepath.Join(out, "RH", "RH_Joao.pdf"))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("loop returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	// A.pdf was recorded by the first run and not extracted again.
	entries, err := os.ReadDir(filepath.Join(out, "TI"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one TI file, found %d", len(entries))
	}
}

func TestDebounceDelay(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	tests := []struct {
		name     string
		debounce string
		want     time.Duration
	}{
		{"configured", "10ms", 10 * time.Millisecond},
		{"empty disables", "", 0},
		{"unparsable falls back", "soon", config.DefaultDebounce},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Watch.Debounce = tt.debounce
			if got := debounceDelay(cfg, logger); got != tt.want {
				t.Errorf("debounceDelay = %v, want %v", got, tt.want)
			}
		})
	}
}
