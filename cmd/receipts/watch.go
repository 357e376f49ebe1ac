package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/receipts/internal/api"
	"github.com/jackzampolin/receipts/internal/config"
	"github.com/jackzampolin/receipts/internal/home"
	"github.com/jackzampolin/receipts/internal/reconcile"
)

var watchFlags runParams

var watchCmd = &cobra.Command{
	Use:   "watch <folder>",
	Short: "Reconcile a folder whenever new receipts arrive",
	Long: `Watch runs once over the folder, then again each time PDF files are
created or modified in it. Bursts of changes are coalesced (watch.debounce).

Documents already in the history are skipped, so each run only extracts
the new receipts. The payee file is re-read on every run and configuration
file changes apply from the next run.

Examples:
  receipts watch ./entrada --payees funcionarios.csv
  receipts watch ./entrada --payees payees.yaml --out /srv/out`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		mgr.OnChange(func(cfg *config.Config) {
			logger.Info("configuration reloaded", "file", mgr.ConfigFile())
		})
		if mgr.ConfigFile() != "" {
			mgr.WatchConfig()
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(args[0]); err != nil {
			return fmt.Errorf("failed to watch %s: %w", args[0], err)
		}

		params := watchFlags
		params.inputs = args
		w := &folderWatch{mgr: mgr, home: h, params: params, logger: logger}
		return w.loop(ctx, watcher.Events, watcher.Errors)
	},
}

// folderWatch re-runs the reconciliation on PDF changes.
type folderWatch struct {
	mgr    *config.Manager
	home   *home.Dir
	params runParams
	logger *slog.Logger
}

func (w *folderWatch) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	w.runOnce(ctx)
	w.logger.Info("watching for receipts", "folder", w.params.inputs[0])

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !reconcile.IsPDF(ev.Name) || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)) {
				continue
			}
			w.logger.Debug("document changed", "path", ev.Name, "op", ev.Op.String())
			fire = time.After(debounceDelay(w.mgr.Get(), w.logger))
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			w.runOnce(ctx)
		}
	}
}

// debounceDelay reads watch.debounce, falling back to the default when it
// does not parse.
func debounceDelay(cfg *config.Config, logger *slog.Logger) time.Duration {
	d, err := cfg.DebounceDuration()
	if err != nil {
		logger.Warn("using default debounce", "default", config.DefaultDebounce, "error", err)
		return config.DefaultDebounce
	}
	return d
}

// runOnce reconciles the folder with the current configuration. Failures
// are logged so the watch keeps going.
func (w *folderWatch) runOnce(ctx context.Context) {
	summary, err := reconcileOnce(ctx, w.mgr.Get(), w.home, w.params, w.logger)
	if err != nil {
		w.logger.Error("reconciliation failed", "error", err)
		return
	}
	if summary.Processed == 0 && summary.Failed == 0 {
		w.logger.Info("no new documents")
		return
	}
	if err := api.Output(summary); err != nil {
		w.logger.Error("failed to print summary", "error", err)
	}
}

func init() {
	watchCmd.Flags().StringVarP(&watchFlags.payeeFile, "payees", "p", "", "payee file (.csv, .json or .yaml)")
	watchCmd.Flags().StringVar(&watchFlags.outputDir, "out", "", "output directory (default: output_dir from config)")
	watchCmd.Flags().StringVar(&watchFlags.reportDir, "reports", "", "report directory (default: <home>/reports)")
	watchCmd.Flags().StringVar(&watchFlags.backend, "history-backend", "", "history backend: json or sqlite (default: from config)")
	watchCmd.Flags().StringVar(&watchFlags.historyLoc, "history", "", "history file (default: from config or home directory)")
	_ = watchCmd.MarkFlagRequired("payees")

	rootCmd.AddCommand(watchCmd)
}
