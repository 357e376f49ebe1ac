package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/receipts/internal/api"
)

var runFlags runParams

var runCmd = &cobra.Command{
	Use:   "run <pdf-or-folder>...",
	Short: "Extract each payee's receipt pages into their own PDF",
	Long: `Run reconciles the given PDF files (folders are scanned for *.pdf) against
a payee file and writes one PDF per payee and document, grouped by cost center.

Documents recorded in the history are skipped unless --force is given.
The run summary is printed in the selected output format.

Examples:
  receipts run ./comprovantes --payees funcionarios.csv
  receipts run lote1.pdf lote2.pdf --payees payees.json --out /srv/out
  receipts run ./comprovantes --payees payees.csv --force -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}

		params := runFlags
		params.inputs = args
		summary, err := reconcileOnce(ctx, mgr.Get(), h, params, logger)
		if err != nil {
			return err
		}
		if err := api.Output(summary); err != nil {
			return err
		}
		if summary.Canceled {
			return fmt.Errorf("run canceled after %d document(s)", len(summary.Documents))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.payeeFile, "payees", "p", "", "payee file (.csv, .json or .yaml)")
	runCmd.Flags().StringVar(&runFlags.outputDir, "out", "", "output directory (default: output_dir from config)")
	runCmd.Flags().StringVar(&runFlags.reportDir, "reports", "", "report directory (default: <home>/reports)")
	runCmd.Flags().BoolVar(&runFlags.force, "force", false, "reprocess documents already in the history")
	runCmd.Flags().StringVar(&runFlags.backend, "history-backend", "", "history backend: json or sqlite (default: from config)")
	runCmd.Flags().StringVar(&runFlags.historyLoc, "history", "", "history file (default: from config or home directory)")
	_ = runCmd.MarkFlagRequired("payees")

	rootCmd.AddCommand(runCmd)
}
