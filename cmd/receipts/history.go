package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/receipts/internal/api"
)

var (
	historyBackend string
	historyPath    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset the processed-document history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		hist, err := openHistory(cmd.Context(), mgr.Get(), h, historyBackend, historyPath, newLogger())
		if err != nil {
			return err
		}
		defer hist.Close()
		return api.Output(hist.Records())
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every processed document",
	Long: `Clear removes the history so the next run processes every document again.
Output files already written are left in place; a reprocessed receipt is
written next to them with a numeric suffix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		hist, err := openHistory(cmd.Context(), mgr.Get(), h, historyBackend, historyPath, newLogger())
		if err != nil {
			return err
		}
		defer hist.Close()

		n := hist.Len()
		if err := hist.ClearAll(cmd.Context()); err != nil {
			return err
		}
		return api.Output(map[string]any{
			"cleared": n,
			"message": fmt.Sprintf("history cleared (%d documents)", n),
		})
	},
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyBackend, "history-backend", "", "history backend: json or sqlite (default: from config)")
	historyCmd.PersistentFlags().StringVar(&historyPath, "history", "", "history file (default: from config or home directory)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
