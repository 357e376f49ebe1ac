package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/receipts/internal/api"
	"github.com/jackzampolin/receipts/internal/payees"
)

var payeesCmd = &cobra.Command{
	Use:   "payees <file>",
	Short: "Show how a payee file is read",
	Long: `Payees loads a payee file and prints the detected columns and the records
that would be used by a run. Rows missing a name, a cost center or both
account and agency are counted as skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := payees.Load(args[0], newLogger())
		if err != nil {
			return err
		}
		return api.Output(res)
	},
}

func init() {
	rootCmd.AddCommand(payeesCmd)
}
