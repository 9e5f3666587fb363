package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tradeBookPath string

var tradeBookCmd = &cobra.Command{
	Use:   "tradebook",
	Short: "Apply a broker trade book (.xlsx) to stock positions",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc := openService(ctx)
		defer svc.Store.Close()

		res, err := svc.ImportTradeBook(ctx, user(), tradeBookPath)
		if err != nil {
			log.Fatalf("error: trade book rejected, nothing was applied: %v", err)
		}
		printJSON(res)
	},
}

func init() {
	rootCmd.AddCommand(tradeBookCmd)
	tradeBookCmd.Flags().StringVarP(&tradeBookPath, "file", "f", "", "trade book spreadsheet")
	tradeBookCmd.MarkFlagRequired("file")
}
