package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var accrualCmd = &cobra.Command{
	Use:   "accrual",
	Short: "Print the monthly interest schedule of PPF or EPF deposits",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc := openService(ctx)
		defer svc.Store.Close()

		summary, err := svc.AccrualSummary(ctx, user(), securityType())
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(summary)
	},
}

func init() {
	rootCmd.AddCommand(accrualCmd)
	accrualCmd.Flags().StringVarP(&depositType, "type", "t", "PPF", "PPF or EPF")
}
