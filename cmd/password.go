package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vidishraj/akkountant/extractor"
)

var (
	passwordBank  string
	passwordValue string
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Store the password that opens a bank's statements",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := extractor.Lookup(passwordBank); err != nil {
			log.Fatalf("error: %v", err)
		}
		ctx := context.Background()
		svc := openService(ctx)
		defer svc.Store.Close()

		if err := svc.SetStatementPassword(ctx, user(), passwordBank, passwordValue); err != nil {
			log.Fatalf("error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(passwordCmd)
	passwordCmd.Flags().StringVarP(&passwordBank, "bank", "b", "", "statement format")
	passwordCmd.Flags().StringVarP(&passwordValue, "password", "p", "", "statement password")
	passwordCmd.MarkFlagRequired("bank")
	passwordCmd.MarkFlagRequired("password")
}
