package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vidishraj/akkountant/extractor/common"
)

var (
	depositType        string
	depositDate        string
	depositDescription string
	depositAmount      string
	depositID          string
	depositAll         bool
)

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Manage PPF and EPF deposits",
}

var depositAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a deposit",
	Run: func(cmd *cobra.Command, args []string) {
		date, err := time.ParseInLocation(dateLayout, depositDate, time.Local)
		if err != nil {
			log.Fatalf("error: invalid --date: %v", err)
		}
		amount, err := decimal.NewFromString(depositAmount)
		if err != nil {
			log.Fatalf("error: invalid --amount: %v", err)
		}

		ctx := context.Background()
		svc := openService(ctx)
		defer svc.Store.Close()

		id, err := svc.InsertDeposit(ctx, user(), securityType(), date, depositDescription, amount)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(map[string]string{"buy_id": id})
	},
}

var depositDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one deposit by --id, or every deposit of --type with --all",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		svc := openService(ctx)
		defer svc.Store.Close()

		switch {
		case depositID != "":
			if err := svc.DeleteDeposit(ctx, user(), depositID); err != nil {
				log.Fatalf("error: %v", err)
			}
			printJSON(map[string]int64{"deleted": 1})
		case depositAll:
			n, err := svc.DeleteDeposits(ctx, user(), securityType())
			if err != nil {
				log.Fatalf("error: %v", err)
			}
			printJSON(map[string]int64{"deleted": n})
		default:
			log.Fatal("error: one of --id or --all is required")
		}
	},
}

func securityType() common.SecurityType {
	return common.SecurityType(strings.ToUpper(depositType))
}

func init() {
	rootCmd.AddCommand(depositCmd)
	depositCmd.AddCommand(depositAddCmd, depositDeleteCmd)
	depositCmd.PersistentFlags().StringVarP(&depositType, "type", "t", "PPF", "PPF or EPF")

	depositAddCmd.Flags().StringVar(&depositDate, "date", "", "deposit date, YYYY-MM-DD")
	depositAddCmd.Flags().StringVar(&depositDescription, "description", "", "free text")
	depositAddCmd.Flags().StringVar(&depositAmount, "amount", "", "amount deposited")
	depositAddCmd.MarkFlagRequired("date")
	depositAddCmd.MarkFlagRequired("amount")

	depositDeleteCmd.Flags().StringVar(&depositID, "id", "", "buy ID of the deposit")
	depositDeleteCmd.Flags().BoolVar(&depositAll, "all", false, "delete every deposit of --type")
}
