package cmd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var (
	mailBank string
	mailFrom string
	mailTo   string
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Import from the mailbox",
}

var mailAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Import transaction alert mails",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		from, to := mailRange()
		svc := openService(ctx)
		defer svc.Store.Close()

		res, err := svc.ReadEmailTransactions(ctx, user(), mailBank, from, to)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(res)
	},
}

var mailStatementsCmd = &cobra.Command{
	Use:   "statements",
	Short: "Import statements attached to statement mails",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		from, to := mailRange()
		svc := openService(ctx)
		defer svc.Store.Close()

		results, err := svc.ReadStatementsFromMail(ctx, user(), mailBank, from, to)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(results)
	},
}

// mailRange defaults to the month before today.
func mailRange() (time.Time, time.Time) {
	to := time.Now()
	if mailTo != "" {
		t, err := time.ParseInLocation(dateLayout, mailTo, time.Local)
		if err != nil {
			log.Fatalf("error: invalid --to: %v", err)
		}
		to = t
	}
	from := to.AddDate(0, -1, 0)
	if mailFrom != "" {
		t, err := time.ParseInLocation(dateLayout, mailFrom, time.Local)
		if err != nil {
			log.Fatalf("error: invalid --from: %v", err)
		}
		from = t
	}
	return from, to
}

func init() {
	rootCmd.AddCommand(mailCmd)
	mailCmd.AddCommand(mailAlertsCmd, mailStatementsCmd)
	mailCmd.PersistentFlags().StringVarP(&mailBank, "bank", "b", "", "bank whose mails to read")
	mailCmd.PersistentFlags().StringVar(&mailFrom, "from", "", "first day, YYYY-MM-DD")
	mailCmd.PersistentFlags().StringVar(&mailTo, "to", "", "day after the last, YYYY-MM-DD")
	mailCmd.MarkPersistentFlagRequired("bank")
}
