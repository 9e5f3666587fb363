package cmd

import (
	"encoding/json"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/rates"
)

var (
	ratesType string
	ratesFile string
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage interest rate tables",
}

var ratesLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Expand a published rate listing into a monthly rate file",
	Long: `Reads a JSON array of {"period": ..., "rate": ...} rows as published
for the instrument, expands each period to months and saves a new rate file,
replacing the previous one.`,
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(ratesFile)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		var rows []rates.Period
		if err := json.Unmarshal(data, &rows); err != nil {
			log.Fatalf("error: invalid listing %s: %v", ratesFile, err)
		}

		entries, errs := rates.Expand(rows)
		for _, e := range errs {
			log.Warnf("skipped row: %v", e)
		}
		if len(entries) == 0 {
			log.Fatal("error: listing produced no monthly rates")
		}
		path, err := rates.StoreFromConfig().Save(common.SecurityType(strings.ToUpper(ratesType)), entries)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(map[string]any{"file": path, "months": len(entries)})
	},
}

var ratesShowCmd = &cobra.Command{
	Use:   "show <YYYY-MM>",
	Short: "Print the rate in effect for a month",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rate, err := rates.StoreFromConfig().RateForMonth(args[0], common.SecurityType(strings.ToUpper(ratesType)))
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(map[string]string{"month": args[0], "rate": rate.String()})
	},
}

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.AddCommand(ratesLoadCmd, ratesShowCmd)
	ratesCmd.PersistentFlags().StringVarP(&ratesType, "type", "t", "PPF", "PPF or EPF")
	ratesLoadCmd.Flags().StringVarP(&ratesFile, "file", "f", "", "JSON rate listing")
	ratesLoadCmd.MarkFlagRequired("file")
}
