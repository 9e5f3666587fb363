package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vidishraj/akkountant/extractor"
)

var (
	extractBank     string
	extractPassword string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file-or-folder>",
	Short: "Extracts statement(s) without storing them",
	Long: `Extracts a given statement, or every PDF in a folder, with the layout
of the given bank and prints the rows as JSON.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		results, err := extractor.ExtractPath(args[0], extractBank, extractPassword)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		printJSON(results)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractBank, "bank", "b", "", "statement format, one of the configured banks")
	extractCmd.Flags().StringVarP(&extractPassword, "password", "p", "", "statement password")
	extractCmd.MarkFlagRequired("bank")
}
