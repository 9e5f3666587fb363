package cmd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	importPath     string
	importBank     string
	importPassword string
	importTimeout  int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import financial statements into the ledger",
	Long: `Imports PDF statements into the configured database. Accepts a single
file, a directory of PDFs, or a gs://bucket/prefix/ location. Rows already
in the ledger are counted as duplicates, so re-importing is safe.

Examples:
  akkountant import -u me -b Millenia_Credit -f statement.pdf
  akkountant import -u me -b HDFC_DEBIT -f ./statements/
  akkountant import -u me -b EPF_STATEMENT -f gs://my-bucket/passbooks/`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(importTimeout)*time.Second)
		defer cancel()

		svc := openService(ctx)
		defer svc.Store.Close()
		defer withObjects(ctx, svc, importPath)()

		results, err := svc.ImportPath(ctx, user(), importBank, importPath, importPassword)
		if err != nil {
			log.Fatalf("error: import failed: %v", err)
		}
		for _, r := range results {
			log.WithField("file", r.File).Infof("%s partial=%t", r.Result, r.Partial)
		}
		printJSON(results)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importPath, "file", "f", "", "file, directory or gs:// URL to import")
	importCmd.Flags().StringVarP(&importBank, "bank", "b", "", "statement format")
	importCmd.Flags().StringVarP(&importPassword, "password", "p", "", "statement password (defaults to the stored one)")
	importCmd.Flags().IntVar(&importTimeout, "timeout", 300, "timeout in seconds")
	importCmd.MarkFlagRequired("file")
	importCmd.MarkFlagRequired("bank")
}
