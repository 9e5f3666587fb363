package cmd

import (
	"context"
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/config"
	"github.com/vidishraj/akkountant/ingest"
	"github.com/vidishraj/akkountant/integrations/gcs"
	"github.com/vidishraj/akkountant/integrations/gmail"
	"github.com/vidishraj/akkountant/rates"
)

var (
	cfgFile string
	verbose bool
	logJSON bool
	rootCmd = &cobra.Command{
		Use:   "akkountant",
		Short: "Personal finance ingestion and reconciliation",
		Long: `akkountant reads bank and card statements, alert mails, provident fund
passbooks and broker trade books, reconciles them into a local ledger and
computes interest accrual for PPF and EPF deposits.`,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.akkountant.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().StringP("user", "u", "", "user the records belong to")
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func initLogging() {
	log.SetOutput(os.Stderr)
	if logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		log.Fatalf("error: %v", err)
	}
}

// openService opens the configured store and wires the rate tables and,
// when a token is on disk, the mailbox.
func openService(ctx context.Context) *ingest.Service {
	store, err := ingest.OpenStore(ctx)
	if err != nil {
		log.Fatalf("error: database connection failed: %v", err)
	}
	svc := ingest.New(store, rates.StoreFromConfig())
	if dir := viper.GetString("storage.temp_dir"); dir != "" {
		svc.TempDir = dir
	}

	tokenFile := viper.GetString("gmail.token_file")
	if _, err := os.Stat(tokenFile); err == nil {
		tok, err := gmail.LoadToken(tokenFile)
		if err != nil {
			log.Warnf("mail disabled: %v", err)
		} else if client, err := gmail.NewWithToken(ctx, tok); err != nil {
			log.Warnf("mail disabled: %v", err)
		} else {
			svc.Mail = client
		}
	}
	return svc
}

// withObjects attaches a storage client when path is a gs:// URL. The
// returned func closes it.
func withObjects(ctx context.Context, svc *ingest.Service, path string) func() {
	if !gcs.IsURL(path) {
		return func() {}
	}
	client, err := gcs.New(ctx)
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	svc.Objects = client
	return func() { client.Close() }
}

func user() string {
	u := viper.GetString("user")
	if u == "" {
		log.Fatal("error: --user is required")
	}
	return u
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("error: failed to encode output: %v", err)
	}
}
