package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/api"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Starts the HTTP API server that accepts statements, trade books and deposit requests and answers with JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService(context.Background())
		defer svc.Store.Close()

		cfg := api.DefaultConfig()
		if p := viper.GetString("server.port"); p != "" {
			cfg.Port = p
		}
		if servePort != "" {
			cfg.Port = ":" + servePort
		}

		server := api.New(cfg, svc)
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to run the API server on")
}
