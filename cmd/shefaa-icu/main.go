package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shefaa-icu/internal/config"
	"github.com/shefaa-icu/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	rootCmd := &cobra.Command{
		Use:          "shefaa-icu",
		Short:        "Shefaa ICU staff and patient management API",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd(cfg))
	rootCmd.AddCommand(bootstrapCmd(cfg))
	rootCmd.AddCommand(createAdminCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
