package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finwell-group/nfcs-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nfcs-cli",
	Short: "NFCS survey cleaning and reporting pipeline",
	Long:  "Recodes the FINRA 2012 National Financial Capability Study export into labeled categories, derives a 0-5 financial literacy score, and reports it across demographic and geographic groups.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
