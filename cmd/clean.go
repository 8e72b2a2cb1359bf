package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finwell-group/nfcs-cli/internal/codebook"
	"github.com/finwell-group/nfcs-cli/internal/config"
	"github.com/finwell-group/nfcs-cli/internal/frame"
	"github.com/finwell-group/nfcs-cli/internal/recode"
)

// reloadProbeRows is how much of the written file is read back as a
// confidence check.
const reloadProbeRows = 5

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Recode the raw NFCS export into a labeled dataset",
	Long: `Reads the raw state-by-state export, normalizes column names,
replaces integer response codes with categorical labels from the
codebook, prunes empty columns, applies friendly column names, and
writes the cleaned dataset.

Missing survey columns are skipped silently; only a missing input file
or an unwritable output is fatal.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runClean(cfg)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cfg *config.Config) error {
	log := zap.L().With(zap.String("command", "clean"))

	reg, err := codebook.LoadFile(cfg.Codebook.Path)
	if err != nil {
		return eris.Wrap(err, "clean: load codebook")
	}

	f, err := frame.Load(cfg.Data.RawPath)
	if err != nil {
		return eris.Wrapf(err, "clean: load raw dataset %s", cfg.Data.RawPath)
	}
	log.Info("loaded raw dataset",
		zap.String("path", cfg.Data.RawPath),
		zap.Int("rows", f.NumRows()),
		zap.Int("columns", f.NumCols()),
	)

	report := recode.New(reg).Clean(f)

	if err := f.WriteCSV(cfg.Data.CleanedPath); err != nil {
		return eris.Wrapf(err, "clean: write cleaned dataset %s", cfg.Data.CleanedPath)
	}
	log.Info("wrote cleaned dataset",
		zap.String("path", cfg.Data.CleanedPath),
		zap.Int("rows", f.NumRows()),
		zap.Int("columns", f.NumCols()),
		zap.Strings("dropped_columns", report.DroppedColumns),
	)

	// Reload a small prefix to confirm the written file parses.
	probe, err := frame.ReadCSVHead(cfg.Data.CleanedPath, reloadProbeRows)
	if err != nil {
		return eris.Wrap(err, "clean: reload check")
	}
	cols := probe.Columns()
	if len(cols) > 20 {
		cols = cols[:20]
	}
	log.Info("reload check",
		zap.Int("rows", probe.NumRows()),
		zap.Strings("columns", cols),
	)

	return nil
}
