package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/api"
	"github.com/lacak-emas/lacak-emas-api/internal/config"
)

var (
	cfg      *config.Config
	logDebug bool
)

var rootCmd = &cobra.Command{
	Use:     "lacak-emas",
	Short:   "Galeri24 gold price tracker",
	Long:    "Scrapes gold prices from galeri24.co.id, tracks day-over-day changes and serves them over a REST API with RSS/Atom feeds.",
	Version: api.Version,

	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = zap.L().Sync() },
}

// setup loads the configuration shared by every subcommand and installs the
// global logger. --debug wins over the configured level.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	if logDebug {
		c.Debug = true
		c.Log.Level = "debug"
	}
	if err := config.InitLogger(c.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	cfg = c
	zap.L().Debug("config loaded", zap.String("command", cmd.Name()), zap.String("store", c.Store.Driver))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logDebug, "debug", false, "log at debug level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
