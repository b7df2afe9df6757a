package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/api"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "scrape", "sync", "export", "migrate", "history"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lacak-emas", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, api.Version, rootCmd.Version)
}

func TestSetup_DebugFlagOverridesLevel(t *testing.T) {
	t.Setenv("LACAK_LOG_LEVEL", "warn")
	logDebug = true
	t.Cleanup(func() { logDebug = false })

	require.NoError(t, setup(serveCmd, nil))
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestSetup_LoadsConfig(t *testing.T) {
	t.Setenv("LACAK_LOG_LEVEL", "warn")
	t.Setenv("LACAK_DEBUG", "false")
	t.Setenv("DEBUG", "false")

	require.NoError(t, setup(scrapeCmd, nil))
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))
}

func TestRootCommand_DebugFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestScrapeCommand_Flags(t *testing.T) {
	for _, name := range []string{"vendor", "weight", "no-cache"} {
		assert.NotNil(t, scrapeCmd.Flags().Lookup(name), "scrape should have --%s flag", name)
	}
	assert.Equal(t, "false", scrapeCmd.Flags().Lookup("no-cache").DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "csv", flag.DefValue)
	assert.NotNil(t, exportCmd.Flags().Lookup("out"))
}

func TestHistoryCommand_Flags(t *testing.T) {
	flag := historyCmd.Flags().Lookup("days")
	require.NotNil(t, flag)
	assert.Equal(t, "7", flag.DefValue)
	assert.NotNil(t, historyCmd.Flags().Lookup("vendor"))
}
