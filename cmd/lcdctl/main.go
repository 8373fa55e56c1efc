package main

import (
	"fmt"
	"os"

	"lcddoc/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	dbPath     string
	sim        bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "lcdctl",
		Short: "Drive an HD44780 character display and index its documentation",
		Long: `lcdctl talks to a 2-line HD44780 display over GPIO and keeps a searchable
index of the driver documentation.

Display commands use the pins of lcdctl.yaml; --sim runs them against an
emulated controller and prints what the display would show.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "lcdctl.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&a.dbPath, "db", "d", "", "Path to the symbol database (SQLite), overrides index.db")
	rootCmd.PersistentFlags().BoolVar(&a.sim, "sim", false, "Use an emulated display instead of GPIO")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		a.printCmd(),
		a.clearCmd(),
		a.hexCmd(),
		a.binCmd(),
		a.clockCmd(),
		a.indexCmd(),
		a.lookupCmd(),
		a.checkCmd(),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	zcfg := zap.NewProductionConfig()
	if a.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.Index.DB = a.dbPath
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded",
		zap.String("file", a.configPath),
		zap.String("mode", cfg.Display.Mode),
		zap.String("db", cfg.Index.DB),
		zap.Bool("sim", a.sim))
	return nil
}
