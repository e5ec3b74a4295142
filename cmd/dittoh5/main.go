package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/config"
	"github.com/marmos91/dittoh5/pkg/h5"
	"github.com/spf13/cobra"
)

var opts struct {
	configPath string
	logLevel   string
}

// loaded holds the configuration resolved by the root pre-run hook.
var (
	loaded    *config.Config
	logOutput io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "dittoh5",
	Short: "Create and inspect hierarchical groups in dittoh5 containers",
	Long: `dittoh5 drives the group layer against the connector selected in the
configuration file (memory or badger).

Examples:

	dittoh5 init
	dittoh5 mkgroup data.h5 /experiments/run1 --parents
	dittoh5 info data.h5 /experiments
	dittoh5 info data.h5 /experiments --by-idx 0 --index corder --order dec
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" {
			return nil
		}

		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		if opts.logLevel != "" {
			cfg.Logging.Level = opts.logLevel
		}

		logger.SetLevel(cfg.Logging.Level)
		logger.SetFormat(cfg.Logging.Format)
		closer, err := logger.OpenOutput(cfg.Logging.Output)
		if err != nil {
			return fmt.Errorf("failed to open log output: %w", err)
		}
		logOutput = closer
		loaded = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOutput != nil {
			_ = logOutput.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/dittoh5/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(initCmd, mkgroupCmd, infoCmd)
}

// withLibrary runs fn against a library built from the loaded
// configuration and shuts it down afterwards within the configured timeout.
func withLibrary(ctx context.Context, fn func(lib *h5.Library) error) (err error) {
	lib, err := config.CreateLibrary(ctx, loaded)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), loaded.Library.ShutdownTimeout)
		defer cancel()
		if serr := lib.Shutdown(shutdownCtx); serr != nil && err == nil {
			err = fmt.Errorf("shutdown: %w", serr)
		}
	}()

	return fn(lib)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
