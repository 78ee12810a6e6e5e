package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metagrid/internal/config"
	"metagrid/internal/logging"
)

var (
	configPath string
	debugLog   bool
	jsonLog    bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "metagrid",
		Short:         "Lay out TFT meta compositions as a spreadsheet grid",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&jsonLog, "log-json", false, "Log JSON lines instead of console output")

	root.AddCommand(buildCmd())
	root.AddCommand(catalogCmd())
	root.AddCommand(resolveCmd())
	root.AddCommand(tierCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() error {
	envPath, envLoaded := config.LoadDotEnv(".env", "../.env", "../../.env")

	var err error
	logger, err = logging.New(logging.Options{Debug: debugLog, JSON: jsonLog})
	if err != nil {
		return err
	}
	if envLoaded {
		logger.Debug("Loaded environment file", zap.String("path", envPath))
	}

	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	return nil
}
