// Sahayak is a multilingual legal-aid assistant. It answers spoken or typed
// questions about Indian law from an indexed legal corpus, or chats freely,
// in the user's own language.
//
// Usage:
//
//	sahayak serve [--config configs/sahayak.yaml]
//	sahayak ingest path/to/document.pdf
//	sahayak version
//
// @title       Sahayak API
// @version     2.0.0
// @description Multilingual legal-aid assistant: spoken or typed questions about Indian law, answered from the indexed legal corpus or as general chat.
// @BasePath    /
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nadzzz/sahayak/internal/config"
)

// version is set at build time via ldflags.
var version = "2.0.0"

var configFile string

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with args and logs the error a command fails with.
func run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		slog.Error("sahayak failed", "error", err)
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sahayak",
		Short:         "Multilingual legal-aid assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Secrets usually live in .env during development.
			if err := godotenv.Load(); err != nil {
				slog.Warn("no .env file loaded", "error", err)
			}
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/sahayak.yaml)")

	root.AddCommand(newServeCmd(), newIngestCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sahayak %s\n", version)
		},
	}
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return nil, err
	}
	config.SetupLogging(cfg.Logging)
	return cfg, nil
}
