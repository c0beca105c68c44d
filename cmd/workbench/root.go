package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/workbench-session/internal/config"
	"github.com/jrsteele09/workbench-session/internal/logging"
	"github.com/spf13/cobra"
)

// Version information set via ldflags at build time
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:           "workbench",
	Short:         "Workbench session client",
	Long:          `Signs in to the workbench with PKCE, keeps the session fresh and calls the workbench API on your behalf.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := os.Setenv(config.ConfigFileVar, path); err != nil {
				return err
			}
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			if err := os.Setenv("LOG_LEVEL", level); err != nil {
				return err
			}
		}
		if err := config.Load(); err != nil {
			return err
		}

		closer, err := logging.Setup(config.New())
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate("workbench version {{.Version}}\n")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (overrides "+config.ConfigFileVar+")")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
