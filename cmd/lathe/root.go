package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lathe/internal/cli"
	"github.com/aretw0/lathe/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lathe",
	Short: "lathe runs self-contained image-processing nodes",
	Long: `lathe exposes its image nodes (overlay, morphology, text rendering and
video assembly) through a CLI, an HTTP server and an MCP server.
Each invocation runs exactly one node.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Disable logging")
}

// setup loads the environment configuration and the logger every command shares.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return cfg, cli.NewLogger(cfg.LogLevel, debug, quiet), nil
}
