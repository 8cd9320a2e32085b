package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lathe"
	"github.com/aretw0/lathe/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lathe",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "lathe version %s\n", lathe.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
