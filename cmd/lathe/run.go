package main

import (
	"github.com/aretw0/lathe/internal/cli"
	"github.com/aretw0/lathe/internal/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <node>",
	Short: "Run one node",
	Long: `Runs a node with arguments given as key=value pairs.

Image inputs take a file path or a base64 data URI. Image outputs are printed
as data URIs unless --out saves them to a file.

Example:
  lathe run morphology --arg image=in.png --arg operation=dilation --arg radius=2 --out image=out.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		presetsFile, _ := cmd.Flags().GetString("presets")
		if !cmd.Flags().Changed("presets") {
			presetsFile = cfg.PresetsFile
		}
		presets, err := config.LoadPresets(presetsFile)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		eng, closeFn, err := cli.NewEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		opts := cli.RunOptions{NodeID: args[0]}
		opts.Args, _ = cmd.Flags().GetStringArray("arg")
		opts.Outs, _ = cmd.Flags().GetStringArray("out")
		opts.Preset, _ = cmd.Flags().GetString("preset")
		opts.JSON, _ = cmd.Flags().GetBool("json")

		if err := cli.Run(ctx, eng, presets, opts, cmd.OutOrStdout()); err != nil {
			if sig := ctx.Signal(); sig != nil {
				logger.Info("interrupted", "signal", sig)
			}
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayP("arg", "a", nil, "Node argument as key=value (repeatable)")
	runCmd.Flags().StringArrayP("out", "o", nil, "Save an image output as key=path (repeatable)")
	runCmd.Flags().String("preset", "", "Apply a named argument preset first")
	runCmd.Flags().String("presets", "lathe.yaml", "Preset file (defaults to LATHE_PRESETS)")
	runCmd.Flags().Bool("json", false, "Print outputs as JSON")
}
