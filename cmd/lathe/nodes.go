package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/lathe/internal/cli"
	"github.com/aretw0/lathe/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the available nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		eng, closeFn, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
		for _, spec := range eng.Inspect() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", spec.ID, spec.Name, spec.Category)
		}
		return w.Flush()
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <node>",
	Short: "Describe a node's inputs and outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		eng, closeFn, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		spec, err := eng.Spec(args[0])
		if err != nil {
			return err
		}
		md := tui.NodeMarkdown(spec)
		if raw, _ := cmd.Flags().GetBool("raw"); raw || !tui.IsTerminal(os.Stdout) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		out, err := tui.NewRenderer(tui.Width(os.Stdout))(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema [node]",
	Short: "Print node declarations as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		eng, closeFn, err := cli.NewEngine(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		var v any = eng.Inspect()
		if len(args) == 1 {
			spec, err := eng.Spec(args[0])
			if err != nil {
				return err
			}
			v = spec
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd, describeCmd, schemaCmd)
	describeCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}
