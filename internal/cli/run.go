package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/lathe"
	"github.com/aretw0/lathe/internal/config"
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/host"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	NodeID string
	Args   []string // key=value
	Outs   []string // output=path
	Preset string
	JSON   bool
}

// Run executes one node and prints its outputs to w, one "key: value" line
// per output or a single JSON object.
func Run(ctx context.Context, eng *lathe.Engine, presets config.Presets, opts RunOptions, w io.Writer) error {
	spec, err := eng.Spec(opts.NodeID)
	if err != nil {
		return err
	}
	explicit, err := ParseAssignments(opts.Args)
	if err != nil {
		return err
	}
	save, err := ParsePaths(opts.Outs)
	if err != nil {
		return err
	}
	raw, err := presets.Resolve(opts.Preset, opts.NodeID, explicit)
	if err != nil {
		return err
	}

	args, err := host.Bind(spec, raw)
	if err != nil {
		return err
	}
	res, err := eng.Execute(ctx, domain.NodeCall{NodeID: opts.NodeID, Args: args})
	if err != nil {
		return err
	}
	outputs, err := host.Emit(spec, res.Outputs, save)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, outputs[k])
	}
	return nil
}
