package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/schema"
)

// NodeMarkdown describes a node declaration as a markdown document.
func NodeMarkdown(spec domain.NodeSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", spec.Name)
	fmt.Fprintf(&b, "`%s`", spec.ID)
	if spec.Category != "" {
		fmt.Fprintf(&b, " · %s", spec.Category)
	}
	b.WriteString("\n\n")
	if spec.Description != "" {
		b.WriteString(spec.Description + "\n\n")
	}
	if spec.SideEffects {
		b.WriteString("> Writes to the filesystem.\n\n")
	}

	b.WriteString("## Inputs\n\n")
	if len(spec.Inputs) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| Key | Label | Type | Default | Notes |\n")
		b.WriteString("|-----|-------|------|---------|-------|\n")
		for _, f := range spec.Inputs {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
				f.Key, f.Label, f.Type.Name(), defaultCell(f), notes(f))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Outputs\n\n")
	b.WriteString("| Key | Label | Kind |\n")
	b.WriteString("|-----|-------|------|\n")
	for _, o := range spec.Outputs {
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", o.Key, o.Label, o.Kind)
	}
	return b.String()
}

func defaultCell(f schema.Field) string {
	if f.Default == nil {
		if f.Optional {
			return "optional"
		}
		return "required"
	}
	return fmt.Sprintf("`%v`", f.Default)
}

func notes(f schema.Field) string {
	var parts []string
	switch t := f.Type.(type) {
	case *schema.NumberType:
		if t.Minimum != nil && t.Maximum != nil {
			parts = append(parts, fmt.Sprintf("%g..%g", *t.Minimum, *t.Maximum))
		}
		if t.Unit != "" {
			parts = append(parts, t.Unit)
		}
		if t.Scale == "log" {
			parts = append(parts, "log scale")
		}
	case *schema.EnumType:
		parts = append(parts, "one of "+strings.Join(quoted(t.Values()), ", "))
	case *schema.ImageType:
		if len(t.Channels) > 0 {
			ch := slices.Clone(t.Channels)
			parts = append(parts, fmt.Sprintf("channels %v", ch))
		}
	}
	if f.When != nil {
		parts = append(parts, fmt.Sprintf("when `%s` is %s", f.When.Key, strings.Join(quoted(f.When.Values), " or ")))
	}
	if f.Docs != "" {
		parts = append(parts, strings.ReplaceAll(f.Docs, "|", `\|`))
	}
	return strings.Join(parts, "; ")
}

func quoted(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "`" + v + "`"
	}
	return out
}
