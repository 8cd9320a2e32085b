package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named set of arguments for one node.
type Preset struct {
	Name        string         `yaml:"name" json:"name"`
	Node        string         `yaml:"node" json:"node"`
	Description string         `yaml:"description" json:"description"`
	Args        map[string]any `yaml:"args" json:"args"`
}

// PresetFile represents the structure of lathe.yaml.
type PresetFile struct {
	Presets []Preset `yaml:"presets" json:"presets"`
}

// Presets indexes presets by name.
type Presets map[string]Preset

// LoadPresets reads a preset file (YAML or JSON). A missing file means no
// presets.
func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Presets{}, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	var file PresetFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	presets := make(Presets, len(file.Presets))
	for _, p := range file.Presets {
		if p.Name == "" || p.Node == "" {
			return nil, fmt.Errorf("preset in %s needs both name and node", path)
		}
		if _, dup := presets[p.Name]; dup {
			return nil, fmt.Errorf("preset %q declared twice in %s", p.Name, path)
		}
		presets[p.Name] = p
	}
	return presets, nil
}

// Resolve merges the named preset's arguments under explicit ones.
// An empty name returns a copy of explicit. Node defaults are applied later
// by schema validation, giving defaults < preset < explicit.
func (ps Presets) Resolve(name, nodeID string, explicit map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(explicit))
	if name != "" {
		p, ok := ps[name]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
		if p.Node != nodeID {
			return nil, fmt.Errorf("preset %q is for node %s, not %s", name, p.Node, nodeID)
		}
		maps.Copy(out, p.Args)
	}
	maps.Copy(out, explicit)
	return out, nil
}
