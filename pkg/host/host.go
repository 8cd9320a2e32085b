// Package host converts between the values hosts exchange (paths, data URIs,
// JSON scalars) and the in-memory values nodes work with.
package host

import (
	"fmt"
	"image"
	"maps"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/aretw0/lathe/pkg/imaging"
	"github.com/aretw0/lathe/pkg/schema"
)

// Bind resolves image arguments of spec. A string given for an image field is
// read as a data URI or, failing that, as a file path. Other values are
// passed through for the schema to normalise.
func Bind(spec domain.NodeSpec, raw map[string]any) (map[string]any, error) {
	args := maps.Clone(raw)
	if args == nil {
		args = map[string]any{}
	}
	for _, f := range spec.Inputs {
		if _, ok := f.Type.(*schema.ImageType); !ok {
			continue
		}
		s, ok := args[f.Key].(string)
		if !ok {
			continue
		}
		img, err := loadImage(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArguments, schema.Invalid(f.Key, nil, "%v", err))
		}
		args[f.Key] = img
	}
	return args, nil
}

func loadImage(s string) (image.Image, error) {
	if imaging.IsDataURI(s) {
		return imaging.DecodeDataURI(s)
	}
	return imaging.Load(s)
}

// Emit converts image outputs into host values. An image whose key appears
// in save is written to that path and replaced by the path; other images
// become PNG data URIs. Non-image outputs are returned unchanged.
func Emit(spec domain.NodeSpec, outputs map[string]any, save map[string]string) (map[string]any, error) {
	for key := range save {
		if _, ok := spec.Output(key); !ok {
			return nil, fmt.Errorf("%w: unknown output %q", domain.ErrInvalidArguments, key)
		}
	}

	res := make(map[string]any, len(outputs))
	for key, v := range outputs {
		img, ok := v.(image.Image)
		if !ok {
			res[key] = v
			continue
		}
		if path, ok := save[key]; ok && path != "" {
			if err := imaging.Save(path, img); err != nil {
				return nil, fmt.Errorf("save output %s: %w", key, err)
			}
			res[key] = path
			continue
		}
		uri, err := imaging.EncodeDataURI(img)
		if err != nil {
			return nil, fmt.Errorf("encode output %s: %w", key, err)
		}
		res[key] = uri
	}
	return res, nil
}
