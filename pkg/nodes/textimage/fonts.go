package textimage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFont is used when no font is requested.
const DefaultFont = "go_regular"

// Font is a parsed, selectable typeface.
type Font struct {
	ID    string
	Label string
	face  *opentype.Font
}

// FontSet is the ordered set of fonts offered by the node.
type FontSet struct {
	fonts []Font
	byID  map[string]int
}

// externalFonts are looked up under a font directory, relative paths as
// shipped with the Roboto and Open Sans distributions.
var externalFonts = []struct {
	id, label, path string
}{
	{"roboto_regular", "Roboto", "Roboto/Roboto-Regular.ttf"},
	{"roboto_bold", "Roboto Bold", "Roboto/Roboto-Bold.ttf"},
	{"roboto_italic", "Roboto Italic", "Roboto/Roboto-Italic.ttf"},
	{"roboto_bold_italic", "Roboto Bold Italic", "Roboto/Roboto-BoldItalic.ttf"},
	{"roboto_mono_regular", "Roboto Mono", "RobotoMono/RobotoMono-Regular.ttf"},
	{"roboto_mono_bold", "Roboto Mono Bold", "RobotoMono/RobotoMono-Bold.ttf"},
	{"roboto_mono_italic", "Roboto Mono Italic", "RobotoMono/RobotoMono-Italic.ttf"},
	{"roboto_mono_bold_italic", "Roboto Mono Bold Italic", "RobotoMono/RobotoMono-BoldItalic.ttf"},
	{"open_sans_regular", "Open Sans", "OpenSans/OpenSans-VariableFont_wdth,wght.ttf"},
	{"open_sans_bold", "Open Sans Bold", "OpenSans/OpenSans-Bold.ttf"},
	{"open_sans_italic", "Open Sans Italic", "OpenSans/OpenSans-Italic.ttf"},
	{"open_sans_bold_italic", "Open Sans Bold Italic", "OpenSans/OpenSans-BoldItalic.ttf"},
}

// NewFontSet returns the embedded Go fonts plus whichever of the Roboto and
// Open Sans files exist under dir. An empty dir means embedded fonts only.
// Files that exist but fail to parse are reported as an error.
func NewFontSet(dir string) (*FontSet, error) {
	fs := &FontSet{byID: make(map[string]int)}

	embedded := []struct {
		id, label string
		ttf       []byte
	}{
		{"go_regular", "Go", goregular.TTF},
		{"go_bold", "Go Bold", gobold.TTF},
		{"go_italic", "Go Italic", goitalic.TTF},
		{"go_bold_italic", "Go Bold Italic", gobolditalic.TTF},
		{"go_medium", "Go Medium", gomedium.TTF},
		{"go_mono_regular", "Go Mono", gomono.TTF},
		{"go_mono_bold", "Go Mono Bold", gomonobold.TTF},
		{"go_mono_italic", "Go Mono Italic", gomonoitalic.TTF},
		{"go_mono_bold_italic", "Go Mono Bold Italic", gomonobolditalic.TTF},
	}
	for _, e := range embedded {
		if err := fs.add(e.id, e.label, e.ttf); err != nil {
			return nil, err
		}
	}

	if dir == "" {
		return fs, nil
	}
	for _, e := range externalFonts {
		data, err := os.ReadFile(filepath.Join(dir, e.path))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", e.path, err)
		}
		if err := fs.add(e.id, e.label, data); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FontSet) add(id, label string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", id, err)
	}
	fs.byID[id] = len(fs.fonts)
	fs.fonts = append(fs.fonts, Font{ID: id, Label: label, face: f})
	return nil
}

// Get returns the font registered under id.
func (fs *FontSet) Get(id string) (Font, bool) {
	i, ok := fs.byID[id]
	if !ok {
		return Font{}, false
	}
	return fs.fonts[i], true
}

// Fonts returns the fonts in offer order.
func (fs *FontSet) Fonts() []Font {
	return append([]Font(nil), fs.fonts...)
}
