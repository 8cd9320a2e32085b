package schema

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/lathe/pkg/imaging"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "slider").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// Normalizer is implemented by types that coerce host values into their
// canonical Go representation before validation.
type Normalizer interface {
	Normalize(value any) (any, error)
}

// Describer is implemented by types that expose UI hints to hosts.
type Describer interface {
	Describe() map[string]any
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if !math.IsInf(v, 0) && v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

func (t *IntType) Normalize(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return value, nil
	}
	if f != math.Trunc(f) {
		return value, nil
	}
	return int(f), nil
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("expected a finite number, got %v", v)
		}
		return nil
	case float32, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

func (t *FloatType) Normalize(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return value, nil
	}
	return f, nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) Normalize(value any) (any, error) {
	if s, ok := value.(string); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
	}
	return value, nil
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// NumberType is a bounded numeric input, rendered by hosts either as a
// slider or as a free numeric field.
type NumberType struct {
	Minimum   *float64
	Maximum   *float64
	Precision int
	Step      float64
	Unit      string
	Scale     string // "linear" or "log"
	slider    bool
}

// NumberOption configures a NumberType.
type NumberOption func(*NumberType)

// Min sets the inclusive lower bound.
func Min(v float64) NumberOption {
	return func(t *NumberType) { t.Minimum = &v }
}

// Max sets the inclusive upper bound.
func Max(v float64) NumberOption {
	return func(t *NumberType) { t.Maximum = &v }
}

// Precision sets the number of decimals. Zero means the value is an int.
func Precision(digits int) NumberOption {
	return func(t *NumberType) { t.Precision = digits }
}

// Step sets the increment used by host controls.
func Step(v float64) NumberOption {
	return func(t *NumberType) { t.Step = v }
}

// Unit sets the display unit (e.g. "%", "px", "fps").
func Unit(u string) NumberOption {
	return func(t *NumberType) { t.Unit = u }
}

// LogScale asks hosts to render the slider on a logarithmic scale.
func LogScale() NumberOption {
	return func(t *NumberType) { t.Scale = "log" }
}

func (t *NumberType) Name() string {
	if t.slider {
		return "slider"
	}
	return "number"
}

func (t *NumberType) Normalize(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	if t.Precision == 0 {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected a whole number, got %v", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%v is out of integer range", f)
		}
		return int(f), nil
	}
	p := math.Pow10(t.Precision)
	return math.Round(f*p) / p, nil
}

func (t *NumberType) Validate(value any) error {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case float64:
		f = v
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected a finite number, got %v", f)
	}
	if t.Minimum != nil && f < *t.Minimum {
		return fmt.Errorf("must be >= %s", formatFloat(*t.Minimum))
	}
	if t.Maximum != nil && f > *t.Maximum {
		return fmt.Errorf("must be <= %s", formatFloat(*t.Maximum))
	}
	return nil
}

func (t *NumberType) Describe() map[string]any {
	d := map[string]any{"precision": t.Precision}
	if t.Minimum != nil {
		d["minimum"] = *t.Minimum
	}
	if t.Maximum != nil {
		d["maximum"] = *t.Maximum
	}
	if t.Step != 0 {
		d["step"] = t.Step
	}
	if t.Unit != "" {
		d["unit"] = t.Unit
	}
	if t.Scale != "" {
		d["scale"] = t.Scale
	}
	return d
}

// Option is one value of an EnumType.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// EnumType accepts one of a fixed set of string values.
type EnumType struct {
	Options []Option
}

func (t *EnumType) Name() string { return "enum" }

func (t *EnumType) Normalize(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return value, nil
}

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !slices.ContainsFunc(t.Options, func(o Option) bool { return o.Value == s }) {
		return fmt.Errorf("must be one of %s", strings.Join(t.Values(), ", "))
	}
	return nil
}

// Values returns the accepted values in declaration order.
func (t *EnumType) Values() []string {
	values := make([]string, len(t.Options))
	for i, o := range t.Options {
		values[i] = o.Value
	}
	return values
}

func (t *EnumType) Describe() map[string]any {
	return map[string]any{"options": t.Options}
}

// TextType is free text, sanitised before use.
type TextType struct {
	Multiline bool
	MaxSize   int
}

func (t *TextType) Name() string { return "text" }

func (t *TextType) Normalize(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return SanitizeText(s, t.MaxSize)
}

func (t *TextType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (t *TextType) Describe() map[string]any {
	return map[string]any{"multiline": t.Multiline}
}

// DirectoryType is a filesystem directory path.
type DirectoryType struct {
	MustExist bool
}

func (t *DirectoryType) Name() string { return "directory" }

func (t *DirectoryType) Validate(value any) error {
	path, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected directory path, got %T", value)
	}
	if path == "" {
		return fmt.Errorf("directory path is empty")
	}
	if !t.MustExist {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory %s does not exist", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func (t *DirectoryType) Describe() map[string]any {
	return map[string]any{"must_exist": t.MustExist}
}

// ImageType is an in-memory image with a restricted channel count.
type ImageType struct {
	Channels []int
}

func (t *ImageType) Name() string { return "image" }

func (t *ImageType) Validate(value any) error {
	img, ok := value.(image.Image)
	if !ok {
		return fmt.Errorf("expected image, got %T", value)
	}
	if len(t.Channels) == 0 {
		return nil
	}
	if c := imaging.Channels(img); !slices.Contains(t.Channels, c) {
		return fmt.Errorf("unsupported channel count %d, want one of %v", c, t.Channels)
	}
	return nil
}

func (t *ImageType) Describe() map[string]any {
	if len(t.Channels) == 0 {
		return nil
	}
	return map[string]any{"channels": t.Channels}
}

// ColorType accepts "#RRGGBB" or "#RRGGBBAA" strings and color.Color values.
type ColorType struct{}

func (t *ColorType) Name() string { return "color" }

func (t *ColorType) Normalize(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return ParseColor(v)
	case color.Color:
		return color.NRGBAModel.Convert(v), nil
	}
	return value, nil
}

func (t *ColorType) Validate(value any) error {
	if _, ok := value.(color.NRGBA); !ok {
		return fmt.Errorf("expected color, got %T", value)
	}
	return nil
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// Slider creates a bounded numeric input rendered as a slider.
func Slider(minimum, maximum float64, opts ...NumberOption) *NumberType {
	t := &NumberType{Minimum: &minimum, Maximum: &maximum, Step: 1, slider: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Number creates a numeric input. Without Min/Max it is unbounded.
func Number(opts ...NumberOption) *NumberType {
	t := &NumberType{Step: 1}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enum creates an enum type from its options.
func Enum(options ...Option) *EnumType {
	return &EnumType{Options: options}
}

// Opt is shorthand for an enum Option.
func Opt(value, label string) Option {
	return Option{Value: value, Label: label}
}

// Text creates a free text type. maxSize <= 0 uses DefaultMaxTextSize.
func Text(multiline bool, maxSize int) *TextType {
	return &TextType{Multiline: multiline, MaxSize: maxSize}
}

// Directory creates a directory path type.
func Directory(mustExist bool) *DirectoryType {
	return &DirectoryType{MustExist: mustExist}
}

// Image creates an image type accepting the given channel counts (any when empty).
func Image(channels ...int) *ImageType {
	return &ImageType{Channels: channels}
}

// Color creates a color type.
func Color() *ColorType { return &ColorType{} }

// toFloat converts host numbers and numeric strings. NaN and infinities are
// rejected so range checks always see a comparable value.
func toFloat(value any) (float64, error) {
	f, err := parseFloat(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a finite number, got %v", f)
	}
	return f, nil
}

func parseFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
