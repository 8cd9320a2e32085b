package schema

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestBasicTypes(t *testing.T) {
	tests := []struct {
		typ     Type
		name    string
		value   any
		wantErr bool
	}{
		{String(), "string", "hello", false},
		{String(), "string", 42, true},
		{Int(), "int", int64(7), false},
		{Int(), "int", float64(42), false},
		{Int(), "int", 42.5, true},
		{Int(), "int", "42", true},
		{Float(), "float", 3, false},
		{Float(), "float", "3.1", true},
		{Bool(), "bool", false, false},
		{Bool(), "bool", 1, true},
		{Slice(String()), "[string]", []string{"a", "b"}, false},
		{Slice(String()), "[string]", []any{"a", 1}, true},
		{Slice(Int()), "[int]", "nope", true},
	}

	for _, tt := range tests {
		if tt.typ.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", tt.typ.Name(), tt.name)
		}
		err := tt.typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate(%v) error = %v, wantErr %v", tt.name, tt.value, err, tt.wantErr)
		}
	}
}

func TestCustomType(t *testing.T) {
	even := Custom("even", func(v any) error {
		i, ok := v.(int)
		if !ok || i%2 != 0 {
			return fmt.Errorf("must be an even int")
		}
		return nil
	})

	if even.Name() != "even" {
		t.Errorf("Name() = %q, want %q", even.Name(), "even")
	}
	if err := even.Validate(4); err != nil {
		t.Errorf("Validate(4) unexpected error: %v", err)
	}
	if err := even.Validate(3); err == nil {
		t.Error("Validate(3) expected error")
	}
}

func TestNumberType_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		typ     *NumberType
		in      any
		want    any
		wantErr bool
	}{
		{"int from string", Slider(0, 10), "3", 3, false},
		{"int from json float", Slider(0, 10), float64(4), 4, false},
		{"int rejects fraction", Slider(0, 10), 4.5, nil, true},
		{"float precision", Slider(0, 100, Precision(1)), 50.04, 50.0, false},
		{"float from string", Slider(0, 100, Precision(3)), "23.976", 23.976, false},
		{"not a number", Number(), "abc", nil, true},
		{"bool is not a number", Number(), true, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Normalize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Normalize(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNumberType_Bounds(t *testing.T) {
	s := Slider(-100, 100, Precision(1), Unit("%"))
	if s.Name() != "slider" {
		t.Errorf("Name() = %q, want slider", s.Name())
	}
	if err := s.Validate(-100.0); err != nil {
		t.Errorf("lower bound is inclusive: %v", err)
	}
	if err := s.Validate(100); err != nil {
		t.Errorf("upper bound is inclusive: %v", err)
	}
	if err := s.Validate(100.5); err == nil {
		t.Error("expected error above maximum")
	}

	n := Number(Min(1))
	if n.Name() != "number" {
		t.Errorf("Name() = %q, want number", n.Name())
	}
	if err := n.Validate(0); err == nil {
		t.Error("expected error below minimum")
	}
	if err := n.Validate(1 << 20); err != nil {
		t.Errorf("unbounded maximum: %v", err)
	}

	hints := Slider(0, 1000, LogScale()).Describe()
	if hints["scale"] != "log" {
		t.Errorf("scale hint = %v, want log", hints["scale"])
	}
}

type mode string

func TestEnumType(t *testing.T) {
	e := Enum(Opt("mkv", "mkv"), Opt("mp4", "mp4"))

	if err := e.Validate("mp4"); err != nil {
		t.Errorf("Validate(mp4) unexpected error: %v", err)
	}
	if err := e.Validate("avi"); err == nil {
		t.Error("Validate(avi) expected error")
	}

	got, err := e.Normalize(mode("mkv"))
	if err != nil || got != "mkv" {
		t.Errorf("Normalize(named string) = %v, %v; want mkv", got, err)
	}

	values := e.Values()
	if len(values) != 2 || values[0] != "mkv" || values[1] != "mp4" {
		t.Errorf("Values() = %v", values)
	}
}

func TestTextType(t *testing.T) {
	typ := Text(true, 8)

	got, err := typ.Normalize("a\x1b[0mb\n")
	if err != nil {
		t.Fatalf("Normalize unexpected error: %v", err)
	}
	if got != "a[0mb\n" {
		t.Errorf("Normalize = %q, want control characters stripped", got)
	}

	if _, err := typ.Normalize("way too long"); err == nil {
		t.Error("expected size limit error")
	}
}

func TestDirectoryType(t *testing.T) {
	dir := t.TempDir()

	if err := Directory(true).Validate(dir); err != nil {
		t.Errorf("existing dir: %v", err)
	}
	if err := Directory(true).Validate(dir + "/missing"); err == nil {
		t.Error("expected error for missing dir")
	}
	if err := Directory(false).Validate(dir + "/missing"); err != nil {
		t.Errorf("output dir need not exist: %v", err)
	}
	if err := Directory(false).Validate(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestImageType(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	rgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	if err := Image(1, 3, 4).Validate(gray); err != nil {
		t.Errorf("gray accepted: %v", err)
	}
	if err := Image(1).Validate(rgba); err == nil {
		t.Error("expected channel error for 4-channel image")
	}
	if err := Image().Validate("not an image"); err == nil {
		t.Error("expected type error")
	}
}

func TestColorType(t *testing.T) {
	tests := []struct {
		in      any
		want    color.NRGBA
		wantErr bool
	}{
		{"#000000", color.NRGBA{A: 255}, false},
		{"#ff800040", color.NRGBA{R: 255, G: 128, A: 64}, false},
		{color.White, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, false},
		{"red", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
	}

	typ := Color()
	for _, tt := range tests {
		got, err := typ.Normalize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Normalize(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNonFiniteNumbers(t *testing.T) {
	bounded := Schema{
		In("opacity", "Opacity", Slider(0, 100, Precision(1))),
		In("count", "Count", Int()),
		In("ratio", "Ratio", Float()),
	}
	for _, raw := range []any{"NaN", "nan", "Inf", "+Inf", "-Inf", math.NaN(), math.Inf(1), math.Inf(-1)} {
		for _, key := range bounded.Keys() {
			data := map[string]any{"opacity": 50, "count": 1, "ratio": 0.5}
			data[key] = raw
			_, err := Validate(bounded, data)
			errs := FieldErrors(err)
			if len(errs) != 1 || errs[0].Key != key {
				t.Errorf("Validate(%s=%v) errors = %v, want one error on %s", key, raw, errs, key)
			}
		}
	}

	if _, err := Slider(0, 10).Normalize("NaN"); err == nil {
		t.Error(`Slider.Normalize("NaN") expected error`)
	}
	if err := Number().Validate(math.Inf(1)); err == nil {
		t.Error("Number.Validate(+Inf) expected error")
	}
}

func TestNumberType_IntegerRange(t *testing.T) {
	typ := Number(Min(1))
	for _, raw := range []any{"1e300", -1e300, "9.3e18"} {
		if _, err := typ.Normalize(raw); err == nil {
			t.Errorf("Normalize(%v) expected error", raw)
		}
	}
	got, err := typ.Normalize("9e15")
	if err != nil || got != int(9e15) {
		t.Errorf("Normalize(9e15) = %v, %v", got, err)
	}
}
