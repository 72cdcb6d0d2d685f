package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProjectFile is the per-directory config file name.
const ProjectFile = ".kpimarksconfig"

// Config holds all configurable kpimarks settings. Zero values mean "not
// set" so that Merge can layer files; the margins are pointers because zero
// is a valid margin.
type Config struct {
	DefaultFormat string   `json:"default_format,omitempty" validate:"omitempty,oneof=markdown json svg"`
	OutputDir     string   `json:"output_dir,omitempty"`
	DisplayMode   string   `json:"display_mode,omitempty" validate:"omitempty,oneof=bothYears thisYearOnly lastYearOnly both ty ly"`
	SpanLength    int      `json:"span_length,omitempty" validate:"gte=0,lte=366"`
	ChartWidth    float64  `json:"chart_width,omitempty" validate:"gte=0"`
	MarginLeft    *float64 `json:"margin_left,omitempty" validate:"omitempty,gte=0"`
	MarginRight   *float64 `json:"margin_right,omitempty" validate:"omitempty,gte=0"`
	DefaultColor  string   `json:"default_color,omitempty" validate:"omitempty,hexcolor"`
	PinnedColor   string   `json:"pinned_color,omitempty" validate:"omitempty,hexcolor"`
}

func float(v float64) *float64 { return &v }

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultFormat: "markdown",
		OutputDir:     ".",
		DisplayMode:   "bothYears",
		SpanLength:    3,
		ChartWidth:    900,
		MarginLeft:    float(60),
		MarginRight:   float(40),
		DefaultColor:  "#6e6e73",
		PinnedColor:   "#86868b",
	}
}

// Dir returns the global config directory, ~/.config/kpimarks.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kpimarks"), nil
}

// LoadGlobal reads ~/.config/kpimarks/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .kpimarksconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		overlay(&result, layer)
	}
	return result
}

func overlay(dst, src *Config) {
	setString := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	setString(&dst.DefaultFormat, src.DefaultFormat)
	setString(&dst.OutputDir, src.OutputDir)
	setString(&dst.DisplayMode, src.DisplayMode)
	setString(&dst.DefaultColor, src.DefaultColor)
	setString(&dst.PinnedColor, src.PinnedColor)
	if src.SpanLength > 0 {
		dst.SpanLength = src.SpanLength
	}
	if src.ChartWidth > 0 {
		dst.ChartWidth = src.ChartWidth
	}
	if src.MarginLeft != nil {
		dst.MarginLeft = float(*src.MarginLeft)
	}
	if src.MarginRight != nil {
		dst.MarginRight = float(*src.MarginRight)
	}
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

// Validate checks field values. A merged config must also leave a positive
// plotting width between the margins.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.ChartWidth > 0 && c.MarginLeft != nil && c.MarginRight != nil &&
		*c.MarginLeft+*c.MarginRight >= c.ChartWidth {
		return fmt.Errorf("margins (%v + %v) leave no room in chart_width %v", *c.MarginLeft, *c.MarginRight, c.ChartWidth)
	}
	return nil
}

// Left returns the left margin, or zero when unset.
func (c Config) Left() float64 {
	if c.MarginLeft == nil {
		return 0
	}
	return *c.MarginLeft
}

// Right returns the right margin, or zero when unset.
func (c Config) Right() float64 {
	if c.MarginRight == nil {
		return 0
	}
	return *c.MarginRight
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
