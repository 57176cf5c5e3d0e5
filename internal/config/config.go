// Package config holds the run configuration of the card generator. Values
// come from defaults, then IDCARDS_* environment variables, then CLI flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/youruser/idcardapp/internal/compose"
	imagepkg "github.com/youruser/idcardapp/internal/image"
	"github.com/youruser/idcardapp/internal/locator"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "IDCARDS_"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// TemplateSource selects how templates are resolved.
type TemplateSource struct {
	Mode  string `env:"TEMPLATE_MODE" envDefault:"directory"`
	Value string `env:"TEMPLATE" envDefault:"id_cards"`
}

// Fonts overrides overlay text rendering.
type Fonts struct {
	Path      string  `env:"FONT"`
	NameSize  float64 `env:"NAME_FONT_SIZE" envDefault:"20"`
	LabelSize float64 `env:"LABEL_FONT_SIZE" envDefault:"10"`
	Color     string  `env:"TEXT_COLOR" envDefault:"#000000"`
}

// Capabilities toggles the overlays.
type Capabilities struct {
	Name bool `env:"NAME_OVERLAY" envDefault:"true"`
	Flag bool `env:"FLAG_OVERLAY" envDefault:"true"`
	Code bool `env:"CODE_OVERLAY" envDefault:"true"`
}

// Code styles the rasterized code.
type Code struct {
	Foreground  string `env:"CODE_FG" envDefault:"#ffffff"`
	Background  string `env:"CODE_BG" envDefault:"#000000"`
	Transparent bool   `env:"CODE_TRANSPARENT" envDefault:"true"`
	ModuleSize  int    `env:"CODE_MODULE_SIZE" envDefault:"10"`
	Border      int    `env:"CODE_BORDER" envDefault:"2"`
}

type Config struct {
	RosterPath    string `env:"ROSTER" envDefault:"participants.csv"`
	Template      TemplateSource
	OutputDir     string `env:"OUTPUT_DIR" envDefault:"output"`
	FlagsDir      string `env:"FLAGS_DIR" envDefault:"flags"`
	TempDir       string `env:"TEMP_DIR"`
	Fonts         Fonts
	Capabilities  Capabilities
	Code          Code
	Workers       int      `env:"WORKERS" envDefault:"1"`
	Only          []string `env:"ONLY" envSeparator:","`
	Deterministic bool     `env:"DETERMINISTIC"`
}

// ParseEnv loads configuration from the environment over the defaults.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseConfig parses CLI flags on top of the environment into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}

	only := strings.Join(cfg.Only, ",")
	fs.StringVar(&cfg.RosterPath, "roster", cfg.RosterPath, "participant roster (id,email,name,country per line)")
	fs.StringVar(&cfg.Template.Mode, "template-mode", cfg.Template.Mode, "template source: directory, fixed or pattern")
	fs.StringVar(&cfg.Template.Value, "template", cfg.Template.Value, "template directory, file, or pattern with {first}, {name}, {id}")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory")
	fs.StringVar(&cfg.FlagsDir, "flags-dir", cfg.FlagsDir, "directory of country flag images")
	fs.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "directory for temporary files (default: OS temp dir)")
	fs.StringVar(&cfg.Fonts.Path, "font", cfg.Fonts.Path, "TrueType font for overlay text")
	fs.Float64Var(&cfg.Fonts.NameSize, "name-size", cfg.Fonts.NameSize, "name font size")
	fs.Float64Var(&cfg.Fonts.LabelSize, "label-size", cfg.Fonts.LabelSize, "country label font size")
	fs.StringVar(&cfg.Fonts.Color, "text-color", cfg.Fonts.Color, "overlay text color (#rrggbb)")
	fs.BoolVar(&cfg.Capabilities.Name, "name-overlay", cfg.Capabilities.Name, "draw the participant name")
	fs.BoolVar(&cfg.Capabilities.Flag, "flag-overlay", cfg.Capabilities.Flag, "draw the country flag and label")
	fs.BoolVar(&cfg.Capabilities.Code, "code-overlay", cfg.Capabilities.Code, "draw the code on page 2")
	fs.StringVar(&cfg.Code.Foreground, "code-fg", cfg.Code.Foreground, "code module color (#rrggbb)")
	fs.StringVar(&cfg.Code.Background, "code-bg", cfg.Code.Background, "code background color (#rrggbb)")
	fs.BoolVar(&cfg.Code.Transparent, "code-transparent", cfg.Code.Transparent, "clear near-black code pixels")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "rows processed concurrently")
	fs.StringVar(&only, "only", only, "comma separated participant ids to process")
	fs.BoolVar(&cfg.Deterministic, "deterministic", cfg.Deterministic, "pin document dates to the Unix epoch")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Only = splitList(only)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for errors that would fail every row.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RosterPath) == "" {
		return invalid("roster path is required")
	}
	switch c.Template.Mode {
	case locator.ModeDirectory, locator.ModeFixed, locator.ModePattern:
	default:
		return invalid("unknown template mode %q", c.Template.Mode)
	}
	if strings.TrimSpace(c.Template.Value) == "" {
		return invalid("template is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return invalid("output directory is required")
	}
	if c.Fonts.NameSize <= 0 || c.Fonts.LabelSize <= 0 {
		return invalid("font sizes must be positive")
	}
	if c.Code.ModuleSize <= 0 {
		return invalid("code module size must be positive")
	}
	if c.Code.Border < 0 {
		return invalid("code border must not be negative")
	}
	if c.Workers < 1 {
		return invalid("workers must be at least 1")
	}
	colors := []struct{ name, value string }{
		{"text color", c.Fonts.Color},
		{"code foreground", c.Code.Foreground},
		{"code background", c.Code.Background},
	}
	for _, col := range colors {
		if _, err := ParseHexColor(col.value); err != nil {
			return invalid("%s: %v", col.name, err)
		}
	}
	return nil
}

// ParseHexColor parses #rrggbb (the # is optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// CodeStyle converts the code settings. Call after Validate.
func (c Config) CodeStyle() imagepkg.Style {
	fg, _ := ParseHexColor(c.Code.Foreground)
	bg, _ := ParseHexColor(c.Code.Background)
	return imagepkg.Style{
		Foreground:  fg,
		Background:  bg,
		Transparent: c.Code.Transparent,
		ModuleSize:  c.Code.ModuleSize,
		Border:      c.Code.Border,
	}
}

// ComposeOptions converts the overlay settings. Call after Validate.
func (c Config) ComposeOptions() compose.Options {
	opts := compose.DefaultOptions()
	opts.Capabilities = compose.Capabilities{
		Name: c.Capabilities.Name,
		Flag: c.Capabilities.Flag,
		Code: c.Capabilities.Code,
	}
	opts.Fonts = compose.Fonts{Path: c.Fonts.Path, NameSize: c.Fonts.NameSize, LabelSize: c.Fonts.LabelSize}
	opts.TextColor, _ = ParseHexColor(c.Fonts.Color)
	opts.FlagsDir = c.FlagsDir
	opts.TempDir = c.TempDir
	opts.Deterministic = c.Deterministic
	return opts
}
