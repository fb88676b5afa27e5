// Package config loads and saves the plateau settings file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-plateau/dsp/plateau"
	"github.com/cwbudde/algo-plateau/dsp/signal"
	"github.com/cwbudde/algo-plateau/dsp/spectrum"
	"github.com/cwbudde/algo-plateau/dsp/window"
	"github.com/cwbudde/algo-plateau/stream"
	"gopkg.in/yaml.v3"
)

// Host preferences.
const (
	HostAuto     = "auto"
	HostRealtime = "realtime"
	HostFallback = "fallback"
)

// Source types.
const (
	SourceNoise = "noise"
	SourceSine  = "sine"
	SourceWAV   = "wav"
)

type AudioConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	FFTSize    int     `yaml:"fft_size"`
	Host       string  `yaml:"host"`
	FFTBackend string  `yaml:"fft_backend"`
}

type FilterConfig struct {
	CenterFreq float64 `yaml:"center_freq"`
	Width      float64 `yaml:"width"`
	FlatWidth  float64 `yaml:"flat_width"`
	Gain       float64 `yaml:"gain"`
}

// Extra shape types.
const (
	ShapeGaussian  = "gaussian"
	ShapeParabolic = "parabolic"
	ShapePlateau   = "plateau"
)

// Gaussian shaping limits.
const (
	MinKurtosis = 0.2
	MaxKurtosis = 5
	MaxSkew     = 10
)

// ShapeConfig is one extra band shape multiplied into the filter mask.
// Fields a type does not use are ignored.
type ShapeConfig struct {
	Type       string  `yaml:"type"`
	CenterFreq float64 `yaml:"center_freq"`
	Width      float64 `yaml:"width"`
	FlatWidth  float64 `yaml:"flat_width,omitempty"`
	Skew       float64 `yaml:"skew,omitempty"`
	Kurtosis   float64 `yaml:"kurtosis,omitempty"`
	Gain       float64 `yaml:"gain"`
}

// DefaultShape returns the settings a new shape of type typ starts with.
func DefaultShape(typ string) (ShapeConfig, error) {
	switch typ {
	case ShapeGaussian:
		g := plateau.DefaultGaussian()
		return ShapeConfig{Type: typ, CenterFreq: g.CenterFreq, Width: g.Width, Skew: g.Skew, Kurtosis: g.Kurtosis, Gain: g.Gain}, nil
	case ShapeParabolic:
		q := plateau.DefaultParabolic()
		return ShapeConfig{Type: typ, CenterFreq: q.CenterFreq, Width: q.Width, Gain: q.Gain}, nil
	case ShapePlateau:
		p := plateau.DefaultParams()
		return ShapeConfig{Type: typ, CenterFreq: p.CenterFreq, Width: p.Width, FlatWidth: p.FlatWidth, Gain: p.Gain}, nil
	default:
		return ShapeConfig{}, fmt.Errorf("unknown shape %q", typ)
	}
}

// UnmarshalYAML fills the fields an entry leaves out from DefaultShape.
func (sc *ShapeConfig) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type string `yaml:"type"`
	}

	if err := node.Decode(&head); err != nil {
		return err
	}

	def, err := DefaultShape(head.Type)
	if err != nil {
		return err
	}

	type plain ShapeConfig

	p := plain(def)
	if err := node.Decode(&p); err != nil {
		return err
	}

	*sc = ShapeConfig(p)

	return nil
}

// ShapeConfigOf is the inverse of ShapeConfig.Shape.
func ShapeConfigOf(s plateau.Shape) (ShapeConfig, error) {
	switch s := s.(type) {
	case plateau.Gaussian:
		return ShapeConfig{Type: ShapeGaussian, CenterFreq: s.CenterFreq, Width: s.Width, Skew: s.Skew, Kurtosis: s.Kurtosis, Gain: s.Gain}, nil
	case plateau.Parabolic:
		return ShapeConfig{Type: ShapeParabolic, CenterFreq: s.CenterFreq, Width: s.Width, Gain: s.Gain}, nil
	case plateau.Params:
		return ShapeConfig{Type: ShapePlateau, CenterFreq: s.CenterFreq, Width: s.Width, FlatWidth: s.FlatWidth, Gain: s.Gain}, nil
	default:
		return ShapeConfig{}, fmt.Errorf("unsupported shape %T", s)
	}
}

// Shape builds the band shape after checking the settings.
func (sc ShapeConfig) Shape() (plateau.Shape, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	switch sc.Type {
	case ShapeGaussian:
		return plateau.Gaussian{CenterFreq: sc.CenterFreq, Width: sc.Width, Skew: sc.Skew, Kurtosis: sc.Kurtosis, Gain: sc.Gain}, nil
	case ShapeParabolic:
		return plateau.Parabolic{CenterFreq: sc.CenterFreq, Width: sc.Width, Gain: sc.Gain}, nil
	default:
		return plateau.Params{CenterFreq: sc.CenterFreq, Width: sc.Width, FlatWidth: sc.FlatWidth, Gain: sc.Gain}.Normalize(), nil
	}
}

// Validate checks the settings against the control-surface bounds.
func (sc ShapeConfig) Validate() error {
	b := plateau.DefaultBounds()

	var errs []error

	switch sc.Type {
	case ShapeGaussian:
		if sc.Kurtosis < MinKurtosis || sc.Kurtosis > MaxKurtosis {
			errs = append(errs, fmt.Errorf("kurtosis: %g outside [%g, %g]", sc.Kurtosis, MinKurtosis, MaxKurtosis))
		}

		if math.Abs(sc.Skew) > MaxSkew {
			errs = append(errs, fmt.Errorf("skew: %g outside [%g, %g]", sc.Skew, -MaxSkew, MaxSkew))
		}
	case ShapeParabolic:
	case ShapePlateau:
		if sc.FlatWidth < b.MinFlatWidth || sc.FlatWidth > b.MaxFlatWidth {
			errs = append(errs, fmt.Errorf("flat_width: %g outside [%g, %g]", sc.FlatWidth, b.MinFlatWidth, b.MaxFlatWidth))
		}
	default:
		return fmt.Errorf("type: unknown shape %q", sc.Type)
	}

	if sc.CenterFreq < b.MinCenterFreq || sc.CenterFreq > b.MaxCenterFreq {
		errs = append(errs, fmt.Errorf("center_freq: %g outside [%g, %g]", sc.CenterFreq, b.MinCenterFreq, b.MaxCenterFreq))
	}

	if sc.Width < b.MinWidth || sc.Width > b.MaxWidth {
		errs = append(errs, fmt.Errorf("width: %g outside [%g, %g]", sc.Width, b.MinWidth, b.MaxWidth))
	}

	if sc.Gain < b.MinGain || sc.Gain > b.MaxGain {
		errs = append(errs, fmt.Errorf("gain: %g outside [%g, %g]", sc.Gain, b.MinGain, b.MaxGain))
	}

	return errors.Join(errs...)
}

type SourceConfig struct {
	Type      string  `yaml:"type"`
	RNG       string  `yaml:"rng"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Path      string  `yaml:"path"`
	Loop      bool    `yaml:"loop"`
	Seed      int64   `yaml:"seed"`
}

type AnalyzerConfig struct {
	MinDB  float64 `yaml:"min_db"`
	MaxDB  float64 `yaml:"max_db"`
	Window string  `yaml:"window"`
	Decay  float64 `yaml:"decay"`
}

type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Filter   FilterConfig   `yaml:"filter"`
	Shapes   []ShapeConfig  `yaml:"shapes,omitempty"`
	Source   SourceConfig   `yaml:"source"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	LogLevel string         `yaml:"log_level"`
}

func Default() *Config {
	proc := core.DefaultProcessorConfig()
	p := plateau.DefaultParams()

	return &Config{
		Audio: AudioConfig{
			SampleRate: proc.SampleRate,
			BlockSize:  proc.BlockSize,
			FFTSize:    proc.FFTSize,
			Host:       HostAuto,
			FFTBackend: stream.BackendRecursive.String(),
		},
		Filter: FilterConfig{
			CenterFreq: p.CenterFreq,
			Width:      p.Width,
			FlatWidth:  p.FlatWidth,
			Gain:       p.Gain,
		},
		Source: SourceConfig{
			Type:      SourceNoise,
			RNG:       signal.Uniform.String(),
			Amplitude: 0.25,
			Frequency: 1000,
			Loop:      true,
			Seed:      1,
		},
		Analyzer: AnalyzerConfig{
			MinDB:  spectrum.DefaultMinDB,
			MaxDB:  spectrum.DefaultMaxDB,
			Window: window.TypeHann.String(),
		},
		LogLevel: "error",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/algo-plateau/settings.yaml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: %w", err)
		}

		dir = filepath.Join(home, ".config")
	}

	return filepath.Join(dir, "algo-plateau", "settings.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// The result is validated.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return c, nil
}

// Save writes c to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if err := c.ProcessorConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}

	switch c.Audio.Host {
	case HostAuto, HostRealtime, HostFallback:
	default:
		errs = append(errs, fmt.Errorf("audio.host: unknown host %q", c.Audio.Host))
	}

	if _, err := stream.ParseBackend(c.Audio.FFTBackend); err != nil {
		errs = append(errs, fmt.Errorf("audio.fft_backend: %w", err))
	}

	b := plateau.DefaultBounds()
	f := c.Filter

	if f.CenterFreq < b.MinCenterFreq || f.CenterFreq > b.MaxCenterFreq {
		errs = append(errs, fmt.Errorf("filter.center_freq: %g outside [%g, %g]", f.CenterFreq, b.MinCenterFreq, b.MaxCenterFreq))
	}

	if f.Width < b.MinWidth || f.Width > b.MaxWidth {
		errs = append(errs, fmt.Errorf("filter.width: %g outside [%g, %g]", f.Width, b.MinWidth, b.MaxWidth))
	}

	if f.FlatWidth < b.MinFlatWidth || f.FlatWidth > b.MaxFlatWidth {
		errs = append(errs, fmt.Errorf("filter.flat_width: %g outside [%g, %g]", f.FlatWidth, b.MinFlatWidth, b.MaxFlatWidth))
	}

	if f.Gain < b.MinGain || f.Gain > b.MaxGain {
		errs = append(errs, fmt.Errorf("filter.gain: %g outside [%g, %g]", f.Gain, b.MinGain, b.MaxGain))
	}

	for i, sc := range c.Shapes {
		if err := sc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("shapes[%d]: %w", i, err))
		}
	}

	switch c.Source.Type {
	case SourceNoise, SourceSine:
	case SourceWAV:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path: required for wav source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.type: unknown source %q", c.Source.Type))
	}

	if _, err := signal.ParseDistribution(c.Source.RNG); err != nil {
		errs = append(errs, fmt.Errorf("source.rng: %w", err))
	}

	if c.Analyzer.MinDB >= c.Analyzer.MaxDB {
		errs = append(errs, fmt.Errorf("analyzer: min_db %g must be below max_db %g", c.Analyzer.MinDB, c.Analyzer.MaxDB))
	}

	if _, ok := window.ParseType(c.Analyzer.Window); !ok {
		errs = append(errs, fmt.Errorf("analyzer.window: unknown window %q", c.Analyzer.Window))
	}

	if c.Analyzer.Decay < 0 || c.Analyzer.Decay > 1 {
		errs = append(errs, fmt.Errorf("analyzer.decay: %g outside [0, 1]", c.Analyzer.Decay))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ProcessorConfig returns the audio section as a processor configuration.
func (c *Config) ProcessorConfig() core.ProcessorConfig {
	return core.ProcessorConfig{
		SampleRate: c.Audio.SampleRate,
		BlockSize:  c.Audio.BlockSize,
		FFTSize:    c.Audio.FFTSize,
	}
}

// Params returns the filter section as normalised parameters.
func (c *Config) Params() plateau.Params {
	return plateau.Params{
		CenterFreq: c.Filter.CenterFreq,
		Width:      c.Filter.Width,
		FlatWidth:  c.Filter.FlatWidth,
		Gain:       c.Filter.Gain,
	}.Normalize()
}

// BandShapes returns the extra shapes in file order.
func (c *Config) BandShapes() ([]plateau.Shape, error) {
	shapes := make([]plateau.Shape, 0, len(c.Shapes))

	for i, sc := range c.Shapes {
		s, err := sc.Shape()
		if err != nil {
			return nil, fmt.Errorf("config: shapes[%d]: %w", i, err)
		}

		shapes = append(shapes, s)
	}

	return shapes, nil
}

// AnalyzerOptions returns the analyzer section as spectrum options.
func (c *Config) AnalyzerOptions() []spectrum.AnalyzerOption {
	opts := []spectrum.AnalyzerOption{spectrum.WithRange(c.Analyzer.MinDB, c.Analyzer.MaxDB)}

	if t, ok := window.ParseType(c.Analyzer.Window); ok {
		opts = append(opts, spectrum.WithWindowType(t))
	}

	if c.Analyzer.Decay > 0 {
		opts = append(opts, spectrum.WithDecay(c.Analyzer.Decay))
	}

	return opts
}

// ParseLevel maps a log level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level: unknown level %q", s)
	}
}
