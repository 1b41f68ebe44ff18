package app

import (
	"fmt"
	"io"
	"os"

	"github.com/gekko3d/volcast"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/gekko3d/volcast/volrt/rt/volume"
	"gopkg.in/yaml.v3"
)

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// SourceConfig picks the synthetic volume the demo renders.
type SourceConfig struct {
	Kind string `yaml:"kind"` // sphere or wavelet
	// Dims is the sphere sample count per axis.
	Dims int `yaml:"dims"`
	// Raw keeps the generated float samples instead of converting to uint8.
	Raw bool `yaml:"raw"`
}

type ColorKnot struct {
	Value float32    `yaml:"value"`
	RGB   [3]float32 `yaml:"rgb"`
}

type AlphaKnot struct {
	Value float32 `yaml:"value"`
	Alpha float32 `yaml:"alpha"`
}

type BenchConfig struct {
	WarmupFrames int `yaml:"warmup_frames"`
	Frames       int `yaml:"frames"`
}

// Config is the demo configuration. Knots are in scalar units of the
// uploaded volume and are mapped onto the table through KnotRange.
type Config struct {
	Window          WindowConfig         `yaml:"window"`
	Mapper          volcast.MapperConfig `yaml:"mapper"`
	Source          SourceConfig         `yaml:"source"`
	ColorKnots      []ColorKnot          `yaml:"color_knots"`
	AlphaKnots      []AlphaKnot          `yaml:"alpha_knots"`
	KnotRange       [2]float64           `yaml:"knot_range"`
	AzimuthPerFrame float32              `yaml:"azimuth_per_frame"`
	Bench           BenchConfig          `yaml:"bench"`
	Debug           bool                 `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 400, Height: 400, Title: "VolCast"},
		Mapper: volcast.DefaultMapperConfig(),
		Source: SourceConfig{Kind: "sphere", Dims: 127},
		ColorKnots: []ColorKnot{
			{Value: 0, RGB: [3]float32{0, 0, 1}},
			{Value: 40, RGB: [3]float32{1, 0, 0}},
			{Value: 255, RGB: [3]float32{1, 1, 1}},
		},
		AlphaKnots: []AlphaKnot{
			{Value: 0, Alpha: 0},
			{Value: 255, Alpha: 1},
		},
		KnotRange:       [2]float64{0, 255},
		AzimuthPerFrame: 1,
		Bench:           BenchConfig{WarmupFrames: 10, Frames: 100},
	}
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if err := c.Mapper.Validate(); err != nil {
		return fmt.Errorf("mapper: %w", err)
	}
	switch c.Source.Kind {
	case "sphere":
		if c.Source.Dims < 2 {
			return fmt.Errorf("source: sphere needs at least 2 samples per axis, got %d", c.Source.Dims)
		}
	case "wavelet":
	default:
		return fmt.Errorf("source: unknown kind %q", c.Source.Kind)
	}
	if c.KnotRange[1] <= c.KnotRange[0] {
		return fmt.Errorf("knot_range %v is empty", c.KnotRange)
	}
	if c.Bench.WarmupFrames < 0 || c.Bench.Frames < 1 {
		return fmt.Errorf("bench: need warmup >= 0 and frames >= 1, got %d/%d", c.Bench.WarmupFrames, c.Bench.Frames)
	}
	return nil
}

func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadConfig reads path, or returns the defaults when path is empty.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return DecodeConfig(f)
}

// TransferKnots converts the configured knots to table indices.
func (c *Config) TransferKnots() (color, alpha []transfer.ControlPoint, err error) {
	for _, k := range c.ColorKnots {
		color = append(color, transfer.ColorPoint(k.Value, k.RGB[0], k.RGB[1], k.RGB[2]))
	}
	for _, k := range c.AlphaKnots {
		alpha = append(alpha, transfer.AlphaPoint(k.Value, k.Alpha))
	}
	if color, err = transfer.RescaleKnots(color, c.KnotRange, c.Mapper.TableSize); err != nil {
		return nil, nil, err
	}
	if alpha, err = transfer.RescaleKnots(alpha, c.KnotRange, c.Mapper.TableSize); err != nil {
		return nil, nil, err
	}
	return color, alpha, nil
}

// BuildSource generates the configured volume.
func (c *Config) BuildSource() (*volume.Grid, error) {
	var (
		grid *volume.Grid
		err  error
	)
	switch c.Source.Kind {
	case "wavelet":
		grid, err = volume.DefaultWaveletSource().Generate()
	default:
		src := volume.DefaultSphereSource()
		src.Dims = [3]int{c.Source.Dims, c.Source.Dims, c.Source.Dims}
		grid, err = src.Generate()
	}
	if err != nil {
		return nil, err
	}
	if c.Source.Raw {
		return grid, nil
	}
	return volume.ShiftScaleToUint8(grid)
}
