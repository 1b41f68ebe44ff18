package volcast

import (
	"fmt"
	"io"
	"os"

	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"gopkg.in/yaml.v3"
)

// MaxTableSize is the largest transfer table a 1D texture can hold.
const MaxTableSize = 8192

// MapperConfig holds the settings a VolumeMapper starts with.
type MapperConfig struct {
	TableSize int            `yaml:"table_size"`
	BlendMode core.BlendMode `yaml:"blend_mode"`
	// SampleDistance is the world-space ray step. Zero picks one from the bounds.
	SampleDistance float32 `yaml:"sample_distance"`
	// ScalarRange overrides the display range derived from the grid.
	ScalarRange *[2]float64 `yaml:"scalar_range,omitempty"`
}

func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		TableSize: transfer.DefaultTableSize,
		BlendMode: core.BlendComposite,
	}
}

func (c MapperConfig) Validate() error {
	if c.TableSize < 1 || c.TableSize > MaxTableSize {
		return fmt.Errorf("table_size %d outside [1, %d]", c.TableSize, MaxTableSize)
	}
	switch c.BlendMode {
	case core.BlendComposite, core.BlendAdditive:
	default:
		return fmt.Errorf("unknown blend_mode %d", c.BlendMode)
	}
	if c.SampleDistance < 0 {
		return fmt.Errorf("sample_distance %v is negative", c.SampleDistance)
	}
	return nil
}

// DecodeMapperConfig reads YAML on top of the defaults.
func DecodeMapperConfig(r io.Reader) (MapperConfig, error) {
	cfg := DefaultMapperConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("decode mapper config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadMapperConfig(path string) (MapperConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return MapperConfig{}, err
	}
	defer f.Close()
	return DecodeMapperConfig(f)
}
