package volcast

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMapperConfig_Defaults(t *testing.T) {
	cfg, err := DecodeMapperConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, transfer.DefaultTableSize, cfg.TableSize)
	assert.Equal(t, core.BlendComposite, cfg.BlendMode)
	assert.Zero(t, cfg.SampleDistance)
	assert.Nil(t, cfg.ScalarRange)
}

func TestDecodeMapperConfig_Overrides(t *testing.T) {
	src := `
table_size: 256
blend_mode: additive
sample_distance: 0.005
scalar_range: [10, 200]
`
	cfg, err := DecodeMapperConfig(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.TableSize)
	assert.Equal(t, core.BlendAdditive, cfg.BlendMode)
	assert.InDelta(t, 0.005, cfg.SampleDistance, 1e-9)
	require.NotNil(t, cfg.ScalarRange)
	assert.Equal(t, [2]float64{10, 200}, *cfg.ScalarRange)
}

func TestDecodeMapperConfig_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "table_sise: 12\n",
		"bad blend":     "blend_mode: mip\n",
		"zero table":    "table_size: 0\n",
		"huge table":    "table_size: 100000\n",
		"negative step": "sample_distance: -1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMapperConfig(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadMapperConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("table_size: 1024\n"), 0o644))

	cfg, err := LoadMapperConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.TableSize)

	_, err = LoadMapperConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
