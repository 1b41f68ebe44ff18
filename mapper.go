package volcast

import (
	"fmt"

	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/gekko3d/volcast/volrt/rt/volume"
)

// State is the initialization stage of a VolumeMapper.
type State int

const (
	Uninitialized State = iota
	GeometryReady
	ShaderReady
	Rendering
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case GeometryReady:
		return "geometry-ready"
	case ShaderReady:
		return "shader-ready"
	case Rendering:
		return "rendering"
	}
	return "unknown"
}

// VolumeMapper draws one scalar grid by single-pass ray casting. GPU objects
// are created lazily by the first Render. A mapper is not safe for
// concurrent use; every call belongs on the render thread.
type VolumeMapper struct {
	impl *mapperImpl
}

func NewVolumeMapper(backend core.Backend, cfg MapperConfig, logger Logger) (*VolumeMapper, error) {
	impl, err := newMapperImpl(backend, cfg, orNop(logger).Named("mapper"))
	if err != nil {
		return nil, err
	}
	return &VolumeMapper{impl: impl}, nil
}

// SetInput replaces the grid. The grid is planned immediately, so an
// unsupported scalar kind fails here and the previous input stays active.
func (m *VolumeMapper) SetInput(grid *volume.Grid) error {
	return m.impl.setInput(grid)
}

// SetScalarRange fixes the display range; nil returns to the default.
func (m *VolumeMapper) SetScalarRange(r *[2]float64) error {
	return m.impl.setScalarRange(r)
}

// SetColorKnots replaces the color knots. Positions are table indices.
func (m *VolumeMapper) SetColorKnots(points []transfer.ControlPoint) error {
	if err := m.impl.setKnots(points, m.impl.alphaKnots, m.impl.tableSize); err != nil {
		return err
	}
	m.impl.customColor = true
	return nil
}

// SetAlphaKnots replaces the opacity knots. Positions are table indices.
func (m *VolumeMapper) SetAlphaKnots(points []transfer.ControlPoint) error {
	if err := m.impl.setKnots(m.impl.colorKnots, points, m.impl.tableSize); err != nil {
		return err
	}
	m.impl.customAlpha = true
	return nil
}

// SetTableSize rebuilds the table at size texels. Knots that were never set
// follow the new size; explicit knots keep their positions.
func (m *VolumeMapper) SetTableSize(size int) error {
	return m.impl.setTableSize(size)
}

// SetBlendMode is only allowed before the program is created.
func (m *VolumeMapper) SetBlendMode(mode core.BlendMode) error {
	return m.impl.setBlendMode(mode)
}

func (m *VolumeMapper) SetSampleDistance(d float32) {
	if d < 0 {
		d = 0
	}
	m.impl.sampleDistance = d
}

// SetTransform places the volume in the world. nil means identity.
func (m *VolumeMapper) SetTransform(xf *core.Transform) error {
	if !xf.Valid() {
		return fmt.Errorf("set transform: singular transform %+v", *xf)
	}
	m.impl.xf = xf
	return nil
}

// Render draws the volume for cam into the backend's current frame.
func (m *VolumeMapper) Render(cam core.CameraSource) error {
	return m.impl.render(cam)
}

// Geometry returns the current bounding box buffers, nil before the first Render.
func (m *VolumeMapper) Geometry() *core.GeometryBuffers {
	return m.impl.geom
}

func (m *VolumeMapper) State() State {
	return m.impl.state
}

// Err returns the error that latched the mapper, if any.
func (m *VolumeMapper) Err() error {
	return m.impl.failure
}

// Table returns the active transfer table. It is never mutated.
func (m *VolumeMapper) Table() *transfer.Table {
	return m.impl.table
}

// Plan returns the upload plan of the current input.
func (m *VolumeMapper) Plan() *volume.TexturePlan {
	return m.impl.plan
}

func (m *VolumeMapper) BlendMode() core.BlendMode {
	return m.impl.blend
}

// Reset frees all GPU objects and clears a latched failure. Input and
// settings are kept; the next Render initializes again.
func (m *VolumeMapper) Reset() {
	m.impl.reset()
}

// Release frees all GPU objects and drops the input.
func (m *VolumeMapper) Release() {
	m.impl.reset()
	m.impl.grid = nil
	m.impl.plan = nil
}
