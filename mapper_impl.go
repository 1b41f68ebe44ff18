package volcast

import (
	"fmt"

	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/gekko3d/volcast/volrt/rt/volume"
)

type mapperImpl struct {
	backend core.Backend
	log     Logger

	grid         *volume.Grid
	plan         *volume.TexturePlan
	displayRange *[2]float64

	colorKnots  []transfer.ControlPoint
	alphaKnots  []transfer.ControlPoint
	customColor bool
	customAlpha bool
	tableSize   int
	table       *transfer.Table

	blend          core.BlendMode
	sampleDistance float32
	xf             *core.Transform

	state   State
	failure error
	geom    *core.GeometryBuffers

	program     core.Resource
	geometry    core.Resource
	volumeTex   core.Resource
	transferTex core.Resource
}

func newMapperImpl(backend core.Backend, cfg MapperConfig, log Logger) (*mapperImpl, error) {
	if backend == nil {
		return nil, fmt.Errorf("volcast: nil backend")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &mapperImpl{
		backend:        backend,
		log:            log,
		tableSize:      cfg.TableSize,
		blend:          cfg.BlendMode,
		sampleDistance: cfg.SampleDistance,
		colorKnots:     transfer.DefaultColorKnots(cfg.TableSize),
		alphaKnots:     transfer.DefaultAlphaKnots(cfg.TableSize),
	}
	if cfg.ScalarRange != nil {
		r := *cfg.ScalarRange
		m.displayRange = &r
	}
	table, err := transfer.Build(m.colorKnots, m.alphaKnots, m.tableSize)
	if err != nil {
		return nil, err
	}
	m.table = table
	return m, nil
}

func (m *mapperImpl) setInput(grid *volume.Grid) error {
	if grid == nil {
		return fmt.Errorf("set input: nil grid")
	}
	plan, err := volume.Prepare(grid, m.displayRange)
	if err != nil {
		return fmt.Errorf("set input: %w", err)
	}

	replaced := m.grid != nil && (m.grid.ID != grid.ID || !m.grid.SameShape(grid))
	m.grid = grid
	m.plan = plan

	if m.volumeTex == nil {
		return nil
	}
	if !replaced {
		// Same identity and shape: the uploaded texels are still valid.
		m.plan.Texels = nil
		return nil
	}

	m.log.Debugf("volume %s replaced by %s, re-uploading", plan.GridID, grid.ID)
	m.volumeTex.Release()
	m.volumeTex = nil
	if err := m.uploadVolume(); err != nil {
		return m.fail(err)
	}
	return nil
}

func (m *mapperImpl) setScalarRange(r *[2]float64) error {
	if r == nil {
		m.displayRange = nil
	} else {
		cp := *r
		m.displayRange = &cp
	}
	if m.grid == nil {
		return nil
	}
	plan, err := volume.Prepare(m.grid, m.displayRange)
	if err != nil {
		return fmt.Errorf("set scalar range: %w", err)
	}
	prev := m.plan
	m.plan = plan
	if m.volumeTex == nil {
		return nil
	}
	if !plan.Folded || (prev != nil && prev.DisplayRange == plan.DisplayRange) {
		// Only shift and scale move; the uploaded texels stay valid.
		m.plan.Texels = nil
		return nil
	}
	m.log.Debugf("display range %v changes folded texels, re-uploading", plan.DisplayRange)
	m.volumeTex.Release()
	m.volumeTex = nil
	if err := m.uploadVolume(); err != nil {
		return m.fail(err)
	}
	return nil
}

// setKnots builds the new table and its texture before anything is swapped,
// so a failure leaves the previous pair in use.
func (m *mapperImpl) setKnots(color, alpha []transfer.ControlPoint, size int) error {
	if size > MaxTableSize {
		return fmt.Errorf("transfer table size %d exceeds %d", size, MaxTableSize)
	}
	table, err := transfer.Build(color, alpha, size)
	if err != nil {
		return err
	}

	var tex core.Resource
	if m.transferTex != nil {
		tex, err = m.backend.CreateTransferTexture(table)
		if err != nil {
			m.log.Warnf("transfer texture rebuild failed, keeping previous table: %v", err)
			return err
		}
	}

	m.colorKnots = append([]transfer.ControlPoint(nil), color...)
	m.alphaKnots = append([]transfer.ControlPoint(nil), alpha...)
	m.tableSize = size
	m.table = table
	if tex != nil {
		m.transferTex.Release()
		m.transferTex = tex
	}
	m.log.Debugf("transfer table rebuilt: %d texels, coverage %v", size, table.Coverage)
	return nil
}

func (m *mapperImpl) setTableSize(size int) error {
	color, alpha := m.colorKnots, m.alphaKnots
	if !m.customColor {
		color = transfer.DefaultColorKnots(size)
	}
	if !m.customAlpha {
		alpha = transfer.DefaultAlphaKnots(size)
	}
	return m.setKnots(color, alpha, size)
}

func (m *mapperImpl) setBlendMode(mode core.BlendMode) error {
	if m.state >= ShaderReady {
		return ErrRendererInitialized
	}
	m.blend = mode
	return nil
}

func (m *mapperImpl) render(cam core.CameraSource) error {
	if m.failure != nil {
		return fmt.Errorf("%w: %w", ErrRendererFailed, m.failure)
	}
	if m.grid == nil {
		return ErrNoInput
	}
	if cam == nil {
		return fmt.Errorf("render: nil camera")
	}

	if err := m.updateGeometry(); err != nil {
		return m.fail(err)
	}
	if m.state == GeometryReady {
		if err := m.initResources(); err != nil {
			return m.fail(err)
		}
		m.setState(ShaderReady)
	}
	if m.state == ShaderReady {
		m.setState(Rendering)
	}

	width, height := m.backend.Viewport()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: empty viewport %dx%d", width, height)
	}

	lo, hi := m.geom.Min, m.geom.Max
	if !core.AABBInFrustum(m.xf.WorldAABB(lo, hi), core.ExtractFrustum(core.ViewProjection(cam, width, height))) {
		return nil
	}

	frame := core.DeriveFrame(cam, width, height, m.xf, m.geom, m.sampleDistance)
	frame.Blend = m.blend
	frame.RGBA = m.plan.RGBA
	frame.Shift = m.plan.Shift
	frame.Scale = m.plan.Scale

	return m.backend.Draw(&core.DrawCall{
		Program:    m.program,
		Geometry:   m.geometry,
		Volume:     m.volumeTex,
		Transfer:   m.transferTex,
		IndexCount: uint32(len(m.geom.Indices)),
		Uniforms:   frame,
	})
}

// updateGeometry builds the box on the first call and whenever the grid bounds
// move. Unchanged bounds keep the existing buffers.
func (m *mapperImpl) updateGeometry() error {
	lo, hi := m.grid.Bounds()
	if m.geom.SameBounds(lo, hi) {
		return nil
	}
	geom := core.NewBoxGeometry(lo, hi)

	if m.geometry != nil {
		res, err := m.backend.CreateGeometry(geom)
		if err != nil {
			return err
		}
		m.geometry.Release()
		m.geometry = res
	}
	m.geom = geom
	if m.state == Uninitialized {
		m.setState(GeometryReady)
	}
	return nil
}

// initResources creates the program, box buffers and both textures. On error
// everything created here is released again.
func (m *mapperImpl) initResources() (err error) {
	var created []core.Resource
	defer func() {
		if err != nil {
			for i := len(created) - 1; i >= 0; i-- {
				created[i].Release()
			}
			m.program, m.geometry, m.volumeTex, m.transferTex = nil, nil, nil, nil
		}
	}()

	if m.program, err = m.backend.CreateProgram(m.blend); err != nil {
		return err
	}
	created = append(created, m.program)

	if m.geometry, err = m.backend.CreateGeometry(m.geom); err != nil {
		return err
	}
	created = append(created, m.geometry)

	if err = m.uploadVolume(); err != nil {
		return err
	}
	created = append(created, m.volumeTex)

	if m.transferTex, err = m.backend.CreateTransferTexture(m.table); err != nil {
		return err
	}
	created = append(created, m.transferTex)

	m.log.Infof("volume mapper ready: %s blend, %d texel table", m.blend, m.table.Size())
	return nil
}

func (m *mapperImpl) uploadVolume() error {
	if m.plan == nil || m.plan.Texels == nil {
		plan, err := volume.Prepare(m.grid, m.displayRange)
		if err != nil {
			return err
		}
		m.plan = plan
	}
	tex, err := m.backend.CreateVolumeTexture(m.plan)
	if err != nil {
		return err
	}
	m.volumeTex = tex
	m.log.Debugf("uploaded volume %s: %v %s, range %v", m.plan.GridID, m.plan.Size, m.plan.Format, m.plan.DisplayRange)
	// The GPU copy is authoritative from here on.
	m.plan.Texels = nil
	return nil
}

// fail latches err until reset and frees everything the mapper holds.
func (m *mapperImpl) fail(err error) error {
	m.log.Errorf("volume mapper failed in state %s: %v", m.state, err)
	m.releaseResources()
	m.failure = err
	return err
}

func (m *mapperImpl) setState(s State) {
	m.log.Debugf("volume mapper %s -> %s", m.state, s)
	m.state = s
}

func (m *mapperImpl) releaseResources() {
	for _, r := range []core.Resource{m.transferTex, m.volumeTex, m.geometry, m.program} {
		if r != nil {
			r.Release()
		}
	}
	m.program, m.geometry, m.volumeTex, m.transferTex = nil, nil, nil, nil
}

func (m *mapperImpl) reset() {
	m.releaseResources()
	m.failure = nil
	m.geom = nil
	m.state = Uninitialized
}
