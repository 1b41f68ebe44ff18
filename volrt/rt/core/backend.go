package core

import (
	"fmt"
	"strings"

	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/gekko3d/volcast/volrt/rt/volume"
)

// BlendMode selects how the fragment stage integrates samples along a ray.
type BlendMode uint32

const (
	BlendComposite BlendMode = iota
	BlendAdditive
)

func (m BlendMode) String() string {
	switch m {
	case BlendComposite:
		return "composite"
	case BlendAdditive:
		return "additive"
	}
	return fmt.Sprintf("BlendMode(%d)", uint32(m))
}

func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "composite":
		return BlendComposite, nil
	case "additive":
		return BlendAdditive, nil
	}
	return 0, fmt.Errorf("unknown blend mode %q", s)
}

func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *BlendMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Resource is a GPU object owned by the caller that created it.
type Resource interface {
	Release()
}

// Backend creates the GPU objects a volume needs and records its draw.
// All methods are called from the render thread.
type Backend interface {
	// Viewport returns the size of the current render target in pixels.
	Viewport() (width, height int)
	CreateVolumeTexture(plan *volume.TexturePlan) (Resource, error)
	CreateTransferTexture(table *transfer.Table) (Resource, error)
	CreateGeometry(geom *GeometryBuffers) (Resource, error)
	CreateProgram(mode BlendMode) (Resource, error)
	Draw(call *DrawCall) error
}

// DrawCall is one ray-cast draw of a bounding box.
type DrawCall struct {
	Program    Resource
	Geometry   Resource
	Volume     Resource
	Transfer   Resource
	IndexCount uint32
	Uniforms   FrameUniforms
}

// GraphicsResourceError reports a failed shader, texture or buffer creation.
type GraphicsResourceError struct {
	Op  string
	Err error
}

func (e *GraphicsResourceError) Error() string {
	return fmt.Sprintf("graphics resource %s: %v", e.Op, e.Err)
}

func (e *GraphicsResourceError) Unwrap() error {
	return e.Err
}
