package core

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	atlasSize = 512
	// TextVertexSize is the byte size of one packed TextVertex.
	TextVertexSize = 8 * 4
)

type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// TextItem is one string of the HUD. Position is the top-left corner in pixels.
type TextItem struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type glyphInfo struct {
	uvMin [2]float32
	uvMax [2]float32
	size  [2]float32
	off   [2]float32
	adv   float32
}

// TextRenderer rasterizes printable ASCII into an alpha atlas once and lays
// out quads against it every frame.
type TextRenderer struct {
	Atlas  *image.Alpha
	glyphs map[rune]glyphInfo
	face   font.Face
}

// NewDefaultTextRenderer uses the embedded Go Regular font.
func NewDefaultTextRenderer(fontSize float64) (*TextRenderer, error) {
	return NewTextRenderer(goregular.TTF, fontSize)
}

func NewTextRenderer(fontBytes []byte, fontSize float64) (*TextRenderer, error) {
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}

	tr := &TextRenderer{
		Atlas:  image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize)),
		glyphs: make(map[rune]glyphInfo),
		face:   face,
	}
	tr.packGlyphs()
	return tr, nil
}

func (tr *TextRenderer) packGlyphs() {
	x, y, rowHeight := 2, 2, 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, _, adv, ok := tr.face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			return
		}

		draw.Draw(tr.Atlas, image.Rect(x, y, x+w, y+h), mask, mask.Bounds().Min, draw.Src)
		tr.glyphs[r] = glyphInfo{
			uvMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:  [2]float32{float32(w), float32(h)},
			off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv:   float32(adv) / 64.0,
		}

		x += w + 4
		rowHeight = max(rowHeight, h)
	}
}

// HasGlyph reports whether r was packed into the atlas.
func (tr *TextRenderer) HasGlyph(r rune) bool {
	_, ok := tr.glyphs[r]
	return ok
}

// BuildVertices lays out items as two triangles per glyph in clip space.
func (tr *TextRenderer) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	vertices := make([]TextVertex, 0, len(items)*6)
	if screenW <= 0 || screenH <= 0 {
		return vertices
	}

	sw, sh := float32(screenW), float32(screenH)
	toClip := func(px, py float32) [2]float32 {
		return [2]float32{px/sw*2.0 - 1.0, 1.0 - py/sh*2.0}
	}
	ascent := float32(tr.face.Metrics().Ascent.Ceil())
	lineHeight := tr.LineHeight(1)

	for _, item := range items {
		posX := item.Position[0]
		posY := item.Position[1] + ascent*item.Scale

		for _, r := range item.Text {
			if r == '\n' {
				posX = item.Position[0]
				posY += lineHeight * item.Scale
				continue
			}
			g, ok := tr.glyphs[r]
			if !ok {
				continue
			}

			p0 := toClip(posX+g.off[0]*item.Scale, posY+g.off[1]*item.Scale)
			p1 := toClip(posX+(g.off[0]+g.size[0])*item.Scale, posY+(g.off[1]+g.size[1])*item.Scale)
			quad := [4]TextVertex{
				{Pos: p0, UV: g.uvMin, Color: item.Color},
				{Pos: [2]float32{p1[0], p0[1]}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: item.Color},
				{Pos: [2]float32{p0[0], p1[1]}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: item.Color},
				{Pos: p1, UV: g.uvMax, Color: item.Color},
			}
			vertices = append(vertices, quad[0], quad[1], quad[2], quad[1], quad[3], quad[2])

			posX += g.adv * item.Scale
		}
	}
	return vertices
}

// MeasureText returns the width of the longest line and the total height.
func (tr *TextRenderer) MeasureText(text string, scale float32) (float32, float32) {
	if tr == nil {
		return 0, 0
	}
	maxW, currentW := float32(0), float32(0)
	lines := 1
	for _, r := range text {
		if r == '\n' {
			maxW = max(maxW, currentW)
			currentW = 0
			lines++
			continue
		}
		if g, ok := tr.glyphs[r]; ok {
			currentW += g.adv * scale
		}
	}
	return max(maxW, currentW), tr.LineHeight(scale) * float32(lines)
}

func (tr *TextRenderer) LineHeight(scale float32) float32 {
	if tr == nil {
		return 0
	}
	return float32(tr.face.Metrics().Height.Ceil()) * scale
}

// PackTextVertices encodes vertices for a vertex buffer with TextVertexSize stride.
func PackTextVertices(vertices []TextVertex) []byte {
	out := make([]byte, len(vertices)*TextVertexSize)
	for i, v := range vertices {
		fields := [8]float32{v.Pos[0], v.Pos[1], v.UV[0], v.UV[1], v.Color[0], v.Color[1], v.Color[2], v.Color[3]}
		for j, f := range fields {
			binary.LittleEndian.PutUint32(out[i*TextVertexSize+j*4:], math.Float32bits(f))
		}
	}
	return out
}
