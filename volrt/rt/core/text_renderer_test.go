package core

import (
	"testing"
)

func TestTextRenderer_Layout(t *testing.T) {
	tr, err := NewDefaultTextRenderer(16)
	if err != nil {
		t.Fatal(err)
	}
	if !tr.HasGlyph('F') || tr.HasGlyph('\n') {
		t.Fatal("expected printable ASCII only in the atlas")
	}

	items := []TextItem{{Text: "FPS60", Position: [2]float32{10, 10}, Scale: 1, Color: [4]float32{1, 1, 1, 1}}}
	vertices := tr.BuildVertices(items, 800, 600)
	if len(vertices) != 5*6 {
		t.Errorf("expected 6 vertices per visible glyph, got %d", len(vertices))
	}
	for _, v := range vertices {
		if v.Pos[0] < -1 || v.Pos[0] > 1 || v.Pos[1] < -1 || v.Pos[1] > 1 {
			t.Errorf("vertex %v outside clip space", v.Pos)
		}
	}
	if got := len(PackTextVertices(vertices)); got != len(vertices)*TextVertexSize {
		t.Errorf("unexpected packed size %d", got)
	}

	if len(tr.BuildVertices(items, 0, 0)) != 0 {
		t.Error("an empty viewport produces no vertices")
	}
}

func TestTextRenderer_Measure(t *testing.T) {
	tr, err := NewDefaultTextRenderer(16)
	if err != nil {
		t.Fatal(err)
	}
	w1, h1 := tr.MeasureText("abc", 1)
	w2, h2 := tr.MeasureText("abc\na", 1)
	if w1 <= 0 || w2 != w1 {
		t.Errorf("expected longest line width, got %v and %v", w1, w2)
	}
	if h2 != 2*h1 {
		t.Errorf("expected two lines of height, got %v vs %v", h2, h1)
	}

	var nilRenderer *TextRenderer
	if w, h := nilRenderer.MeasureText("x", 1); w != 0 || h != 0 {
		t.Error("nil renderer measures nothing")
	}
}
