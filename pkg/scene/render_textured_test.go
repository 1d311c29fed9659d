package scene

import (
	"math"
	"testing"
)

// texturedTriangleScene builds a single textured, Gouraud-shaded triangle
// over a 2x2 checker texture, with UV coordinates stored one-based as
// callers are expected to.
func texturedTriangleScene() *Scene {
	width, height, channels := 20, 20, 1
	s := &Scene{
		Faces:       []uint32{0, 1, 2},
		FacesUV:     []uint32{0, 1, 2},
		Depths:      []float64{1, 1, 1},
		IJ:          []float64{2, 2, 17, 2, 2, 17},
		Shade:       []float64{1, 1, 1},
		Colors:      []float64{0, 0, 0},
		UV:          []float64{1, 1, 2, 1, 1, 2}, // one-based: (0,0) (1,0) (0,1)
		EdgeFlags:   []bool{false, false, false},
		Textured:    []bool{true},
		Shaded:      []bool{true},
		NbTriangles: 1,
		NbVertices:  3,
		NbUV:        3,
		NbColors:    channels,
		Height:      height,
		Width:       width,
		Clockwise:   true,

		Texture:       []float64{0, 1, 1, 0},
		TextureWidth:  2,
		TextureHeight: 2,
		Background:    make([]float64, width*height*channels),
	}
	return s
}

func TestRenderForwardTexturedGouraudDispatch(t *testing.T) {
	s := texturedTriangleScene()
	image := make([]float64, s.Height*s.Width*s.NbColors)
	zBuffer := make([]float64, s.Height*s.Width)
	if err := RenderForward(s, Options{}, image, zBuffer); err != nil {
		t.Fatalf("RenderForward: %v", err)
	}

	idx := 6*s.Width + 6
	if image[idx] == 0 {
		t.Fatalf("expected textured interior pixel to receive a nonzero sample, got %v", image[idx])
	}
}

func TestRenderReverseErrorRoundTrip(t *testing.T) {
	s := oneTriangleScene([3]float64{0.2, 0.4, 0.6}, [3]float64{0.9, 0.1, 0.3}, [3]float64{0.5, 0.5, 0.5}, true)
	s.EdgeFlags = []bool{true, true, true}
	opts := Options{Sigma: 1}

	observed := make([]float64, s.Height*s.Width*s.NbColors)
	image := make([]float64, s.Height*s.Width*s.NbColors)
	zBuffer := make([]float64, s.Height*s.Width)
	if err := RenderForward(s, opts, image, zBuffer); err != nil {
		t.Fatalf("RenderForward: %v", err)
	}
	copy(observed, image)

	opts.Observed = observed
	image2 := make([]float64, s.Height*s.Width*s.NbColors)
	zBuffer2 := make([]float64, s.Height*s.Width)
	errBuffer := make([]float64, s.Height*s.Width)
	if err := RenderForwardError(s, opts, image2, zBuffer2, errBuffer); err != nil {
		t.Fatalf("RenderForwardError: %v", err)
	}

	for i, v := range errBuffer {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("errBuffer[%d] = %v, want 0 rendering against its own observed image", i, v)
		}
	}

	adj := NewAdjoints(s)
	errBufferAdj := make([]float64, len(errBuffer))
	errBufferAdj[6*s.Width+6] = 1
	if err := RenderReverseError(s, adj, opts, image2, zBuffer2, errBuffer, errBufferAdj); err != nil {
		t.Fatalf("RenderReverseError: %v", err)
	}

	for i, v := range adj.Colors {
		if v != 0 {
			t.Fatalf("adj.Colors[%d] = %v, want 0 at a zero-residual minimum", i, v)
		}
	}
}
