package raster

import (
	"math"
	"testing"

	"github.com/go-deodr/deodr/pkg/linalg"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestBuildTriangleStencilBarycentricRoundTrip(t *testing.T) {
	v := [3]linalg.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	s := BuildTriangleStencil(v)

	// xy1_to_bary . bary_to_xy1 should be the identity on each vertex's
	// own homogeneous coordinate, recovering a one-hot barycentric triple.
	for k := 0; k < 3; k++ {
		homog := linalg.V3(v[k].X, v[k].Y, 1)
		bary := linalg.MulMat3Vec3(s.XY1ToBary, homog)
		want := [3]float64{}
		want[k] = 1
		got := bary.Array()
		for j := 0; j < 3; j++ {
			if !almostEqual(got[j], want[j], 1e-9) {
				t.Fatalf("vertex %d barycentric = %v, want one-hot at %d", k, got, k)
			}
		}
	}
}

func TestRasterizeInterpolatedFillsTriangle(t *testing.T) {
	v := [3]linalg.Vec2{{X: 1, Y: 1}, {X: 8, Y: 1}, {X: 1, Y: 8}}
	s := BuildTriangleStencil(v)
	depths := [3]float64{1, 1, 1}
	attrs := [3][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	width, height, channels := 10, 10, 3
	zBuffer := make([]float64, width*height)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	image := make([]float64, width*height*channels)

	RasterizeInterpolated(s, depths, attrs, zBuffer, image, height, width, channels)

	// centroid should be roughly equal-weighted across the three colors.
	cx, cy := 3, 3
	idx := cy*width + cx
	sum := image[channels*idx] + image[channels*idx+1] + image[channels*idx+2]
	if !almostEqual(sum, 1, 1e-6) {
		t.Fatalf("centroid color sum = %v, want 1 (barycentric partition of unity)", sum)
	}

	// a pixel clearly outside the triangle must be untouched (still zero).
	far := 9*width + 9
	if image[channels*far] != 0 || image[channels*far+1] != 0 {
		t.Fatalf("pixel outside triangle was written: %v", image[channels*far:channels*far+3])
	}
}

func TestRasterizeInterpolatedAdjointFiniteDifference(t *testing.T) {
	v := [3]linalg.Vec2{{X: 1, Y: 1}, {X: 8, Y: 2}, {X: 2, Y: 9}}
	depths := [3]float64{1, 1, 1}
	attrs := [3][]float64{{0.2, 0.4, 0.6}, {0.9, 0.1, 0.3}, {0.5, 0.5, 0.5}}
	width, height, channels := 12, 12, 3

	render := func(vv [3]linalg.Vec2) []float64 {
		s := BuildTriangleStencil(vv)
		zBuffer := make([]float64, width*height)
		for i := range zBuffer {
			zBuffer[i] = math.Inf(1)
		}
		image := make([]float64, width*height*channels)
		RasterizeInterpolated(s, depths, attrs, zBuffer, image, height, width, channels)
		return image
	}

	base := render(v)
	zBuffer := make([]float64, width*height)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	s := BuildTriangleStencil(v)
	image := make([]float64, width*height*channels)
	RasterizeInterpolated(s, depths, attrs, zBuffer, image, height, width, channels)

	imageAdj := make([]float64, len(image))
	// seed a single pixel/channel so the adjoint has a scalar output to check.
	probe := (6*width+4)*channels + 1
	imageAdj[probe] = 1

	var attrsAdj [3][]float64
	for k := range attrsAdj {
		attrsAdj[k] = make([]float64, channels)
	}
	var vAdj [3]linalg.Vec2
	RasterizeInterpolatedAdjoint(s, depths, attrs, zBuffer, image, imageAdj, height, width, channels, &attrsAdj, &vAdj)

	h := 1e-6
	vP := v
	vP[0].X += h
	imageP := render(vP)
	numeric := (imageP[probe] - base[probe]) / h
	if math.Abs(numeric-vAdj[0].X) > 1e-2 {
		t.Fatalf("d(image[probe])/d(v0.X) mismatch: analytic %v numeric %v", vAdj[0].X, numeric)
	}
}
