package raster

import (
	"math"
	"testing"

	"github.com/go-deodr/deodr/pkg/linalg"
)

func TestRasterizeEdgeInterpolatedInvertibleComposite(t *testing.T) {
	v0, v1 := linalg.V2(2, 2), linalg.V2(2, 8)
	sigma := 1.0
	width, height, channels := 12, 12, 3
	s := BuildEdgeStencil(v0, v1, sigma, true, height, width)

	depths := [2]float64{1, 1}
	attrs := [2][]float64{{1, 0, 0}, {1, 0, 0}}

	zBuffer := make([]float64, width*height)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	original := make([]float64, width*height*channels)
	for i := range original {
		original[i] = 0.37
	}
	image := append([]float64(nil), original...)

	RasterizeEdgeInterpolated(s, depths, attrs, zBuffer, image, width, channels)

	if equalSlices(image, original) {
		t.Fatalf("edge rasterization left the image unchanged")
	}

	// the invertible composite, run through the adjoint's restoration
	// step with a zero seed, must reconstruct the pre-edge image exactly.
	imageAdj := make([]float64, len(image))
	restored := append([]float64(nil), image...)
	var attrsAdj [2][]float64
	for k := range attrsAdj {
		attrsAdj[k] = make([]float64, channels)
	}
	var v0Adj, v1Adj linalg.Vec2
	RasterizeEdgeInterpolatedAdjoint(s, depths, attrs, zBuffer, restored, imageAdj, width, channels, &attrsAdj, &v0Adj, &v1Adj)

	for i := range restored {
		if math.Abs(restored[i]-original[i]) > 1e-9 {
			t.Fatalf("pixel %d: restored %v, want original %v", i, restored[i], original[i])
		}
	}
}

func TestRasterizeEdgeInterpolatedAdjointFiniteDifference(t *testing.T) {
	v0, v1 := linalg.V2(2, 2), linalg.V2(2, 8)
	sigma := 1.0
	width, height, channels := 12, 12, 2
	depths := [2]float64{1, 1}
	attrs := [2][]float64{{0.3, 0.7}, {0.9, 0.2}}

	render := func(vv0 linalg.Vec2) []float64 {
		s := BuildEdgeStencil(vv0, v1, sigma, true, height, width)
		zBuffer := make([]float64, width*height)
		for i := range zBuffer {
			zBuffer[i] = math.Inf(1)
		}
		image := make([]float64, width*height*channels)
		for i := range image {
			image[i] = 0.5
		}
		RasterizeEdgeInterpolated(s, depths, attrs, zBuffer, image, width, channels)
		return image
	}

	base := render(v0)

	s := BuildEdgeStencil(v0, v1, sigma, true, height, width)
	zBuffer := make([]float64, width*height)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	image := make([]float64, width*height*channels)
	for i := range image {
		image[i] = 0.5
	}
	RasterizeEdgeInterpolated(s, depths, attrs, zBuffer, image, width, channels)

	probe := (5*width+2)*channels + 0
	imageAdj := make([]float64, len(image))
	imageAdj[probe] = 1
	var attrsAdj [2][]float64
	for k := range attrsAdj {
		attrsAdj[k] = make([]float64, channels)
	}
	var v0Adj, v1Adj linalg.Vec2
	RasterizeEdgeInterpolatedAdjoint(s, depths, attrs, zBuffer, image, imageAdj, width, channels, &attrsAdj, &v0Adj, &v1Adj)

	h := 1e-6
	imageP := render(linalg.V2(v0.X+h, v0.Y))
	numeric := (imageP[probe] - base[probe]) / h
	if math.Abs(numeric-v0Adj.X) > 5e-3 {
		t.Fatalf("d(image[probe])/d(v0.X) mismatch: analytic %v numeric %v", v0Adj.X, numeric)
	}
}

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
