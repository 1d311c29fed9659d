package raster

import (
	"math"
	"testing"

	"github.com/go-deodr/deodr/pkg/linalg"
	"github.com/go-deodr/deodr/pkg/texture"
)

func checkerTexture() *texture.Sampler {
	tex := texture.New(2, 2, 1)
	tex.At(0, 0)[0] = 0
	tex.At(1, 0)[0] = 1
	tex.At(0, 1)[0] = 1
	tex.At(1, 1)[0] = 0
	return tex
}

func TestRasterizeTexturedGouraudFillsTriangle(t *testing.T) {
	height, width, channels := 20, 20, 1
	ij := [3]linalg.Vec2{linalg.V2(2, 2), linalg.V2(17, 2), linalg.V2(2, 17)}
	st := BuildTriangleStencil(ij)
	depths := [3]float64{1, 1, 1}
	shade := [3][]float64{{1}, {1}, {1}}
	uv := [3]linalg.Vec2{linalg.V2(0, 0), linalg.V2(1, 0), linalg.V2(0, 1)}
	tex := checkerTexture()

	zBuffer := make([]float64, height*width)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	image := make([]float64, height*width*channels)

	RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, height, width, channels)

	idx := 6*width + 6
	if image[idx] == 0 {
		t.Fatalf("expected interior pixel to receive a nonzero sampled value, got %v", image[idx])
	}
	outside := 1*width + 1
	if image[outside] != 0 {
		t.Fatalf("pixel outside triangle was painted: %v", image[outside])
	}
}

// rampTexture builds a 10x10 single-channel texture whose value at texel
// (x,y) is x+10*y, so each texel carries a distinct, easily-checked value.
func rampTexture() *texture.Sampler {
	tex := texture.New(10, 10, 1)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			tex.At(x, y)[0] = float64(x + 10*y)
		}
	}
	return tex
}

// TestRasterizeTexturedGouraudSamplesTexelSpaceDirectly pins down S5: UV
// arriving at the rasterizer is already zero-based texel-space, not a
// [0,1] fraction to be rescaled by (size-1). A texture bigger than 2x2
// makes that distinction observable.
func TestRasterizeTexturedGouraudSamplesTexelSpaceDirectly(t *testing.T) {
	height, width, channels := 20, 20, 1
	ij := [3]linalg.Vec2{linalg.V2(2, 2), linalg.V2(17, 2), linalg.V2(2, 17)}
	st := BuildTriangleStencil(ij)
	depths := [3]float64{1, 1, 1}
	shade := [3][]float64{{1}, {1}, {1}}
	// Every vertex carries the same UV, so every covered pixel samples
	// texel (3,2) exactly: on-grid coordinates have zero fractional part,
	// so bilinear sampling returns the texel value exactly, with no
	// dependency on the triangle's interpolation.
	uv := [3]linalg.Vec2{linalg.V2(3, 2), linalg.V2(3, 2), linalg.V2(3, 2)}
	tex := rampTexture()

	zBuffer := make([]float64, height*width)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	image := make([]float64, height*width*channels)
	RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, height, width, channels)

	idx := 6*width + 6
	want := 3 + 10*2.0
	if math.Abs(image[idx]-want) > 1e-9 {
		t.Fatalf("sampled texel (3,2) = %v, want %v (UV must be texel-space, not rescaled by texture size)", image[idx], want)
	}
}

// TestRasterizeTexturedGouraudClampsOutOfRangeUV exercises spec's silhouette
// of UV clamping: a UV well past the texture bounds clamps to the last
// texel rather than being rescaled and clamped to a corner derived from the
// wrong coordinate space.
func TestRasterizeTexturedGouraudClampsOutOfRangeUV(t *testing.T) {
	height, width, channels := 20, 20, 1
	ij := [3]linalg.Vec2{linalg.V2(2, 2), linalg.V2(17, 2), linalg.V2(2, 17)}
	st := BuildTriangleStencil(ij)
	depths := [3]float64{1, 1, 1}
	shade := [3][]float64{{1}, {1}, {1}}
	uv := [3]linalg.Vec2{linalg.V2(15, 15), linalg.V2(15, 15), linalg.V2(15, 15)}
	tex := rampTexture()

	zBuffer := make([]float64, height*width)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	image := make([]float64, height*width*channels)
	RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, height, width, channels)

	idx := 6*width + 6
	want := 9 + 10*9.0 // texture[Ht-1, Wt-1]
	if math.Abs(image[idx]-want) > 1e-9 {
		t.Fatalf("out-of-range UV sampled %v, want clamp to last texel %v", image[idx], want)
	}
}

func TestRasterizeTexturedGouraudAdjointFiniteDifference(t *testing.T) {
	height, width, channels := 20, 20, 1
	ij := [3]linalg.Vec2{linalg.V2(2, 2), linalg.V2(17, 2), linalg.V2(2, 17)}
	depths := [3]float64{1, 1, 1}
	uv := [3]linalg.Vec2{linalg.V2(0, 0), linalg.V2(1, 0), linalg.V2(0, 1)}
	tex := checkerTexture()
	probe := 6*width + 6

	render := func(shadeV0 float64) float64 {
		st := BuildTriangleStencil(ij)
		shade := [3][]float64{{shadeV0}, {1}, {1}}
		zBuffer := make([]float64, height*width)
		for i := range zBuffer {
			zBuffer[i] = math.Inf(1)
		}
		image := make([]float64, height*width*channels)
		RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, height, width, channels)
		return image[probe]
	}

	base := render(0.7)

	st := BuildTriangleStencil(ij)
	shade := [3][]float64{{0.7}, {1}, {1}}
	zBuffer := make([]float64, height*width)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}
	image := make([]float64, height*width*channels)
	RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, height, width, channels)

	imageAdj := make([]float64, len(image))
	imageAdj[probe] = 1
	shadeAdj := [3][]float64{{0}, {0}, {0}}
	uvAdj := [3]linalg.Vec2{}
	texDataAdj := make([]float64, len(tex.Data))
	var vAdj [3]linalg.Vec2

	RasterizeTexturedGouraudAdjoint(st, depths, shade, uv, tex, zBuffer, image, imageAdj, height, width, channels, &shadeAdj, &uvAdj, texDataAdj, &vAdj)

	h := 1e-6
	numeric := (render(0.7+h) - base) / h
	analytic := shadeAdj[0][0]
	if math.Abs(numeric-analytic) > 5e-3 {
		t.Fatalf("d(image[probe])/d(shade[0]) mismatch: analytic %v numeric %v", analytic, numeric)
	}
}
