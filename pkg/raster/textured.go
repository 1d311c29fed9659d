package raster

import (
	"github.com/go-deodr/deodr/pkg/linalg"
	"github.com/go-deodr/deodr/pkg/texture"
)

// RasterizeTexturedGouraud depth-tests the triangle's interior and, for
// each covered pixel, bilinear-samples tex at the interpolated UV
// coordinate and scales the sample by the interpolated per-vertex shade
// before writing it to image.
func RasterizeTexturedGouraud(s TriangleStencil, depths [3]float64, shade [3][]float64, uv [3]linalg.Vec2, tex *texture.Sampler, zBuffer, image []float64, height, width, channels int) {
	xy1ToShade := buildXY1ToA(s.XY1ToBary, shade, channels)
	uvAttrs := [3][]float64{{uv[0].X, uv[0].Y}, {uv[1].X, uv[1].Y}, {uv[2].X, uv[2].Y}}
	xy1ToUV := buildXY1ToA(s.XY1ToBary, uvAttrs, 2)
	xy1ToZ := linalg.MulVec3Mat3(linalg.V3(depths[0], depths[1], depths[2]), s.XY1ToBary)

	for half := 0; half < 2; half++ {
		renderPartTexturedGouraud(image, zBuffer, s.YBegin[half], s.YEnd[half], xy1ToShade, xy1ToUV, xy1ToZ, s.EdgeEq[s.LeftEdge[half]], s.EdgeEq[s.RightEdge[half]], tex, width, height, channels)
	}
}

func renderPartTexturedGouraud(image, zBuffer []float64, yBegin, yEnd int, xy1ToShade, xy1ToUV []float64, xy1ToZ linalg.Vec3, leftEq, rightEq [2]float64, tex *texture.Sampler, width, height, channels int) {
	if yBegin < 0 {
		yBegin = 0
	}
	if yEnd > height-1 {
		yEnd = height - 1
	}
	for y := yBegin; y <= yEnd; y++ {
		t := linalg.V3(0, float64(y), 1)
		a0yShade := linalg.MulMatrixVec(xy1ToShade, t)
		a0yUV := linalg.MulMatrixVec(xy1ToUV, t)
		z0y := xy1ToZ.Dot(t)

		xBegin := 0
		if tx := floorInt(leftEq[0]*float64(y)+leftEq[1]) + 1; tx > xBegin {
			xBegin = tx
		}
		xEnd := width - 1
		if tx := floorInt(rightEq[0]*float64(y) + rightEq[1]); tx < xEnd {
			xEnd = tx
		}

		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ.X*float64(x)
			if z < zBuffer[idx] {
				zBuffer[idx] = z
				u := a0yUV[0] + xy1ToUV[0]*float64(x)
				v := a0yUV[1] + xy1ToUV[3]*float64(x)
				texel := tex.Sample(u, v)
				for k := 0; k < channels; k++ {
					shadeK := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					tc := texel[0]
					if k < len(texel) {
						tc = texel[k]
					}
					image[channels*idx+k] = shadeK * tc
				}
			}
			idx++
		}
	}
}

// RasterizeTexturedGouraudAdjoint replays RasterizeTexturedGouraud and
// accumulates the adjoint of image into the shade attributes, UV
// coordinates, texture data and vertex positions for every pixel this
// triangle still owns.
func RasterizeTexturedGouraudAdjoint(s TriangleStencil, depths [3]float64, shade [3][]float64, uv [3]linalg.Vec2, tex *texture.Sampler, zBuffer, image, imageAdj []float64, height, width, channels int, shadeAdj *[3][]float64, uvAdj *[3]linalg.Vec2, texDataAdj []float64, vAdj *[3]linalg.Vec2) {
	xy1ToShade := buildXY1ToA(s.XY1ToBary, shade, channels)
	uvAttrs := [3][]float64{{uv[0].X, uv[0].Y}, {uv[1].X, uv[1].Y}, {uv[2].X, uv[2].Y}}
	xy1ToUV := buildXY1ToA(s.XY1ToBary, uvAttrs, 2)
	xy1ToZ := linalg.MulVec3Mat3(linalg.V3(depths[0], depths[1], depths[2]), s.XY1ToBary)

	xy1ToShadeAdj := make([]float64, channels*3)
	xy1ToUVAdj := make([]float64, 2*3)

	for half := 0; half < 2; half++ {
		renderPartTexturedGouraudAdjoint(image, imageAdj, zBuffer, s.YBegin[half], s.YEnd[half], xy1ToShade, xy1ToShadeAdj, xy1ToUV, xy1ToUVAdj, xy1ToZ, s.EdgeEq[s.LeftEdge[half]], s.EdgeEq[s.RightEdge[half]], tex, texDataAdj, width, height, channels)
	}

	var xy1ToBaryAdj linalg.Mat3
	buildXY1ToAAdjoint(s.XY1ToBary, shade, channels, xy1ToShadeAdj, *shadeAdj, &xy1ToBaryAdj)

	uvAttrsAdj := [3][]float64{{0, 0}, {0, 0}, {0, 0}}
	buildXY1ToAAdjoint(s.XY1ToBary, uvAttrs, 2, xy1ToUVAdj, uvAttrsAdj, &xy1ToBaryAdj)
	for k := 0; k < 3; k++ {
		uvAdj[k].X += uvAttrsAdj[k][0]
		uvAdj[k].Y += uvAttrsAdj[k][1]
	}

	BuildTriangleStencilAdjoint(s, xy1ToBaryAdj, vAdj)
}

func renderPartTexturedGouraudAdjoint(image, imageAdj, zBuffer []float64, yBegin, yEnd int, xy1ToShade, xy1ToShadeAdj, xy1ToUV, xy1ToUVAdj []float64, xy1ToZ linalg.Vec3, leftEq, rightEq [2]float64, tex *texture.Sampler, texDataAdj []float64, width, height, channels int) {
	if yBegin < 0 {
		yBegin = 0
	}
	if yEnd > height-1 {
		yEnd = height - 1
	}
	for y := yBegin; y <= yEnd; y++ {
		t := linalg.V3(0, float64(y), 1)
		a0yShade := linalg.MulMatrixVec(xy1ToShade, t)
		a0yUV := linalg.MulMatrixVec(xy1ToUV, t)
		z0y := xy1ToZ.Dot(t)
		a0yShadeAdj := make([]float64, channels)
		a0yUVAdj := make([]float64, 2)

		xBegin := 0
		if tx := floorInt(leftEq[0]*float64(y)+leftEq[1]) + 1; tx > xBegin {
			xBegin = tx
		}
		xEnd := width - 1
		if tx := floorInt(rightEq[0]*float64(y) + rightEq[1]); tx < xEnd {
			xEnd = tx
		}

		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ.X*float64(x)
			if z == zBuffer[idx] {
				u := a0yUV[0] + xy1ToUV[0]*float64(x)
				v := a0yUV[1] + xy1ToUV[3]*float64(x)
				texel := tex.Sample(u, v)

				var uvPAdj [2]float64
				texelAdjBuf := make([]float64, len(texel))
				for k := 0; k < channels; k++ {
					shadeK := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					tc := texel[0]
					tIdx := 0
					if k < len(texel) {
						tc = texel[k]
						tIdx = k
					}
					g := imageAdj[channels*idx+k]
					a0yShadeAdj[k] += g * tc
					xy1ToShadeAdj[3*k] += g * tc * float64(x)
					texelAdjBuf[tIdx] += g * shadeK
				}
				tex.SampleAdjoint(u, v, texelAdjBuf, texDataAdj, &uvPAdj)
				a0yUVAdj[0] += uvPAdj[0]
				xy1ToUVAdj[0] += uvPAdj[0] * float64(x)
				a0yUVAdj[1] += uvPAdj[1]
				xy1ToUVAdj[3] += uvPAdj[1] * float64(x)
			}
			idx++
		}
		for k := 0; k < channels; k++ {
			for j := 0; j < 3; j++ {
				xy1ToShadeAdj[3*k+j] += a0yShadeAdj[k] * t.Array()[j]
			}
		}
		for k := 0; k < 2; k++ {
			for j := 0; j < 3; j++ {
				xy1ToUVAdj[3*k+j] += a0yUVAdj[k] * t.Array()[j]
			}
		}
	}
}
