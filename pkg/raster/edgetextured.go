package raster

import (
	"github.com/go-deodr/deodr/pkg/linalg"
	"github.com/go-deodr/deodr/pkg/texture"
)

func edgeUVShadeSetup(s EdgeStencil, shade [2][]float64, uv [2]linalg.Vec2, channels int) (xy1ToShade, xy1ToUV []float64, xy1ToZ2 func(depths [2]float64) [3]float64) {
	xy1ToShade = buildXY1ToAEdge(s.XY1ToBary, shade, channels)
	uvAttrs := [2][]float64{{uv[0].X, uv[0].Y}, {uv[1].X, uv[1].Y}}
	xy1ToUV = buildXY1ToAEdge(s.XY1ToBary, uvAttrs, 2)
	xy1ToZ2 = func(depths [2]float64) [3]float64 { return mulMatrix1x2x3(depths, s.XY1ToBary) }
	return
}

func texelChannel(texel []float64, k int) float64 {
	if k < len(texel) {
		return texel[k]
	}
	return texel[0]
}

// RasterizeEdgeTexturedGouraud composites an antialiased silhouette edge
// of a textured, Gouraud-shaded triangle onto image, sampling the texture
// at the interpolated UV coordinate and scaling by interpolated shade.
func RasterizeEdgeTexturedGouraud(s EdgeStencil, depths [2]float64, shade [2][]float64, uv [2]linalg.Vec2, tex *texture.Sampler, zBuffer, image []float64, width, channels int) {
	xy1ToShade, xy1ToUV, zf := edgeUVShadeSetup(s, shade, uv, channels)
	xy1ToZ2 := zf(depths)
	tInc := s.XY1ToTransp[0]

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0yShade := mulMatrixNx3(xy1ToShade, channels, t)
		a0yUV := mulMatrixNx3(xy1ToUV, 2, t)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				u := a0yUV[0] + xy1ToUV[0]*float64(x)
				v := a0yUV[1] + xy1ToUV[3]*float64(x)
				texel := tex.Sample(u, v)
				for k := 0; k < channels; k++ {
					l := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					a := texelChannel(texel, k) * l
					image[channels*idx+k] *= tr
					image[channels*idx+k] += (1 - tr) * a
				}
			}
			idx++
		}
	}
}

// RasterizeEdgeTexturedGouraudAdjoint is the reverse of
// RasterizeEdgeTexturedGouraud.
func RasterizeEdgeTexturedGouraudAdjoint(s EdgeStencil, depths [2]float64, shade [2][]float64, uv [2]linalg.Vec2, tex *texture.Sampler, zBuffer, image, imageAdj []float64, width, channels int, shadeAdj *[2][]float64, uvAdj *[2]linalg.Vec2, texDataAdj []float64, v0Adj, v1Adj *linalg.Vec2) {
	xy1ToShade, xy1ToUV, zf := edgeUVShadeSetup(s, shade, uv, channels)
	xy1ToZ2 := zf(depths)
	tInc := s.XY1ToTransp[0]

	xy1ToShadeAdj := make([]float64, channels*3)
	xy1ToUVAdj := make([]float64, 6)
	var xy1ToTranspAdj [3]float64
	var tIncAdj float64

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0yShade := mulMatrixNx3(xy1ToShade, channels, t)
		a0yUV := mulMatrixNx3(xy1ToUV, 2, t)
		a0yShadeAdj := make([]float64, channels)
		a0yUVAdj := make([]float64, 2)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)
		var t0yAdj float64

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				u := a0yUV[0] + xy1ToUV[0]*float64(x)
				v := a0yUV[1] + xy1ToUV[3]*float64(x)
				texel := tex.Sample(u, v)

				var trAdj float64
				texelAdj := make([]float64, len(texel))
				for k := 0; k < channels; k++ {
					l := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					tc := texelChannel(texel, k)
					a := tc * l
					g := imageAdj[channels*idx+k]

					trAdj += -g * a
					aAdj := (1 - tr) * g

					image[channels*idx+k] = (image[channels*idx+k] - (1-tr)*a) / tr
					trAdj += imageAdj[channels*idx+k] * image[channels*idx+k]
					imageAdj[channels*idx+k] *= tr

					lAdj := aAdj * tc
					tcAdj := aAdj * l
					a0yShadeAdj[k] += lAdj
					xy1ToShadeAdj[3*k] += float64(x) * lAdj
					if k < len(texelAdj) {
						texelAdj[k] += tcAdj
					} else {
						texelAdj[0] += tcAdj
					}
				}
				var uvPAdj [2]float64
				tex.SampleAdjoint(u, v, texelAdj, texDataAdj, &uvPAdj)
				a0yUVAdj[0] += uvPAdj[0]
				xy1ToUVAdj[0] += uvPAdj[0] * float64(x)
				a0yUVAdj[1] += uvPAdj[1]
				xy1ToUVAdj[3] += uvPAdj[1] * float64(x)

				t0yAdj += trAdj
				tIncAdj += float64(x) * trAdj
			}
			idx++
		}
		for k := 0; k < channels; k++ {
			for j := 0; j < 3; j++ {
				xy1ToShadeAdj[3*k+j] += a0yShadeAdj[k] * t[j]
			}
		}
		for k := 0; k < 2; k++ {
			for j := 0; j < 3; j++ {
				xy1ToUVAdj[3*k+j] += a0yUVAdj[k] * t[j]
			}
		}
		for j := 0; j < 3; j++ {
			xy1ToTranspAdj[j] += t0yAdj * t[j]
		}
	}

	var xy1ToBaryAdj [6]float64
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			g := xy1ToUVAdj[3*k+j]
			for v := 0; v < 2; v++ {
				c := 0.0
				if k == 0 {
					c = uv[v].X
				} else {
					c = uv[v].Y
				}
				xy1ToBaryAdj[3*v+j] += g * c
				if k == 0 {
					uvAdj[v].X += g * s.XY1ToBary[3*v+j]
				} else {
					uvAdj[v].Y += g * s.XY1ToBary[3*v+j]
				}
			}
		}
	}
	for k := 0; k < channels; k++ {
		for j := 0; j < 3; j++ {
			g := xy1ToShadeAdj[3*k+j]
			for v := 0; v < 2; v++ {
				shadeAdj[v][k] += g * s.XY1ToBary[3*v+j]
				xy1ToBaryAdj[3*v+j] += g * shade[v][k]
			}
		}
	}
	xy1ToTranspAdj[0] += tIncAdj

	BuildEdgeStencilAdjoint(s, xy1ToBaryAdj, xy1ToTranspAdj, v0Adj, v1Adj)
}

// RasterizeEdgeTexturedGouraudError is the textured counterpart of
// RasterizeEdgeInterpolatedError.
func RasterizeEdgeTexturedGouraudError(s EdgeStencil, depths [2]float64, shade [2][]float64, uv [2]linalg.Vec2, tex *texture.Sampler, zBuffer, target, errBuffer []float64, width, channels int) {
	xy1ToShade, xy1ToUV, zf := edgeUVShadeSetup(s, shade, uv, channels)
	xy1ToZ2 := zf(depths)
	tInc := s.XY1ToTransp[0]

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0yShade := mulMatrixNx3(xy1ToShade, channels, t)
		a0yUV := mulMatrixNx3(xy1ToUV, 2, t)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				u := a0yUV[0] + xy1ToUV[0]*float64(x)
				v := a0yUV[1] + xy1ToUV[3]*float64(x)
				texel := tex.Sample(u, v)
				var errVal float64
				for k := 0; k < channels; k++ {
					l := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					a := texelChannel(texel, k) * l
					diff := a - target[channels*idx+k]
					errVal += diff * diff
				}
				errBuffer[idx] *= tr
				errBuffer[idx] += (1 - tr) * errVal
			}
			idx++
		}
	}
}

// RasterizeEdgeTexturedGouraudErrorAdjoint is the reverse of
// RasterizeEdgeTexturedGouraudError.
func RasterizeEdgeTexturedGouraudErrorAdjoint(s EdgeStencil, depths [2]float64, shade [2][]float64, uv [2]linalg.Vec2, tex *texture.Sampler, zBuffer, target, errBuffer, errBufferAdj []float64, width, channels int, shadeAdj *[2][]float64, uvAdj *[2]linalg.Vec2, texDataAdj []float64, v0Adj, v1Adj *linalg.Vec2) {
	xy1ToShade, xy1ToUV, zf := edgeUVShadeSetup(s, shade, uv, channels)
	xy1ToZ2 := zf(depths)
	tInc := s.XY1ToTransp[0]

	xy1ToShadeAdj := make([]float64, channels*3)
	xy1ToUVAdj := make([]float64, 6)
	var xy1ToTranspAdj [3]float64
	var tIncAdj float64

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0yShade := mulMatrixNx3(xy1ToShade, channels, t)
		a0yUV := mulMatrixNx3(xy1ToUV, 2, t)
		a0yShadeAdj := make([]float64, channels)
		a0yUVAdj := make([]float64, 2)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)
		var t0yAdj float64

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				u := a0yUV[0] + xy1ToUV[0]*float64(x)
				v := a0yUV[1] + xy1ToUV[3]*float64(x)
				texel := tex.Sample(u, v)

				var errVal float64
				for k := 0; k < channels; k++ {
					l := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					a := texelChannel(texel, k) * l
					diff := a - target[channels*idx+k]
					errVal += diff * diff
				}

				var trAdj, errAdj float64
				trAdj += -errVal * errBufferAdj[idx]
				errAdj += (1 - tr) * errBufferAdj[idx]
				errBuffer[idx] -= (1 - tr) * errVal
				errBuffer[idx] /= tr
				trAdj += errBufferAdj[idx] * errBuffer[idx]
				errBufferAdj[idx] *= tr

				texelAdj := make([]float64, len(texel))
				for k := 0; k < channels; k++ {
					l := a0yShade[k] + xy1ToShade[3*k]*float64(x)
					tc := texelChannel(texel, k)
					diff := tc*l - target[channels*idx+k]
					aAdj := 2 * diff * errAdj
					lAdj := aAdj * tc
					tcAdj := aAdj * l
					a0yShadeAdj[k] += lAdj
					xy1ToShadeAdj[3*k] += float64(x) * lAdj
					if k < len(texelAdj) {
						texelAdj[k] += tcAdj
					} else {
						texelAdj[0] += tcAdj
					}
				}
				var uvPAdj [2]float64
				tex.SampleAdjoint(u, v, texelAdj, texDataAdj, &uvPAdj)
				a0yUVAdj[0] += uvPAdj[0]
				xy1ToUVAdj[0] += uvPAdj[0] * float64(x)
				a0yUVAdj[1] += uvPAdj[1]
				xy1ToUVAdj[3] += uvPAdj[1] * float64(x)

				t0yAdj += trAdj
				tIncAdj += float64(x) * trAdj
			}
			idx++
		}
		for k := 0; k < channels; k++ {
			for j := 0; j < 3; j++ {
				xy1ToShadeAdj[3*k+j] += a0yShadeAdj[k] * t[j]
			}
		}
		for k := 0; k < 2; k++ {
			for j := 0; j < 3; j++ {
				xy1ToUVAdj[3*k+j] += a0yUVAdj[k] * t[j]
			}
		}
		for j := 0; j < 3; j++ {
			xy1ToTranspAdj[j] += t0yAdj * t[j]
		}
	}

	var xy1ToBaryAdj [6]float64
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			g := xy1ToUVAdj[3*k+j]
			for v := 0; v < 2; v++ {
				c := uv[v].X
				if k == 1 {
					c = uv[v].Y
				}
				xy1ToBaryAdj[3*v+j] += g * c
				if k == 0 {
					uvAdj[v].X += g * s.XY1ToBary[3*v+j]
				} else {
					uvAdj[v].Y += g * s.XY1ToBary[3*v+j]
				}
			}
		}
	}
	for k := 0; k < channels; k++ {
		for j := 0; j < 3; j++ {
			g := xy1ToShadeAdj[3*k+j]
			for v := 0; v < 2; v++ {
				shadeAdj[v][k] += g * s.XY1ToBary[3*v+j]
				xy1ToBaryAdj[3*v+j] += g * shade[v][k]
			}
		}
	}
	xy1ToTranspAdj[0] += tIncAdj

	BuildEdgeStencilAdjoint(s, xy1ToBaryAdj, xy1ToTranspAdj, v0Adj, v1Adj)
}
