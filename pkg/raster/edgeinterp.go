package raster

import "github.com/go-deodr/deodr/pkg/linalg"

// RasterizeEdgeInterpolated composites an antialiased silhouette edge onto
// image: pixels covered by the edge stencil are blended between the color
// already in image and the edge's own interpolated attribute, weighted by
// the stencil's transparency field T.
func RasterizeEdgeInterpolated(s EdgeStencil, depths [2]float64, attrs [2][]float64, zBuffer, image []float64, width, channels int) {
	xy1ToA := buildXY1ToAEdge(s.XY1ToBary, attrs, channels)
	xy1ToZ2 := mulMatrix1x2x3(depths, s.XY1ToBary)
	tInc := s.XY1ToTransp[0]

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0y := mulMatrixNx3(xy1ToA, channels, t)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				for k := 0; k < channels; k++ {
					a := a0y[k] + xy1ToA[3*k]*float64(x)
					image[channels*idx+k] *= tr
					image[channels*idx+k] += (1 - tr) * a
				}
			}
			idx++
		}
	}
}

// RasterizeEdgeInterpolatedAdjoint replays RasterizeEdgeInterpolated in
// reverse, undoing the invertible composite to recover the pre-edge image
// while accumulating the adjoints of the edge attributes and endpoints.
func RasterizeEdgeInterpolatedAdjoint(s EdgeStencil, depths [2]float64, attrs [2][]float64, zBuffer, image, imageAdj []float64, width, channels int, attrsAdj *[2][]float64, v0Adj, v1Adj *linalg.Vec2) {
	xy1ToA := buildXY1ToAEdge(s.XY1ToBary, attrs, channels)
	xy1ToZ2 := mulMatrix1x2x3(depths, s.XY1ToBary)
	tInc := s.XY1ToTransp[0]

	xy1ToAAdj := make([]float64, channels*3)
	var xy1ToTranspAdj [3]float64
	var tIncAdj float64

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0y := mulMatrixNx3(xy1ToA, channels, t)
		a0yAdj := make([]float64, channels)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)
		var t0yAdj float64

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				var trAdj float64
				for k := 0; k < channels; k++ {
					a := a0y[k] + xy1ToA[3*k]*float64(x)
					g := imageAdj[channels*idx+k]

					trAdj += -g * a
					aAdj := (1 - tr) * g

					image[channels*idx+k] = (image[channels*idx+k] - (1-tr)*a) / tr
					trAdj += imageAdj[channels*idx+k] * image[channels*idx+k]
					imageAdj[channels*idx+k] *= tr

					a0yAdj[k] += aAdj
					xy1ToAAdj[3*k] += float64(x) * aAdj
				}
				t0yAdj += trAdj
				tIncAdj += float64(x) * trAdj
			}
			idx++
		}
		for k := 0; k < channels; k++ {
			for j := 0; j < 3; j++ {
				xy1ToAAdj[3*k+j] += a0yAdj[k] * t[j]
			}
		}
		for j := 0; j < 3; j++ {
			xy1ToTranspAdj[j] += t0yAdj * t[j]
		}
	}

	var xy1ToBaryAdj [6]float64
	for k := 0; k < channels; k++ {
		for j := 0; j < 3; j++ {
			g := xy1ToAAdj[3*k+j]
			for v := 0; v < 2; v++ {
				attrsAdj[v][k] += g * s.XY1ToBary[3*v+j]
				xy1ToBaryAdj[3*v+j] += g * attrs[v][k]
			}
		}
	}
	xy1ToTranspAdj[0] += tIncAdj

	BuildEdgeStencilAdjoint(s, xy1ToBaryAdj, xy1ToTranspAdj, v0Adj, v1Adj)
}

// RasterizeEdgeInterpolatedError accumulates into errBuffer the squared
// difference between the edge's interpolated attribute and a target
// image, blended by the stencil's transparency the same invertible way
// RasterizeEdgeInterpolated blends colors.
func RasterizeEdgeInterpolatedError(s EdgeStencil, depths [2]float64, attrs [2][]float64, zBuffer, target, errBuffer []float64, width, channels int) {
	xy1ToA := buildXY1ToAEdge(s.XY1ToBary, attrs, channels)
	xy1ToZ2 := mulMatrix1x2x3(depths, s.XY1ToBary)
	tInc := s.XY1ToTransp[0]

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0y := mulMatrixNx3(xy1ToA, channels, t)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				var errVal float64
				for k := 0; k < channels; k++ {
					diff := (a0y[k] + xy1ToA[3*k]*float64(x)) - target[channels*idx+k]
					errVal += diff * diff
				}
				errBuffer[idx] *= tr
				errBuffer[idx] += (1 - tr) * errVal
			}
			idx++
		}
	}
}

// RasterizeEdgeInterpolatedErrorAdjoint is the reverse of
// RasterizeEdgeInterpolatedError.
func RasterizeEdgeInterpolatedErrorAdjoint(s EdgeStencil, depths [2]float64, attrs [2][]float64, zBuffer, target, errBuffer, errBufferAdj []float64, width, channels int, attrsAdj *[2][]float64, v0Adj, v1Adj *linalg.Vec2) {
	xy1ToA := buildXY1ToAEdge(s.XY1ToBary, attrs, channels)
	xy1ToZ2 := mulMatrix1x2x3(depths, s.XY1ToBary)
	tInc := s.XY1ToTransp[0]

	xy1ToAAdj := make([]float64, channels*3)
	var xy1ToTranspAdj [3]float64
	var tIncAdj float64

	for y := s.YBegin; y <= s.YEnd; y++ {
		t := [3]float64{0, float64(y), 1}
		a0y := mulMatrixNx3(xy1ToA, channels, t)
		a0yAdj := make([]float64, channels)
		t0y := dot3(s.XY1ToTransp, t)
		z0y := dot3(xy1ToZ2, t)
		var t0yAdj float64

		xBegin, xEnd := xRangeFromIneq(s.Ineq, width, y)
		idx := y*width + xBegin
		for x := xBegin; x <= xEnd; x++ {
			z := z0y + xy1ToZ2[0]*float64(x)
			if z < zBuffer[idx] {
				tr := t0y + tInc*float64(x)
				var errVal float64
				for k := 0; k < channels; k++ {
					diff := (a0y[k] + xy1ToA[3*k]*float64(x)) - target[channels*idx+k]
					errVal += diff * diff
				}

				var trAdj, errAdj float64
				trAdj += -errVal * errBufferAdj[idx]
				errAdj += (1 - tr) * errBufferAdj[idx]
				errBuffer[idx] -= (1 - tr) * errVal
				errBuffer[idx] /= tr
				trAdj += errBufferAdj[idx] * errBuffer[idx]
				errBufferAdj[idx] *= tr

				for k := 0; k < channels; k++ {
					diff := (a0y[k] + xy1ToA[3*k]*float64(x)) - target[channels*idx+k]
					aAdj := 2 * diff * errAdj
					a0yAdj[k] += aAdj
					xy1ToAAdj[3*k] += float64(x) * aAdj
				}
				t0yAdj += trAdj
				tIncAdj += float64(x) * trAdj
			}
			idx++
		}
		for k := 0; k < channels; k++ {
			for j := 0; j < 3; j++ {
				xy1ToAAdj[3*k+j] += a0yAdj[k] * t[j]
			}
		}
		for j := 0; j < 3; j++ {
			xy1ToTranspAdj[j] += t0yAdj * t[j]
		}
	}

	var xy1ToBaryAdj [6]float64
	for k := 0; k < channels; k++ {
		for j := 0; j < 3; j++ {
			g := xy1ToAAdj[3*k+j]
			for v := 0; v < 2; v++ {
				attrsAdj[v][k] += g * s.XY1ToBary[3*v+j]
				xy1ToBaryAdj[3*v+j] += g * attrs[v][k]
			}
		}
	}
	xy1ToTranspAdj[0] += tIncAdj

	BuildEdgeStencilAdjoint(s, xy1ToBaryAdj, xy1ToTranspAdj, v0Adj, v1Adj)
}

func buildXY1ToAEdge(xy1ToBary [6]float64, attrs [2][]float64, channels int) []float64 {
	m := make([]float64, channels*3)
	for i := 0; i < channels; i++ {
		for j := 0; j < 3; j++ {
			var v float64
			for k := 0; k < 2; k++ {
				v += attrs[k][i] * xy1ToBary[3*k+j]
			}
			m[3*i+j] = v
		}
	}
	return m
}

func mulMatrix1x2x3(v [2]float64, m [6]float64) [3]float64 {
	var r [3]float64
	for j := 0; j < 3; j++ {
		r[j] = v[0]*m[j] + v[1]*m[3+j]
	}
	return r
}

func mulMatrixNx3(m []float64, n int, t [3]float64) []float64 {
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = m[3*i]*t[0] + m[3*i+1]*t[1] + m[3*i+2]*t[2]
	}
	return r
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
