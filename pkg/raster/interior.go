package raster

import "github.com/go-deodr/deodr/pkg/linalg"

// buildXY1ToA builds the (channels x 3) affine map from homogeneous image
// coordinates to an interpolated per-vertex attribute, given the stencil's
// barycentric map and one attribute vector per vertex.
func buildXY1ToA(xy1ToBary linalg.Mat3, attrs [3][]float64, channels int) []float64 {
	m := make([]float64, channels*3)
	for i := 0; i < channels; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += attrs[k][i] * xy1ToBary.At(k, j)
			}
			m[3*i+j] = s
		}
	}
	return m
}

func buildXY1ToAAdjoint(xy1ToBary linalg.Mat3, attrs [3][]float64, channels int, xy1ToAAdj []float64, attrsAdj [3][]float64, xy1ToBaryAdj *linalg.Mat3) {
	for i := 0; i < channels; i++ {
		for j := 0; j < 3; j++ {
			g := xy1ToAAdj[3*i+j]
			for k := 0; k < 3; k++ {
				attrsAdj[k][i] += g * xy1ToBary.At(k, j)
				xy1ToBaryAdj[3*k+j] += g * attrs[k][i]
			}
		}
	}
}

// RasterizeInterpolated depth-tests and fills the triangle's interior with
// an affine interpolation of per-vertex attributes (flat color or any
// other C-channel vertex quantity).
func RasterizeInterpolated(s TriangleStencil, depths [3]float64, attrs [3][]float64, zBuffer, image []float64, height, width, channels int) {
	xy1ToA := buildXY1ToA(s.XY1ToBary, attrs, channels)
	xy1ToZ := linalg.MulVec3Mat3(linalg.V3(depths[0], depths[1], depths[2]), s.XY1ToBary)

	for half := 0; half < 2; half++ {
		renderPartInterpolated(image, zBuffer, s.YBegin[half], s.YEnd[half], xy1ToA, xy1ToZ, s.EdgeEq[s.LeftEdge[half]], s.EdgeEq[s.RightEdge[half]], width, height, channels)
	}
}

func renderPartInterpolated(image, zBuffer []float64, yBegin, yEnd int, xy1ToA []float64, xy1ToZ linalg.Vec3, leftEq, rightEq [2]float64, width, height, channels int) {
	if yBegin < 0 {
		yBegin = 0
	}
	if yEnd > height-1 {
		yEnd = height - 1
	}
	for y := yBegin; y <= yEnd; y++ {
		t := linalg.V3(0, float64(y), 1)
		a0y := linalg.MulMatrixVec(xy1ToA, t)
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
				for k := 0; k < channels; k++ {
					image[channels*idx+k] = a0y[k] + xy1ToA[3*k]*float64(x)
				}
			}
			idx++
		}
	}
}

// RasterizeInterpolatedAdjoint replays RasterizeInterpolated and, for
// every pixel this triangle still owns (Z == zBuffer[idx], bit-exact),
// accumulates the adjoint of the image into the vertex attributes and
// vertex positions.
func RasterizeInterpolatedAdjoint(s TriangleStencil, depths [3]float64, attrs [3][]float64, zBuffer, image, imageAdj []float64, height, width, channels int, attrsAdj *[3][]float64, vAdj *[3]linalg.Vec2) {
	xy1ToA := buildXY1ToA(s.XY1ToBary, attrs, channels)
	xy1ToZ := linalg.MulVec3Mat3(linalg.V3(depths[0], depths[1], depths[2]), s.XY1ToBary)
	xy1ToAAdj := make([]float64, channels*3)

	for half := 0; half < 2; half++ {
		renderPartInterpolatedAdjoint(image, imageAdj, zBuffer, s.YBegin[half], s.YEnd[half], xy1ToA, xy1ToAAdj, xy1ToZ, s.EdgeEq[s.LeftEdge[half]], s.EdgeEq[s.RightEdge[half]], width, height, channels)
	}

	var xy1ToBaryAdj linalg.Mat3
	buildXY1ToAAdjoint(s.XY1ToBary, attrs, channels, xy1ToAAdj, *attrsAdj, &xy1ToBaryAdj)
	BuildTriangleStencilAdjoint(s, xy1ToBaryAdj, vAdj)
}

func renderPartInterpolatedAdjoint(image, imageAdj, zBuffer []float64, yBegin, yEnd int, xy1ToA, xy1ToAAdj []float64, xy1ToZ linalg.Vec3, leftEq, rightEq [2]float64, width, height, channels int) {
	if yBegin < 0 {
		yBegin = 0
	}
	if yEnd > height-1 {
		yEnd = height - 1
	}
	for y := yBegin; y <= yEnd; y++ {
		t := linalg.V3(0, float64(y), 1)
		z0y := xy1ToZ.Dot(t)
		a0yAdj := make([]float64, channels)

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
				for k := 0; k < channels; k++ {
					g := imageAdj[channels*idx+k]
					a0yAdj[k] += g
					xy1ToAAdj[3*k] += g * float64(x)
				}
			}
			idx++
		}
		for k := 0; k < channels; k++ {
			for j := 0; j < 3; j++ {
				xy1ToAAdj[3*k+j] += a0yAdj[k] * t.Array()[j]
			}
		}
	}
}
