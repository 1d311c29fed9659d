// Package raster implements the triangle and edge rasterizers: given a
// stencil solved from vertex positions, it scans the covered pixels and
// writes (or, in reverse, reads back) interpolated attributes. Every
// forward routine has a companion that accumulates adjoints into vertex,
// attribute, and texture buffers.
package raster

import "github.com/go-deodr/deodr/pkg/linalg"

// TriangleStencil is the solved affine map and scanline geometry for one
// triangle: barycentric <-> homogeneous image coordinates, the three edge
// equations (x = a*y + b), and which edge bounds each of the two y-halves.
type TriangleStencil struct {
	BaryToXY1  linalg.Mat3
	XY1ToBary  linalg.Mat3
	EdgeEq     [3][2]float64 // EdgeEq[n] = {a, b} for edge n: x = a*y + b
	YBegin     [2]int
	YEnd       [2]int
	LeftEdge   [2]int
	RightEdge  [2]int
}

func edgeEquation(v0, v1 linalg.Vec2) [2]float64 {
	a := (v0.X - v1.X) / (v0.Y - v1.Y)
	b := v0.X - a*v0.Y
	return [2]float64{a, b}
}

// BuildTriangleStencil solves the triangle stencil for vertices v, in the
// order they appear in the triangle's face.
func BuildTriangleStencil(v [3]linalg.Vec2) TriangleStencil {
	var s TriangleStencil
	for k := 0; k < 3; k++ {
		s.BaryToXY1.Set(0, k, v[k].X)
		s.BaryToXY1.Set(1, k, v[k].Y)
		s.BaryToXY1.Set(2, k, 1)
	}
	s.XY1ToBary = linalg.InvertMat3(s.BaryToXY1)

	s.EdgeEq[0] = edgeEquation(v[0], v[1])
	s.EdgeEq[1] = edgeEquation(v[1], v[2])
	s.EdgeEq[2] = edgeEquation(v[2], v[0])

	ys := [3]float64{v[0].Y, v[1].Y, v[2].Y}
	order := sortIndicesByValue(ys)

	s.YBegin[0] = floorInt(ys[order[0]]) + 1
	s.YEnd[0] = floorInt(ys[order[1]])
	s.YBegin[1] = floorInt(ys[order[1]]) + 1
	s.YEnd[1] = floorInt(ys[order[2]])

	id := order[0]
	if s.EdgeEq[id%3][0] < s.EdgeEq[(id+2)%3][0] {
		s.RightEdge[0], s.LeftEdge[0] = (id+2)%3, id%3
	} else {
		s.RightEdge[0], s.LeftEdge[0] = id%3, (id+2)%3
	}

	id = order[2]
	if s.EdgeEq[id%3][0] < s.EdgeEq[(id+2)%3][0] {
		s.RightEdge[1], s.LeftEdge[1] = id%3, (id+2)%3
	} else {
		s.RightEdge[1], s.LeftEdge[1] = (id+2)%3, id%3
	}
	return s
}

// BuildTriangleStencilAdjoint accumulates into vAdj the adjoint of the
// three vertex positions, given the adjoint of XY1ToBary.
func BuildTriangleStencilAdjoint(s TriangleStencil, xy1ToBaryAdj linalg.Mat3, vAdj *[3]linalg.Vec2) {
	var baryToXY1Adj linalg.Mat3
	linalg.InvertMat3Adjoint(s.BaryToXY1, s.XY1ToBary, xy1ToBaryAdj, &baryToXY1Adj)
	for k := 0; k < 3; k++ {
		vAdj[k].X += baryToXY1Adj.At(0, k)
		vAdj[k].Y += baryToXY1Adj.At(1, k)
	}
}

func floorInt(x float64) int {
	f := int(x)
	if float64(f) > x {
		f--
	}
	return f
}

// sortIndicesByValue returns the indices of v in ascending order of value,
// matching sort3's three-compare network (stable for the tie cases a
// triangle stencil actually hits).
func sortIndicesByValue(v [3]float64) [3]int {
	idx := [3]int{0, 1, 2}
	sv := v
	if sv[0] > sv[1] {
		sv[0], sv[1] = sv[1], sv[0]
		idx[0], idx[1] = idx[1], idx[0]
	}
	if sv[0] > sv[2] {
		sv[0], sv[2] = sv[2], sv[0]
		idx[0], idx[2] = idx[2], idx[0]
	}
	if sv[1] > sv[2] {
		sv[1], sv[2] = sv[2], sv[1]
		idx[1], idx[2] = idx[2], idx[1]
	}
	return idx
}
