package raster

import (
	"math"

	"github.com/go-deodr/deodr/pkg/linalg"
)

// EdgeStencil is the solved parallelogram map for one silhouette edge: an
// s-coordinate running along the edge and a transparency coordinate T that
// is 0 on the edge line and 1 at sigma pixels along the outward normal (the
// stencil covers only that outward side), plus the four half-plane
// inequalities bounding the parallelogram in image space.
type EdgeStencil struct {
	EdgeToXY1   linalg.Mat3
	XY1ToEdge   linalg.Mat3
	XY1ToBary   [6]float64 // rows 0,1 of XY1ToEdge
	XY1ToTransp [3]float64 // row 2 of XY1ToEdge, scaled by 1/sigma
	Ineq        [4][3]float64
	YBegin      int
	YEnd        int
	Sigma       float64
	Clockwise   bool
	Nt          [2]float64 // unnormalized outward normal
	InvNorm     float64
}

// BuildEdgeStencil solves the edge stencil for the edge v0->v1.
func BuildEdgeStencil(v0, v1 linalg.Vec2, sigma float64, clockwise bool, height, width int) EdgeStencil {
	var s EdgeStencil
	s.Sigma = sigma
	s.Clockwise = clockwise

	if clockwise {
		s.Nt = [2]float64{v0.Y - v1.Y, v1.X - v0.X}
	} else {
		s.Nt = [2]float64{v1.Y - v0.Y, v0.X - v1.X}
	}
	s.InvNorm = 1 / math.Sqrt(s.Nt[0]*s.Nt[0]+s.Nt[1]*s.Nt[1])
	n := [2]float64{s.Nt[0] * s.InvNorm, s.Nt[1] * s.InvNorm}

	s.EdgeToXY1.Set(0, 0, v0.X)
	s.EdgeToXY1.Set(0, 1, v1.X)
	s.EdgeToXY1.Set(0, 2, n[0])
	s.EdgeToXY1.Set(1, 0, v0.Y)
	s.EdgeToXY1.Set(1, 1, v1.Y)
	s.EdgeToXY1.Set(1, 2, n[1])
	s.EdgeToXY1.Set(2, 0, 1)
	s.EdgeToXY1.Set(2, 1, 1)
	s.EdgeToXY1.Set(2, 2, 0)

	s.XY1ToEdge = linalg.InvertMat3(s.EdgeToXY1)

	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			s.XY1ToBary[3*k+j] = s.XY1ToEdge.At(k, j)
		}
	}
	for j := 0; j < 3; j++ {
		s.XY1ToTransp[j] = s.XY1ToEdge.At(2, j) / sigma
	}

	bInc := [2]float64{s.XY1ToBary[0], s.XY1ToBary[3]}
	tInc := s.XY1ToTransp[0]

	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			s.Ineq[k][j] = s.XY1ToBary[3*k+j] / math.Abs(bInc[k])
		}
	}
	for j := 0; j < 3; j++ {
		s.Ineq[2][j] = s.XY1ToTransp[j] / math.Abs(tInc)
	}
	for j := 0; j < 2; j++ {
		s.Ineq[3][j] = -s.XY1ToTransp[j] / math.Abs(tInc)
	}
	s.Ineq[3][2] = (1 - s.XY1ToTransp[2]) / math.Abs(tInc)

	vy := [2]float64{v0.Y, v1.Y}
	yBegin := height - 1
	for k := 0; k < 2; k++ {
		if vy[k]-sigma < float64(yBegin) {
			yBegin = floorInt(vy[k]-sigma) + 1
		}
	}
	if yBegin < 0 {
		yBegin = 0
	}
	yEnd := 0
	for k := 0; k < 2; k++ {
		if vy[k]+sigma > float64(yEnd) {
			yEnd = floorInt(vy[k] + sigma)
		}
	}
	if yEnd > height-1 {
		yEnd = height - 1
	}
	s.YBegin, s.YEnd = yBegin, yEnd
	return s
}

// xRangeFromIneq scans the four stencil inequalities for scanline y and
// returns the covered [xBegin, xEnd] range, clamped to the image width.
func xRangeFromIneq(ineq [4][3]float64, width, y int) (xBegin, xEnd int) {
	xBegin, xEnd = 0, width-1
	for k := 0; k < 4; k++ {
		if ineq[k][0] < 0 {
			if tx := floorInt(ineq[k][1]*float64(y) + ineq[k][2]); tx < xEnd {
				xEnd = tx
			}
		} else {
			if tx := floorInt(-ineq[k][1]*float64(y)-ineq[k][2]) + 1; tx > xBegin {
				xBegin = tx
			}
		}
	}
	return xBegin, xEnd
}

// BuildEdgeStencilAdjoint accumulates into v0Adj/v1Adj the adjoint of the
// edge endpoints, given the adjoints of XY1ToBary and XY1ToTransp.
func BuildEdgeStencilAdjoint(s EdgeStencil, xy1ToBaryAdj [6]float64, xy1ToTranspAdj [3]float64, v0Adj, v1Adj *linalg.Vec2) {
	var xy1ToEdgeAdj linalg.Mat3
	for k := 0; k < 6; k++ {
		xy1ToEdgeAdj[k] += xy1ToBaryAdj[k]
	}
	for k := 0; k < 3; k++ {
		xy1ToEdgeAdj[6+k] += xy1ToTranspAdj[k] * (1 / s.Sigma)
	}

	var edgeToXY1Adj linalg.Mat3
	linalg.InvertMat3Adjoint(s.EdgeToXY1, s.XY1ToEdge, xy1ToEdgeAdj, &edgeToXY1Adj)

	v0Adj.X += edgeToXY1Adj.At(0, 0)
	v1Adj.X += edgeToXY1Adj.At(0, 1)
	v0Adj.Y += edgeToXY1Adj.At(1, 0)
	v1Adj.Y += edgeToXY1Adj.At(1, 1)

	var nAdj [2]float64
	nAdj[0] += edgeToXY1Adj.At(0, 2)
	nAdj[1] += edgeToXY1Adj.At(1, 2)

	var ntAdj [2]float64
	var invNormAdj float64
	for k := 0; k < 2; k++ {
		ntAdj[k] += nAdj[k] * s.InvNorm
		invNormAdj += nAdj[k] * s.Nt[k]
	}
	norB := -invNormAdj * (s.InvNorm * s.InvNorm)
	norSB := norB * 0.5 * s.InvNorm
	ntAdj[0] += 2 * s.Nt[0] * norSB
	ntAdj[1] += 2 * s.Nt[1] * norSB

	if s.Clockwise {
		v0Adj.Y += ntAdj[0]
		v1Adj.Y += -ntAdj[0]
		v1Adj.X += ntAdj[1]
		v0Adj.X += -ntAdj[1]
	} else {
		v0Adj.Y += -ntAdj[0]
		v1Adj.Y += ntAdj[0]
		v1Adj.X += -ntAdj[1]
		v0Adj.X += ntAdj[1]
	}
}
