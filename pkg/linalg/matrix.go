package linalg

// MulMatrixVec returns M·v for an Nx3 matrix M stored row-major as a flat
// slice of length 3*n: r[i] = Σⱼ M[3*i+j]*v[j].
func MulMatrixVec(m []float64, v Vec3) []float64 {
	n := len(m) / 3
	a := v.Array()
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < 3; j++ {
			s += m[3*i+j] * a[j]
		}
		r[i] = s
	}
	return r
}

// MulMatrixVecAdjoint accumulates into mAdj and vAdj the adjoints of an
// Nx3 row-major matrix m and a Vec3 v given m, v and the adjoint of M·v.
func MulMatrixVecAdjoint(rAdj []float64, m []float64, v Vec3, mAdj []float64, vAdj *Vec3) {
	a := v.Array()
	var va [3]float64
	n := len(rAdj)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			mAdj[3*i+j] += rAdj[i] * a[j]
			va[j] += rAdj[i] * m[3*i+j]
		}
	}
	vAdj.X += va[0]
	vAdj.Y += va[1]
	vAdj.Z += va[2]
}

// MulMatrix computes the product of an IxJ matrix a and a JxK matrix b,
// both row-major, returning the IxK row-major result.
func MulMatrix(a []float64, i, j int, b []float64, k int) []float64 {
	r := make([]float64, i*k)
	for ii := 0; ii < i; ii++ {
		for kk := 0; kk < k; kk++ {
			var s float64
			for jj := 0; jj < j; jj++ {
				s += a[ii*j+jj] * b[jj*k+kk]
			}
			r[ii*k+kk] = s
		}
	}
	return r
}

// MulMatrixAdjoint accumulates into aAdj and bAdj the adjoints of a and b
// given a, b, their shapes, and the adjoint of their product.
func MulMatrixAdjoint(rAdj []float64, a []float64, i, j int, b []float64, k int, aAdj, bAdj []float64) {
	for ii := 0; ii < i; ii++ {
		for kk := 0; kk < k; kk++ {
			g := rAdj[ii*k+kk]
			if g == 0 {
				continue
			}
			for jj := 0; jj < j; jj++ {
				aAdj[ii*j+jj] += g * b[jj*k+kk]
				bAdj[jj*k+kk] += g * a[ii*j+jj]
			}
		}
	}
}
