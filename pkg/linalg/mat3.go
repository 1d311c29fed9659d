package linalg

// Mat3 is a row-major 3x3 matrix: M[3*row+col]. Row-major matches the way
// the stencil solvers build it — e.g. bary_to_xy1's rows are
// [V0.x V1.x V2.x], [V0.y V1.y V2.y], [1 1 1].
type Mat3 [9]float64

// At returns M[row][col].
func (m Mat3) At(row, col int) float64 {
	return m[3*row+col]
}

// Set assigns M[row][col] = v.
func (m *Mat3) Set(row, col int, v float64) {
	m[3*row+col] = v
}

// InvertMat3 computes M⁻¹ through the cofactor expansion in closed form:
// it builds the transposed cofactor matrix and rescales it by 1/det, the
// same steps InvertMat3Adjoint replays and differentiates.
func InvertMat3(m Mat3) Mat3 {
	var t Mat3
	t[0] = m[4]*m[8] - m[7]*m[5]
	t[3] = -(m[3]*m[8] - m[6]*m[5])
	t[6] = m[3]*m[7] - m[6]*m[4]
	t[1] = -(m[1]*m[8] - m[7]*m[2])
	t[4] = m[0]*m[8] - m[6]*m[2]
	t[7] = -(m[0]*m[7] - m[6]*m[1])
	t[2] = m[1]*m[5] - m[4]*m[2]
	t[5] = -(m[0]*m[5] - m[3]*m[2])
	t[8] = m[0]*m[4] - m[3]*m[1]

	invDet := 1 / (m[0]*t[0] + m[1]*t[3] + m[2]*t[6])
	for k := range t {
		t[k] *= invDet
	}
	return t
}

// InvertMat3Adjoint accumulates into mAdj the adjoint of m given the
// adjoint of its inverse (mInv, mInvAdj). It replays InvertMat3's cofactor
// expansion to recover the unscaled cofactor matrix and determinant, then
// differentiates the rescale and each cofactor term.
func InvertMat3Adjoint(m, mInv, mInvAdj Mat3, mAdj *Mat3) {
	var tp Mat3
	tp[0] = m[4]*m[8] - m[7]*m[5]
	tp[3] = -(m[3]*m[8] - m[6]*m[5])
	tp[6] = m[3]*m[7] - m[6]*m[4]
	tp[1] = -(m[1]*m[8] - m[7]*m[2])
	tp[4] = m[0]*m[8] - m[6]*m[2]
	tp[7] = -(m[0]*m[7] - m[6]*m[1])
	tp[2] = m[1]*m[5] - m[4]*m[2]
	tp[5] = -(m[0]*m[5] - m[3]*m[2])
	tp[8] = m[0]*m[4] - m[3]*m[1]

	det := m[0]*tp[0] + m[1]*tp[3] + m[2]*tp[6]
	invDet := 1 / det

	var tpAdj Mat3
	var invDetAdj float64
	for k := range tp {
		invDetAdj += tp[k] * mInvAdj[k]
		tpAdj[k] += invDet * mInvAdj[k]
	}
	detAdj := invDetAdj * (-invDet * invDet)

	mAdj[0] += tp[0] * detAdj
	tpAdj[0] += m[0] * detAdj
	mAdj[1] += tp[3] * detAdj
	tpAdj[3] += m[1] * detAdj
	mAdj[2] += tp[6] * detAdj
	tpAdj[6] += m[2] * detAdj

	mAdj[4] += m[8] * tpAdj[0]
	mAdj[8] += m[4] * tpAdj[0]
	mAdj[7] += -m[5] * tpAdj[0]
	mAdj[5] += -m[7] * tpAdj[0]

	mAdj[3] += -m[8] * tpAdj[3]
	mAdj[8] += -m[3] * tpAdj[3]
	mAdj[6] += m[5] * tpAdj[3]
	mAdj[5] += m[6] * tpAdj[3]

	mAdj[3] += m[7] * tpAdj[6]
	mAdj[7] += m[3] * tpAdj[6]
	mAdj[6] += -m[4] * tpAdj[6]
	mAdj[4] += -m[6] * tpAdj[6]

	mAdj[1] += -m[8] * tpAdj[1]
	mAdj[8] += -m[1] * tpAdj[1]
	mAdj[7] += m[2] * tpAdj[1]
	mAdj[2] += m[7] * tpAdj[1]

	mAdj[0] += m[8] * tpAdj[4]
	mAdj[8] += m[0] * tpAdj[4]
	mAdj[6] += -m[2] * tpAdj[4]
	mAdj[2] += -m[6] * tpAdj[4]

	mAdj[0] += -m[7] * tpAdj[7]
	mAdj[7] += -m[0] * tpAdj[7]
	mAdj[6] += m[1] * tpAdj[7]
	mAdj[1] += m[6] * tpAdj[7]

	mAdj[1] += m[5] * tpAdj[2]
	mAdj[5] += m[1] * tpAdj[2]
	mAdj[4] += -m[2] * tpAdj[2]
	mAdj[2] += -m[4] * tpAdj[2]

	mAdj[0] += -m[5] * tpAdj[5]
	mAdj[5] += -m[0] * tpAdj[5]
	mAdj[3] += m[2] * tpAdj[5]
	mAdj[2] += m[3] * tpAdj[5]

	mAdj[0] += m[4] * tpAdj[8]
	mAdj[4] += m[0] * tpAdj[8]
	mAdj[3] += -m[1] * tpAdj[8]
	mAdj[1] += -m[3] * tpAdj[8]

	_ = mInv // mInv is unused algebraically (invDet/tp are recomputed), kept for API symmetry with the forward call.
}

// MulMat3Vec3 returns M·v.
func MulMat3Vec3(m Mat3, v Vec3) Vec3 {
	a := v.Array()
	var r [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i] += m[3*i+j] * a[j]
		}
	}
	return V3(r[0], r[1], r[2])
}

// MulMat3Vec3Adjoint accumulates into mAdj the adjoint of m given v and
// the adjoint of M·v.
func MulMat3Vec3Adjoint(rAdj Vec3, v Vec3, mAdj *Mat3) {
	ra := rAdj.Array()
	a := v.Array()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			mAdj[3*i+j] += ra[i] * a[j]
		}
	}
}

// MulVec3Mat3 returns the row-vector product vᵗ·M, i.e. R[i] = Σⱼ M[j][i]·v[j].
func MulVec3Mat3(v Vec3, m Mat3) Vec3 {
	a := v.Array()
	var r [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i] += m[3*j+i] * a[j]
		}
	}
	return V3(r[0], r[1], r[2])
}

// MulVec3Mat3Adjoint accumulates into vAdj and mAdj the adjoints of v and m
// given v, m and the adjoint of vᵗ·M.
func MulVec3Mat3Adjoint(rAdj Vec3, v Vec3, m Mat3, vAdj *Vec3, mAdj *Mat3) {
	ra := rAdj.Array()
	a := v.Array()
	var va [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			mAdj[3*j+i] += ra[i] * a[j]
			va[j] += ra[i] * m[3*j+i]
		}
	}
	vAdj.X += va[0]
	vAdj.Y += va[1]
	vAdj.Z += va[2]
}
