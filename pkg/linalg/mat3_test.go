package linalg

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestInvertMat3Identity(t *testing.T) {
	m := Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	inv := InvertMat3(m)
	for k := range m {
		if !almostEqual(inv[k], m[k]) {
			t.Fatalf("inverse of identity mismatch at %d: got %v", k, inv[k])
		}
	}
}

func TestInvertMat3RoundTrip(t *testing.T) {
	m := Mat3{
		2, 1, 0,
		0, 3, 1,
		1, 0, 4,
	}
	inv := InvertMat3(m)
	prod := MulMatrix(m[:], 3, 3, inv[:], 3)
	want := Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for k := range want {
		if !almostEqual(prod[k], want[k]) {
			t.Fatalf("M*M^-1 != I at %d: got %v", k, prod[k])
		}
	}
}

func TestInvertMat3AdjointFiniteDifference(t *testing.T) {
	m := Mat3{
		2, 1, 0,
		0, 3, 1,
		1, 0, 4,
	}
	inv := InvertMat3(m)

	var invAdj Mat3
	invAdj[2] = 1 // seed a single output entry

	var mAdj Mat3
	InvertMat3Adjoint(m, inv, invAdj, &mAdj)

	h := 1e-6
	for k := 0; k < 9; k++ {
		mp := m
		mp[k] += h
		invP := InvertMat3(mp)
		numeric := (invP[2] - inv[2]) / h
		if math.Abs(numeric-mAdj[k]) > 1e-4 {
			t.Fatalf("adjoint mismatch at %d: analytic %v numeric %v", k, mAdj[k], numeric)
		}
	}
}

func TestMulMat3Vec3(t *testing.T) {
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	v := V3(1, 1, 1)
	got := MulMat3Vec3(m, v)
	want := V3(6, 15, 24)
	if !almostEqual(got.X, want.X) || !almostEqual(got.Y, want.Y) || !almostEqual(got.Z, want.Z) {
		t.Fatalf("MulMat3Vec3 = %+v, want %+v", got, want)
	}
}

func TestMulVec3Mat3(t *testing.T) {
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	v := V3(1, 1, 1)
	got := MulVec3Mat3(v, m)
	want := V3(12, 15, 18)
	if !almostEqual(got.X, want.X) || !almostEqual(got.Y, want.Y) || !almostEqual(got.Z, want.Z) {
		t.Fatalf("MulVec3Mat3 = %+v, want %+v", got, want)
	}
}

func TestMulMat3Vec3AdjointFiniteDifference(t *testing.T) {
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	v := V3(0.5, -1.5, 2.0)

	rAdj := V3(1, 0, 0)
	var mAdj Mat3
	MulMat3Vec3Adjoint(rAdj, v, &mAdj)

	h := 1e-6
	for k := 0; k < 9; k++ {
		mp := m
		mp[k] += h
		r0 := MulMat3Vec3(m, v).X
		r1 := MulMat3Vec3(mp, v).X
		numeric := (r1 - r0) / h
		if math.Abs(numeric-mAdj[k]) > 1e-4 {
			t.Fatalf("adjoint mismatch at %d: analytic %v numeric %v", k, mAdj[k], numeric)
		}
	}
}
