package densesolve

import "github.com/agbru/firefly/internal/field"

// LU holds an LU factorization with partial pivoting of a square matrix A
// such that P*A = L*U, used for matrix inversion and determinant
// computation.
type LU struct {
	n    int
	f    field.Field
	lu   [][]field.Elem // combined L (below diag, implicit unit diag) and U (on/above diag)
	perm []int          // perm[i] = original row moved into position i
	sign int            // +1 or -1, parity of the permutation
}

// Factorize computes the LU decomposition of the square matrix a.
// Returns ErrSingular if a is not invertible.
func Factorize(a *Matrix, f field.Field) (*LU, error) {
	if a.Rows != a.Cols {
		panic("densesolve: LU requires a square matrix")
	}
	n := a.Rows
	lu := make([][]field.Elem, n)
	for i := range lu {
		lu[i] = make([]field.Elem, n)
		copy(lu[i], a.Data[i])
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sign := 1

	for col := 0; col < n; col++ {
		sel := -1
		for r := col; r < n; r++ {
			if !lu[r][col].IsZero() {
				sel = r
				break
			}
		}
		if sel == -1 {
			return nil, ErrSingular{}
		}
		if sel != col {
			lu[sel], lu[col] = lu[col], lu[sel]
			perm[sel], perm[col] = perm[col], perm[sel]
			sign = -sign
		}
		pivotInv := lu[col][col].Inv()
		for r := col + 1; r < n; r++ {
			if lu[r][col].IsZero() {
				continue
			}
			factor := lu[r][col].Mul(pivotInv)
			lu[r][col] = factor // store multiplier as the L entry
			for c := col + 1; c < n; c++ {
				lu[r][c] = lu[r][c].Sub(factor.Mul(lu[col][c]))
			}
		}
	}

	return &LU{n: n, f: f, lu: lu, perm: perm, sign: sign}, nil
}

// Determinant returns det(A) = sign * product of the diagonal of U.
func (d *LU) Determinant() field.Elem {
	det := field.One(d.f)
	if d.sign < 0 {
		det = det.Neg()
	}
	for i := 0; i < d.n; i++ {
		det = det.Mul(d.lu[i][i])
	}
	return det
}

// Solve returns x such that A*x = b, reusing the factorization.
func (d *LU) Solve(b []field.Elem) []field.Elem {
	n := d.n
	// Apply permutation to b.
	pb := make([]field.Elem, n)
	for i, orig := range d.perm {
		pb[i] = b[orig]
	}
	// Forward substitution: L*y = pb (unit lower triangular).
	y := make([]field.Elem, n)
	for i := 0; i < n; i++ {
		sum := pb[i]
		for j := 0; j < i; j++ {
			sum = sum.Sub(d.lu[i][j].Mul(y[j]))
		}
		y[i] = sum
	}
	// Back substitution: U*x = y.
	x := make([]field.Elem, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum = sum.Sub(d.lu[i][j].Mul(x[j]))
		}
		x[i] = sum.Mul(d.lu[i][i].Inv())
	}
	return x
}

// Inverse returns A^-1 by solving against each standard basis vector.
func (d *LU) Inverse() *Matrix {
	inv := NewMatrix(d.n, d.n, d.f)
	for col := 0; col < d.n; col++ {
		e := make([]field.Elem, d.n)
		for i := range e {
			e[i] = field.Zero(d.f)
		}
		e[col] = field.One(d.f)
		x := d.Solve(e)
		for row := 0; row < d.n; row++ {
			inv.Data[row][col] = x[row]
		}
	}
	return inv
}
