// Package densesolve implements dense linear algebra over 𝔽ₚ: Gauss-Jordan
// elimination, LU factorization with partial pivoting, and a specialized
// transposed-Vandermonde solver, generalized from dense big.Int matrix
// routines down to a single field element type.
package densesolve

import "github.com/agbru/firefly/internal/field"

// ErrSingular signals that a linear system has no unique solution. This is
// fatal for the caller: PolyReconst reports it upward as a request to
// restart with fresh anchor points, never a silently-swallowed error.
type ErrSingular struct{}

func (ErrSingular) Error() string { return "densesolve: singular system" }

// Matrix is a dense row-major matrix of field elements sharing one field.
type Matrix struct {
	Rows, Cols int
	Data       [][]field.Elem
}

// NewMatrix allocates a rows x cols matrix of zeros in f.
func NewMatrix(rows, cols int, f field.Field) *Matrix {
	data := make([][]field.Elem, rows)
	for i := range data {
		row := make([]field.Elem, cols)
		for j := range row {
			row[j] = field.Zero(f)
		}
		data[i] = row
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}
}

// GaussJordan reduces an augmented [A|b] matrix (rows x (cols+1)) to
// row-echelon form and returns the solution vector x such that A*x = b.
// It returns ErrSingular if A is not invertible.
func GaussJordan(augmented *Matrix, f field.Field) ([]field.Elem, error) {
	m := augmented.Rows
	n := augmented.Cols - 1 // number of unknowns
	if m < n {
		return nil, ErrSingular{}
	}

	rows := make([][]field.Elem, m)
	for i := range rows {
		rows[i] = make([]field.Elem, n+1)
		copy(rows[i], augmented.Data[i])
	}

	pivotRow := 0
	for col := 0; col < n && pivotRow < m; col++ {
		sel := -1
		for r := pivotRow; r < m; r++ {
			if !rows[r][col].IsZero() {
				sel = r
				break
			}
		}
		if sel == -1 {
			continue // free column; handled by rank check below
		}
		rows[pivotRow], rows[sel] = rows[sel], rows[pivotRow]

		inv := rows[pivotRow][col].Inv()
		for c := col; c <= n; c++ {
			rows[pivotRow][c] = rows[pivotRow][c].Mul(inv)
		}

		for r := 0; r < m; r++ {
			if r == pivotRow || rows[r][col].IsZero() {
				continue
			}
			factor := rows[r][col]
			for c := col; c <= n; c++ {
				rows[r][c] = rows[r][c].Sub(factor.Mul(rows[pivotRow][c]))
			}
		}
		pivotRow++
	}

	if pivotRow < n {
		return nil, ErrSingular{}
	}
	// Any remaining rows (m > n) must be consistent zero rows; an
	// overdetermined but consistent system is fine (extra confirming
	// probes), an inconsistent one is a hard failure.
	for r := n; r < m; r++ {
		if !rows[r][n].IsZero() {
			allZero := true
			for c := 0; c < n; c++ {
				if !rows[r][c].IsZero() {
					allZero = false
					break
				}
			}
			if allZero {
				return nil, ErrSingular{}
			}
		}
	}

	x := make([]field.Elem, n)
	for i := 0; i < n; i++ {
		x[i] = rows[i][n]
	}
	return x, nil
}
