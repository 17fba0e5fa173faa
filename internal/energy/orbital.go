package energy

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
)

// FockDiagonal returns canonical orbital energies from the closed-shell Fock
// diagonal: e_p = h[p][p] + sum over occupied i of 2*T[p][i][p][i] - T[p][i][i][p].
// Used when the integral source carries no orbital energies.
func FockDiagonal(h mat.Matrix, t *tensor.ERI, nOcc int) []float64 {
	n := t.Dim()
	eps := make([]float64, n)
	for p := 0; p < n; p++ {
		e := h.At(p, p)
		for i := 0; i < nOcc; i++ {
			e += 2.0*t.At(p, i, p, i) - t.At(p, i, i, p)
		}
		eps[p] = e
	}
	return eps
}
