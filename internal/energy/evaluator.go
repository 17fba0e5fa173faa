// Package energy evaluates closed-shell Hartree-Fock and MP2 energies from a
// dense two-electron tensor, the core Hamiltonian and orbital energies.
//
// Sums run in fixed nested-loop order (i, j, then a, b) so results are
// reproducible bit for bit.
package energy

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
)

// ErrShapeMismatch is returned when the inputs disagree about the orbital count.
var ErrShapeMismatch = errors.New("energy: input shapes do not match")

// Input gathers everything Evaluate needs.
type Input struct {
	NuclearRepulsion float64
	ERI              *tensor.ERI
	// Core is the one-electron (core Hamiltonian) matrix.
	Core            mat.Matrix
	OccupiedCount   int
	OrbitalEnergies []float64
}

// Result is the evaluated energies plus MP2 diagnostics.
type Result struct {
	domain.Energies
	Breakdown MP2Result
}

// MP2Result is the MP2 correlation energy with its per-pair breakdown.
type MP2Result struct {
	Energy float64
	// Pairs[i][j] sums the terms of occupied pair (i,j).
	Pairs [][]float64
	// Skipped counts terms dropped for an exactly zero denominator.
	Skipped int
}

// NewInput wraps validated integrals and a built tensor. The core Hamiltonian
// is viewed in place, not copied.
func NewInput(in *domain.MOIntegrals, eri *tensor.ERI) Input {
	return Input{
		NuclearRepulsion: in.NuclearRepulsion,
		ERI:              eri,
		Core:             mat.NewDense(in.MOCount, in.MOCount, in.OneElectron),
		OccupiedCount:    in.OccupiedCount,
		OrbitalEnergies:  in.OrbitalEnergies,
	}
}

func (in Input) validate() error {
	if in.ERI == nil || in.Core == nil {
		return fmt.Errorf("%w: missing tensor or core Hamiltonian", ErrShapeMismatch)
	}
	n := in.ERI.Dim()
	r, c := in.Core.Dims()
	if r != n || c != n {
		return fmt.Errorf("%w: core Hamiltonian is %dx%d, tensor has %d orbitals", ErrShapeMismatch, r, c, n)
	}
	if len(in.OrbitalEnergies) != n {
		return fmt.Errorf("%w: %d orbital energies for %d orbitals", ErrShapeMismatch, len(in.OrbitalEnergies), n)
	}
	if in.OccupiedCount < 0 || in.OccupiedCount > n {
		return fmt.Errorf("%w: %d occupied of %d orbitals", ErrShapeMismatch, in.OccupiedCount, n)
	}
	return nil
}

// Evaluate computes the one-electron and two-electron contributions, the HF
// energy and the MP2 correlation energy.
func Evaluate(in Input) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}
	one := OneElectron(in.Core, in.OccupiedCount)
	two := TwoElectron(in.ERI, in.OccupiedCount)
	mp2 := MP2(in.ERI, in.OrbitalEnergies, in.OccupiedCount)
	return Result{
		Energies: domain.Energies{
			OneElectron: one,
			TwoElectron: two,
			HF:          HF(in.NuclearRepulsion, one, two),
			MP2:         mp2.Energy,
		},
		Breakdown: mp2,
	}, nil
}

// OneElectron returns 2 * sum of h[i][i] over occupied orbitals.
func OneElectron(h mat.Matrix, nOcc int) float64 {
	sum := 0.0
	for i := 0; i < nOcc; i++ {
		sum += h.At(i, i)
	}
	return 2.0 * sum
}

// TwoElectron returns the sum over occupied (i,j) of 2*(ij|ij) - (ij|ji),
// with the tensor indexed as T[i][j][i][j] and T[i][j][j][i].
func TwoElectron(t *tensor.ERI, nOcc int) float64 {
	sum := 0.0
	for i := 0; i < nOcc; i++ {
		for j := 0; j < nOcc; j++ {
			sum += 2.0*t.At(i, j, i, j) - t.At(i, j, j, i)
		}
	}
	return sum
}

// HF is the total closed-shell Hartree-Fock energy.
func HF(nuclear, oneElectron, twoElectron float64) float64 {
	return nuclear + oneElectron + twoElectron
}

// MP2 sums T[i][j][a][b]^2 / (e_i + e_j - e_a - e_b) over occupied i, j and
// virtual a, b. Terms with a zero denominator contribute nothing.
func MP2(t *tensor.ERI, eps []float64, nOcc int) MP2Result {
	n := t.Dim()
	res := MP2Result{Pairs: make([][]float64, nOcc)}
	for i := 0; i < nOcc; i++ {
		res.Pairs[i] = make([]float64, nOcc)
		for j := 0; j < nOcc; j++ {
			for a := nOcc; a < n; a++ {
				for b := nOcc; b < n; b++ {
					v := t.At(i, j, a, b)
					denom := eps[i] + eps[j] - eps[a] - eps[b]
					if denom == 0 {
						res.Skipped++
						continue
					}
					term := (v * v) / denom
					res.Energy += term
					res.Pairs[i][j] += term
				}
			}
		}
	}
	return res
}

// PairEnergies flattens an MP2 breakdown into (i, j, energy) rows in loop order.
func PairEnergies(r MP2Result) []domain.PairEnergy {
	out := make([]domain.PairEnergy, 0, len(r.Pairs)*len(r.Pairs))
	for i, row := range r.Pairs {
		for j, e := range row {
			out = append(out, domain.PairEnergy{I: i, J: j, Energy: e})
		}
	}
	return out
}
