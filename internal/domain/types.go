package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidIntegrals is wrapped by every validation failure of MOIntegrals.
var ErrInvalidIntegrals = errors.New("domain: invalid integrals")

// ERIRecord is one nonzero two-electron integral (ij|kl) in chemist notation.
type ERIRecord struct {
	I, J, K, L int32
	Value      float64
}

// MOIntegrals is everything read from an integral source for one run.
type MOIntegrals struct {
	NuclearRepulsion float64
	OccupiedCount    int
	MOCount          int
	// OneElectron is the core Hamiltonian, MOCount x MOCount, row-major.
	OneElectron []float64
	ERI         []ERIRecord
	// OrbitalEnergies may be empty when the source has none; they are then
	// derived from the Fock diagonal after the tensor is built.
	OrbitalEnergies []float64
}

// Validate checks shapes, index ranges and that every value is finite.
func (m *MOIntegrals) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil integrals", ErrInvalidIntegrals)
	}
	n := m.MOCount
	if n <= 0 {
		return fmt.Errorf("%w: mo_count must be positive, got %d", ErrInvalidIntegrals, n)
	}
	if m.OccupiedCount < 0 || m.OccupiedCount > n {
		return fmt.Errorf("%w: n_occ %d outside [0, %d]", ErrInvalidIntegrals, m.OccupiedCount, n)
	}
	if n > math.MaxInt/n {
		return fmt.Errorf("%w: mo_count %d too large", ErrInvalidIntegrals, n)
	}
	if len(m.OneElectron) != n*n {
		return fmt.Errorf("%w: one-electron matrix has %d values, want %d", ErrInvalidIntegrals, len(m.OneElectron), n*n)
	}
	if len(m.OrbitalEnergies) != 0 && len(m.OrbitalEnergies) != n {
		return fmt.Errorf("%w: %d orbital energies, want %d", ErrInvalidIntegrals, len(m.OrbitalEnergies), n)
	}
	if !isFinite(m.NuclearRepulsion) {
		return fmt.Errorf("%w: nuclear repulsion is not finite", ErrInvalidIntegrals)
	}
	for i, v := range m.OneElectron {
		if !isFinite(v) {
			return fmt.Errorf("%w: one-electron value (%d,%d) is not finite", ErrInvalidIntegrals, i/n, i%n)
		}
	}
	for i, v := range m.OrbitalEnergies {
		if !isFinite(v) {
			return fmt.Errorf("%w: orbital energy %d is not finite", ErrInvalidIntegrals, i)
		}
	}
	for p, r := range m.ERI {
		for _, idx := range [4]int32{r.I, r.J, r.K, r.L} {
			if idx < 0 || int(idx) >= n {
				return fmt.Errorf("%w: eri record %d (%d %d %d %d) index out of range", ErrInvalidIntegrals, p, r.I, r.J, r.K, r.L)
			}
		}
		if !isFinite(r.Value) {
			return fmt.Errorf("%w: eri record %d value is not finite", ErrInvalidIntegrals, p)
		}
	}
	return nil
}

// HasOrbitalEnergies reports whether the source supplied orbital energies.
func (m *MOIntegrals) HasOrbitalEnergies() bool { return len(m.OrbitalEnergies) > 0 }

// VirtualCount is the number of orbitals above the occupied block.
func (m *MOIntegrals) VirtualCount() int { return m.MOCount - m.OccupiedCount }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Energies holds the four reported scalars.
type Energies struct {
	OneElectron float64 `json:"one_electron"`
	TwoElectron float64 `json:"two_electron"`
	HF          float64 `json:"hartree_fock"`
	MP2         float64 `json:"mp2"`
}

// PairEnergy is the MP2 contribution of one occupied pair (i,j).
type PairEnergy struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Energy float64 `json:"energy"`
}

// Report is the outcome of one run.
type Report struct {
	RunID            string        `json:"run_id"`
	Source           string        `json:"source"`
	Loader           string        `json:"loader"`
	NuclearRepulsion float64       `json:"nuclear_repulsion"`
	OccupiedCount    int           `json:"n_occ"`
	MOCount          int           `json:"mo_count"`
	ERICount         int           `json:"eri_count"`
	Energies         Energies      `json:"energies"`
	Pairs            []PairEnergy  `json:"pairs,omitempty"`
	SkippedTerms     int           `json:"skipped_terms"`
	Conflicts        int           `json:"conflicts"`
	TensorBytes      int64         `json:"tensor_bytes"`
	Elapsed          time.Duration `json:"elapsed_ns"`
}
