package testutil

import "github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"

// TwoOrbitalSystem is the smallest closed-shell case: one occupied and one
// virtual orbital with a single (00|00) integral.
// Expected: one-electron 2.0, two-electron 0.3, HF 2.8, MP2 0.
func TwoOrbitalSystem() *domain.MOIntegrals {
	return &domain.MOIntegrals{
		NuclearRepulsion: 0.5,
		OccupiedCount:    1,
		MOCount:          2,
		OneElectron:      []float64{1, 0, 0, 2},
		ERI:              []domain.ERIRecord{{I: 0, J: 0, K: 0, L: 0, Value: 0.3}},
		OrbitalEnergies:  []float64{-0.4, 0.6},
	}
}

// FourOrbitalSystem has two occupied and two virtual orbitals with a handful
// of distinct, non-overlapping integral classes.
// Expected: one-electron -4.8, two-electron 3.16, HF -0.39, MP2 -0.007625.
func FourOrbitalSystem() *domain.MOIntegrals {
	return &domain.MOIntegrals{
		NuclearRepulsion: 1.25,
		OccupiedCount:    2,
		MOCount:          4,
		OneElectron: []float64{
			-1.5, 0.1, 0, 0,
			0.1, -0.9, 0, 0,
			0, 0, 0.3, 0.05,
			0, 0, 0.05, 0.7,
		},
		ERI: []domain.ERIRecord{
			{I: 0, J: 0, K: 0, L: 0, Value: 0.8},
			{I: 1, J: 1, K: 1, L: 1, Value: 0.6},
			{I: 0, J: 1, K: 0, L: 1, Value: 0.5},
			{I: 0, J: 1, K: 1, L: 0, Value: 0.12},
			{I: 0, J: 1, K: 2, L: 3, Value: 0.07},
			{I: 0, J: 0, K: 2, L: 2, Value: 0.04},
			{I: 1, J: 0, K: 2, L: 3, Value: 0.02},
		},
		OrbitalEnergies: []float64{-0.6, -0.3, 0.2, 0.5},
	}
}
