package energy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/energy"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/testutil"
)

func TestFockDiagonal(t *testing.T) {
	sys := testutil.TwoOrbitalSystem()
	eri, err := tensor.Build(sys.MOCount, sys.ERI)
	require.NoError(t, err)
	h := mat.NewDense(sys.MOCount, sys.MOCount, sys.OneElectron)

	eps := energy.FockDiagonal(h, eri, sys.OccupiedCount)
	require.Len(t, eps, 2)
	assert.InDelta(t, 1.0+2*0.3-0.3, eps[0], tol)
	assert.InDelta(t, 2.0, eps[1], tol)
}

func TestFockDiagonal_NoOccupied(t *testing.T) {
	sys := testutil.FourOrbitalSystem()
	eri, err := tensor.Build(sys.MOCount, sys.ERI)
	require.NoError(t, err)
	h := mat.NewDense(sys.MOCount, sys.MOCount, sys.OneElectron)

	assert.Equal(t, []float64{-1.5, -0.9, 0.3, 0.7}, energy.FockDiagonal(h, eri, 0))
}
