package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		RunID:            "4b7c6f1e-0000-4000-8000-000000000001",
		Source:           "h2o.yaml",
		Loader:           "yaml",
		NuclearRepulsion: 9.194,
		OccupiedCount:    2,
		MOCount:          4,
		ERICount:         7,
		Energies: domain.Energies{
			OneElectron: -4.8,
			TwoElectron: 3.16,
			HF:          -0.39,
			MP2:         -0.007625,
		},
		Pairs: []domain.PairEnergy{
			{I: 0, J: 0, Energy: -0.001},
			{I: 0, J: 1, Energy: -0.003},
			{I: 1, J: 0, Energy: -0.003},
			{I: 1, J: 1, Energy: -0.000625},
		},
		TensorBytes: 2048,
		Elapsed:     1500 * time.Microsecond,
	}
}

func TestRender_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), ModePlain, 0))

	want := "Nuclear Repulsion Energy: 9.194000\n" +
		"Number of Occupied Orbitals: 2\n" +
		"One-electron contribution: -4.800000\n" +
		"Two-electron contribution: 3.160000\n" +
		"Hartree-Fock Energy: -0.390000\n" +
		"MP2 Energy: -0.007625\n"
	assert.Equal(t, want, buf.String())
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), "", 2))

	out := buf.String()
	assert.Contains(t, out, "h2o.yaml")
	assert.Contains(t, out, "Hartree-Fock")
	assert.Contains(t, out, "-0.3900000000")
	assert.Contains(t, out, "-0.0076250000")
	assert.Contains(t, out, "39.3%")
	assert.NotContains(t, out, "-0.0006250000")
	assert.NotContains(t, out, "skipped")
}

func TestRender_TextNotesSkippedAndConflicts(t *testing.T) {
	rep := sampleReport()
	rep.SkippedTerms = 3
	rep.Conflicts = 1

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep, ModeText, 0))
	assert.Contains(t, buf.String(), "(3 zero-denominator terms skipped, 1 conflicting records)")
}

func TestRender_TextNoPairs(t *testing.T) {
	rep := sampleReport()
	rep.Pairs = nil

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep, ModeText, 0))
	assert.Contains(t, buf.String(), "(no occupied pairs)")
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), ModeMarkdown, 1))

	out := buf.String()
	var hfRow string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		assert.True(t, strings.HasPrefix(line, "|"), "line %q", line)
		if strings.Contains(line, "Hartree-Fock") {
			hfRow = line
		}
	}
	assert.Contains(t, hfRow, "-0.3900000000")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), ModeJSON, 0))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "h2o.yaml", got["source"])
	assert.Equal(t, 1.5, got["elapsed_ms"])
	energies := got["energies"].(map[string]any)
	assert.Equal(t, -0.39, energies["hartree_fock"])
	assert.Equal(t, -0.007625, energies["mp2"])
	assert.Len(t, got["pairs"], 4)
}

func TestRender_JSONEmptyPairs(t *testing.T) {
	rep := sampleReport()
	rep.Pairs = nil

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep, ModeJSON, 0))
	assert.Contains(t, buf.String(), `"pairs": []`)
}

func TestRender_UnknownMode(t *testing.T) {
	err := Render(&bytes.Buffer{}, sampleReport(), "xml", 0)
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestTopPairs(t *testing.T) {
	pairs := sampleReport().Pairs

	top := TopPairs(pairs, 3)
	require.Len(t, top, 3)
	assert.Equal(t, domain.PairEnergy{I: 0, J: 1, Energy: -0.003}, top[0])
	assert.Equal(t, domain.PairEnergy{I: 1, J: 0, Energy: -0.003}, top[1])
	assert.Equal(t, domain.PairEnergy{I: 0, J: 0, Energy: -0.001}, top[2])

	assert.Len(t, TopPairs(pairs, 0), 4)
	assert.Len(t, TopPairs(pairs, 100), 4)
	assert.Equal(t, 0, pairs[0].I, "input untouched")
	assert.Empty(t, TopPairs(nil, 5))
}

func TestShare(t *testing.T) {
	assert.Equal(t, 0.0, Share(1, 0))
	assert.InDelta(t, 0.5, Share(-1, -2), 1e-15)
}
