// Package report renders energy reports for the terminal and for tooling.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
)

// Output modes.
const (
	ModeText     = "text"
	ModeMarkdown = "markdown"
	ModeJSON     = "json"
	ModePlain    = "plain"
)

// ErrUnknownMode is returned for an unsupported output mode.
var ErrUnknownMode = errors.New("report: unknown output mode")

// Modes lists the supported output modes.
func Modes() []string { return []string{ModeText, ModeMarkdown, ModeJSON, ModePlain} }

// Render writes rep to w in the given mode. topPairs bounds the pair listing
// of the text and markdown modes.
func Render(w io.Writer, rep *domain.Report, mode string, topPairs int) error {
	switch strings.ToLower(mode) {
	case "", ModeText:
		return renderTable(w, rep, topPairs, false)
	case ModeMarkdown, "md":
		return renderTable(w, rep, topPairs, true)
	case ModeJSON:
		return renderJSON(w, rep)
	case ModePlain:
		return renderPlain(w, rep)
	default:
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownMode, mode, strings.Join(Modes(), ", "))
	}
}

func renderPlain(w io.Writer, rep *domain.Report) error {
	lines := []string{
		fmt.Sprintf("Nuclear Repulsion Energy: %f", rep.NuclearRepulsion),
		fmt.Sprintf("Number of Occupied Orbitals: %d", rep.OccupiedCount),
		fmt.Sprintf("One-electron contribution: %f", rep.Energies.OneElectron),
		fmt.Sprintf("Two-electron contribution: %f", rep.Energies.TwoElectron),
		fmt.Sprintf("Hartree-Fock Energy: %f", rep.Energies.HF),
		fmt.Sprintf("MP2 Energy: %f", rep.Energies.MP2),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func renderTable(w io.Writer, rep *domain.Report, topPairs int, markdown bool) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(rep.Source)
	t.AppendHeader(table.Row{"Quantity", "Value"})
	t.AppendRows([]table.Row{
		{"Nuclear repulsion", formatEnergy(rep.NuclearRepulsion)},
		{"Occupied orbitals", rep.OccupiedCount},
		{"Molecular orbitals", rep.MOCount},
		{"Two-electron records", rep.ERICount},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"One-electron", formatEnergy(rep.Energies.OneElectron)},
		{"Two-electron", formatEnergy(rep.Energies.TwoElectron)},
		{"Hartree-Fock", formatEnergy(rep.Energies.HF)},
		{"MP2 correlation", formatEnergy(rep.Energies.MP2)},
	})
	if markdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}

	top := TopPairs(rep.Pairs, topPairs)
	if len(top) == 0 {
		_, _ = fmt.Fprintln(w, "(no occupied pairs)")
		return nil
	}
	_, _ = fmt.Fprintln(w)

	p := table.NewWriter()
	p.SetOutputMirror(w)
	p.SetStyle(table.StyleLight)
	p.AppendHeader(table.Row{"i", "j", "Pair energy", "Share"})
	for _, pe := range top {
		p.AppendRow(table.Row{pe.I, pe.J, formatEnergy(pe.Energy), fmt.Sprintf("%.1f%%", 100*Share(pe.Energy, rep.Energies.MP2))})
	}
	if markdown {
		p.RenderMarkdown()
	} else {
		p.Render()
	}

	if rep.SkippedTerms > 0 || rep.Conflicts > 0 {
		_, _ = fmt.Fprintf(w, "(%d zero-denominator terms skipped, %d conflicting records)\n", rep.SkippedTerms, rep.Conflicts)
	}
	return nil
}

type jsonReport struct {
	RunID            string              `json:"run_id"`
	Source           string              `json:"source"`
	Loader           string              `json:"loader"`
	NuclearRepulsion float64             `json:"nuclear_repulsion"`
	OccupiedCount    int                 `json:"n_occ"`
	MOCount          int                 `json:"mo_count"`
	ERICount         int                 `json:"eri_records"`
	Energies         domain.Energies     `json:"energies"`
	Pairs            []domain.PairEnergy `json:"pairs"`
	SkippedTerms     int                 `json:"skipped_terms"`
	Conflicts        int                 `json:"conflicts"`
	TensorBytes      int64               `json:"tensor_bytes"`
	ElapsedMS        float64             `json:"elapsed_ms"`
}

func renderJSON(w io.Writer, rep *domain.Report) error {
	out := jsonReport{
		RunID:            rep.RunID,
		Source:           rep.Source,
		Loader:           rep.Loader,
		NuclearRepulsion: rep.NuclearRepulsion,
		OccupiedCount:    rep.OccupiedCount,
		MOCount:          rep.MOCount,
		ERICount:         rep.ERICount,
		Energies:         rep.Energies,
		Pairs:            rep.Pairs,
		SkippedTerms:     rep.SkippedTerms,
		Conflicts:        rep.Conflicts,
		TensorBytes:      rep.TensorBytes,
		ElapsedMS:        float64(rep.Elapsed.Microseconds()) / 1000,
	}
	if out.Pairs == nil {
		out.Pairs = []domain.PairEnergy{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatEnergy(v float64) string {
	return fmt.Sprintf("%.10f", v)
}
