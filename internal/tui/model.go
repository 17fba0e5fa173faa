package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/report"
)

// Model is the Bubble Tea model for browsing one energy report.
type Model struct {
	report   *domain.Report
	input    textinput.Model
	viewport viewport.Model
	pairs    []domain.PairEnergy
	status   string
	cursor   int
	ready    bool
	filter   int // orbital index, -1 for none
}

// New creates a viewer for rep.
func New(rep *domain.Report) Model {
	ti := textinput.New()
	ti.Prompt = "orbital> "
	ti.Placeholder = "press / and enter an orbital index"
	ti.CharLimit = 6
	vp := viewport.New(0, 0)
	return Model{
		report:   rep,
		input:    ti,
		viewport: vp,
		pairs:    rep.Pairs,
		filter:   -1,
		status:   fmt.Sprintf("%d pair energies. up/down to move, / to filter, q to quit.", len(rep.Pairs)),
	}
}

// Run opens the viewer on the terminal and blocks until it exits.
func Run(rep *domain.Report) error {
	_, err := tea.NewProgram(New(rep), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ph := pairBoxStyle.GetFrameSize()
		_, fh := filterBoxStyle.GetFrameSize()
		reserved := 3 + 1 + fh + 1 // header + two summary lines, status, filter box, spacer
		vh := msg.Height - reserved - ph
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.input.Focused() {
			switch msg.Type {
			case tea.KeyEnter:
				m.applyFilter(strings.TrimSpace(m.input.Value()))
				m.input.Blur()
				m.refresh()
				return m, nil
			case tea.KeyEsc:
				m.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.input.SetValue("")
			return m, m.input.Focus()
		case "down":
			if len(m.pairs) > 0 {
				m.cursor = (m.cursor + 1) % len(m.pairs)
				m.refresh()
			}
			return m, nil
		case "up":
			if len(m.pairs) > 0 {
				m.cursor = (m.cursor - 1 + len(m.pairs)) % len(m.pairs)
				m.refresh()
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the header, energy summary, pair list and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	e := m.report.Energies
	header := lipgloss.NewStyle().Bold(true).Render("HF / MP2 energies: " + m.report.Source)
	summary := summaryStyle.Render(fmt.Sprintf("E(nuc) %.8f   E(1e) %.8f   E(2e) %.8f",
		m.report.NuclearRepulsion, e.OneElectron, e.TwoElectron))
	totals := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("E(HF) %.8f   E(MP2) %.8f   n_occ %d / %d MOs",
		e.HF, e.MP2, m.report.OccupiedCount, m.report.MOCount))
	pairs := pairBoxStyle.Render(m.viewport.View())
	filter := filterBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + totals + "\n" + pairs + "\n" + filter + "\n" + status
}

// Cursor returns the highlighted pair, if any.
func (m Model) Cursor() (domain.PairEnergy, bool) {
	if len(m.pairs) == 0 {
		return domain.PairEnergy{}, false
	}
	return m.pairs[m.cursor], true
}

// Filter returns the orbital index pairs are filtered by, or -1.
func (m Model) Filter() int { return m.filter }

func (m *Model) applyFilter(v string) {
	m.cursor = 0
	if v == "" {
		m.filter = -1
		m.pairs = m.report.Pairs
		m.status = fmt.Sprintf("%d pair energies.", len(m.pairs))
		return
	}
	k, err := strconv.Atoi(v)
	if err != nil || k < 0 || k >= m.report.OccupiedCount {
		m.status = fmt.Sprintf("Error: %q is not an occupied orbital index", v)
		return
	}
	m.filter = k
	m.pairs = nil
	for _, p := range m.report.Pairs {
		if p.I == k || p.J == k {
			m.pairs = append(m.pairs, p)
		}
	}
	m.status = fmt.Sprintf("%d pair energies involving orbital %d.", len(m.pairs), k)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderPairs())
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if h := m.viewport.Height; h > 0 && m.cursor >= m.viewport.YOffset+h {
		m.viewport.SetYOffset(m.cursor - h + 1)
	}
}

func (m Model) renderPairs() string {
	if len(m.pairs) == 0 {
		return "No pair energies."
	}
	lines := make([]string, len(m.pairs))
	for n, p := range m.pairs {
		line := fmt.Sprintf("  e(%d,%d) = %14.10f  %5.1f%%", p.I, p.J, p.Energy, 100*report.Share(p.Energy, m.report.Energies.MP2))
		if n == m.cursor {
			line = highlightStyle.Render("> " + line[2:])
		}
		lines[n] = line
	}
	return strings.Join(lines, "\n")
}

var (
	pairBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	filterBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
