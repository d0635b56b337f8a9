package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	"github.com/matzehuels/bpcgraph/pkg/ops"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ChainModel - Interactive operation chain browser
// =============================================================================

// chainStep is the state after one operation of a chain.
type chainStep struct {
	Op    ops.Operation
	Cost  float64
	Total float64
	Graph bpc.Graph
}

// ChainModel is the bubbletea model for stepping through an operation chain.
// Cursor 0 shows the initial graph; cursor i shows the graph after the i-th
// operation.
type ChainModel struct {
	Initial bpc.Graph
	Steps   []chainStep
	Cursor  int
	Height  int
	Offset  int
}

// NewChainModel replays chain on initial, pricing each operation with cfg.
func NewChainModel(initial bpc.Graph, chain []ops.Operation, cfg cost.Config) (ChainModel, error) {
	catalog := ops.DefaultCatalog()
	m := ChainModel{Initial: initial, Height: 12}

	g := initial
	total := 0.0
	for i, op := range chain {
		next, err := catalog.TryApply(g, op)
		if err != nil {
			return ChainModel{}, fmt.Errorf("replay operation %d: %w", i+1, err)
		}
		c := catalog.Cost(g, op, cfg)
		total += c
		m.Steps = append(m.Steps, chainStep{Op: op, Cost: c, Total: total, Graph: next})
		g = next
	}
	return m, nil
}

// Graph returns the graph at the cursor.
func (m ChainModel) Graph() bpc.Graph {
	if m.Cursor == 0 {
		return m.Initial
	}
	return m.Steps[m.Cursor-1].Graph
}

func (m ChainModel) Init() tea.Cmd {
	return nil
}

func (m ChainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Steps) {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = len(m.Steps)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
	}

	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m ChainModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Operation Chain"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ step  g/G first/last  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Steps)+1)
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		if i == 0 {
			rows = append(rows, []string{cursor, "0", "initial graph", "", "0"})
			continue
		}
		s := m.Steps[i-1]
		rows = append(rows, []string{cursor, fmt.Sprint(i), s.Op.String(), fmtCost(s.Cost), fmtCost(s.Total)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Operation", "Cost", "Total").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 3 || col == 4 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(graphSummary(m.Graph()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor, len(m.Steps))))

	return b.String()
}

// graphSummary lists the boxes of g with their pins, one box per line.
func graphSummary(g bpc.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s boxes · %s pins · %s networks\n",
		StyleHighlight.Render("graph"),
		StyleNumber.Render(fmt.Sprint(len(g.Boxes))),
		StyleNumber.Render(fmt.Sprint(len(g.Pins))),
		StyleNumber.Render(fmt.Sprint(len(g.NetworkIDs()))))
	for _, box := range g.Boxes {
		pins := g.PinsOf(box.BoxID)
		labels := make([]string, len(pins))
		for i, p := range pins {
			net := p.NetworkID
			if net == "" {
				net = "-"
			}
			labels[i] = fmt.Sprintf("%s:%s@%s", p.PinID, p.Color, net)
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			StyleValue.Render(box.BoxID),
			listDimStyle.Render(string(box.Kind)),
			strings.Join(labels, " "))
	}
	return b.String()
}

func fmtCost(c float64) string {
	return fmt.Sprintf("%.3g", c)
}
