package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/pipeline"
	"github.com/matzehuels/nodewriter/pkg/render"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse the formatted document and its tree",
		Long: `Browse the formatted document interactively.

Press tab to switch between the formatted output and an outline of the
parsed tree, t to cycle the indentation unit and e to highlight entities.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), cmd, inputArg(args), &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runView(ctx context.Context, cmd *cobra.Command, path string, flags *renderFlags) error {
	input, name, err := c.readInput(path)
	if err != nil {
		return err
	}
	opts, err := c.options(cmd, flags, name)
	if err != nil {
		return err
	}

	// The viewer re-renders the tree itself, so only the parse stage runs.
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	tree, _, err := runner.Parse(ctx, input, opts)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	title := path
	if name == "" {
		title = "stdin"
	}
	m := NewViewModel(title, tree, pipeline.Styles[opts.Style](), opts.TabValue(), opts.Entity)
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// ViewModel - Interactive document viewer
// =============================================================================

// viewMode selects what the viewer shows.
type viewMode int

const (
	modeOutput viewMode = iota
	modeOutline
)

// highlightEntity is the template used when entity highlighting is on.
const highlightEntity = "[%s]"

// viewTabs are the indentation units the viewer cycles through after the
// configured one.
var viewTabs = []string{"    ", "  ", "\t", ""}

// ViewModel is the bubbletea model of the view command.
type ViewModel struct {
	Title     string
	Output    []string
	Outline   []string
	Mode      viewMode
	Cursor    int
	Offset    int
	Height    int
	Tabs      []string
	TabIndex  int
	Entity    string
	Highlight bool

	tree  *dom.Node
	style *render.Registry
}

// NewViewModel creates a viewer for tree rendered with style. tab and
// entity are the initial settings.
func NewViewModel(title string, tree *dom.Node, style *render.Registry, tab, entity string) ViewModel {
	tabs := []string{tab}
	for _, t := range viewTabs {
		if t != tab {
			tabs = append(tabs, t)
		}
	}
	m := ViewModel{
		Title:   title,
		Outline: outline(tree),
		Height:  20,
		Tabs:    tabs,
		Entity:  entity,
		tree:    tree,
		style:   style,
	}
	m.rerender()
	return m
}

// rerender renders the tree with the current tab unit and entity template.
func (m *ViewModel) rerender() {
	entity := m.Entity
	if m.Highlight {
		entity = highlightEntity
	}
	out, err := render.String(m.tree, m.style, render.WithTab(m.Tabs[m.TabIndex]), render.WithEntity(entity))
	if err != nil {
		out = "render failed: " + err.Error()
	}
	m.Output = strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func (m ViewModel) lines() []string {
	if m.Mode == modeOutline {
		return m.Outline
	}
	return m.Output
}

func (m ViewModel) Init() tea.Cmd {
	return nil
}

func (m ViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		last := len(m.lines()) - 1
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.Mode = 1 - m.Mode
			m.Cursor, m.Offset = 0, 0
		case "t":
			m.TabIndex = (m.TabIndex + 1) % len(m.Tabs)
			m.rerender()
		case "e":
			m.Highlight = !m.Highlight
			m.rerender()
		case "up", "k":
			m.Cursor--
		case "down", "j":
			m.Cursor++
		case "pgup", "b":
			m.Cursor -= m.Height
		case "pgdown", " ", "f":
			m.Cursor += m.Height
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = last
		}
		m.Cursor = max(0, min(m.Cursor, last))
		if m.Cursor < m.Offset {
			m.Offset = m.Cursor
		}
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-5, 5)
	}
	return m, nil
}

func (m ViewModel) View() string {
	var b strings.Builder

	mode := "output"
	if m.Mode == modeOutline {
		mode = "tree"
	}
	b.WriteString(StyleTitle.Render(m.Title) + " " + StyleDim.Render("["+mode+"]"))
	b.WriteString(" " + StyleDim.Render(fmt.Sprintf("tab=%q", m.Tabs[m.TabIndex])))
	if m.Highlight {
		b.WriteString(" " + StyleHighlight.Render("entities"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  tab output/tree  t indent  e entities  q quit"))
	b.WriteString("\n\n")

	lines := m.lines()
	end := min(m.Offset+m.Height, len(lines))
	for i := m.Offset; i < end; i++ {
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + lines[i]))
		} else {
			b.WriteString(listNormalStyle.Render("  " + lines[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(lines))))
	return b.String()
}

// outline lists the nodes of tree, indented by level.
func outline(tree *dom.Node) []string {
	if tree == nil {
		return nil
	}
	var lines []string
	tree.Walk(func(n *dom.Node) bool {
		indent := strings.Repeat("  ", max(n.Level+1, 0))
		switch {
		case n.IsElement():
			line := indent + n.Name
			for _, a := range n.Attrs {
				line += fmt.Sprintf(" %s=%q", a.Name, a.Value)
			}
			lines = append(lines, line)
		case n.Data != "":
			lines = append(lines, fmt.Sprintf("%s%s %q", indent, n.Name, n.Data))
		default:
			lines = append(lines, indent+n.Name)
		}
		return true
	})
	return lines
}
