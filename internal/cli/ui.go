package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle renders headings and diff file headers.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight renders addresses and diff hunk headers.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleSuccess renders added diff lines.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	styleRemoved = lipgloss.NewStyle().Foreground(colorRed)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Status Lines
// =============================================================================

// statusKind selects the icon and color of a status line.
type statusKind int

const (
	statusSuccess statusKind = iota
	statusError
	statusWarning
	statusInfo
)

var statusIcons = map[statusKind]struct {
	icon  string
	style lipgloss.Style
}{
	statusSuccess: {"✓", lipgloss.NewStyle().Foreground(colorGreen)},
	statusError:   {"✗", lipgloss.NewStyle().Foreground(colorRed)},
	statusWarning: {"!", lipgloss.NewStyle().Foreground(colorYellow)},
	statusInfo:    {"›", lipgloss.NewStyle().Foreground(colorGray)},
}

// writeStatus writes one icon-prefixed line to w.
func writeStatus(w io.Writer, kind statusKind, format string, args ...any) {
	s := statusIcons[kind]
	msg := fmt.Sprintf(format, args...)
	if kind == statusWarning {
		msg = s.style.Render(msg)
	}
	fmt.Fprintln(w, s.style.Render(s.icon)+" "+msg)
}

// Status lines go to stderr so they never mix with documents on stdout.

func (c *CLI) printSuccess(format string, args ...any) {
	writeStatus(c.stderr, statusSuccess, format, args...)
}

func (c *CLI) printWarning(format string, args ...any) {
	writeStatus(c.stderr, statusWarning, format, args...)
}

func (c *CLI) printInfo(format string, args ...any) {
	writeStatus(c.stderr, statusInfo, format, args...)
}

// printDetail prints an indented secondary line.
func (c *CLI) printDetail(format string, args ...any) {
	fmt.Fprintln(c.stderr, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func (c *CLI) printFile(path string) {
	fmt.Fprintln(c.stderr, "  "+StyleDim.Render("→")+" "+styleValue.Render(path))
}
