package xmlstyle

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/render"
)

// Normalize replaces every run of whitespace in s with a single space.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSpace(c) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}

func trimSpace(s string) string {
	return strings.Trim(s, " \t\n\r\f\v")
}

// PrintablePrev reports whether a text or entity sibling before n, within
// the contiguous textual run containing n, has non-whitespace content.
func PrintablePrev(n *dom.Node) bool {
	for p := n.Prev(); p != nil && p.IsTextual(); p = p.Prev() {
		if !isBlank(p.Data) {
			return true
		}
	}
	return false
}

// PrintableNext is the forward counterpart of [PrintablePrev].
func PrintableNext(n *dom.Node) bool {
	for p := n.Next(); p != nil && p.IsTextual(); p = p.Next() {
		if !isBlank(p.Data) {
			return true
		}
	}
	return false
}

// ApplyEntity substitutes data into tmpl, a format string with exactly one
// verb. It returns false when the template cannot be applied.
func ApplyEntity(tmpl, data string) (string, bool) {
	if tmpl == render.DefaultEntity {
		return data, true
	}
	if countVerbs(tmpl) != 1 {
		return "", false
	}
	out := fmt.Sprintf(tmpl, data)
	if strings.Contains(out, "%!") && !strings.Contains(data, "%!") {
		return "", false
	}
	return out, true
}

// ValidateEntity reports whether tmpl is a usable entity template.
func ValidateEntity(tmpl string) error {
	if n := countVerbs(tmpl); n != 1 {
		return fmt.Errorf("entity template %q has %d verbs, want exactly 1", tmpl, n)
	}
	if _, ok := ApplyEntity(tmpl, "&amp;"); !ok {
		return fmt.Errorf("entity template %q cannot format a string", tmpl)
	}
	return nil
}

// countVerbs counts formatting verbs in a fmt template. "%%" is a literal.
func countVerbs(tmpl string) int {
	n := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		i++
		// flags, width, precision and argument indexes
		for i < len(tmpl) && strings.IndexByte("+-# 0123456789.[]*", tmpl[i]) >= 0 {
			i++
		}
		if i >= len(tmpl) {
			n++
			break
		}
		if tmpl[i] != '%' {
			n++
		}
	}
	return n
}

// TextWriter writes "#text" and "#entity" nodes.
type TextWriter struct {
	render.Base
}

// Format returns the single-line form of n used when an element is written
// inline: the entity template applied to entities, normalized text otherwise.
func (TextWriter) Format(s *render.State, n *dom.Node) string {
	if n.Kind == dom.KindEntity {
		if out, ok := ApplyEntity(s.Entity, n.Data); ok {
			return out
		}
	}
	return Normalize(n.Data)
}

func (TextWriter) Data(w *render.Writer, n *dom.Node) {
	st := w.State
	text := Normalize(n.Data)

	if text != " " && isBlank(text) {
		if n.Next() == nil && PrintablePrev(n) {
			w.WriteString("\n")
		}
		return
	}

	printablePrev := PrintablePrev(n)
	if n.Prev() == nil || !printablePrev {
		if text != " " || PrintableNext(n) {
			if w.Last() == '\n' {
				st.IndentWritten = false
			}
			if !st.IndentWritten {
				w.Indent(n.Level)
				st.IndentWritten = true
			}
		} else {
			return
		}
	}

	if text != " " || printablePrev {
		if n.Kind == dom.KindEntity {
			if out, ok := ApplyEntity(st.Entity, text); ok {
				text = out
			}
		}
		w.WriteString(text)
	}

	if next := n.Next(); next == nil || !next.IsTextual() {
		w.WriteString("\n")
	}
}
