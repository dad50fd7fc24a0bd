package render

import (
	"io"
	"strings"

	"github.com/matzehuels/nodewriter/pkg/dom"
)

// Defaults applied by [Render] when no option overrides them.
const (
	DefaultTab    = "    "
	DefaultEntity = "%s"
)

// State is the formatting state of a single render pass.
type State struct {
	// Tab is the indentation unit, repeated once per level.
	Tab string
	// Entity is the template applied to entity nodes.
	Entity string
	// IndentWritten is true once the current output line received its
	// indentation from a text run. Text writers consult it to avoid
	// indenting the same line twice.
	IndentWritten bool
}

// Indent returns the indentation for level. Negative levels yield "".
func (s *State) Indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(s.Tab, level)
}

// Writer is the output sink handed to every [NodeWriter]. It tracks the
// last byte written, the byte count and the first write error.
type Writer struct {
	State *State

	out  io.Writer
	reg  *Registry
	last byte
	n    int64
	err  error
}

func newWriter(out io.Writer, reg *Registry, st *State) *Writer {
	return &Writer{State: st, out: out, reg: reg}
}

// WriteString appends s to the output. After the first error it does nothing.
func (w *Writer) WriteString(s string) {
	if w.err != nil || s == "" {
		return
	}
	n, err := io.WriteString(w.out, s)
	w.n += int64(n)
	if n > 0 {
		w.last = s[n-1]
	}
	if err != nil {
		w.err = err
	}
}

// Indent writes the indentation for level.
func (w *Writer) Indent(level int) {
	w.WriteString(w.State.Indent(level))
}

// Last returns the most recently written byte, or 0 if nothing was written.
func (w *Writer) Last() byte { return w.last }

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

// Err returns the first error reported by the underlying writer.
func (w *Writer) Err() error { return w.err }

// Lookup resolves name in the registry used by this pass.
func (w *Writer) Lookup(name string) NodeWriter { return w.reg.Lookup(name) }

// Format renders n on a single line using the writer registered for its
// name. The second result is false when that writer is not a [Formatter].
func (w *Writer) Format(n *dom.Node) (string, bool) {
	f, ok := w.reg.Lookup(n.Name).(Formatter)
	if !ok {
		return "", false
	}
	return f.Format(w.State, n), true
}
