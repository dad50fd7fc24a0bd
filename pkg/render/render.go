package render

import (
	"bytes"
	"io"

	"github.com/matzehuels/nodewriter/pkg/dom"
)

// Option configures a render pass.
type Option func(*State)

// WithTab sets the indentation unit.
func WithTab(tab string) Option { return func(s *State) { s.Tab = tab } }

// WithEntity sets the template applied to entity nodes.
func WithEntity(tmpl string) Option { return func(s *State) { s.Entity = tmpl } }

// Stats describes a completed render pass.
type Stats struct {
	Nodes int   // nodes visited, the root included
	Bytes int64 // bytes written
}

// Render writes root and its descendants to out using the writers in reg.
// A document root is not rendered itself; any other node is rendered
// together with its subtree.
func Render(out io.Writer, root *dom.Node, reg *Registry, opts ...Option) error {
	_, err := RenderStats(out, root, reg, opts...)
	return err
}

// RenderStats is like [Render] and also reports what was written.
func RenderStats(out io.Writer, root *dom.Node, reg *Registry, opts ...Option) (Stats, error) {
	st := &State{Tab: DefaultTab, Entity: DefaultEntity}
	for _, opt := range opts {
		opt(st)
	}
	w := newWriter(out, reg, st)
	var stats Stats
	visit(w, root, &stats)
	stats.Bytes = w.Written()
	return stats, w.Err()
}

// String renders root to a string.
func String(root *dom.Node, reg *Registry, opts ...Option) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, root, reg, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func visit(w *Writer, n *dom.Node, stats *Stats) {
	if w.Err() != nil {
		return
	}
	stats.Nodes++
	if n.Kind == dom.KindDocument {
		for _, c := range n.Children {
			visit(w, c, stats)
		}
		return
	}

	nw := w.Lookup(n.Name)
	nw.Start(w, n)
	switch {
	case !n.IsElement(), n.Kind == dom.KindRawText:
		nw.Data(w, n)
	case len(n.Children) > 0:
		if nw.Child(w, n) == Inline {
			// The writer emitted the children itself.
			stats.Nodes += n.Count() - 1
			return
		}
		for _, c := range n.Children {
			visit(w, c, stats)
		}
	}
	nw.End(w, n)
}
