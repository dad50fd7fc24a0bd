package xmlstyle

import (
	"strings"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/render"
)

// ElementWriter writes elements, raw-text elements and processing
// instructions. It is the style's default writer.
type ElementWriter struct {
	render.Base
}

func (ElementWriter) Start(w *render.Writer, n *dom.Node) {
	w.Indent(n.Level)
	w.WriteString("<" + n.Name)
	if n.Kind == dom.KindProcInst {
		if strings.Contains(n.Data, "\n") {
			w.WriteString("\n")
		} else {
			w.WriteString(" ")
		}
		return
	}

	if len(n.Attrs) > 0 {
		parts := make([]string, len(n.Attrs))
		for i, a := range n.Attrs {
			parts[i] = a.Name + `="` + a.Value + `"`
		}
		w.WriteString(" " + strings.Join(parts, " "))
	}
	if n.Kind == dom.KindRawText || len(n.Children) > 0 {
		w.WriteString(">")
	} else {
		w.WriteString("/>\n")
	}
}

// Child writes an element whose children are all textual on the current
// line and reports [render.Inline]. Any other child forces a block layout.
func (ElementWriter) Child(w *render.Writer, n *dom.Node) render.Layout {
	for _, c := range n.Children {
		if !c.IsTextual() {
			w.WriteString("\n")
			return render.Block
		}
	}
	var b strings.Builder
	for _, c := range n.Children {
		if s, ok := w.Format(c); ok {
			b.WriteString(s)
		} else {
			b.WriteString(Normalize(c.Data))
		}
	}
	b.WriteString("</" + n.Name + ">\n")
	w.WriteString(b.String())
	return render.Inline
}

func (ElementWriter) End(w *render.Writer, n *dom.Node) {
	switch {
	case len(n.Children) > 0:
		w.Indent(n.Level)
		w.WriteString("</" + n.Name + ">\n")
	case n.Kind == dom.KindProcInst:
		w.WriteString("?>\n")
	case n.Kind == dom.KindRawText:
		w.WriteString("</" + n.Name + ">\n")
	}
}
