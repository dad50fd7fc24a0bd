package xmlstyle

import (
	"strings"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/render"
)

// cdataSplit replaces a "]]>" inside a CDATA payload: the first section
// ends after "]]" and a new one starts with ">".
const cdataSplit = "]]]]><![CDATA[>"

// DoctypeWriter writes "<!DOCTYPE ...>" on a single line.
type DoctypeWriter struct{}

func (DoctypeWriter) Start(w *render.Writer, n *dom.Node) {
	w.Indent(n.Level)
	w.WriteString("<!DOCTYPE ")
}

func (DoctypeWriter) Data(w *render.Writer, n *dom.Node) {
	w.WriteString(trimSpace(Normalize(n.Data)))
}

func (DoctypeWriter) Child(*render.Writer, *dom.Node) render.Layout { return render.Block }

func (DoctypeWriter) End(w *render.Writer, _ *dom.Node) { w.WriteString(">\n") }

// CDataWriter writes CDATA sections verbatim.
type CDataWriter struct{}

func (CDataWriter) Start(w *render.Writer, n *dom.Node) {
	w.Indent(n.Level)
	w.WriteString("<![CDATA[")
}

func (CDataWriter) Data(w *render.Writer, n *dom.Node) {
	w.WriteString(strings.ReplaceAll(n.Data, "]]>", cdataSplit))
}

func (CDataWriter) Child(*render.Writer, *dom.Node) render.Layout { return render.Block }

func (CDataWriter) End(w *render.Writer, _ *dom.Node) { w.WriteString("]]>\n") }

// CommentWriter writes comments, re-indenting continuation lines to the
// comment's depth.
type CommentWriter struct{}

func (CommentWriter) Start(w *render.Writer, n *dom.Node) {
	w.Indent(n.Level)
	w.WriteString("<!--")
}

func (CommentWriter) Data(w *render.Writer, n *dom.Node) {
	lines := strings.Split(n.Data, "\n")
	w.WriteString(lines[0])
	if len(lines) == 1 {
		return
	}
	w.WriteString("\n")
	last := len(lines) - 1
	for _, line := range lines[1:last] {
		w.Indent(n.Level)
		w.WriteString(trimSpace(line))
		w.WriteString("\n")
	}
	w.Indent(n.Level)
	w.WriteString(strings.TrimLeft(lines[last], " \t\n\r\f\v"))
}

func (CommentWriter) Child(*render.Writer, *dom.Node) render.Layout { return render.Block }

func (CommentWriter) End(w *render.Writer, _ *dom.Node) { w.WriteString("-->\n") }
