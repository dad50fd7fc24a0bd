package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodewriter/pkg/dom"
)

// traceWriter records the fragments the driver asks for.
type traceWriter struct {
	layout Layout
}

func (t traceWriter) Start(w *Writer, n *dom.Node) { w.WriteString("S(" + n.Name + ")") }

func (t traceWriter) Data(w *Writer, n *dom.Node) { w.WriteString("D(" + n.Name + ")") }

func (t traceWriter) Child(w *Writer, n *dom.Node) Layout {
	w.WriteString("C(" + n.Name + ")")
	return t.layout
}

func (t traceWriter) End(w *Writer, n *dom.Node) { w.WriteString("E(" + n.Name + ")") }

func traceTree() *dom.Node {
	doc := dom.NewDocument()
	doc.Append(dom.NewDoctype("x"))
	root := doc.Append(dom.NewElement("root"))
	root.Append(dom.NewElement("empty"))
	inl := root.Append(dom.NewElement("inl"))
	inl.Append(dom.NewText("t"))
	root.Append(dom.NewProcInst("pi", "d"))
	root.Append(dom.NewRawText("raw", "r"))
	return doc
}

func TestRenderCallOrder(t *testing.T) {
	reg := NewRegistry().
		Set(DefaultName, traceWriter{layout: Block}).
		Set("inl", traceWriter{layout: Inline})

	got, err := String(traceTree(), reg)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	want := strings.Join([]string{
		"S(#doctype)D(#doctype)E(#doctype)",
		"S(root)C(root)",
		"S(empty)E(empty)",
		"S(inl)C(inl)",
		"S(?pi)D(?pi)E(?pi)",
		"S(raw)D(raw)E(raw)",
		"E(root)",
	}, "")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderStats(t *testing.T) {
	reg := NewRegistry().Set(DefaultName, traceWriter{layout: Inline})
	var sb strings.Builder
	stats, err := RenderStats(&sb, traceTree(), reg)
	if err != nil {
		t.Fatalf("RenderStats: %v", err)
	}
	if stats.Nodes != 8 {
		t.Errorf("Nodes = %d, want 8", stats.Nodes)
	}
	if stats.Bytes != int64(sb.Len()) {
		t.Errorf("Bytes = %d, output has %d", stats.Bytes, sb.Len())
	}
}

func TestRegistryLookup(t *testing.T) {
	a := traceWriter{layout: Inline}
	def := traceWriter{layout: Block}

	reg := NewRegistry()
	if _, ok := reg.Lookup("x").(Base); !ok {
		t.Error("empty registry should fall back to Base")
	}

	reg.Set("a", a).Set(DefaultName, def).Alias("b", "a")
	tests := []struct {
		name string
		want NodeWriter
	}{
		{"a", a},
		{"b", a},
		{"unknown", def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Lookup(tt.name); got != tt.want {
				t.Errorf("Lookup(%q) = %#v, want %#v", tt.name, got, tt.want)
			}
		})
	}

	reg.Alias("c", "d").Alias("d", "c")
	if got := reg.Lookup("c"); got != def {
		t.Errorf("alias cycle should resolve to default, got %#v", got)
	}
}

func TestOptions(t *testing.T) {
	var seen State
	reg := NewRegistry().Set(dom.NameText, stateSpy{&seen})
	doc := dom.NewDocument()
	doc.Append(dom.NewText("x"))

	if err := Render(&strings.Builder{}, doc, reg); err != nil {
		t.Fatal(err)
	}
	if seen.Tab != DefaultTab || seen.Entity != DefaultEntity {
		t.Errorf("defaults = %+v", seen)
	}

	if err := Render(&strings.Builder{}, doc, reg, WithTab("\t"), WithEntity("<%s>")); err != nil {
		t.Fatal(err)
	}
	if seen.Tab != "\t" || seen.Entity != "<%s>" {
		t.Errorf("options not applied: %+v", seen)
	}
}

type stateSpy struct{ out *State }

func (s stateSpy) Start(w *Writer, _ *dom.Node) { *s.out = *w.State }

func (stateSpy) Data(*Writer, *dom.Node) {}

func (stateSpy) Child(*Writer, *dom.Node) Layout { return Block }

func (stateSpy) End(*Writer, *dom.Node) {}

type failWriter struct{ after int }

func (f *failWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("disk full")
	}
	f.after--
	return len(p), nil
}

func TestRenderStickyError(t *testing.T) {
	reg := NewRegistry().Set(DefaultName, traceWriter{layout: Block})
	fw := &failWriter{after: 2}
	err := Render(fw, traceTree(), reg)
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("Render error = %v, want disk full", err)
	}
}

func TestWriterLast(t *testing.T) {
	var sb strings.Builder
	w := newWriter(&sb, NewRegistry(), &State{Tab: "  "})
	if w.Last() != 0 {
		t.Error("Last() on empty writer should be 0")
	}
	w.WriteString("ab\n")
	w.Indent(2)
	if got := sb.String(); got != "ab\n    " {
		t.Errorf("output = %q", got)
	}
	if w.Last() != ' ' {
		t.Errorf("Last() = %q, want ' '", w.Last())
	}
	w.Indent(-1)
	if w.Written() != 7 {
		t.Errorf("Written() = %d, want 7", w.Written())
	}
}
