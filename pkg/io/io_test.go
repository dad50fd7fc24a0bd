package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/errors"
	"github.com/matzehuels/nodewriter/pkg/render"
	"github.com/matzehuels/nodewriter/pkg/render/xmlstyle"
)

func readFile(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func assertGolden(t *testing.T, name, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: name,
		ToFile:   "rendered",
		Context:  2,
	})
	t.Errorf("output differs from %s:\n%s", name, diff)
}

func TestReadXMLRendersGolden(t *testing.T) {
	doc, err := ImportXML(filepath.Join("testdata", "sample.xml"), XMLOptions{})
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}

	tests := []struct {
		golden string
		opts   []render.Option
	}{
		{"sample.golden", nil},
		{"sample_entity.golden", []render.Option{render.WithEntity("<%s>")}},
		{"sample_tab.golden", []render.Option{render.WithTab("****")}},
	}
	reg := xmlstyle.New()
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			got, err := render.String(doc, reg, tt.opts...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			assertGolden(t, tt.golden, readFile(t, tt.golden), got)
		})
	}
}

// shape flattens a tree into "level kind name data" lines.
func shape(root *dom.Node) []string {
	var lines []string
	root.Walk(func(n *dom.Node) bool {
		lines = append(lines, strings.Join([]string{
			strings.Repeat(" ", n.Level+1), n.Kind.String(), n.Name, n.Data,
		}, "|"))
		return true
	})
	return lines
}

func TestReadXMLMapping(t *testing.T) {
	src := `<!DOCTYPE note><?pi  a b?><r x="1 &amp; &lt; &quot;"><![CDATA[<x>]]>a &amp; b&lt;c<!--c--></r>`
	doc, err := ReadXMLString(src, XMLOptions{})
	if err != nil {
		t.Fatalf("ReadXMLString: %v", err)
	}

	want := []string{
		"|document|#document|",
		" |doctype|#doctype| note",
		" |procinst|?pi|a b",
		" |element|r|",
		"  |cdata|#cdata-section|<x>",
		"  |text|#text|a ",
		"  |entity|#entity|&amp;",
		"  |text|#text| b",
		"  |entity|#entity|&lt;",
		"  |text|#text|c",
		"  |comment|#comment|c",
	}
	if diff := cmp.Diff(want, shape(doc)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	r := doc.Children[2]
	if got := r.Attrs[0].Value; got != "1 &amp; &lt; &quot;" {
		t.Errorf("attribute value = %q", got)
	}
}

func TestReadXMLRawText(t *testing.T) {
	src := `<html><script>if (a &lt; b) { x(); }</script><style/></html>`
	doc, err := ReadXMLString(src, XMLOptions{RawText: DefaultRawText})
	if err != nil {
		t.Fatal(err)
	}
	html := doc.Children[0]
	script, style := html.Children[0], html.Children[1]
	if script.Kind != dom.KindRawText || len(script.Children) != 0 {
		t.Fatalf("script = %v with %d children", script.Kind, len(script.Children))
	}
	if got := script.Data; got != "if (a &lt; b) { x(); }" {
		t.Errorf("script markup = %q", got)
	}
	if style.Kind != dom.KindRawText || style.Data != "" {
		t.Errorf("style = %v with markup %q", style.Kind, style.Data)
	}
}

func TestRawTextRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"whitespace", "<script>// note\nrun();</script>", "<script>// note\nrun();</script>\n"},
		{"nested markup", "<style>a<b>x</b>c</style>", "<style>a<b>x</b>c</style>\n"},
		{"references", "<script>if (a &amp;&amp; b) {}</script>", "<script>if (a &amp;&amp; b) {}</script>\n"},
		{"cdata and comment", "<script><![CDATA[a<b]]><!-- c --></script>", "<script><![CDATA[a<b]]><!-- c --></script>\n"},
		{"attributes", `<style media="a &amp; b"><i  k='v'/></style>`, `<style media="a &amp; b"><i k="v"/></style>` + "\n"},
	}
	reg := xmlstyle.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := XMLOptions{RawText: DefaultRawText}
			doc, err := ReadXMLString(tt.src, opts)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			got, err := render.String(doc, reg)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tt.want {
				t.Errorf("render = %q, want %q", got, tt.want)
			}

			back, err := ReadXMLString(got, opts)
			if err != nil {
				t.Fatalf("reread %q: %v", got, err)
			}
			if diff := cmp.Diff(shape(doc), shape(back)); diff != "" {
				t.Errorf("tree changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadXMLReferences(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts XMLOptions
		want string
	}{
		{
			name: "predefined and numeric",
			src:  "<a>x &gt; y &quot;z&quot; &#169; &amp;</a>",
			want: "<a>x <&gt;> y <&quot;>z<&quot;> <&#169;> <&amp;></a>\n",
		},
		{
			name: "hex and apos",
			src:  "<a>&#xA9;&apos;</a>",
			want: "<a><&#xA9;><&apos;></a>\n",
		},
		{
			name: "html entity",
			src:  "<a>x&nbsp;y</a>",
			opts: XMLOptions{HTMLEntities: true},
			want: "<a>x<&nbsp;>y</a>\n",
		},
		{
			name: "unknown name in permissive mode",
			src:  "<a>&custom;</a>",
			opts: XMLOptions{Permissive: true},
			want: "<a><&custom;></a>\n",
		},
		{
			name: "attribute values resolve",
			src:  `<a t="&#169;">&lt;</a>`,
			want: "<a t=\"\u00a9\"><&lt;></a>\n",
		},
		{
			name: "markup is not rewritten",
			src:  "<a><!-- &gt; --><![CDATA[&gt;]]><?pi &gt;?></a>",
			want: "<a>\n    <!-- &gt; -->\n    <![CDATA[&gt;]]>\n    <?pi &gt;?>\n</a>\n",
		},
	}
	reg := xmlstyle.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ReadXMLString(tt.src, tt.opts)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			got, err := render.String(doc, reg, render.WithEntity("<%s>"))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tt.want {
				t.Errorf("render = %q, want %q", got, tt.want)
			}
		})
	}

	doc, err := ReadXMLString("<a>x&#160;y</a>", XMLOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"|document|#document|",
		" |element|a|",
		"  |text|#text|x",
		"  |entity|#entity|&#160;",
		"  |text|#text|y",
	}
	if diff := cmp.Diff(want, shape(doc)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestReadXMLLiteralMarker(t *testing.T) {
	doc, err := ReadXMLString("<a>\uE000</a>", XMLOptions{})
	if err != nil {
		t.Fatal(err)
	}
	a := doc.Children[0]
	if len(a.Children) != 1 || a.Children[0].Data != "&#xE000;" {
		t.Errorf("children = %v", shape(a))
	}
}

func TestReadXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts XMLOptions
		code errors.Code
	}{
		{"unclosed", "<a><b></a>", XMLOptions{}, errors.ErrCodeParseFailed},
		{"entity directive", `<!ENTITY x "y"><a/>`, XMLOptions{}, errors.ErrCodeUnsupported},
		{"html entity strict", "<p>&nbsp;</p>", XMLOptions{}, errors.ErrCodeParseFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadXMLString(tt.src, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}

	doc, err := ReadXMLString("<p>&nbsp;</p>", XMLOptions{HTMLEntities: true})
	if err != nil {
		t.Fatalf("HTMLEntities: %v", err)
	}
	if got := doc.Children[0].Children[0]; got.Kind != dom.KindEntity || got.Data != "&nbsp;" {
		t.Errorf("nbsp read as %v %q", got.Kind, got.Data)
	}

	if _, err := ImportXML(filepath.Join(t.TempDir(), "missing.xml"), XMLOptions{}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestTreeRoundTrip(t *testing.T) {
	doc, err := ImportXML(filepath.Join("testdata", "sample.xml"), XMLOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want, err := render.String(doc, xmlstyle.New())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format Format
		write  func(*dom.Node, *bytes.Buffer) error
	}{
		{FormatJSON, func(n *dom.Node, b *bytes.Buffer) error { return WriteJSON(n, b) }},
		{FormatYAML, func(n *dom.Node, b *bytes.Buffer) error { return WriteYAML(n, b) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.write(doc, &buf); err != nil {
				t.Fatalf("write: %v", err)
			}
			back, err := Read(&buf, tt.format, XMLOptions{})
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if diff := cmp.Diff(shape(doc), shape(back)); diff != "" {
				t.Errorf("tree changed (-want +got):\n%s", diff)
			}
			got, err := render.String(back, xmlstyle.New())
			if err != nil {
				t.Fatal(err)
			}
			assertGolden(t, "original render", want, got)
		})
	}
}

func TestExportImportFiles(t *testing.T) {
	doc := dom.NewDocument()
	p := doc.Append(dom.NewElement("p", dom.Attr{Name: "id", Value: "x"}))
	p.Append(dom.NewText("hi"))
	doc.Append(dom.NewProcInst("php", "echo 1;"))
	doc.Append(dom.NewRawText("script", "if (a &lt; b) {}<!-- x -->"))

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tree.json")
	yamlPath := filepath.Join(dir, "tree.yaml")
	if err := ExportJSON(doc, jsonPath); err != nil {
		t.Fatal(err)
	}
	if err := ExportYAML(doc, yamlPath); err != nil {
		t.Fatal(err)
	}

	fromJSON, err := ImportJSON(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	fromYAML, err := ImportYAML(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	for name, got := range map[string]*dom.Node{"json": fromJSON, "yaml": fromYAML} {
		if diff := cmp.Diff(shape(doc), shape(got)); diff != "" {
			t.Errorf("%s round trip (-want +got):\n%s", name, diff)
		}
		if got.Children[0].Attrs[0] != (dom.Attr{Name: "id", Value: "x"}) {
			t.Errorf("%s lost attributes", name)
		}
	}

	b, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), `"#text"`) {
		t.Error("leaf names should be omitted from the JSON form")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"malformed", `{"kind":`, errors.ErrCodeParseFailed},
		{"unknown kind", `{"kind":"widget"}`, errors.ErrCodeInvalidInput},
		{"unnamed element", `{"kind":"document","children":[{"kind":"element"}]}`, errors.ErrCodeInvalidInput},
		{"leaf with children", `{"kind":"text","children":[{"kind":"text"}]}`, errors.ErrCodeInvalidInput},
		{"nested document", `{"kind":"document","children":[{"kind":"document"}]}`, errors.ErrCodeInvalidInput},
		{"pi without target", `{"kind":"procinst","name":"?"}`, errors.ErrCodeInvalidInput},
		{"raw text with children", `{"kind":"rawtext","name":"script","children":[{"kind":"text"}]}`, errors.ErrCodeInvalidInput},
		{"renamed leaf", `{"kind":"text","name":"foo"}`, errors.ErrCodeInvalidInput},
		{"leaf with element name", `{"kind":"document","children":[{"kind":"comment","name":"p","data":"x"}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.src))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXML, false},
		{"XML", FormatXML, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if got := FormatFromPath("a/b.yaml"); got != FormatYAML {
		t.Errorf("FormatFromPath(yaml) = %q", got)
	}
	if got := FormatFromPath("a/b.xhtml"); got != FormatXML {
		t.Errorf("FormatFromPath(xhtml) = %q", got)
	}
}
