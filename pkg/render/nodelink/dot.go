package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodewriter/pkg/dom"
)

// DefaultMaxLabel is the payload length shown when Options.MaxLabel is 0.
const DefaultMaxLabel = 24

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds attributes to element labels and the level to every
	// label.
	Detailed bool

	// MaxLabel truncates textual payloads to this many runes.
	MaxLabel int
}

// ToDOT converts a tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(root *dom.Node, opts Options) string {
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = DefaultMaxLabel
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	ids := make(map[*dom.Node]string)
	var edges []string
	root.Walk(func(n *dom.Node) bool {
		id := "n" + strconv.Itoa(len(ids))
		ids[n] = id
		label := fmtLabel(n, opts)
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(fmtAttrs(n, label), ", "))
		if p := n.Parent(); p != nil {
			if pid, ok := ids[p]; ok {
				edges = append(edges, fmt.Sprintf("  %s -> %s;\n", pid, id))
			}
		}
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *dom.Node, opts Options) string {
	var label string
	switch n.Kind {
	case dom.KindElement, dom.KindRawText:
		label = "<" + n.Name + ">"
		if opts.Detailed {
			for _, a := range n.Attrs {
				label += "\n" + a.Name + "=" + truncate(a.Value, opts.MaxLabel)
			}
		}
	case dom.KindDocument:
		label = n.Name
	case dom.KindProcInst:
		label = "<" + n.Name + "?>"
	default:
		label = n.Name + "\n" + strconv.Quote(truncate(n.Data, opts.MaxLabel))
	}
	if opts.Detailed {
		label += "\nlevel " + strconv.Itoa(n.Level)
	}
	return label
}

func fmtAttrs(n *dom.Node, label string) []string {
	attrs := []string{"label=" + dotQuote(label)}
	switch n.Kind {
	case dom.KindDocument:
		attrs = append(attrs, "shape=ellipse", "fillcolor=lightgrey")
	case dom.KindRawText:
		attrs = append(attrs, "fillcolor=lightyellow")
	case dom.KindText, dom.KindEntity, dom.KindCData:
		attrs = append(attrs, "shape=plaintext")
	case dom.KindComment, dom.KindDoctype, dom.KindProcInst:
		attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=dimgrey")
	}
	return attrs
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// dotQuote quotes s as a DOT string; newlines become centered line breaks.
func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the diagram scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
