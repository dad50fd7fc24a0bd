// Package nodelink draws document trees as node-link diagrams.
//
// # Overview
//
// Every node of a [dom.Node] tree becomes a Graphviz node connected to its
// parent by an arrow, which makes the structure the writers see (levels,
// inline runs of text and entities, raw-text elements) easy to inspect.
//
// # Usage
//
// Convert a tree to DOT, then render it:
//
//	dot := nodelink.ToDOT(doc, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
// Elements are rounded boxes labelled with their tag, textual nodes are
// plain labels showing a shortened, quoted payload, and comments, doctypes
// and processing instructions use dashed outlines. The document node is a
// filled ellipse at the top.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering; no Graphviz installation is needed.
package nodelink
