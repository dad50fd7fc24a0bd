// Package pkg provides the core libraries of nodewriter, an XML pretty-printer.
//
// # Overview
//
// nodewriter parses XML-like input into a document tree and writes it back
// with consistent indentation. The pkg directory is organized into:
//
//  1. [dom] - The document tree: node kinds, parent links, levels
//  2. [io] - Readers (XML via etree, JSON and YAML tree dumps) and tree writers
//  3. [render] - The traversal driver and the writer registry
//  4. [render/xmlstyle] - The default XML style
//  5. [render/nodelink] - Tree diagrams (DOT, SVG, PNG)
//  6. [pipeline] - Orchestration (parse → render) with caching
//  7. [cache] - File, Redis and MongoDB result caches
//  8. [config], [errors], [observability], [buildinfo] - Shared infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	XML / JSON / YAML input
//	         ↓
//	    [io] package (decode into a dom tree)
//	         ↓
//	    [render] package (visit nodes in document order)
//	         ↓
//	    [render/xmlstyle] writers (indent, collapse whitespace, close tags)
//	         ↓
//	    formatted text
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/nodewriter/pkg/io"
//	    "github.com/matzehuels/nodewriter/pkg/render"
//	    "github.com/matzehuels/nodewriter/pkg/render/xmlstyle"
//	)
//
//	doc, err := io.ReadXMLString(`<a><b>x</b></a>`, io.XMLOptions{})
//	if err != nil {
//	    return err
//	}
//	out, err := render.String(doc, xmlstyle.New(), render.WithTab("  "))
//	// out == "<a>\n  <b>x</b>\n</a>\n"
//
// With caching and validation, use [pipeline.Runner]:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Format(ctx, input, pipeline.Options{})
//
// # Error Handling
//
// Errors carry a code from [errors] (PARSE_FAILED, INVALID_OPTION, ...)
// which the CLI prints and the HTTP server maps to status codes.
package pkg
