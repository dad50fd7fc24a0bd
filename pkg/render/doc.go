// Package render walks a [dom] tree and streams it to an [io.Writer]
// through per-node-kind writers.
//
// # Architecture
//
// Rendering is split between a generic traversal driver (this package) and
// a style, which is a [Registry] mapping node names to [NodeWriter]
// implementations. The driver visits the tree in document order and, for
// every node, looks up its writer by [dom.Node.Name]:
//
//   - leaf nodes (text, entity, comment, doctype, CDATA, PI) and raw-text
//     elements: Start, Data, End
//   - elements without children: Start, End
//   - elements with children: Start, then Child. When Child reports
//     [Block] the driver visits every child and then calls End. When it
//     reports [Inline] the writer has already emitted the children and the
//     closing tag, so neither the children nor End are visited.
//
// Names without a registered writer resolve to the [DefaultName] entry,
// which is how a style handles arbitrary element tags. [Registry.Alias]
// lets one name share another's writer ("#entity" shares "#text" in the
// XML style).
//
// # Format State
//
// Each call to [Render] creates a fresh [State] holding the indentation
// unit, the entity template and the "indentation already written on this
// line" flag. Writers reach it through the [Writer] they are handed, so two
// renders never share mutable formatting state and a Registry can be used
// by many goroutines at once.
//
// # Usage
//
//	var buf bytes.Buffer
//	err := render.Render(&buf, doc, xmlstyle.New(), render.WithTab("  "))
//
// Writers never fail. The first error returned by the underlying
// io.Writer is remembered, further output is dropped, and Render returns
// that error once the traversal stops.
package render
