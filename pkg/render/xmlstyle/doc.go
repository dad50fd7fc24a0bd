// Package xmlstyle is the default XML writer style: it pretty-prints a
// [dom] tree so that its nesting is visible while text keeps its meaning.
//
// # Overview
//
// [New] returns a [render.Registry] with one writer per node kind:
//
//   - "#text" and "#entity": [TextWriter], which collapses whitespace and
//     flows runs of adjacent text and entity siblings onto one indented line
//   - "#doctype": [DoctypeWriter], always a single line
//   - "#cdata-section": [CDataWriter], which splits any "]]>" in the payload
//     across two sections
//   - "#comment": [CommentWriter], which re-indents multi-line comments to
//     the comment's own depth
//   - every other name: [ElementWriter], for elements, raw-text elements
//     and processing instructions
//
// # Layout Rules
//
// An element whose children are all text or entities is written on one
// line, its text normalized:
//
//	<child1>child 1 content</child1>
//
// An element with any other child opens on its own line, each child is
// written at depth+1, and the closing tag is indented to the element's
// depth. Elements without children self-close:
//
//	<a>
//	    <b/>
//	</a>
//
// Whitespace-only text between block siblings disappears. A run of text
// and entity siblings inside a block element becomes a single indented
// line ending in a line break.
//
// # Options
//
// Two render options affect this style:
//
//   - [render.WithTab] sets the indentation unit (default four spaces)
//   - [render.WithEntity] sets a template for entity nodes, a format string
//     with exactly one verb such as "<%s>". A template that cannot be
//     applied leaves the entity unchanged.
//
// # Usage
//
//	doc, err := io.ReadXMLString(src)
//	out, err := render.String(doc, xmlstyle.New(), render.WithTab("\t"))
package xmlstyle
