// Package dom provides the in-memory document tree consumed by the
// nodewriter renderers.
//
// # Overview
//
// A document is a tree of [Node] values rooted at a [KindDocument] node.
// Every node carries a [Kind] from a closed set (elements, raw-text
// elements, text, entities, comments, doctype declarations, CDATA sections
// and processing instructions), a Name, a Data payload for leaf kinds, and
// a Level equal to its depth below the document.
//
// The document node sits at level -1 so that top-level nodes (the doctype,
// the root element, processing instructions before it) are at level 0.
// Every child's level is its parent's level plus one; [Node.Append] keeps
// this invariant when subtrees are attached or moved.
//
// # Sibling Navigation
//
// Nodes do not store previous/next pointers. The parent owns the ordered
// child slice and each node remembers its index in it, so [Node.Prev] and
// [Node.Next] are computed lookups:
//
//	doc := dom.NewDocument()
//	root := doc.Append(dom.NewElement("parent", dom.Attr{Name: "att", Value: "val"}))
//	root.Append(dom.NewText("hello "))
//	root.Append(dom.NewEntity("&amp;"))
//
//	amp := root.Children[1]
//	amp.Prev().Data // "hello "
//	amp.Next()      // nil
//
// # Names
//
// Leaf kinds use pseudo-tag names so that renderers can be registered by
// name: "#text", "#entity", "#comment", "#doctype", "#cdata-section".
// Elements use their tag name. Processing instructions use "?" followed by
// their target, which makes "<" + Name the opening of the instruction.
//
// # Concurrency
//
// A tree is not safe for concurrent mutation. Any number of goroutines may
// read (and render) the same tree concurrently as long as nobody mutates it.
package dom
