// Package io builds [dom] trees from XML and converts them to and from a
// JSON or YAML tree format.
//
// # Overview
//
// The renderers in [render] only consume trees; this package produces
// them. Three input formats are supported, selected with [Format]:
//
//   - xml: markup parsed with [github.com/beevik/etree]
//   - json: the tree format written by [WriteJSON]
//   - yaml: the same tree format written by [WriteYAML]
//
// [Read] dispatches on the format, [ReadXML], [ReadJSON] and [ReadYAML]
// read a single format, and the Import* variants open a file first.
//
// # XML Mapping
//
// Character and entity references in text keep their source spelling:
// each becomes an entity node ("&gt;", "&#169;", "&nbsp;") with the text
// around it kept as text nodes. Named references must be predefined XML
// entities, or HTML entities with [XMLOptions.HTMLEntities]; permissive
// parsing accepts any name. Other tokens map one to one:
//
//   - <!DOCTYPE ...>: a doctype node holding everything after the keyword
//   - <?target inst?>: a processing instruction named "?target"
//   - <![CDATA[...]]>: a CDATA node (CDATA is preserved, not merged into text)
//   - <!-- ... -->: a comment node
//
// Attribute values are re-escaped for double quotes. Elements listed in
// [XMLOptions.RawText] become raw-text elements holding their content,
// nested markup included, as written in Data. Other directives (<!ENTITY>, <!ELEMENT>, ...) are
// rejected with an UNSUPPORTED error.
//
// # Tree Format
//
// The JSON form of a small document:
//
//	{
//	  "kind": "document",
//	  "children": [
//	    {"kind": "doctype", "data": "html"},
//	    {
//	      "kind": "element",
//	      "name": "p",
//	      "attrs": [{"name": "class", "value": "x"}],
//	      "children": [
//	        {"kind": "text", "data": "a "},
//	        {"kind": "entity", "data": "&amp;"}
//	      ]
//	    }
//	  ]
//	}
//
// Names are omitted for leaf kinds and restored on import. Import rebuilds
// parent links and levels, so an exported tree renders identically after a
// round trip.
//
// # Concurrency
//
// All functions are safe to call concurrently. Returned trees are
// independent of their source and may be modified freely.
package io
