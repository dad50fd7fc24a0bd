package dom

import (
	"errors"
	"strings"
)

// Pseudo-tag names used by the leaf kinds.
const (
	NameDocument = "#document"
	NameText     = "#text"
	NameEntity   = "#entity"
	NameComment  = "#comment"
	NameDoctype  = "#doctype"
	NameCData    = "#cdata-section"
)

var (
	// ErrNotContainer is returned by [Node.Insert] when the receiver cannot
	// hold children (text, entity, comment, doctype, CDATA, PI).
	ErrNotContainer = errors.New("node cannot have children")

	// ErrIndexOutOfRange is returned by [Node.Insert] for an index outside
	// [0, len(Children)].
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrCycle is returned by [Node.Insert] when the child is the receiver
	// or one of its ancestors.
	ErrCycle = errors.New("node cannot be inserted below itself")
)

// Kind identifies the variant of a [Node].
type Kind int

const (
	// KindDocument is the tree root. It is never rendered itself.
	KindDocument Kind = iota
	// KindElement is a tagged element with attributes and children.
	KindElement
	// KindRawText is an element whose content is kept as unparsed markup
	// in Data (e.g. <script> or <style>). It has no children and never
	// self-closes.
	KindRawText
	// KindText is a run of character data.
	KindText
	// KindEntity is a character reference such as "&amp;".
	KindEntity
	// KindComment is a comment; Data excludes the delimiters.
	KindComment
	// KindDoctype is a doctype declaration; Data excludes "<!DOCTYPE" and ">".
	KindDoctype
	// KindCData is a CDATA section; Data excludes the delimiters.
	KindCData
	// KindProcInst is a processing instruction; Data is the instruction body.
	KindProcInst
)

var kindNames = map[Kind]string{
	KindDocument: "document",
	KindElement:  "element",
	KindRawText:  "rawtext",
	KindText:     "text",
	KindEntity:   "entity",
	KindComment:  "comment",
	KindDoctype:  "doctype",
	KindCData:    "cdata",
	KindProcInst: "procinst",
}

// String returns the lower-case kind name used by the JSON and YAML codecs.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Attr is a single attribute. Value is stored as it should be written,
// i.e. already escaped for use inside double quotes.
type Attr struct {
	Name  string
	Value string
}

// Node is a single vertex of the document tree.
//
// The zero value is a detached text node with no data; use the New*
// constructors to build nodes of other kinds.
type Node struct {
	Kind     Kind
	Name     string  // tag, "?target" or a "#" pseudo-tag
	Data     string  // payload for leaf kinds, raw-text elements and PIs
	Level    int     // depth; document is -1, its children 0
	Attrs    []Attr  // ordered, elements only
	Children []*Node // ordered, document and elements only

	parent *Node
	index  int
}

// NewDocument creates an empty document node.
func NewDocument() *Node {
	return &Node{Kind: KindDocument, Name: NameDocument, Level: -1}
}

// NewElement creates an element with the given tag and attributes.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Name: tag, Attrs: attrs}
}

// NewRawText creates a raw-text element. markup is the element content as
// written between the tags; renderers emit it verbatim.
func NewRawText(tag, markup string, attrs ...Attr) *Node {
	return &Node{Kind: KindRawText, Name: tag, Data: markup, Attrs: attrs}
}

// NewText creates a text node.
func NewText(data string) *Node {
	return &Node{Kind: KindText, Name: NameText, Data: data}
}

// NewEntity creates an entity node. data is the reference as written,
// including the ampersand and semicolon.
func NewEntity(data string) *Node {
	return &Node{Kind: KindEntity, Name: NameEntity, Data: data}
}

// NewComment creates a comment node.
func NewComment(data string) *Node {
	return &Node{Kind: KindComment, Name: NameComment, Data: data}
}

// NewDoctype creates a doctype node.
func NewDoctype(data string) *Node {
	return &Node{Kind: KindDoctype, Name: NameDoctype, Data: data}
}

// NewCData creates a CDATA section node.
func NewCData(data string) *Node {
	return &Node{Kind: KindCData, Name: NameCData, Data: data}
}

// NewProcInst creates a processing instruction for target.
func NewProcInst(target, data string) *Node {
	return &Node{Kind: KindProcInst, Name: "?" + target, Data: data}
}

// IsElement reports whether n is an element or raw-text element.
func (n *Node) IsElement() bool {
	return n.Kind == KindElement || n.Kind == KindRawText
}

// IsTextual reports whether n is a text or entity node. Runs of textual
// siblings are flowed together by the renderers.
func (n *Node) IsTextual() bool {
	return n.Kind == KindText || n.Kind == KindEntity
}

// CanHaveChildren reports whether children may be appended to n.
func (n *Node) CanHaveChildren() bool {
	return n.Kind == KindDocument || n.Kind == KindElement
}

// Target returns the processing instruction target, or "" for other kinds.
func (n *Node) Target() string {
	if n.Kind != KindProcInst {
		return ""
	}
	return strings.TrimPrefix(n.Name, "?")
}

// Parent returns the node's parent, or nil for a detached node or the document.
func (n *Node) Parent() *Node { return n.parent }

// Index returns the node's position in its parent's Children, or -1 if detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return n.index
}

// Prev returns the immediately preceding sibling, or nil.
func (n *Node) Prev() *Node {
	if n.parent == nil || n.index == 0 {
		return nil
	}
	return n.parent.Children[n.index-1]
}

// Next returns the immediately following sibling, or nil.
func (n *Node) Next() *Node {
	if n.parent == nil || n.index+1 >= len(n.parent.Children) {
		return nil
	}
	return n.parent.Children[n.index+1]
}

// Append attaches child as the last child of n and returns child.
// A child that already has a parent is detached from it first.
// Append panics if n cannot have children or child is n or one of its
// ancestors; use [Node.Insert] when that is not known statically.
func (n *Node) Append(child *Node) *Node {
	if err := n.Insert(len(n.Children), child); err != nil {
		panic("dom: " + err.Error())
	}
	return child
}

// Insert attaches child at position i of n's children, shifting later
// siblings to the right. Levels of the whole inserted subtree are updated.
func (n *Node) Insert(i int, child *Node) error {
	if !n.CanHaveChildren() {
		return ErrNotContainer
	}
	if i < 0 || i > len(n.Children) {
		return ErrIndexOutOfRange
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	if child.parent == n && child.index < i {
		i--
	}
	if child.parent != nil {
		child.Detach()
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
	child.parent = n
	n.reindex(i)
	child.setLevel(n.Level + 1)
	return nil
}

// Detach removes n from its parent. It is a no-op for detached nodes.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	i := n.index
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	p.reindex(i)
	n.parent = nil
	n.index = 0
}

func (n *Node) reindex(from int) {
	for i := from; i < len(n.Children); i++ {
		n.Children[i].index = i
	}
}

func (n *Node) setLevel(level int) {
	n.Level = level
	for _, c := range n.Children {
		c.setLevel(level + 1)
	}
}

// Walk calls fn for n and every descendant in document order. If fn
// returns false the descendants of that node are skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n, including n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Root returns the topmost ancestor of n (n itself when detached).
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}
