package render

import (
	"github.com/matzehuels/nodewriter/pkg/dom"
)

// DefaultName is the registry entry used for names without their own writer.
const DefaultName = "__default__"

// maxAliasDepth bounds alias resolution so that a cycle cannot hang Lookup.
const maxAliasDepth = 8

// Layout is the child policy reported by [NodeWriter.Child].
type Layout int

const (
	// Block asks the driver to visit every child and then call End.
	Block Layout = iota
	// Inline means the writer emitted the children and the closing
	// fragment itself; the driver moves on to the next sibling.
	Inline
)

// String returns "block" or "inline".
func (l Layout) String() string {
	if l == Inline {
		return "inline"
	}
	return "block"
}

// NodeWriter renders one kind of node in three fragments.
type NodeWriter interface {
	// Start writes the opening fragment.
	Start(w *Writer, n *dom.Node)
	// Data writes the payload of a leaf node, processing instruction or
	// raw-text element.
	Data(w *Writer, n *dom.Node)
	// Child is called for elements that have children.
	Child(w *Writer, n *dom.Node) Layout
	// End writes the closing fragment.
	End(w *Writer, n *dom.Node)
}

// Formatter is implemented by writers whose single-line rendering of a node
// can be reused by other writers, e.g. to flow text children inline.
type Formatter interface {
	Format(s *State, n *dom.Node) string
}

// Base is a NodeWriter that writes Data verbatim and nothing else.
// Embed it to implement only the fragments a writer cares about.
type Base struct{}

func (Base) Start(*Writer, *dom.Node) {}

func (Base) Data(w *Writer, n *dom.Node) { w.WriteString(n.Data) }

func (Base) Child(*Writer, *dom.Node) Layout { return Block }

func (Base) End(*Writer, *dom.Node) {}

// Registry maps node names to writers. Build it once, then share it: it is
// not modified by rendering.
type Registry struct {
	writers map[string]NodeWriter
	aliases map[string]string
}

// NewRegistry creates an empty registry. Until a [DefaultName] writer is
// set, unmapped names resolve to [Base].
func NewRegistry() *Registry {
	return &Registry{
		writers: make(map[string]NodeWriter),
		aliases: make(map[string]string),
	}
}

// Set registers nw for name, replacing any writer or alias for it.
func (r *Registry) Set(name string, nw NodeWriter) *Registry {
	delete(r.aliases, name)
	r.writers[name] = nw
	return r
}

// Alias makes name resolve to whatever target resolves to.
func (r *Registry) Alias(name, target string) *Registry {
	delete(r.writers, name)
	r.aliases[name] = target
	return r
}

// Lookup returns the writer for name, following aliases and falling back
// to the default entry.
func (r *Registry) Lookup(name string) NodeWriter {
	for i := 0; i < maxAliasDepth; i++ {
		target, ok := r.aliases[name]
		if !ok {
			break
		}
		name = target
	}
	if nw, ok := r.writers[name]; ok {
		return nw
	}
	if nw, ok := r.writers[DefaultName]; ok {
		return nw
	}
	return Base{}
}

// Names returns the registered names and aliases, unordered.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.writers)+len(r.aliases))
	for name := range r.writers {
		names = append(names, name)
	}
	for name := range r.aliases {
		names = append(names, name)
	}
	return names
}
