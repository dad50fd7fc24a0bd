package cache

import (
	"slices"
)

// Keyer derives cache keys for the two cached artifacts.
type Keyer interface {
	// TreeKey identifies the tree parsed from an input.
	TreeKey(inputHash string, opts TreeKeyOpts) string
	// RenderKey identifies the text rendered from an input.
	RenderKey(inputHash string, opts RenderKeyOpts) string
}

// TreeKeyOpts lists the parser settings that change the resulting tree.
type TreeKeyOpts struct {
	Format       string   `json:"format"`
	RawText      []string `json:"raw_text,omitempty"`
	Permissive   bool     `json:"permissive,omitempty"`
	HTMLEntities bool     `json:"html_entities,omitempty"`
}

// RenderKeyOpts lists the settings that change the rendered text.
type RenderKeyOpts struct {
	Tree   TreeKeyOpts `json:"tree"`
	Style  string      `json:"style"`
	Tab    string      `json:"tab"`
	Entity string      `json:"entity"`
}

// DefaultKeyer hashes the options together with the input hash.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) TreeKey(inputHash string, opts TreeKeyOpts) string {
	return hashKey("tree", inputHash, normalizeTree(opts))
}

func (DefaultKeyer) RenderKey(inputHash string, opts RenderKeyOpts) string {
	opts.Tree = normalizeTree(opts.Tree)
	return hashKey("render", inputHash, opts)
}

// normalizeTree makes the raw-text list order-insensitive.
func normalizeTree(opts TreeKeyOpts) TreeKeyOpts {
	if len(opts.RawText) > 1 {
		opts.RawText = slices.Clone(opts.RawText)
		slices.Sort(opts.RawText)
		opts.RawText = slices.Compact(opts.RawText)
	}
	return opts
}
