// Package pipeline runs the parse → render pipeline shared by the CLI and
// the HTTP API.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Parse: decode XML, JSON or YAML input into a [dom.Node] tree
//  2. Render: write the tree in a named output style
//
// Each stage can be run on its own ([Parse], [Render]) or through a
// [Runner], which caches both the parsed tree and the rendered text and
// reports events to the observability hooks.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Format(ctx, input, pipeline.Options{Tab: "  "})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Output)
package pipeline

import (
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodewriter/pkg/cache"
	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/errors"
	nwio "github.com/matzehuels/nodewriter/pkg/io"
	"github.com/matzehuels/nodewriter/pkg/render"
	"github.com/matzehuels/nodewriter/pkg/render/xmlstyle"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultStyle is the output style used when none is given.
	DefaultStyle = xmlstyle.Name

	// DefaultTTL is how long cached trees and renders are kept.
	DefaultTTL = 24 * time.Hour
)

// Styles maps style names to registry constructors.
var Styles = map[string]func() *render.Registry{
	xmlstyle.Name: xmlstyle.New,
}

// StyleNames returns the known style names, sorted.
func StyleNames() []string {
	names := make([]string, 0, len(Styles))
	for name := range Styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Input        nwio.Format `json:"input,omitempty"`
	RawText      []string    `json:"raw_text,omitempty"`
	Permissive   bool        `json:"permissive,omitempty"`
	HTMLEntities bool        `json:"html_entities,omitempty"`

	// Render options
	Style  string  `json:"style,omitempty"`
	Tab    *string `json:"tab,omitempty"`
	Entity string  `json:"entity,omitempty"`

	// Refresh bypasses cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the parsed document. It is nil when the rendered output
	// came from the cache and the tree was never needed.
	Tree *dom.Node

	// InputHash is the content hash of the input.
	InputHash string

	// Output is the rendered text.
	Output []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	InputBytes int
	NodeCount  int
	OutputSize int64
	ParseTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TreeHit   bool // Whether the tree came from cache
	RenderHit bool // Whether the output came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateStyle checks that a style is registered.
func ValidateStyle(style string) error {
	if _, ok := Styles[style]; !ok {
		return errors.New(errors.ErrCodeInvalidOption,
			"invalid style: %q (must be one of: %s)", style, strings.Join(StyleNames(), ", "))
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks option values and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks and defaults the parse options.
func (o *Options) ValidateForParse() error {
	f, err := nwio.ParseFormat(string(o.Input))
	if err != nil {
		return err
	}
	o.Input = f
	if o.RawText == nil {
		o.RawText = slices.Clone(nwio.DefaultRawText)
	}
	for _, tag := range o.RawText {
		if err := errors.ValidateTagName(tag); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOption, err, "raw_text")
		}
	}
	o.setLogger()
	return nil
}

// ValidateForRender checks and defaults the render options. An unusable
// entity template is logged and left to the renderer's fallback.
func (o *Options) ValidateForRender() error {
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Entity == "" {
		o.Entity = render.DefaultEntity
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := errors.ValidateTab(o.TabValue()); err != nil {
		return err
	}
	o.setLogger()
	if err := xmlstyle.ValidateEntity(o.Entity); err != nil {
		o.Logger.Warn("entity template not applied, entities render unformatted", "entity", o.Entity, "err", err)
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// TabValue returns the indentation unit, [render.DefaultTab] when unset.
// An explicitly empty tab disables indentation.
func (o *Options) TabValue() string {
	if o.Tab == nil {
		return render.DefaultTab
	}
	return *o.Tab
}

// XMLOptions returns the parser settings.
func (o *Options) XMLOptions() nwio.XMLOptions {
	return nwio.XMLOptions{
		RawText:      o.RawText,
		Permissive:   o.Permissive,
		HTMLEntities: o.HTMLEntities,
	}
}

// RenderOptions returns the per-pass render options.
func (o *Options) RenderOptions() []render.Option {
	return []render.Option{render.WithTab(o.TabValue()), render.WithEntity(o.Entity)}
}

// TreeKeyOpts returns cache key options for the parsed tree.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{
		Format:       string(o.Input),
		RawText:      o.RawText,
		Permissive:   o.Permissive,
		HTMLEntities: o.HTMLEntities,
	}
}

// RenderKeyOpts returns cache key options for the rendered output.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Tree:   o.TreeKeyOpts(),
		Style:  o.Style,
		Tab:    o.TabValue(),
		Entity: o.Entity,
	}
}

// StringPtr returns a pointer to s, for setting [Options.Tab].
func StringPtr(s string) *string { return &s }
