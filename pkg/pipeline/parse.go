package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/nodewriter/pkg/dom"
	nwio "github.com/matzehuels/nodewriter/pkg/io"
	"github.com/matzehuels/nodewriter/pkg/observability"
)

// Parse decodes input into a document tree.
func Parse(ctx context.Context, input []byte, opts Options) (*dom.Node, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	format := string(opts.Input)
	hooks.OnParseStart(ctx, format, len(input))
	start := time.Now()

	doc, err := nwio.Read(bytes.NewReader(input), opts.Input, opts.XMLOptions())

	nodes := 0
	if err == nil {
		nodes = doc.Count()
	}
	hooks.OnParseComplete(ctx, format, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("parsed input", "format", format, "nodes", nodes)
	return doc, nil
}
