package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/errors"
	"github.com/matzehuels/nodewriter/pkg/observability"
	"github.com/matzehuels/nodewriter/pkg/render"
)

// Render writes tree in the style named by opts.
func Render(ctx context.Context, tree *dom.Node, opts Options) ([]byte, render.Stats, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, render.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, render.Stats{}, err
	}
	if tree == nil {
		return nil, render.Stats{}, errors.New(errors.ErrCodeInvalidInput, "nothing to render")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Style, tree.Count())
	start := time.Now()

	var buf bytes.Buffer
	stats, err := render.RenderStats(&buf, tree, Styles[opts.Style](), opts.RenderOptions()...)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", opts.Style)
	}
	hooks.OnRenderComplete(ctx, opts.Style, stats.Bytes, time.Since(start), err)
	if err != nil {
		return nil, stats, err
	}
	return buf.Bytes(), stats, nil
}
