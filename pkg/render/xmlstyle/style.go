package xmlstyle

import (
	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/render"
)

// Name identifies this style in configuration and on the command line.
const Name = "default"

// New returns a registry holding the default XML writers.
func New() *render.Registry {
	return render.NewRegistry().
		Set(dom.NameText, TextWriter{}).
		Alias(dom.NameEntity, dom.NameText).
		Set(dom.NameDoctype, DoctypeWriter{}).
		Set(dom.NameCData, CDataWriter{}).
		Set(dom.NameComment, CommentWriter{}).
		Set(render.DefaultName, ElementWriter{})
}
