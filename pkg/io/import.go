package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/errors"
)

// Format is an input or tree format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "xml", "":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want xml, json or yaml)", s)
}

// FormatFromPath guesses the input format from a file extension,
// defaulting to XML.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatXML
	}
	return f
}

// Read decodes a tree from r in the given format.
func Read(r io.Reader, format Format, opts XMLOptions) (*dom.Node, error) {
	switch format {
	case FormatXML, "":
		return ReadXML(r, opts)
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	}
	return nil, unsupportedFormat(format)
}

// Import opens path and decodes it in the given format.
func Import(path string, format Format, opts XMLOptions) (*dom.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	return Read(f, format, opts)
}

// ReadJSON decodes a JSON tree from r.
//
// The input must be an object with a "kind" field; the root is usually a
// document. Each node may have:
//   - name: tag name for elements, "?target" for processing instructions
//   - data: payload for leaf kinds
//   - attrs: ordered list of {"name", "value"} objects
//   - children: ordered list of nodes
//
// ReadJSON returns an INVALID_INPUT error for unknown kinds, elements
// without a name, or children under a leaf kind. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*dom.Node, error) {
	var data node
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "decode json")
	}
	return fromNode(data, "$")
}

// ImportJSON reads a JSON tree file at path.
func ImportJSON(path string) (*dom.Node, error) {
	return Import(path, FormatJSON, XMLOptions{})
}

// ReadYAML decodes a YAML tree from r. It accepts the same structure as
// [ReadJSON].
func ReadYAML(r io.Reader) (*dom.Node, error) {
	var data node
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "decode yaml")
	}
	return fromNode(data, "$")
}

// ImportYAML reads a YAML tree file at path.
func ImportYAML(path string) (*dom.Node, error) {
	return Import(path, FormatYAML, XMLOptions{})
}

func fromNode(in node, path string) (*dom.Node, error) {
	kind, ok := dom.ParseKind(in.Kind)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: unknown kind %q", path, in.Kind)
	}

	attrs := make([]dom.Attr, len(in.Attrs))
	for i, a := range in.Attrs {
		attrs[i] = dom.Attr{Name: a.Name, Value: a.Value}
	}

	if name, fixed := defaultNames[kind]; fixed && in.Name != "" && in.Name != name {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: %s cannot be named %q", path, kind, in.Name)
	}

	var n *dom.Node
	switch kind {
	case dom.KindDocument:
		n = dom.NewDocument()
	case dom.KindElement, dom.KindRawText:
		if in.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: %s without name", path, kind)
		}
		if kind == dom.KindRawText {
			n = dom.NewRawText(in.Name, in.Data, attrs...)
		} else {
			n = dom.NewElement(in.Name, attrs...)
		}
	case dom.KindProcInst:
		target := strings.TrimPrefix(in.Name, "?")
		if target == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: processing instruction without target", path)
		}
		n = dom.NewProcInst(target, in.Data)
	default:
		n = &dom.Node{Kind: kind, Name: defaultNames[kind], Data: in.Data}
	}

	if len(in.Children) > 0 && !n.CanHaveChildren() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: %s cannot have children", path, kind)
	}
	for i, c := range in.Children {
		child, err := fromNode(c, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if child.Kind == dom.KindDocument {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s.children[%d]: nested document", path, i)
		}
		n.Append(child)
	}
	return n, nil
}

func unsupportedFormat(f Format) error {
	return errors.New(errors.ErrCodeUnsupported, "format %q not supported here", f)
}
