package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nodewriter/pkg/dom"
)

var defaultNames = map[dom.Kind]string{
	dom.KindDocument: dom.NameDocument,
	dom.KindText:     dom.NameText,
	dom.KindEntity:   dom.NameEntity,
	dom.KindComment:  dom.NameComment,
	dom.KindDoctype:  dom.NameDoctype,
	dom.KindCData:    dom.NameCData,
}

type node struct {
	Kind     string `json:"kind" yaml:"kind"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Data     string `json:"data,omitempty" yaml:"data,omitempty"`
	Attrs    []attr `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Children []node `json:"children,omitempty" yaml:"children,omitempty"`
}

type attr struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func toNode(n *dom.Node) node {
	out := node{Kind: n.Kind.String(), Data: n.Data}
	if n.Name != defaultNames[n.Kind] {
		out.Name = n.Name
	}
	for _, a := range n.Attrs {
		out.Attrs = append(out.Attrs, attr{Name: a.Name, Value: a.Value})
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toNode(c))
	}
	return out
}

// WriteJSON encodes a tree as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(root *dom.Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toNode(root)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a tree to a JSON file at path.
func ExportJSON(root *dom.Node, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteJSON(root, w) })
}

// WriteYAML encodes a tree as YAML and writes it to w.
func WriteYAML(root *dom.Node, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(root)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// ExportYAML writes a tree to a YAML file at path.
func ExportYAML(root *dom.Node, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteYAML(root, w) })
}

// Write encodes root in the given tree format. XML is not a tree format;
// use the renderers for markup output.
func Write(root *dom.Node, w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(root, w)
	case FormatYAML:
		return WriteYAML(root, w)
	}
	return unsupportedFormat(format)
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
