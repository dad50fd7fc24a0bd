package io

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/matzehuels/nodewriter/pkg/dom"
	"github.com/matzehuels/nodewriter/pkg/errors"
)

// DefaultRawText lists the elements read as raw text by default.
var DefaultRawText = []string{"script", "style"}

// XMLOptions controls how markup is mapped onto a tree.
type XMLOptions struct {
	// RawText lists element names whose content is kept as raw text.
	RawText []string
	// Permissive tolerates common mistakes such as unquoted attributes.
	Permissive bool
	// HTMLEntities accepts the HTML entity set (&nbsp; and friends).
	// References in text are kept as written; attribute values resolve them.
	HTMLEntities bool
}

// ReadXML parses markup from r into a document tree.
// ReadXML does not close r.
func ReadXML(r io.Reader, opts XMLOptions) (*dom.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xml: %w", err)
	}
	doc := newEtreeDocument(opts)
	if err := doc.ReadFromBytes(markReferences(src, opts.knownEntity)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "parse xml")
	}
	return convert(doc, opts)
}

// ReadXMLString parses markup held in a string.
func ReadXMLString(s string, opts XMLOptions) (*dom.Node, error) {
	return ReadXML(strings.NewReader(s), opts)
}

// ImportXML reads and parses the file at path.
func ImportXML(path string, opts XMLOptions) (*dom.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	return ReadXML(f, opts)
}

func newEtreeDocument(opts XMLOptions) *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	doc.ReadSettings.Permissive = opts.Permissive
	if opts.Permissive {
		doc.ReadSettings.AutoClose = xml.HTMLAutoClose
	}
	if opts.HTMLEntities {
		doc.ReadSettings.Entity = xml.HTMLEntity
	}
	return doc
}

func convert(src *etree.Document, opts XMLOptions) (*dom.Node, error) {
	raw := make(map[string]bool, len(opts.RawText))
	for _, tag := range opts.RawText {
		raw[tag] = true
	}
	c := converter{raw: raw}
	doc := dom.NewDocument()
	if err := c.children(doc, src.Child); err != nil {
		return nil, err
	}
	return doc, nil
}

type converter struct {
	raw map[string]bool
}

func (c converter) children(parent *dom.Node, tokens []etree.Token) error {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *etree.Element:
			if err := c.element(parent, t); err != nil {
				return err
			}
		case *etree.CharData:
			if t.IsCData() {
				parent.Append(dom.NewCData(t.Data))
			} else {
				appendText(parent, t.Data)
			}
		case *etree.Comment:
			parent.Append(dom.NewComment(t.Data))
		case *etree.Directive:
			rest, ok := cutKeyword(t.Data, "DOCTYPE")
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "unsupported directive <!%s>", firstWord(t.Data))
			}
			parent.Append(dom.NewDoctype(rest))
		case *etree.ProcInst:
			parent.Append(dom.NewProcInst(t.Target, t.Inst))
		}
	}
	return nil
}

func (c converter) element(parent *dom.Node, el *etree.Element) error {
	tag := el.FullTag()
	attrs := make([]dom.Attr, len(el.Attr))
	for i, a := range el.Attr {
		attrs[i] = dom.Attr{Name: a.FullKey(), Value: EscapeAttr(a.Value)}
	}
	if c.raw[tag] {
		var b strings.Builder
		writeMarkup(&b, el.Child)
		parent.Append(dom.NewRawText(tag, b.String(), attrs...))
		return nil
	}
	n := parent.Append(dom.NewElement(tag, attrs...))
	return c.children(n, el.Child)
}

// appendText splits s into text runs and entity nodes. Marked references
// keep their source spelling; a literal "&" or "<", which only permissive
// parsing lets through, becomes "&amp;" or "&lt;".
func appendText(parent *dom.Node, s string) {
	start := 0
	for i := 0; i < len(s); {
		var ent string
		width := 1
		switch {
		case strings.HasPrefix(s[i:], refMark):
			end := strings.IndexByte(s[i:], ';')
			if end < 0 {
				i += len(refMark)
				continue
			}
			ent = "&" + s[i+len(refMark):i+end+1]
			width = end + 1
		case s[i] == '&':
			ent = "&amp;"
		case s[i] == '<':
			ent = "&lt;"
		default:
			i++
			continue
		}
		if i > start {
			parent.Append(dom.NewText(s[start:i]))
		}
		parent.Append(dom.NewEntity(ent))
		i += width
		start = i
	}
	if start < len(s) {
		parent.Append(dom.NewText(s[start:]))
	}
}

// writeMarkup serializes tokens back to markup. Marked references are
// restored as written, so raw-text content reparses to the same tree.
func writeMarkup(b *strings.Builder, tokens []etree.Token) {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *etree.CharData:
			if t.IsCData() {
				b.WriteString("<![CDATA[" + t.Data + "]]>")
			} else {
				b.WriteString(textEscaper.Replace(t.Data))
			}
		case *etree.Element:
			b.WriteString("<" + t.FullTag())
			for _, a := range t.Attr {
				b.WriteString(" " + a.FullKey() + `="` + EscapeAttr(a.Value) + `"`)
			}
			if len(t.Child) == 0 {
				b.WriteString("/>")
				continue
			}
			b.WriteString(">")
			writeMarkup(b, t.Child)
			b.WriteString("</" + t.FullTag() + ">")
		case *etree.Comment:
			b.WriteString("<!--" + t.Data + "-->")
		case *etree.ProcInst:
			b.WriteString("<?" + t.Target)
			if t.Inst != "" {
				b.WriteString(" " + t.Inst)
			}
			b.WriteString("?>")
		case *etree.Directive:
			b.WriteString("<!" + t.Data + ">")
		}
	}
}

var textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", refMark, "&")

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")

// EscapeAttr escapes a decoded attribute value for use inside double quotes.
func EscapeAttr(v string) string {
	return attrEscaper.Replace(v)
}

func cutKeyword(s, kw string) (string, bool) {
	if len(s) < len(kw) || !strings.EqualFold(s[:len(kw)], kw) {
		return "", false
	}
	rest := s[len(kw):]
	if rest != "" && !isXMLSpace(rest[0]) {
		return "", false
	}
	return rest, true
}

func firstWord(s string) string {
	if i := strings.IndexFunc(s, func(r rune) bool { return r < 0x80 && isXMLSpace(byte(r)) }); i >= 0 {
		return s[:i]
	}
	return s
}

func isXMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}

// refMark stands in for the "&" of a reference while the decoder runs, so
// references reach the converter as written instead of resolved.
const refMark = "\uE000"

// maxRefLen bounds the search for the ";" closing a reference.
const maxRefLen = 40

var predefinedEntities = map[string]bool{"amp": true, "lt": true, "gt": true, "quot": true, "apos": true}

func (o XMLOptions) knownEntity(name string) bool {
	switch {
	case predefinedEntities[name], o.Permissive:
		return true
	case o.HTMLEntities:
		_, ok := xml.HTMLEntity[name]
		return ok
	}
	return false
}

// markReferences replaces the "&" of every well-formed reference in
// character data with refMark. Tags, comments, CDATA sections, processing
// instructions and directives are copied unchanged. A literal refMark in
// character data becomes the marked reference "&#xE000;".
func markReferences(src []byte, known func(string) bool) []byte {
	out := make([]byte, 0, len(src)+len(src)/8)
	for i := 0; i < len(src); {
		switch {
		case src[i] == '<':
			n := markupLen(src[i:])
			out = append(out, src[i:i+n]...)
			i += n
		case src[i] == '&':
			n := referenceLen(src[i:], known)
			if n == 0 {
				out = append(out, '&')
				i++
				break
			}
			out = append(out, refMark...)
			out = append(out, src[i+1:i+n]...)
			i += n
		case bytes.HasPrefix(src[i:], []byte(refMark)):
			out = append(out, refMark+"#xE000;"...)
			i += len(refMark)
		default:
			out = append(out, src[i])
			i++
		}
	}
	return out
}

// markupLen returns the length of the markup construct at the start of b,
// or len(b) when it is not terminated.
func markupLen(b []byte) int {
	until := func(from int, delim string) int {
		if j := bytes.Index(b[from:], []byte(delim)); j >= 0 {
			return from + j + len(delim)
		}
		return len(b)
	}
	switch {
	case bytes.HasPrefix(b, []byte("<!--")):
		return until(4, "-->")
	case bytes.HasPrefix(b, []byte("<![CDATA[")):
		return until(9, "]]>")
	case bytes.HasPrefix(b, []byte("<?")):
		return until(2, "?>")
	}

	directive := len(b) > 1 && b[1] == '!'
	var quote byte
	depth := 0
	for j := 1; j < len(b); j++ {
		c := b[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case directive && c == '[':
			depth++
		case directive && c == ']' && depth > 0:
			depth--
		case c == '>' && depth == 0:
			return j + 1
		}
	}
	return len(b)
}

// referenceLen returns the length of the reference at the start of b, or 0
// when b does not start with one the decoder would accept.
func referenceLen(b []byte, known func(string) bool) int {
	semi := bytes.IndexByte(b[:min(len(b), maxRefLen)], ';')
	if semi < 2 {
		return 0
	}
	name := string(b[1:semi])
	if name[0] == '#' {
		digits, base := name[1:], 10
		if strings.HasPrefix(digits, "x") {
			digits, base = digits[1:], 16
		}
		if digits == "" || digits[0] == '+' || digits[0] == '-' {
			return 0
		}
		v, err := strconv.ParseUint(digits, base, 32)
		if err != nil || !isXMLChar(rune(v)) {
			return 0
		}
		return semi + 1
	}
	if !isEntityName(name) || !known(name) {
		return 0
	}
	return semi + 1
}

func isEntityName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == ':'
		if !letter && (i == 0 || !(c >= '0' && c <= '9' || c == '-' || c == '.')) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= utf8.MaxRune
}
