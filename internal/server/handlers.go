package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/nodewriter/pkg/buildinfo"
	"github.com/matzehuels/nodewriter/pkg/errors"
	nwio "github.com/matzehuels/nodewriter/pkg/io"
	"github.com/matzehuels/nodewriter/pkg/observability"
	"github.com/matzehuels/nodewriter/pkg/pipeline"
)

// CacheHeader reports whether the rendered output came from the cache.
const CacheHeader = "X-Cache"

var (
	errNotFound         = errors.New(errors.ErrCodeInvalidPath, "no such route")
	errMethodNotAllowed = errors.New(errors.ErrCodeUnsupported, "method not allowed")
)

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, opts, err := s.readRequest(r)
	if err != nil {
		s.writeError(w, r, 0, err)
		return
	}

	res, err := s.runner.Format(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, r, 0, err)
		return
	}

	cacheStatus := "miss"
	if res.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	w.Header().Set(CacheHeader, cacheStatus)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Output)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Output)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	format, err := nwio.ParseFormat(r.URL.Query().Get("format"))
	if err == nil && format == nwio.FormatXML {
		if r.URL.Query().Get("format") == "" {
			format = nwio.FormatJSON
		} else {
			err = errors.New(errors.ErrCodeInvalidFormat, "tree format must be json or yaml")
		}
	}
	if err != nil {
		s.writeError(w, r, 0, err)
		return
	}

	body, opts, err := s.readRequest(r)
	if err != nil {
		s.writeError(w, r, 0, err)
		return
	}
	tree, _, err := s.runner.Parse(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, r, 0, err)
		return
	}

	var buf bytes.Buffer
	if err := nwio.Write(tree, &buf, format); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	contentType := "application/json"
	if format == nwio.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// =============================================================================
// Request Parsing
// =============================================================================

// readRequest reads the body and merges the query options onto the
// server defaults.
func (s *Server) readRequest(r *http.Request) ([]byte, pipeline.Options, error) {
	opts, err := s.options(r)
	if err != nil {
		return nil, opts, err
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, opts, err
	}
	return body, opts, nil
}

func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	d := s.defaults
	opts := pipeline.Options{
		Input:        inputFromContentType(r.Header.Get("Content-Type")),
		RawText:      d.RawText,
		Permissive:   d.Permissive,
		HTMLEntities: d.HTMLEntities,
		Style:        d.Style,
		Tab:          d.Tab,
		Entity:       d.Entity,
		Logger:       s.logger.With("request_id", requestIDFrom(r.Context())),
	}

	q := r.URL.Query()
	if q.Has("input") {
		opts.Input = nwio.Format(q.Get("input"))
	}
	if q.Has("style") {
		opts.Style = q.Get("style")
	}
	if q.Has("tab") {
		opts.Tab = pipeline.StringPtr(q.Get("tab"))
	}
	if q.Has("entity") {
		opts.Entity = q.Get("entity")
	}
	if q.Has("raw_text") {
		opts.RawText = splitList(q.Get("raw_text"))
	}
	for name, dst := range map[string]*bool{
		"permissive":    &opts.Permissive,
		"html_entities": &opts.HTMLEntities,
		"refresh":       &opts.Refresh,
	} {
		if !q.Has(name) {
			continue
		}
		v, err := parseBool(q.Get(name))
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidOption, "%s: %q is not a boolean", name, q.Get(name))
		}
		*dst = v
	}
	return opts, opts.ValidateAndSetDefaults()
}

// inputFromContentType maps JSON and YAML media types to tree inputs.
// Anything else is parsed as XML.
func inputFromContentType(header string) nwio.Format {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return nwio.FormatXML
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return nwio.FormatJSON
	case mt == "application/yaml" || mt == "application/x-yaml" || mt == "text/yaml":
		return nwio.FormatYAML
	}
	return nwio.FormatXML
}

// splitList splits a comma-separated list. An empty string yields an
// empty, non-nil list.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool accepts strconv booleans; a bare flag ("?refresh") is true.
func parseBool(s string) (bool, error) {
	if s == "" {
		return true, nil
	}
	return strconv.ParseBool(s)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// writeError writes err as JSON. A zero status is derived from the error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		err = errors.Wrap(errors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
	}
	if status == 0 {
		status = http.StatusInternalServerError
		if errors.IsClientError(err) {
			status = http.StatusBadRequest
		}
	}

	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	resp := errorResponse{
		Code:      code,
		Message:   errorMessage(err),
		RequestID: requestIDFrom(r.Context()),
	}

	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", resp.RequestID)
	}
	writeJSON(w, status, resp)
}

// errorMessage is the user message plus the underlying cause, if any.
func errorMessage(err error) string {
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Cause == nil {
		return errors.UserMessage(err)
	}
	return e.Message + ": " + e.Cause.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
