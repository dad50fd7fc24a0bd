package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nodewriter/pkg/cache"
	"github.com/matzehuels/nodewriter/pkg/errors"
	"github.com/matzehuels/nodewriter/pkg/observability"
	"github.com/matzehuels/nodewriter/pkg/pipeline"
)

func testdata(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "pkg", "io", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, nil)
	return New(runner, nil, pipeline.Options{})
}

func do(t *testing.T, s *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Build.Version == "" {
		t.Errorf("health = %+v", resp)
	}
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q is not a UUID", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "", RequestIDHeader, "abc-123")
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
	long := strings.Repeat("x", maxRequestIDLength+1)
	rec = do(t, s, http.MethodGet, "/healthz", "", RequestIDHeader, long)
	if got := rec.Header().Get(RequestIDHeader); got == long {
		t.Error("oversized request id should be replaced")
	}
}

func TestRenderGolden(t *testing.T) {
	s := newTestServer(t)
	input := testdata(t, "sample.xml")

	tests := []struct {
		target string
		golden string
	}{
		{"/v1/render", "sample.golden"},
		{"/v1/render?entity=%3C%25s%3E", "sample_entity.golden"},
		{"/v1/render?tab=****", "sample_tab.golden"},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, input)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			if got, want := rec.Body.String(), testdata(t, tt.golden); got != want {
				t.Errorf("body mismatch:\n got: %q\nwant: %q", got, want)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestRenderBadEntityTemplate(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/v1/render?entity=x", "<a>x &lt; y</a>")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got, want := rec.Body.String(), "<a>x &lt; y</a>\n"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestRenderCacheHeader(t *testing.T) {
	s := newTestServer(t)
	for i, want := range []string{"miss", "hit"} {
		rec := do(t, s, http.MethodPost, "/v1/render", "<a><b/></a>")
		if got := rec.Header().Get(CacheHeader); got != want {
			t.Errorf("request %d X-Cache = %q, want %q", i, got, want)
		}
	}
	rec := do(t, s, http.MethodPost, "/v1/render?refresh", "<a><b/></a>")
	if got := rec.Header().Get(CacheHeader); got != "miss" {
		t.Errorf("refresh X-Cache = %q, want miss", got)
	}
}

func TestRenderJSONInput(t *testing.T) {
	s := newTestServer(t)
	xml := do(t, s, http.MethodPost, "/v1/render", `<r a="1"><p>x</p></r>`)
	tree := do(t, s, http.MethodPost, "/v1/tree", `<r a="1"><p>x</p></r>`)
	if tree.Code != http.StatusOK {
		t.Fatalf("tree status = %d", tree.Code)
	}
	if ct := tree.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("tree Content-Type = %q", ct)
	}

	rec := do(t, s, http.MethodPost, "/v1/render", tree.Body.String(), "Content-Type", "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != xml.Body.String() {
		t.Errorf("json input renders %q, want %q", rec.Body, xml.Body)
	}
}

func TestTreeYAML(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/v1/tree?format=yaml", "<a/>")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "kind: document") {
		t.Errorf("yaml body = %s", rec.Body)
	}
	rec = do(t, s, http.MethodPost, "/v1/tree?format=xml", "<a/>")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("xml tree status = %d, want 400", rec.Code)
	}
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed", http.MethodPost, "/v1/render", "<a><b></a>", http.StatusBadRequest, errors.ErrCodeParseFailed},
		{"bad bool", http.MethodPost, "/v1/render?permissive=maybe", "<a/>", http.StatusBadRequest, errors.ErrCodeInvalidOption},
		{"bad input", http.MethodPost, "/v1/render?input=toml", "<a/>", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"too large", http.MethodPost, "/v1/render", strings.Repeat("a", MaxBodySize+1), http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput},
		{"not found", http.MethodGet, "/v2/render", "", http.StatusNotFound, errors.ErrCodeInvalidPath},
		{"wrong method", http.MethodGet, "/v1/render", "", http.StatusMethodNotAllowed, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", resp.Code, tt.code, resp.Message)
			}
			if resp.RequestID == "" || resp.RequestID != rec.Header().Get(RequestIDHeader) {
				t.Errorf("request_id = %q", resp.RequestID)
			}
		})
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	errors int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func (h *recordingHTTPHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	h := &recordingHTTPHooks{}
	observability.SetHTTPHooks(h)

	s := newTestServer(t)
	do(t, s, http.MethodPost, "/v1/render", "<a/>")
	do(t, s, http.MethodPost, "/v1/render", "<a><b></a>")

	want := []string{"POST /v1/render OK", "POST /v1/render Bad Request"}
	if strings.Join(h.routes, "|") != strings.Join(want, "|") {
		t.Errorf("routes = %q, want %q", h.routes, want)
	}
	if h.errors != 1 {
		t.Errorf("errors = %d, want 1", h.errors)
	}
}

func TestServeShutdown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
