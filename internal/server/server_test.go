package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/dom"
	"github.com/timothycrosley/blox/pkg/render"
	"github.com/timothycrosley/blox/pkg/templates"
)

var pages = fstest.MapFS{
	"home.html":      {Data: []byte(`<div><h1 id="title">Home</h1></div>`)},
	"sub/card.xhtml": {Data: []byte(`<section><p>card</p></section>`)},
	"legacy.html":    {Data: []byte(`<p><blink></blink></p>`)},
}

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Templates == nil {
		opts.Templates = templates.New(templates.Options{
			Loader:   &templates.FSLoader{FS: pages},
			Registry: dom.Tags,
		})
	}
	return New(opts)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_RendersTemplates(t *testing.T) {
	s := newServer(t, Options{})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/home", http.StatusOK, `<div><h1 id="title">Home</h1></div>`},
		{"/home/", http.StatusOK, `<div><h1 id="title">Home</h1></div>`},
		{"/sub/card", http.StatusOK, `<section><p>card</p></section>`},
		{"/legacy", http.StatusOK, `<p><h2>Invalid</h2></p>`},
		{"/missing", http.StatusNotFound, "E060"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s.Handler(), tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	rec := get(t, s.Handler(), "/home")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "<script>", "no reload script without a watcher")
}

func TestServer_BuildFailure(t *testing.T) {
	set := templates.New(templates.Options{
		Loader:   &templates.FSLoader{FS: pages},
		Registry: dom.Tags,
		Queries:  map[string]string{"bad": "[["},
	})
	s := newServer(t, Options{Templates: set})

	rec := get(t, s.Handler(), "/home")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "E043")
}

func TestServer_Formatted(t *testing.T) {
	s := newServer(t, Options{Render: render.RendererConfig{Formatted: true, Indent: "\t"}})

	tmpl, err := s.opts.Templates.Build(context.Background(), "home")
	require.NoError(t, err)
	want := blox.MustRender(tmpl, blox.Formatted(), blox.WithIndentUnit("\t"))

	rec := get(t, s.Handler(), "/home")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, rec.Body.String())
	assert.Contains(t, want, "\n\t")
}

func TestServer_Index(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "<title>Templates</title>")
	assert.Contains(t, body, `<a href="/home">home</a>`)
	assert.Contains(t, body, `<a href="/sub/card">sub/card</a>`)
	assert.Contains(t, body, `<a href="/_blox/tree/legacy">tree</a>`)
}

func TestServer_Tree(t *testing.T) {
	s := newServer(t, Options{})

	rec := get(t, s.Handler(), TreePrefix+"home")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "div")
	assert.Contains(t, rec.Body.String(), "h1")

	rec = get(t, s.Handler(), TreePrefix+"missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := render.NewMetrics(render.WithRegistry(reg))
	set := templates.New(templates.Options{
		Loader:   &templates.FSLoader{FS: pages},
		Registry: dom.Tags,
		Metrics:  metrics,
	})
	s := newServer(t, Options{
		Templates: set,
		Render:    render.RendererConfig{Metrics: metrics},
		Gatherer:  reg,
	})

	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/home").Code)

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `blox_renders_total{status="success",template="home"} 1`)
	assert.Contains(t, body, `blox_builds_total`)
	assert.Contains(t, body, `blox_compiles_total`)

	noMetrics := newServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, get(t, noMetrics.Handler(), "/metrics").Code)
}

func TestServer_LiveReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>v1</p>"), 0o644))

	set := templates.New(templates.Options{Loader: templates.NewDirLoader(dir), Registry: dom.Tags})
	w, err := set.Watch(dir, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	s := newServer(t, Options{Templates: set, Watcher: w})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.forwardChanges(ctx)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/home")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), "<p>v1</p>")
	assert.Contains(t, string(body), ReloadPath, "pages carry the reload script")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+ReloadPath, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Reload().ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("<p>v2</p>"), 0o644))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ReloadMessage
	for msg.Type != ReloadTypeFull {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &msg))
	}
	assert.Equal(t, []string{"home"}, msg.Templates)

	res, err = http.Get(ts.URL + "/home")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), "<p>v2</p>")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newServer(t, Options{ShutdownTimeout: time.Second})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/home")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
