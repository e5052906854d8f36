package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timothycrosley/blox/internal/config"
	"github.com/timothycrosley/blox/pkg/compile"
	"github.com/timothycrosley/blox/pkg/templates"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// project writes a blox.json plus templates into a temp dir and returns
// the config path.
func project(t *testing.T, cfg map[string]any, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, "templates", filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

var site = map[string]string{
	"home.html":      `<div><p>hi</p></div>`,
	"sub/card.xhtml": `<section><h2 id="title">Card</h2><p class="body">text</p></section>`,
	"dup.html":       `<p id="a"></p><p id="a"></p>`,
	"odd.html":       `<div><blink></blink></div>`,
}

func TestRender(t *testing.T) {
	cfgPath := project(t, map[string]any{}, site)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"by name", []string{"render", "home"}, "<div><p>hi</p></div>\n"},
		{"nested xhtml", []string{"render", "sub/card"}, `<section><h2 id="title">Card</h2><p class="body">text</p></section>` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRender_Formatted(t *testing.T) {
	cfgPath := project(t, map[string]any{"render": map[string]any{"formatted": true}}, site)

	out, _, err := execute(t, "--config", cfgPath, "render", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "<div>\n  <p>", "config enables formatting")

	out, _, err = execute(t, "--config", cfgPath, "render", "home", "--indent", "\t")
	require.NoError(t, err)
	assert.Contains(t, out, "<div>\n\t<p>")

	out, _, err = execute(t, "--config", cfgPath, "render", "home", "--formatted=false")
	require.NoError(t, err)
	assert.Equal(t, "<div><p>hi</p></div>\n", out, "flags override the config")
}

func TestRender_FilePath(t *testing.T) {
	cfgPath := project(t, map[string]any{}, nil)
	page := filepath.Join(t.TempDir(), "page.htm")
	require.NoError(t, os.WriteFile(page, []byte(`<ul><li>one</li></ul>`), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "render", page)
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>one</li></ul>\n", out)
}

func TestRender_OutputFile(t *testing.T) {
	cfgPath := project(t, map[string]any{}, site)
	dest := filepath.Join(t.TempDir(), "home.html")

	out, _, err := execute(t, "--config", cfgPath, "render", "home", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>hi</p></div>", string(data))
}

func TestRender_Errors(t *testing.T) {
	cfgPath := project(t, map[string]any{"compile": map[string]any{"strict": true}}, site)

	_, _, err := execute(t, "--config", cfgPath, "render", "missing")
	assert.True(t, errors.Is(err, templates.ErrNotFound))

	_, _, err = execute(t, "--config", cfgPath, "render", "dup")
	assert.True(t, errors.Is(err, compile.ErrDuplicateAccessor))

	_, _, err = execute(t, "--config", cfgPath, "render")
	assert.Error(t, err, "a template argument is required")
}

func TestRender_Fallback(t *testing.T) {
	cfgPath := project(t, map[string]any{"compile": map[string]any{"fallback": "span"}}, site)
	out, _, err := execute(t, "--config", cfgPath, "render", "odd")
	require.NoError(t, err)
	assert.Equal(t, "<div><span></span></div>\n", out, "compile.fallback replaces unregistered tags")

	cfgPath = project(t, map[string]any{}, site)
	out, _, err = execute(t, "--config", cfgPath, "render", "odd")
	require.NoError(t, err)
	assert.Equal(t, "<div><h2>Invalid</h2></div>\n", out, "without compile.fallback the registry's Invalid node is used")

	bad := project(t, map[string]any{"compile": map[string]any{"fallback": "nope"}}, site)
	_, _, err = execute(t, "--config", bad, "render", "home")
	assert.True(t, errors.Is(err, config.ErrInvalidValue))
}

func TestCompile(t *testing.T) {
	cfgPath := project(t, map[string]any{"compile": map[string]any{
		"queries": map[string]string{"paragraphs": "p"},
	}}, site)

	out, _, err := execute(t, "--config", cfgPath, "compile", "sub/card")
	require.NoError(t, err)
	assert.Contains(t, out, "package templates")
	assert.Contains(t, out, "type Card struct")
	assert.Contains(t, out, "func BuildCard(")
	assert.Contains(t, out, "Title ")
	assert.Contains(t, out, "Paragraphs ")
	_, err = parser.ParseFile(token.NewFileSet(), "card.go", out, parser.AllErrors)
	assert.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "home_gen.go")
	out, stderr, err := execute(t, "--config", cfgPath, "compile", "home", "-o", dest, "--package", "pages", "--name", "HomePage")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Compiled home to "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "// Code generated by blox compile. DO NOT EDIT."))
	assert.Contains(t, string(data), "package pages")
	assert.Contains(t, string(data), "type HomePage struct")
}

func TestCompile_Strict(t *testing.T) {
	cfgPath := project(t, map[string]any{}, site)

	_, _, err := execute(t, "--config", cfgPath, "compile", "dup")
	require.NoError(t, err, "duplicates are last-wins by default")

	_, _, err = execute(t, "--config", cfgPath, "compile", "dup", "--strict")
	assert.True(t, errors.Is(err, compile.ErrDuplicateAccessor))
}

func TestTree(t *testing.T) {
	cfgPath := project(t, map[string]any{}, site)

	out, _, err := execute(t, "--config", cfgPath, "tree", "sub/card")
	require.NoError(t, err)
	assert.Contains(t, out, "section")
	assert.Contains(t, out, "h2")
	assert.Contains(t, out, "Card")
}

func TestTags(t *testing.T) {
	cfgPath := project(t, map[string]any{}, nil)

	out, _, err := execute(t, "--config", cfgPath, "tags")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "div")
	assert.Contains(t, lines, "br (void)")

	out, _, err = execute(t, "--config", cfgPath, "tags", "--void")
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.True(t, strings.HasSuffix(line, " (void)"), line)
	}
}

func TestVersion(t *testing.T) {
	cfgPath := project(t, map[string]any{}, nil)

	out, _, err := execute(t, "--config", cfgPath, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)

	out, _, err = execute(t, "--config", cfgPath, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version:")
}

func TestLogging(t *testing.T) {
	cfgPath := project(t, map[string]any{}, site)

	_, stderr, err := execute(t, "--config", cfgPath, "--log-format", "json", "--verbose", "render", "home")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"configuration loaded"`)
	assert.Contains(t, stderr, `"msg":"compiled"`)

	_, stderr, err = execute(t, "--config", cfgPath, "render", "home")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "configuration loaded", "debug logs need --verbose")

	_, _, err = execute(t, "--config", cfgPath, "--log-format", "xml", "render", "home")
	assert.True(t, errors.Is(err, config.ErrInvalidValue))
}

func TestConfigErrors(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "tags")
	assert.True(t, errors.Is(err, config.ErrNotFound))

	invalid := project(t, map[string]any{"server": map[string]any{"port": 99999}}, nil)
	_, _, err = execute(t, "--config", invalid, "tags")
	assert.True(t, errors.Is(err, config.ErrInvalidValue))
}

func TestServe_StopsOnCancel(t *testing.T) {
	a := &app{cfg: config.New()}
	a.logger, _ = newLogger(&bytes.Buffer{}, "text", false)
	a.cfg.Server.Host = "127.0.0.1"
	a.cfg.Server.Port = 0
	a.cfg.Templates.Dir = t.TempDir()
	a.cfg.Server.Watch = true
	a.cfg.Metrics.Enabled = true

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var stderr bytes.Buffer
	require.NoError(t, runServe(ctx, a, &stderr))
	assert.Contains(t, stderr.String(), "Serving")
}
