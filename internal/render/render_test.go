package render

import (
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

func writeTemplate(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestContext_DerivedCopiesDoNotLeak(t *testing.T) {
	base := NewContext(map[string]any{"base_url": "https://x.test"})

	page := base.With("url", "https://x.test/about")
	listing := base.WithValues(map[string]any{"page": 2, "base_url": "override"})

	_, ok := base.Value("url")
	assert.False(t, ok, "base context must not see page keys")
	v, _ := base.Value("base_url")
	assert.Equal(t, "https://x.test", v)

	v, _ = page.Value("url")
	assert.Equal(t, "https://x.test/about", v)
	v, _ = listing.Value("base_url")
	assert.Equal(t, "override", v)
	assert.Equal(t, 2, listing.Len())

	data := page.Data()
	data["url"] = "mutated"
	v, _ = page.Value("url")
	assert.Equal(t, "https://x.test/about", v)
}

func TestContext_ZeroValue(t *testing.T) {
	var c Context
	assert.NotNil(t, c.Data())
	assert.Equal(t, 1, c.With("a", 1).Len())
}

func TestEngine_RenderByRelativePath(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "index.html", `{{ template "partials/head.html" . }}<a href="{{ .url }}">{{ .twitch }}</a>{{ .dev }}`)
	writeTemplate(t, root, "partials/head.html", `<title>{{ .base_url }}</title>`)
	writeTemplate(t, root, "pages/foo/bar.html", `bar at {{ .url }}`)
	writeTemplate(t, root, ".hidden/skip.html", `{{ broken`)
	writeTemplate(t, root, ".swp", `{{ broken`)

	e, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "pages/foo/bar.html", "partials/head.html"}, e.Names())
	assert.True(t, e.Has("pages/foo/bar.html"))
	assert.False(t, e.Has(".swp"))

	ctx := NewContext(map[string]any{
		"base_url": "https://x.test",
		"twitch":   "chan",
		"dev":      template.HTML("<script>1</script>"),
	}).With("url", "https://x.test")

	out, err := e.Render("index.html", ctx)
	require.NoError(t, err)
	assert.Equal(t, `<title>https://x.test</title><a href="https://x.test">chan</a><script>1</script>`, string(out))

	out, err = e.Render("pages/foo/bar.html", ctx.With("url", "https://x.test/foo/bar"))
	require.NoError(t, err)
	assert.Equal(t, "bar at https://x.test/foo/bar", string(out))
}

func TestEngine_Errors(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "index.html", `{{ .missing }}`)

	e, err := Load(root)
	require.NoError(t, err)

	_, err = e.Render("index.html", NewContext(nil))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))

	_, err = e.Render("nope.html", NewContext(nil))
	require.Error(t, err)
	tpl, _ := ferrors.ContextString(err, "template")
	assert.Equal(t, "nope.html", tpl)

	writeTemplate(t, root, "broken.html", `{{ if }}`)
	_, err = Load(root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))

	_, err = Load(filepath.Join(root, "absent"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestFuncs(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "f.html", `{{ .ts | date "2006-01-02 15:04" }}|{{ markdown .body }}`)

	e, err := Load(root)
	require.NoError(t, err)

	out, err := e.Render("f.html", NewContext(map[string]any{
		"ts":   int64(1650000000),
		"body": "*hi* <b>raw</b>",
	}))
	require.NoError(t, err)
	assert.Contains(t, string(out), "2022-04-15 05:20|")
	assert.Contains(t, string(out), "<em>hi</em>")
	assert.NotContains(t, string(out), "<b>raw</b>")
}
