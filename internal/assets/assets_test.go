package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/minify"
)

func writeFile(t *testing.T, root, rel, body string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), perm))
	require.NoError(t, os.Chmod(path, perm))
}

func TestProcess_MirrorsTree(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "css/site.css", "body {\n  color: red;\n}\n", 0o644)
	writeFile(t, src, "css/LOUD.CSS", "body {\n  color: red;\n}\n", 0o644)
	writeFile(t, src, "js/app.js", "function add(a, b) {\n  return a + b;\n}\n", 0o644)
	writeFile(t, src, "about/page.html", "<html>\n  <body>\n    <p>hi</p>\n  </body>\n</html>\n", 0o644)
	writeFile(t, src, "img/logo.png", "\x89PNG\x00binary", 0o600)
	writeFile(t, src, "robots", "User-agent: *\n", 0o644)
	writeFile(t, src, ".well-known/security.txt", "Contact: x\n", 0o644)
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o750))

	res, err := Process(context.Background(), src, dst, minify.New())
	require.NoError(t, err)

	assert.Equal(t, 7, res.Files)
	assert.Equal(t, 3, res.Minified)
	assert.Equal(t, 4, res.Copied)
	assert.Equal(t, 6, res.Dirs)
	assert.Positive(t, res.Bytes)

	for _, rel := range []string{"css/site.css", "css/LOUD.CSS", "js/app.js", "about/page.html", "img/logo.png", "robots", ".well-known/security.txt"} {
		assert.FileExists(t, filepath.Join(dst, filepath.FromSlash(rel)))
	}
	assert.DirExists(t, filepath.Join(dst, "empty"))

	png, err := os.ReadFile(filepath.Join(dst, "img", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\x00binary", string(png))
	st, err := os.Stat(filepath.Join(dst, "img", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	css, err := os.ReadFile(filepath.Join(dst, "css", "site.css"))
	require.NoError(t, err)
	assert.NotContains(t, string(css), "\n")

	loud, err := os.ReadFile(filepath.Join(dst, "css", "LOUD.CSS"))
	require.NoError(t, err)
	assert.Equal(t, "body {\n  color: red;\n}\n", string(loud))

	js, err := os.ReadFile(filepath.Join(dst, "js", "app.js"))
	require.NoError(t, err)
	want, err := minify.New().Minify(minify.KindJS, []byte("function add(a, b) {\n  return a + b;\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(js))
	assert.NotContains(t, string(js), "\n")
}

func TestProcess_MinifiedOutputIsStable(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.css", "p {  margin : 0 ; }\n", 0o644)
	writeFile(t, src, "b.html", "<p>  one   two  </p>\n", 0o644)

	first, second := t.TempDir(), t.TempDir()
	_, err := Process(context.Background(), src, first, minify.New())
	require.NoError(t, err)
	// Feeding the output back in must not change it again.
	_, err = Process(context.Background(), first, second, minify.New())
	require.NoError(t, err)

	for _, name := range []string{"a.css", "b.html"} {
		a, err := os.ReadFile(filepath.Join(first, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}
}

type failingMinifier struct{}

func (failingMinifier) Minify(minify.Kind, []byte) ([]byte, error) {
	return nil, errors.New("boom")
}

func (failingMinifier) MinifyStream(_ minify.Kind, _ io.Writer, _ io.Reader) error {
	return errors.New("boom")
}

func TestProcess_FailureCarriesPathAndStage(t *testing.T) {
	for _, name := range []string{"x.css", "x.js"} {
		t.Run(name, func(t *testing.T) {
			src := t.TempDir()
			writeFile(t, src, name, "body{}", 0o644)

			_, err := Process(context.Background(), src, t.TempDir(), failingMinifier{})
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryMinify))

			stage, _ := ferrors.ContextString(err, "stage")
			assert.Equal(t, StageMinify, stage)
			path, _ := ferrors.ContextString(err, "path")
			assert.Equal(t, filepath.Join(src, name), path)
		})
	}
}

func TestProcess_MissingSource(t *testing.T) {
	_, err := Process(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), minify.New())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestProcess_Canceled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.txt", "a", 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Process(ctx, src, t.TempDir(), minify.New())
	assert.ErrorIs(t, err, context.Canceled)
}
