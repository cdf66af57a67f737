package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSite_Formats(t *testing.T) {
	dir := t.TempDir()
	want := Site{
		Twitch:  "https://twitch.tv/someone",
		YouTube: "https://youtube.com/@someone",
		Discord: "https://discord.gg/abc",
		BaseURL: "https://example.com",
	}

	cases := map[string]string{
		"config.yaml": `twitch: https://twitch.tv/someone
youtube: https://youtube.com/@someone
discord: https://discord.gg/abc
base_url: https://example.com/
`,
		"config.toml": `twitch = "https://twitch.tv/someone"
youtube = "https://youtube.com/@someone"
discord = "https://discord.gg/abc"
base_url = "https://example.com"
`,
		"config.jsonc": `{
  // profile links
  "twitch": "https://twitch.tv/someone",
  "youtube": "https://youtube.com/@someone",
  "discord": "https://discord.gg/abc",
  "base_url": "https://example.com",
}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			site, err := LoadSite(writeFile(t, dir, name, body))
			require.NoError(t, err)
			assert.Equal(t, want, *site)
		})
	}
}

func TestLoadSite_ExpandsEnv(t *testing.T) {
	t.Setenv("STREAMSITE_TEST_BASE", "https://env.example.com")
	path := writeFile(t, t.TempDir(), "config.yaml", "base_url: ${STREAMSITE_TEST_BASE}\n")

	site, err := LoadSite(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", site.BaseURL)
}

func TestLoadSite_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSite(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	_, err = LoadSite(writeFile(t, dir, "bad.yaml", "twitch: [unterminated\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = LoadSite(writeFile(t, dir, "nobase.yaml", "twitch: x\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = LoadSite(writeFile(t, dir, "unknown.yaml", "base_url: x\nmastodon: y\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestPathsValidate(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"templates", "data", "static"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o750))
	}
	p := Paths{
		Templates: filepath.Join(root, "templates"),
		Data:      filepath.Join(root, "data"),
		Static:    filepath.Join(root, "static"),
		Output:    filepath.Join(root, "dist"),
	}
	require.NoError(t, p.Validate())
	assert.Equal(t, DefaultPageSize, p.PageSize)

	nested := p
	nested.Output = root
	err := nested.Validate()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	inside := p
	inside.Output = filepath.Join(root, "static", "dist")
	err = inside.Validate()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	inData := p
	inData.Output = filepath.Join(root, "data", "out")
	require.Error(t, inData.Validate())

	sibling := p
	sibling.Output = filepath.Join(root, "static-dist")
	require.NoError(t, sibling.Validate())

	missing := p
	missing.Static = filepath.Join(root, "nope")
	err = missing.Validate()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/a", "/a"))
	assert.True(t, within("/a", "/a/b"))
	assert.False(t, within("/a/b", "/a"))
	assert.False(t, within("/a", "/ab"))
	assert.False(t, within("/a", "/..b"))
}
