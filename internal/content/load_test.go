package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

func writeStore(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const streamsYAML = `- timestamp: 1650000000
  name: first
  vods:
    - url: https://youtu.be/one
  intro_musics: [zeta, alpha]
- timestamp: 1650100000
  background_playlists: [chill]
`

const musicYAML = `zeta:
  title: Zeta Song
  author: Someone
alpha:
  title: Alpha Song
  author: Someone Else
  url: https://example.com/alpha
middle:
  title: Middle
  author: Nobody
`

func TestLoadStreams_YAML(t *testing.T) {
	streams, err := LoadStreams(writeStore(t, t.TempDir(), "streams.yaml", streamsYAML))
	require.NoError(t, err)
	require.Len(t, streams, 2)

	assert.Equal(t, int64(1650000000), streams[0].Timestamp)
	assert.Equal(t, "first", streams[0].Name)
	assert.Equal(t, []Vod{{URL: "https://youtu.be/one"}}, streams[0].Vods)
	assert.Equal(t, []MusicKey{"zeta", "alpha"}, streams[0].IntroMusics)
	assert.Equal(t, []PlaylistKey{"chill"}, streams[1].BackgroundPlaylists)
}

func TestLoadStreams_JSONC(t *testing.T) {
	body := `[
  // oldest first
  {"timestamp": 1, "vods": [{"url": "a"}]},
  {"timestamp": 2,},
]`
	streams, err := LoadStreams(writeStore(t, t.TempDir(), "streams.jsonc", body))
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, int64(2), streams[1].Timestamp)
}

func TestLoadStreams_Empty(t *testing.T) {
	streams, err := LoadStreams(writeStore(t, t.TempDir(), "streams.yaml", ""))
	require.NoError(t, err)
	assert.NotNil(t, streams)
	assert.Zero(t, streams.Len())
}

func TestLoadStreams_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing_timestamp.yaml": "- name: nope\n",
		"type_mismatch.yaml":     "- timestamp: yesterday\n",
		"unknown_field.yaml":     "- timestamp: 5\n  title: nope\n",
		"syntax.json":            `[{"timestamp": 1}`,
		"vod_without_url.yaml":   "- timestamp: 5\n  vods: [{}]\n",
		"trailing.json":          `[{"timestamp": 1650000000}] {"oops": `,
		"broken_second_doc.yaml": "- timestamp: 1\n---\n- timestamp: [broken\n",
		"second_doc.yaml":        "- timestamp: 1\n---\n- timestamp: 2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadStreams(writeStore(t, dir, name, body))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "got %v", err)
		})
	}

	_, err := LoadStreams(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestLoadMusic_KeepsFileOrder(t *testing.T) {
	db, err := LoadMusic(writeStore(t, t.TempDir(), "music.yaml", musicYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "middle"}, db.Keys())
	assert.Equal(t, 3, db.Len())

	alpha, ok := db.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, Music{Title: "Alpha Song", Author: "Someone Else", URL: "https://example.com/alpha"}, alpha)

	entries := db.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "middle", entries[2].Key)

	assert.Nil(t, db.Lookup("missing"))
	require.NotNil(t, db.Lookup("zeta"))
	assert.Equal(t, "Zeta Song", db.Lookup("zeta").Title)
}

func TestLoadMusic_JSONKeepsFileOrder(t *testing.T) {
	body := `{
  "b": {"title": "B", "author": "x"},
  "a": {"title": "A", "author": "y"}, // trailing comma next
}`
	db, err := LoadMusic(writeStore(t, t.TempDir(), "music.jsonc", body))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, db.Keys())
}

func TestLoadMusic_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"dup.yaml":        "a:\n  title: A\n  author: x\na:\n  title: B\n  author: y\n",
		"dup.json":        `{"a": {"title": "A", "author": "x"}, "a": {"title": "B", "author": "y"}}`,
		"no_title.yaml":   "a:\n  author: x\n",
		"list.yaml":       "- title: A\n  author: x\n",
		"unknown.yaml":    "a:\n  title: A\n  author: x\n  year: 1999\n",
		"not_obj.json":    `["a"]`,
		"bad_type.json":   `{"a": {"title": 5, "author": "x"}}`,
		"trailing.json":   `{"a": {"title": "A", "author": "x"}} ]]]`,
		"second_doc.yaml": "a:\n  title: A\n  author: x\n---\nb: [broken\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMusic(writeStore(t, dir, name, body))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "got %v", err)
		})
	}
}

func TestLoad_Library(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "streams.yaml", streamsYAML)
	writeStore(t, dir, "music.yml", musicYAML)

	lib, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Streams.Len())
	assert.Equal(t, 3, lib.Music.Len())
	assert.Equal(t, 0, lib.Playlists.Len())

	writeStore(t, dir, "playlists.json", `{"chill": {"musics": ["alpha", "ghost"]}}`)
	lib, err = Load(dir)
	require.NoError(t, err)
	chill, ok := lib.Playlists.Get("chill")
	require.True(t, ok)
	assert.Equal(t, []MusicKey{"alpha", "ghost"}, chill.Musics)
}

func TestLoad_MissingStoreIsDistinct(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "streams.yaml", streamsYAML)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	writeStore(t, dir, "music.yaml", "a: [broken")
	_, err = Load(dir)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestStreamDBReversed(t *testing.T) {
	db := StreamDB{{Timestamp: 30}, {Timestamp: 10}, {Timestamp: 20}}
	rev := db.Reversed()

	// Order is reversed as stored, never sorted by timestamp.
	assert.Equal(t, []int64{20, 10, 30}, []int64{rev[0].Timestamp, rev[1].Timestamp, rev[2].Timestamp})
	assert.Equal(t, int64(30), db[0].Timestamp)
}

func TestNewTable(t *testing.T) {
	tbl, err := NewTable(Entry[Music]{Key: "x", Value: Music{Title: "X", Author: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	_, err = NewTable(Entry[Music]{Key: "x"}, Entry[Music]{Key: "x"})
	assert.Error(t, err)

	var nilTable *MusicDB
	assert.Equal(t, 0, nilTable.Len())
	assert.Nil(t, nilTable.Lookup("x"))
}
