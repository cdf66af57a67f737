package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

// Store base names inside the data directory.
const (
	StreamsStore   = "streams"
	MusicStore     = "music"
	PlaylistsStore = "playlists"
)

// Extensions are tried in this order by Locate.
var Extensions = []string{".yaml", ".yml", ".json", ".jsonc"}

// Library bundles every store a build renders from.
type Library struct {
	Streams   StreamDB
	Music     *MusicDB
	Playlists *PlaylistDB
}

// Load reads all stores from dir. Streams and music are required; the
// playlist store is optional and empty when absent. Either everything loads
// or an error is returned.
func Load(dir string) (*Library, error) {
	streamsPath, err := requireStore(dir, StreamsStore)
	if err != nil {
		return nil, err
	}
	musicPath, err := requireStore(dir, MusicStore)
	if err != nil {
		return nil, err
	}

	streams, err := LoadStreams(streamsPath)
	if err != nil {
		return nil, err
	}
	music, err := LoadMusic(musicPath)
	if err != nil {
		return nil, err
	}

	playlists := &PlaylistDB{}
	if path, ok := Locate(dir, PlaylistsStore); ok {
		if playlists, err = LoadPlaylists(path); err != nil {
			return nil, err
		}
	}

	return &Library{Streams: streams, Music: music, Playlists: playlists}, nil
}

// Locate finds <base>.<ext> in dir for the first supported extension.
func Locate(dir, base string) (string, bool) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, base+ext)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, true
		}
	}
	return "", false
}

func requireStore(dir, base string) (string, error) {
	path, ok := Locate(dir, base)
	if !ok {
		return "", ferrors.NotFoundError(base + " store not found").
			WithContext("path", filepath.Join(dir, base+".{"+strings.Join(trimDots(Extensions), ",")+"}")).
			Build()
	}
	return path, nil
}

func trimDots(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}

// LoadStreams reads the stream list from path.
func LoadStreams(path string) (StreamDB, error) {
	data, err := readStore(path)
	if err != nil {
		return nil, err
	}

	var streams StreamDB
	switch format(path) {
	case formatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&streams); err != nil && !errors.Is(err, io.EOF) {
			return nil, malformed(path, err)
		}
		if err := expectYAMLEnd(dec); err != nil {
			return nil, malformed(path, err)
		}
	case formatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&streams); err != nil && !errors.Is(err, io.EOF) {
			return nil, malformed(path, err)
		}
		if err := expectJSONEnd(dec); err != nil {
			return nil, malformed(path, err)
		}
	default:
		return nil, unsupported(path)
	}

	for i, s := range streams {
		if err := s.validate(); err != nil {
			return nil, malformed(path, fmt.Errorf("stream %d: %w", i, err))
		}
	}
	if streams == nil {
		streams = StreamDB{}
	}
	return streams, nil
}

// LoadMusic reads the music table from path.
func LoadMusic(path string) (*MusicDB, error) {
	return loadTable[Music](path)
}

// LoadPlaylists reads the playlist table from path.
func LoadPlaylists(path string) (*PlaylistDB, error) {
	return loadTable[Playlist](path)
}

type validator interface {
	validate() error
}

func loadTable[V validator](path string) (*Table[V], error) {
	data, err := readStore(path)
	if err != nil {
		return nil, err
	}

	var table *Table[V]
	switch format(path) {
	case formatYAML:
		table, err = decodeYAMLTable[V](data)
	case formatJSON:
		table, err = decodeJSONTable[V](jsonc.ToJSON(data))
	default:
		return nil, unsupported(path)
	}
	if err != nil {
		return nil, malformed(path, err)
	}
	return table, nil
}

// decodeYAMLTable walks the top-level mapping node so file order is kept.
func decodeYAMLTable[V validator](data []byte) (*Table[V], error) {
	table := &Table[V]{}

	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return table, nil
		}
		return nil, err
	}
	if err := expectYAMLEnd(dec); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return table, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of keys to records", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: keys must be scalars", keyNode.Line)
		}
		v, err := decodeYAMLValue[V](valueNode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyNode.Value, err)
		}
		if err := table.add(keyNode.Value, v); err != nil {
			return nil, fmt.Errorf("line %d: %w", keyNode.Line, err)
		}
	}
	return table, nil
}

// decodeYAMLValue decodes one record strictly, rejecting unknown fields.
func decodeYAMLValue[V validator](node *yaml.Node) (V, error) {
	var v V
	raw, err := yaml.Marshal(node)
	if err != nil {
		return v, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("line %d: %w", node.Line, err)
	}
	if err := v.validate(); err != nil {
		return v, err
	}
	return v, nil
}

// decodeJSONTable streams object members so file order is kept.
func decodeJSONTable[V validator](data []byte) (*Table[V], error) {
	table := &Table[V]{}
	if len(bytes.TrimSpace(data)) == 0 {
		return table, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected an object of keys to records")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		var v V
		strict := json.NewDecoder(bytes.NewReader(raw))
		strict.DisallowUnknownFields()
		if err := strict.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if err := table.add(key, v); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if err := expectJSONEnd(dec); err != nil {
		return nil, err
	}
	return table, nil
}

// expectYAMLEnd fails unless dec holds no further document.
func expectYAMLEnd(dec *yaml.Decoder) error {
	var extra yaml.Node
	err := dec.Decode(&extra)
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("line %d: unexpected additional document", extra.Line)
	}
}

// expectJSONEnd fails unless dec has consumed all of its input.
func expectJSONEnd(dec *json.Decoder) error {
	_, err := dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("offset %d: unexpected data after top-level value", dec.InputOffset())
	}
}

type storeFormat int

const (
	formatUnknown storeFormat = iota
	formatYAML
	formatJSON
)

func format(path string) storeFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".json", ".jsonc":
		return formatJSON
	default:
		return formatUnknown
	}
}

func readStore(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.NotFoundError("content store not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read content store").
			WithContext("path", path).
			Build()
	}
	return data, nil
}

func malformed(path string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryConfig, "malformed content store").
		WithContext("path", path).
		Fatal().
		Build()
}

func unsupported(path string) error {
	return ferrors.ConfigError("unsupported content store format").
		WithContext("path", path).
		Build()
}
