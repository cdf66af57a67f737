// Package content holds the read-only record stores a build renders from:
// the chronological stream list and the keyed music and playlist tables.
package content

import (
	"errors"
	"fmt"
	"time"
)

// MusicKey identifies a Music entry in the MusicDB.
type MusicKey = string

// PlaylistKey identifies a Playlist entry in the PlaylistDB.
type PlaylistKey = string

// Vod is a recording of a stream.
type Vod struct {
	URL string `yaml:"url" json:"url"`
}

// Stream is one broadcast. Music and playlist references are not required
// to resolve.
type Stream struct {
	Timestamp           int64         `yaml:"timestamp" json:"timestamp"`
	Name                string        `yaml:"name,omitempty" json:"name,omitempty"`
	Vods                []Vod         `yaml:"vods,omitempty" json:"vods,omitempty"`
	IntroMusics         []MusicKey    `yaml:"intro_musics,omitempty" json:"intro_musics,omitempty"`
	BackgroundPlaylists []PlaylistKey `yaml:"background_playlists,omitempty" json:"background_playlists,omitempty"`
}

// Time returns the stream start as a UTC time.
func (s Stream) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}

func (s Stream) validate() error {
	if s.Timestamp <= 0 {
		return errors.New("timestamp is required")
	}
	for i, v := range s.Vods {
		if v.URL == "" {
			return fmt.Errorf("vod %d: url is required", i)
		}
	}
	return nil
}

// Music describes a track that can be played on stream.
type Music struct {
	Title  string `yaml:"title" json:"title"`
	Author string `yaml:"author" json:"author"`
	URL    string `yaml:"url,omitempty" json:"url,omitempty"`
}

func (m Music) validate() error {
	switch {
	case m.Title == "":
		return errors.New("title is required")
	case m.Author == "":
		return errors.New("author is required")
	}
	return nil
}

// Playlist is a named list of tracks played in the background of a stream.
type Playlist struct {
	Musics []MusicKey `yaml:"musics,omitempty" json:"musics,omitempty"`
	URL    string     `yaml:"url,omitempty" json:"url,omitempty"`
}

func (Playlist) validate() error { return nil }

// StreamDB is the stream list in file order, which is chronological.
type StreamDB []Stream

// Reversed returns the streams most recent first. The order is derived by
// reversing the file order; timestamps are never compared.
func (db StreamDB) Reversed() StreamDB {
	out := make(StreamDB, len(db))
	for i, s := range db {
		out[len(db)-1-i] = s
	}
	return out
}

// Len returns the number of streams.
func (db StreamDB) Len() int { return len(db) }

// Entry is one key/value pair of a Table.
type Entry[V any] struct {
	Key   string
	Value V
}

// Table is a keyed record set that remembers the order entries were read in.
type Table[V any] struct {
	keys    []string
	entries map[string]V
}

// NewTable builds a table from entries, rejecting duplicate keys.
func NewTable[V any](entries ...Entry[V]) (*Table[V], error) {
	t := &Table[V]{entries: make(map[string]V, len(entries))}
	for _, e := range entries {
		if err := t.add(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table[V]) add(key string, v V) error {
	if t.entries == nil {
		t.entries = make(map[string]V)
	}
	if _, exists := t.entries[key]; exists {
		return fmt.Errorf("duplicate key %q", key)
	}
	t.keys = append(t.keys, key)
	t.entries[key] = v
	return nil
}

// Get returns the entry for key.
func (t *Table[V]) Get(key string) (V, bool) {
	if t == nil {
		var zero V
		return zero, false
	}
	v, ok := t.entries[key]
	return v, ok
}

// Lookup returns the entry for key or nil. Templates use it to skip
// references that do not resolve.
func (t *Table[V]) Lookup(key string) *V {
	if t == nil {
		return nil
	}
	v, ok := t.entries[key]
	if !ok {
		return nil
	}
	return &v
}

// Len returns the number of entries.
func (t *Table[V]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the keys in file order.
func (t *Table[V]) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Entries returns all entries in file order.
func (t *Table[V]) Entries() []Entry[V] {
	if t == nil {
		return nil
	}
	out := make([]Entry[V], 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, Entry[V]{Key: k, Value: t.entries[k]})
	}
	return out
}

// MusicDB maps MusicKey to Music.
type MusicDB = Table[Music]

// PlaylistDB maps PlaylistKey to Playlist.
type PlaylistDB = Table[Playlist]
