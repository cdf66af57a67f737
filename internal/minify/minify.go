// Package minify adapts the tdewolff minifiers to the three asset kinds the
// build pipeline knows about.
package minify

import (
	"io"
	"path/filepath"
	"regexp"

	tdm "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// Kind identifies a minifiable asset format.
type Kind string

const (
	KindHTML Kind = "text/html"
	KindCSS  Kind = "text/css"
	KindJS   Kind = "application/javascript"
	// KindNone marks files that are copied unchanged.
	KindNone Kind = ""
)

// KindForPath classifies a file by its extension. Matching is exact, so
// "site.CSS" is copied unchanged.
func KindForPath(path string) Kind {
	switch filepath.Ext(path) {
	case ".html":
		return KindHTML
	case ".css":
		return KindCSS
	case ".js":
		return KindJS
	default:
		return KindNone
	}
}

// Minifier transforms a whole document or streams one from r to w.
type Minifier interface {
	Minify(kind Kind, src []byte) ([]byte, error)
	MinifyStream(kind Kind, w io.Writer, r io.Reader) error
}

// Default is the minifier configuration used for site output.
type Default struct {
	m *tdm.M
}

var scriptTypes = regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$")

// New returns a minifier that keeps HTML document structure and collapses
// whitespace, plus CSS and streaming JS.
func New() *Default {
	m := tdm.New()
	m.Add(string(KindHTML), &html.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
	m.Add(string(KindCSS), &css.Minifier{})
	m.AddFuncRegexp(scriptTypes, js.Minify)
	return &Default{m: m}
}

// Minify returns the minified form of src.
func (d *Default) Minify(kind Kind, src []byte) ([]byte, error) {
	return d.m.Bytes(string(kind), src)
}

// MinifyStream minifies r into w without materializing the output.
func (d *Default) MinifyStream(kind Kind, w io.Writer, r io.Reader) error {
	return d.m.Minify(string(kind), w, r)
}
