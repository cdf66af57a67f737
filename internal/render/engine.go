// Package render loads the site's html/template set and executes named
// templates against an immutable Context.
package render

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

// Renderer executes a named template.
type Renderer interface {
	Render(name string, ctx Context) ([]byte, error)
}

// Engine is a Renderer backed by every template file under one root
// directory. Each template is registered under its slash-separated path
// relative to that root, so templates can include each other by path.
type Engine struct {
	set   *template.Template
	names []string
}

// Load parses every regular file under dir. Hidden files are skipped.
func Load(dir string) (*Engine, error) {
	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.NotFoundError("template directory not found").
				WithContext("path", dir).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat template directory").
			WithContext("path", dir).
			Build()
	}
	if !st.IsDir() {
		return nil, ferrors.ValidationError("template path is not a directory").
			WithContext("path", dir).
			Build()
	}

	set := template.New("").Funcs(Funcs()).Option("missingkey=error")
	e := &Engine{set: set}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !utf8.ValidString(name) {
			return ferrors.TemplateError("template path is not valid UTF-8").
				WithContext("path", path).
				Build()
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read template").
				WithContext("path", path).
				Build()
		}
		if _, err := set.New(name).Parse(string(src)); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to parse template").
				WithContext("template", name).
				Build()
		}
		e.names = append(e.names, name)
		return nil
	})
	if walkErr != nil {
		if ferrors.IsClassified(walkErr) {
			return nil, walkErr
		}
		return nil, ferrors.WrapError(walkErr, ferrors.CategoryFileSystem, "failed to walk template directory").
			WithContext("path", dir).
			Build()
	}

	sort.Strings(e.names)
	return e, nil
}

// Names lists the registered template names in lexical order.
func (e *Engine) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Has reports whether a template named name was loaded.
func (e *Engine) Has(name string) bool {
	return e.set.Lookup(name) != nil
}

// Render executes the template registered under name.
func (e *Engine) Render(name string, ctx Context) ([]byte, error) {
	if !e.Has(name) {
		return nil, ferrors.TemplateError("template not found").
			WithContext("template", name).
			Build()
	}
	var buf bytes.Buffer
	if err := e.set.ExecuteTemplate(&buf, name, ctx.Data()); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to render template").
			WithContext("template", name).
			Build()
	}
	return buf.Bytes(), nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// Funcs returns the helper functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date":     formatDate,
		"markdown": renderMarkdown,
	}
}

// formatDate formats a unix timestamp in UTC. The layout comes first so the
// helper reads naturally in a pipeline: {{ .Timestamp | date "2006-01-02" }}.
func formatDate(layout string, unix int64) string {
	return time.Unix(unix, 0).UTC().Format(layout)
}

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	// #nosec G203 -- goldmark escapes raw HTML unless the unsafe renderer option is set.
	return template.HTML(buf.String()), nil
}
