package config

import (
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

// DefaultPageSize is the number of streams shown on one listing page.
const DefaultPageSize = 8

// Paths describes where a build reads its inputs and writes its output.
type Paths struct {
	Templates string
	Data      string
	Static    string
	Output    string
	Config    string
	PageSize  int
}

// Defaults returns the directory layout used when no flags are given.
func Defaults() Paths {
	return Paths{
		Templates: "templates",
		Data:      "data",
		Static:    "static",
		Output:    "dist",
		Config:    "config.yaml",
		PageSize:  DefaultPageSize,
	}
}

// Validate checks that the source directories exist and that the output
// directory and the source directories do not nest in either direction.
func (p *Paths) Validate() error {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if strings.TrimSpace(p.Output) == "" {
		return ferrors.ValidationError("output directory is required").Build()
	}

	sources := map[string]string{
		"templates": p.Templates,
		"data":      p.Data,
		"static":    p.Static,
	}
	out, err := filepath.Abs(p.Output)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "resolve output directory").
			WithContext("path", p.Output).
			Build()
	}
	for name, dir := range sources {
		st, err := os.Stat(dir)
		if err != nil {
			return ferrors.NotFoundError(name + " directory not found").
				WithContext("path", dir).
				Build()
		}
		if !st.IsDir() {
			return ferrors.ValidationError(name + " path is not a directory").
				WithContext("path", dir).
				Build()
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if within(out, abs) {
			return ferrors.ValidationError("output directory must not contain the " + name + " directory").
				WithContext("path", p.Output).
				Build()
		}
		if within(abs, out) {
			return ferrors.ValidationError("output directory must not be inside the " + name + " directory").
				WithContext("path", p.Output).
				Build()
		}
	}
	return nil
}

// WatchDirs lists the directories whose changes trigger a rebuild in dev mode.
func (p Paths) WatchDirs() []string {
	return []string{p.Templates, p.Static, p.Data}
}

// within reports whether child is parent or lives below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
