// Package assets mirrors the static source tree into the output root,
// minifying HTML, CSS and JS on the way.
package assets

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/minify"
)

// Failure stages recorded in the "stage" context key of asset errors.
const (
	StageRead   = "read"
	StageMinify = "minify"
	StageWrite  = "write"
)

// Result summarizes one pass over the static tree.
type Result struct {
	Dirs     int
	Files    int
	Minified int
	Copied   int
	Bytes    int64
}

// Process walks src in lexical pre-order and reproduces it under dst. The
// destination path of every entry is its unchanged source-relative path.
// The first failing file aborts the walk.
func Process(ctx context.Context, src, dst string, m minify.Minifier) (Result, error) {
	var res Result

	st, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, ferrors.NotFoundError("static directory not found").
				WithContext("path", src).
				Build()
		}
		return res, assetError(err, src, StageRead)
	}
	if !st.IsDir() {
		return res, ferrors.ValidationError("static path is not a directory").
			WithContext("path", src).
			Build()
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return assetError(walkErr, path, StageRead)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return assetError(err, path, StageRead)
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return assetError(err, target, StageWrite)
			}
			if rel != "." {
				res.Dirs++
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return assetError(err, path, StageRead)
		}

		var n int64
		switch kind := minify.KindForPath(path); kind {
		case minify.KindJS:
			n, err = streamFile(m, kind, path, target, info.Mode().Perm())
			res.Minified++
		case minify.KindHTML, minify.KindCSS:
			n, err = minifyFile(m, kind, path, target, info.Mode().Perm())
			res.Minified++
		default:
			n, err = copyFile(path, target, info.Mode().Perm())
			res.Copied++
		}
		if err != nil {
			return err
		}
		res.Files++
		res.Bytes += n
		slog.Debug("Processed asset", logfields.Path(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return res, err
	}
	return res, nil
}

func minifyFile(m minify.Minifier, kind minify.Kind, src, dst string, perm fs.FileMode) (int64, error) {
	// #nosec G304 -- src comes from walking the configured static directory
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, assetError(err, src, StageRead)
	}
	out, err := m.Minify(kind, data)
	if err != nil {
		return 0, assetError(err, src, StageMinify)
	}
	if err := os.WriteFile(dst, out, perm); err != nil {
		return 0, assetError(err, dst, StageWrite)
	}
	return int64(len(out)), nil
}

// streamFile minifies src straight into dst without buffering the whole
// output.
func streamFile(m minify.Minifier, kind minify.Kind, src, dst string, perm fs.FileMode) (int64, error) {
	// #nosec G304 -- src comes from walking the configured static directory
	in, err := os.Open(src)
	if err != nil {
		return 0, assetError(err, src, StageRead)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, assetError(err, dst, StageWrite)
	}

	w := &countingWriter{w: out}
	r := &trackingReader{r: in}
	if err := m.MinifyStream(kind, w, r); err != nil {
		_ = out.Close()
		switch {
		case w.err != nil:
			return 0, assetError(w.err, dst, StageWrite)
		case r.err != nil:
			return 0, assetError(r.err, src, StageRead)
		default:
			return 0, assetError(err, src, StageMinify)
		}
	}
	if err := out.Close(); err != nil {
		return 0, assetError(err, dst, StageWrite)
	}
	return w.n, nil
}

func copyFile(src, dst string, perm fs.FileMode) (int64, error) {
	// #nosec G304 -- src comes from walking the configured static directory
	in, err := os.Open(src)
	if err != nil {
		return 0, assetError(err, src, StageRead)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, assetError(err, dst, StageWrite)
	}
	w := &countingWriter{w: out}
	r := &trackingReader{r: in}
	if _, err := io.Copy(w, r); err != nil {
		_ = out.Close()
		if r.err != nil {
			return 0, assetError(r.err, src, StageRead)
		}
		return 0, assetError(err, dst, StageWrite)
	}
	if err := out.Close(); err != nil {
		return 0, assetError(err, dst, StageWrite)
	}
	// OpenFile applies the umask; keep the source permissions exactly.
	if err := os.Chmod(dst, perm); err != nil {
		return 0, assetError(err, dst, StageWrite)
	}
	return w.n, nil
}

func assetError(err error, path, stage string) error {
	category := ferrors.CategoryFileSystem
	if stage == StageMinify {
		category = ferrors.CategoryMinify
	}
	return ferrors.WrapError(err, category, "failed to process asset").
		WithContext("path", path).
		WithContext("stage", stage).
		Build()
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		c.err = err
	}
	return n, err
}

type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

