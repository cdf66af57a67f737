package site

import (
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

// Digest hashes the tree under dir: every entry's slash-separated relative
// path followed by the file contents, in lexical walk order. Two passes over
// the same inputs yield the same digest.
func Digest(dir string) (string, error) {
	h := blake3.New()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			name += "/"
		}
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
		if d.IsDir() {
			return nil
		}

		// #nosec G304 -- path comes from walking the output directory
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		_, _ = h.Write([]byte{0})
		return nil
	})
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to hash output tree").
			WithContext("path", dir).
			Build()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
