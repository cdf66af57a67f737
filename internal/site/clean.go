package site

import (
	"errors"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
)

// cleanOutput empties dir but keeps the directory itself, so a file server
// rooted at it keeps working across passes. A missing directory is created.
func cleanOutput(dir string) error {
	st, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create output directory").
				WithContext("path", dir).
				Build()
		}
		return nil
	case err != nil:
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat output directory").
			WithContext("path", dir).
			Build()
	case !st.IsDir():
		return ferrors.FileSystemError("output path exists and is not a directory").
			WithContext("path", dir).
			Build()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to list output directory").
			WithContext("path", dir).
			Build()
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove stale output").
				WithContext("path", path).
				Build()
		}
	}
	return nil
}
