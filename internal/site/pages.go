package site

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/streamsite/internal/content"
	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/minify"
)

// Template names and output locations of the generated pages.
const (
	IndexTemplate   = "index.html"
	ListingTemplate = "music.html"
	PagesDir        = "pages"
	// ListingSlug is reserved for the paginated stream listing.
	ListingSlug = "music"
	indexFile   = "index.html"
)

func renderIndex(bs *buildState) error {
	ctx := bs.base.With(KeyURL, bs.site.BaseURL)
	if err := bs.ensureFree(indexFile, IndexTemplate); err != nil {
		return err
	}
	out, err := bs.renderer.Render(IndexTemplate, ctx)
	if err != nil {
		return err
	}
	if _, err := bs.writePage(indexFile, out); err != nil {
		return err
	}
	bs.report.IndexPages++
	return nil
}

// renderCustomPages renders every template under <templates>/pages to
// <out>/<slug>/index.html, where the slug is the template's path below
// pages/ without its extension.
func renderCustomPages(ctx context.Context, bs *buildState) error {
	root := filepath.Join(bs.gen.paths.Templates, PagesDir)
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk pages directory").
				WithContext("path", p).
				Build()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !utf8.ValidString(rel) {
			return ferrors.TemplateError("page template path is not valid UTF-8").
				WithContext("path", p).
				Build()
		}

		if d.IsDir() {
			dir := filepath.Join(bs.gen.paths.Output, filepath.FromSlash(rel))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create page directory").
					WithContext("path", dir).
					Build()
			}
			return nil
		}

		slug := strings.TrimSuffix(rel, path.Ext(rel))
		name := PagesDir + "/" + rel
		if err := bs.claimSlug(slug, name); err != nil {
			return err
		}

		out, err := bs.renderer.Render(name, bs.base.With(KeyURL, bs.site.BaseURL+"/"+slug))
		if err != nil {
			return err
		}
		if _, err := bs.writePage(slug+"/"+indexFile, out); err != nil {
			return err
		}
		bs.report.CustomPages++
		bs.log.Debug("Rendered page", logfields.Slug(slug))
		return nil
	})
}

// claimSlug fails when slug is reserved, was already produced by another
// template, or its index file already exists in the output tree.
func (bs *buildState) claimSlug(slug, source string) error {
	if slug == ListingSlug || strings.HasPrefix(slug, ListingSlug+"/") {
		return ferrors.ValidationError("page slug is reserved for the stream listing").
			WithContext("slug", slug).
			WithContext("template", source).
			Build()
	}
	if prev, ok := bs.slugs[slug]; ok {
		return ferrors.ValidationError("two page templates produce the same slug").
			WithContext("slug", slug).
			WithContext("template", source).
			WithContext("previous", prev).
			Build()
	}
	if err := bs.ensureFree(slug+"/"+indexFile, source); err != nil {
		return err
	}
	bs.slugs[slug] = source
	return nil
}

// ensureFree fails when rel already exists in the output tree.
func (bs *buildState) ensureFree(rel, source string) error {
	target := filepath.Join(bs.gen.paths.Output, filepath.FromSlash(rel))
	_, err := os.Stat(target)
	switch {
	case err == nil:
		return ferrors.ValidationError("page collides with an existing output file").
			WithContext("path", target).
			WithContext("template", source).
			Build()
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat page output").
			WithContext("path", target).
			Build()
	}
}

// renderListing renders the streams most recent first, PageSize per page,
// to music/<n>/index.html and copies page 1 to music/index.html. No streams
// means no listing at all.
func renderListing(ctx context.Context, bs *buildState) error {
	chunks := paginate(bs.library.Streams.Reversed(), bs.gen.paths.PageSize)
	n := len(chunks)
	if n > 0 {
		if err := bs.ensureFree(path.Join(ListingSlug, indexFile), ListingTemplate); err != nil {
			return err
		}
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := i + 1
		rel := path.Join(ListingSlug, strconv.Itoa(page), indexFile)
		if err := bs.ensureFree(rel, ListingTemplate); err != nil {
			return err
		}
		pageCtx := bs.base.WithValues(map[string]any{
			KeyMusic:       bs.library.Music,
			KeyPlaylists:   bs.library.Playlists,
			KeyStreams:     chunk,
			KeyPage:        page,
			KeyPageCount:   n,
			KeyIsFirstPage: page == 1,
			KeyIsLastPage:  page == n,
		})
		out, err := bs.renderer.Render(ListingTemplate, pageCtx)
		if err != nil {
			return err
		}
		written, err := bs.writePage(rel, out)
		if err != nil {
			return err
		}
		if page == 1 {
			if err := bs.writeRaw(path.Join(ListingSlug, indexFile), written); err != nil {
				return err
			}
		}
		bs.report.ListingPages++
		bs.log.Debug("Rendered listing page", logfields.Page(page), logfields.Pages(n))
	}
	return nil
}

// paginate splits streams into consecutive chunks of at most size entries.
func paginate(streams content.StreamDB, size int) []content.StreamDB {
	if size <= 0 {
		size = 1
	}
	var out []content.StreamDB
	for start := 0; start < len(streams); start += size {
		end := min(start+size, len(streams))
		out = append(out, streams[start:end])
	}
	return out
}

// writePage minifies a rendered page and writes it below the output root.
// rel is slash-separated. The written bytes are returned.
func (bs *buildState) writePage(rel string, rendered []byte) ([]byte, error) {
	out, err := bs.gen.minifier.Minify(minify.KindHTML, rendered)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryMinify, "failed to minify page").
			WithContext("path", rel).
			Build()
	}
	if err := bs.writeRaw(rel, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (bs *buildState) writeRaw(rel string, data []byte) error {
	target := filepath.Join(bs.gen.paths.Output, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create page directory").
			WithContext("path", target).
			Build()
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write page").
			WithContext("path", target).
			Build()
	}
	bs.report.BytesWritten += int64(len(data))
	return nil
}
