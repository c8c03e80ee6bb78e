package content

import (
	"context"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apperr"
)

// Source declares one content origin: a directory of files in a single
// format, feeding a single logical kind. Declaration order within a kind is a
// priority list: earlier sources win id collisions.
type Source struct {
	Kind      Kind
	Format    Format
	Dir       *Dir
	Recursive bool
	Origin    string
}

// readConcurrency bounds parallel file reads during ListAll.
const readConcurrency = 8

// DefaultSources declares the site's content layout under root:
//
//	posts/*.md, posts/*.html            flat
//	notes/**/*.md, notes/**/*.html      recursive, dirs become implicit tags
//	pkm-pages/notes/*.html              secondary origin
//	pkm-pages/journals/*.html           secondary origin
//
// Markdown sources come before HTML sources of the same kind so that
// Markdown wins when both exist for an id.
func DefaultSources(root string) (map[Kind][]Source, error) {
	dir := func(sub string) (*Dir, error) {
		return NewDir(path.Join(root, sub))
	}

	posts, err := dir("posts")
	if err != nil {
		return nil, err
	}
	notes, err := dir("notes")
	if err != nil {
		return nil, err
	}
	pkmNotes, err := dir("pkm-pages/notes")
	if err != nil {
		return nil, err
	}
	pkmJournals, err := dir("pkm-pages/journals")
	if err != nil {
		return nil, err
	}

	return map[Kind][]Source{
		KindPost: {
			{Kind: KindPost, Format: FormatMarkdown, Dir: posts},
			{Kind: KindPost, Format: FormatHTML, Dir: posts},
		},
		KindNote: {
			{Kind: KindNote, Format: FormatMarkdown, Dir: notes, Recursive: true},
			{Kind: KindNote, Format: FormatHTML, Dir: notes, Recursive: true},
			{Kind: KindNote, Format: FormatHTML, Dir: pkmNotes, Origin: OriginPKM},
		},
		KindJournal: {
			{Kind: KindJournal, Format: FormatHTML, Dir: pkmJournals, Origin: OriginPKM},
		},
	}, nil
}

// Resolve looks an id up across sources in declaration order and returns the
// first entry found. Unreadable and malformed files fall through to the next
// source; apperr.ErrNotFound means no source had the id.
func Resolve(mode Mode, sources []Source, id string) (*Entry, error) {
	for _, src := range sources {
		entry, err := ReadEntry(mode, src, id)
		if err != nil {
			continue
		}
		return entry, nil
	}
	return nil, apperr.ErrNotFound
}

// ListAll enumerates every file of every source and reads them all, in
// declaration order. Individual files are read concurrently; order within
// the result is deterministic (source order, then sorted path order).
// Files that fail to read or parse are skipped.
func ListAll(ctx context.Context, mode Mode, sources []Source) ([]*Entry, error) {
	var out []*Entry
	for _, src := range sources {
		files, err := src.Dir.List(string(src.Format), src.Recursive)
		if err != nil {
			return nil, err
		}

		entries := make([]*Entry, len(files))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(readConcurrency)
		for i, file := range files {
			i, file := i, file
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				id := strings.TrimSuffix(file, path.Ext(file))
				entry, err := ReadEntry(mode, src, id)
				if err != nil {
					// Drafts and malformed files drop out of
					// listings without failing the build.
					return nil
				}
				entries[i] = entry
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, e := range entries {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
