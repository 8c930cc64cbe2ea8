// Package mediacat is the external interface contract: a thin façade over
// internal/engine.Engine that normalizes every native path argument to its
// canonical form at the boundary. DB re-exports every engine method with
// the same signature — callers never see internal/engine directly.
package mediacat

import (
	"context"

	"github.com/iamNilotpal/mediacat/internal/engine"
	"github.com/iamNilotpal/mediacat/internal/record"
	"github.com/iamNilotpal/mediacat/pkg/logger"
	"github.com/iamNilotpal/mediacat/pkg/options"
	"github.com/iamNilotpal/mediacat/pkg/pathnorm"
)

// DB is the primary entry point for interacting with the mediacat storage
// engine. It encapsulates the underlying engine and the options it was
// opened with.
type DB struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates and initializes a new DB instance for service, applying any
// provided functional options over the Balanced-profile defaults.
func Open(ctx context.Context, service string, opts ...options.OptionFunc) (*DB, error) {
	log := logger.New(service)

	resolved := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &resolved})
	if err != nil {
		return nil, err
	}
	return &DB{engine: eng, options: &resolved}, nil
}

// BulkStore canonicalizes every entry's path and stores the batch.
func (db *DB) BulkStore(ctx context.Context, entries []*record.Entry) ([]uint64, error) {
	if err := canonicalizeEntries(entries); err != nil {
		return nil, err
	}
	return db.engine.BulkStore(ctx, entries)
}

// BulkUpdate canonicalizes every entry's path and re-appends the batch.
func (db *DB) BulkUpdate(ctx context.Context, entries []*record.Entry) error {
	if err := canonicalizeEntries(entries); err != nil {
		return err
	}
	return db.engine.BulkUpdate(ctx, entries)
}

// BulkRemove canonicalizes every path and removes the batch.
func (db *DB) BulkRemove(ctx context.Context, paths []string) (int, error) {
	canonical, err := canonicalizePaths(paths)
	if err != nil {
		return 0, err
	}
	return db.engine.BulkRemove(ctx, canonical)
}

// BulkGetByPaths canonicalizes every path and resolves the batch.
func (db *DB) BulkGetByPaths(ctx context.Context, paths []string) ([]*record.Entry, error) {
	canonical, err := canonicalizePaths(paths)
	if err != nil {
		return nil, err
	}
	return db.engine.BulkGetByPaths(ctx, canonical)
}

// GetByID resolves an entry by its numeric id; no path to normalize.
func (db *DB) GetByID(ctx context.Context, id uint64) (*record.Entry, error) {
	return db.engine.GetByID(ctx, id)
}

// GetByPath canonicalizes p and resolves the matching entry.
func (db *DB) GetByPath(ctx context.Context, p string) (*record.Entry, error) {
	canonical, err := pathnorm.ToCanonical(p)
	if err != nil {
		return nil, err
	}
	return db.engine.GetByPath(ctx, canonical)
}

// GetDirectoryListing canonicalizes dir and returns its immediate
// subdirectories and contained entries, filtered by MIME prefix.
func (db *DB) GetDirectoryListing(ctx context.Context, dir, mimeFilter string) ([]string, []*record.Entry, error) {
	canonical, err := pathnorm.ToCanonical(dir)
	if err != nil {
		return nil, nil, err
	}
	return db.engine.GetDirectoryListing(ctx, canonical, mimeFilter)
}

// GetFilesWithPathPrefix canonicalizes prefix and returns every entry under it.
func (db *DB) GetFilesWithPathPrefix(ctx context.Context, prefix string) ([]*record.Entry, error) {
	canonical, err := pathnorm.ToCanonical(prefix)
	if err != nil {
		return nil, err
	}
	return db.engine.GetFilesWithPathPrefix(ctx, canonical)
}

func (db *DB) GetArtists(ctx context.Context) ([]engine.NameCount, error) { return db.engine.GetArtists(ctx) }
func (db *DB) GetAlbums(ctx context.Context) ([]engine.NameCount, error)  { return db.engine.GetAlbums(ctx) }
func (db *DB) GetGenres(ctx context.Context) ([]engine.NameCount, error)  { return db.engine.GetGenres(ctx) }
func (db *DB) GetYears(ctx context.Context) ([]engine.YearCount, error)   { return db.engine.GetYears(ctx) }
func (db *DB) GetAlbumArtists(ctx context.Context) ([]engine.NameCount, error) {
	return db.engine.GetAlbumArtists(ctx)
}

func (db *DB) GetMusicByArtist(ctx context.Context, v string) ([]*record.Entry, error) {
	return db.engine.GetMusicByArtist(ctx, v)
}
func (db *DB) GetMusicByAlbum(ctx context.Context, v string) ([]*record.Entry, error) {
	return db.engine.GetMusicByAlbum(ctx, v)
}
func (db *DB) GetMusicByGenre(ctx context.Context, v string) ([]*record.Entry, error) {
	return db.engine.GetMusicByGenre(ctx, v)
}
func (db *DB) GetMusicByYear(ctx context.Context, y uint32) ([]*record.Entry, error) {
	return db.engine.GetMusicByYear(ctx, y)
}
func (db *DB) GetMusicByAlbumAndArtist(ctx context.Context, album, artist string) ([]*record.Entry, error) {
	return db.engine.GetMusicByAlbumAndArtist(ctx, album, artist)
}

// Vacuum rewrites the data region with only live records.
func (db *DB) Vacuum(ctx context.Context) error { return db.engine.Vacuum(ctx) }

// CheckAndRepair validates and repairs the data file and index.
func (db *DB) CheckAndRepair(ctx context.Context) (engine.Health, error) {
	return db.engine.CheckAndRepair(ctx)
}

// Stats returns the engine-wide statistics snapshot.
func (db *DB) Stats() engine.Stats { return db.engine.Stats() }

// Close gracefully shuts down the DB instance, persisting the index
// snapshot and releasing the data file.
func (db *DB) Close() error { return db.engine.Close() }

func canonicalizeEntries(entries []*record.Entry) error {
	for _, e := range entries {
		canonical, err := pathnorm.ToCanonical(e.Path)
		if err != nil {
			return err
		}
		e.Path = canonical
	}
	return nil
}

func canonicalizePaths(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		canonical, err := pathnorm.ToCanonical(p)
		if err != nil {
			return nil, err
		}
		out[i] = canonical
	}
	return out, nil
}
