package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/iamNilotpal/mediacat/internal/record"
)

// GetDirectoryListing returns the immediate subdirectories of dir alongside
// the entries directly contained in it, restricted to those whose MIME
// type starts with mimeFilter (an empty filter applies no restriction).
func (e *Engine) GetDirectoryListing(ctx context.Context, dir, mimeFilter string) ([]string, []*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, nil, err
	}

	subdirs := e.index.FindSubdirectories(dir)
	offsets := e.index.FindFilesInDirectory(dir)

	entries, err := e.readEntries(offsets)
	if err != nil {
		return nil, nil, err
	}
	if mimeFilter != "" {
		entries = filterByMime(entries, mimeFilter)
	}
	return subdirs, entries, nil
}

// GetFilesWithPathPrefix returns every entry whose canonical path starts
// with prefix, used for directory rename/delete support.
func (e *Engine) GetFilesWithPathPrefix(ctx context.Context, prefix string) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return e.readEntries(e.index.FindByPathPrefix(prefix))
}

// GetArtists, GetAlbums, GetGenres, and GetAlbumArtists return each
// categorical bucket's distinct values alongside how many entries carry
// them, sorted by name for stable display ordering.
func (e *Engine) GetArtists(ctx context.Context) ([]NameCount, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return toNameCounts(e.index.ArtistCounts()), nil
}

func (e *Engine) GetAlbums(ctx context.Context) ([]NameCount, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return toNameCounts(e.index.AlbumCounts()), nil
}

func (e *Engine) GetGenres(ctx context.Context) ([]NameCount, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return toNameCounts(e.index.GenreCounts()), nil
}

func (e *Engine) GetAlbumArtists(ctx context.Context) ([]NameCount, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return toNameCounts(e.index.AlbumArtistCounts()), nil
}

// GetYears returns every distinct release year alongside how many entries
// carry it, sorted ascending.
func (e *Engine) GetYears(ctx context.Context) ([]YearCount, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}

	counts := e.index.YearCounts()
	out := make([]YearCount, 0, len(counts))
	for year, count := range counts {
		out = append(out, YearCount{Year: year, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func (e *Engine) GetMusicByArtist(ctx context.Context, v string) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return e.readEntries(e.index.FindByArtist(v))
}

func (e *Engine) GetMusicByAlbum(ctx context.Context, v string) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return e.readEntries(e.index.FindByAlbum(v))
}

func (e *Engine) GetMusicByGenre(ctx context.Context, v string) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return e.readEntries(e.index.FindByGenre(v))
}

func (e *Engine) GetMusicByYear(ctx context.Context, y uint32) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return e.readEntries(e.index.FindByYear(y))
}

// GetMusicByAlbumAndArtist intersects the album and (track) artist buckets.
func (e *Engine) GetMusicByAlbumAndArtist(ctx context.Context, album, artist string) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	return e.readEntries(e.index.FindByAlbumAndArtist(album, artist))
}

func filterByMime(entries []*record.Entry, prefix string) []*record.Entry {
	out := entries[:0]
	for _, e := range entries {
		if strings.HasPrefix(e.MimeType, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func toNameCounts(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
