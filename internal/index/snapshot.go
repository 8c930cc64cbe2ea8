package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	natomic "github.com/natefinch/atomic"

	mcerrors "github.com/iamNilotpal/mediacat/pkg/errors"
)

const (
	snapshotMagic = "MEDIAIDX"
	snapshotVersion = uint32(1)
)

// Persist writes the byte-exact snapshot format — directory and artist
// indexes only — to path via a rename-swap so a crash mid-write never
// leaves a torn file behind.
func (m *Manager) Persist(path string) error {
	m.mu.RLock()
	gen := m.generation.Load()

	dirs := make(map[string][]uint64, m.dirTree.Len())
	m.dirTree.Ascend(func(e dirEntry) bool {
		dirs[e.Path] = append([]uint64(nil), m.filesByDir[e.Path]...)
		return true
	})

	artists := make(map[string][]uint64, len(m.byArtist))
	for k, v := range m.byArtist {
		artists[k] = append([]uint64(nil), v...)
	}
	m.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	writeU32(&buf, snapshotVersion)
	writeU64(&buf, gen)

	writeBucketSet(&buf, dirs)
	writeBucketSet(&buf, artists)

	if err := natomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "persist index snapshot").
		WithPath(path)
	}

	m.lastPersist.Store(time.Now().UnixNano())
	m.dirty.Store(0)
	return nil
}

// Load reads a snapshot written by Persist. A missing file is not an error.
// On magic/version mismatch it returns a snapshot-version IndexError, and on
// a malformed body an index-corruption IndexError; in either case nothing is
// applied to m, and the caller (engine.New) logs the error and rebuilds the
// index from a full data-file scan instead of treating it as fatal.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "read index snapshot").
		WithPath(path)
	}

	r := bytes.NewReader(data)
	magic := make([]byte, 8)
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != snapshotMagic {
		return mcerrors.NewSnapshotVersionError(path, 0)
	}

	version, err := readU32(r)
	if err != nil || version != snapshotVersion {
		return mcerrors.NewSnapshotVersionError(path, version)
	}

	gen, err := readU64(r)
	if err != nil {
		return mcerrors.NewIndexCorruptionError("load_snapshot", 0, err)
	}

	dirs, err := readBucketSet(r)
	if err != nil {
		return mcerrors.NewIndexCorruptionError("load_snapshot_directories", 0, err)
	}
	artists, err := readBucketSet(r)
	if err != nil {
		return mcerrors.NewIndexCorruptionError("load_snapshot_artists", 0, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for dir, offsets := range dirs {
		m.insertDirectoryChain(dir)
		m.filesByDir[dir] = offsets
	}
	for artist, offsets := range artists {
		m.byArtist[artist] = offsets
	}
	m.generation.Store(gen)
	return nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBucketSet(buf *bytes.Buffer, buckets map[string][]uint64) {
	writeU32(buf, uint32(len(buckets)))
	for path, offsets := range buckets {
		writeU32(buf, uint32(len(path)))
		buf.WriteString(path)
		writeU32(buf, uint32(len(offsets)))
		for _, off := range offsets {
			writeU64(buf, off)
		}
	}
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readBucketSet(r io.Reader) (map[string][]uint64, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]uint64, count)
	for i := uint32(0); i < count; i++ {
		pathLen, err := readU32(r)
		if err != nil {
			return nil, err
		}
		pathBytes := make([]byte, pathLen)
		if _, err := io.ReadFull(r, pathBytes); err != nil {
			return nil, err
		}

		offCount, err := readU32(r)
		if err != nil {
			return nil, err
		}
		offsets := make([]uint64, offCount)
		for j := uint32(0); j < offCount; j++ {
			off, err := readU64(r)
			if err != nil {
				return nil, fmt.Errorf("reading offset %d/%d for %q: %w", j, offCount, pathBytes, err)
			}
			offsets[j] = off
		}

		out[string(pathBytes)] = offsets
	}
	return out, nil
}
