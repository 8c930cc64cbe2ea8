// Package record implements the fixed-schema binary codec for the on-disk
// representation of a MediaEntry. The format is deliberately not
// self-describing beyond the file-level magic/version carried in the index
// snapshot header — it is a closed schema, versioned by a full
// rewrite rather than field-by-field evolution, which lets Decode run in a
// single pass with no allocation for absent optional fields.
//
// Wire shape, all integers little-endian:
//
//	string := len:u32 bytes:[len]byte (UTF-8, no NUL terminator)
//	option<T> := tag:u8 (0) | tag:u8 (1) T
//	Entry := id:u64 path:string fileName:string size:u64 modifiedAtUnixNano:i64
// mimeType:string hasDuration:option<durationNanos:i64>
// hasMetadata:option<Metadata> createdAtUnixNano:i64 updatedAtUnixNano:i64
//	Metadata := title:string artist:string album:string genre:string
// trackNumber:u32 year:u32 albumArtist:string
//	Batch := (len:u32 Entry)*   (back-to-back frames, no count header)
package record

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Magic and Version identify the record schema in effect. A version bump is
// a full rewrite — there is no field-by-field migration path.
const (
	Magic uint32 = 0x4D454441 // "MEDA"
	Version uint16 = 1
)

const (
	tagAbsent byte = 0
	tagPresent byte = 1
)

// Metadata holds the optional descriptive fields of a MediaEntry.
type Metadata struct {
	Title string
	Artist string
	Album string
	Genre string
	TrackNumber uint32
	Year uint32
	AlbumArtist string
}

// Entry is the in-memory representation of a MediaEntry. Path is
// always the canonical form produced by pkg/pathnorm.
type Entry struct {
	ID uint64
	Path string
	FileName string
	Size uint64
	ModifiedAt time.Time
	MimeType string
	Duration *time.Duration
	Metadata *Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Encode serializes a single Entry in the package's wire shape.
func Encode(e *Entry) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("record: cannot encode nil entry")
	}

	size := 8 + // id
	strSize(e.Path) +
	strSize(e.FileName) +
	8 + // size
	8 + // modifiedAt
	strSize(e.MimeType) +
	1 + // duration tag
	1 + // metadata tag
	8 + 8 // createdAt, updatedAt

	if e.Duration != nil {
		size += 8
	}
	if e.Metadata != nil {
		size += metadataSize(e.Metadata)
	}

	buf := make([]byte, size)
	n := 0
	n = putUint64(buf, n, e.ID)
	n = putString(buf, n, e.Path)
	n = putString(buf, n, e.FileName)
	n = putUint64(buf, n, e.Size)
	n = putInt64(buf, n, e.ModifiedAt.UnixNano())
	n = putString(buf, n, e.MimeType)
	n = putOptionalDuration(buf, n, e.Duration)
	n = putOptionalMetadata(buf, n, e.Metadata)
	n = putInt64(buf, n, e.CreatedAt.UnixNano())
	n = putInt64(buf, n, e.UpdatedAt.UnixNano())

	if n != size {
		return nil, fmt.Errorf("record: internal encode size mismatch: wrote %d want %d", n, size)
	}
	return buf, nil
}

// Decode deserializes a single Entry, returning the number of bytes
// consumed alongside the entry so callers iterating a batch can advance.
func Decode(b []byte) (*Entry, int, error) {
	e := &Entry{}
	n := 0
	var err error

	if e.ID, n, err = getUint64(b, n); err != nil {
		return nil, 0, err
	}
	if e.Path, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if e.FileName, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if e.Size, n, err = getUint64(b, n); err != nil {
		return nil, 0, err
	}
	var modNanos int64
	if modNanos, n, err = getInt64(b, n); err != nil {
		return nil, 0, err
	}
	e.ModifiedAt = time.Unix(0, modNanos).UTC()
	if e.MimeType, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if e.Duration, n, err = getOptionalDuration(b, n); err != nil {
		return nil, 0, err
	}
	if e.Metadata, n, err = getOptionalMetadata(b, n); err != nil {
		return nil, 0, err
	}
	var createdNanos, updatedNanos int64
	if createdNanos, n, err = getInt64(b, n); err != nil {
		return nil, 0, err
	}
	e.CreatedAt = time.Unix(0, createdNanos).UTC()
	if updatedNanos, n, err = getInt64(b, n); err != nil {
		return nil, 0, err
	}
	e.UpdatedAt = time.Unix(0, updatedNanos).UTC()

	return e, n, nil
}

// EncodeBatch concatenates entries into the exact on-disk shape used by
// the data file: each record is individually framed as a u32 LE byte
// length followed by its Encode output, one after another with no
// overall header or count.
// The data file itself is simply many EncodeBatch calls' output appended
// back to back, so a single-record write and a thousand-record batch both
// produce bytes a scan can walk identically. It also returns, for each
// entry, the byte offset of that entry's frame relative to the start of
// buf, so a caller can add its own base append offset and hand each
// resulting absolute offset to the index manager.
func EncodeBatch(entries []*Entry) (buf []byte, relOffsets []uint32, err error) {
	encoded := make([][]byte, len(entries))
	relOffsets = make([]uint32, len(entries))
	total := 0
	for i, e := range entries {
		b, err := Encode(e)
		if err != nil {
			return nil, nil, fmt.Errorf("record: encoding entry %d: %w", i, err)
		}
		encoded[i] = b
		relOffsets[i] = uint32(total)
		total += 4 + len(b)
	}

	buf = make([]byte, total)
	n := 0
	for _, b := range encoded {
		binary.LittleEndian.PutUint32(buf[n:], uint32(len(b)))
		n += 4
		n += copy(buf[n:], b)
	}
	return buf, relOffsets, nil
}

// DecodeBatch walks a buffer of back-to-back EncodeBatch frames until it is
// exhausted, decoding every record, and fails on the first frame that does
// not decode. The engine's own data-file scans do not use it: startup uses
// DecodeBatchWithOffsets and index reconstruction walks frames with
// DecodeFrame.
func DecodeBatch(b []byte) ([]*Entry, error) {
	var entries []*Entry
	n := 0
	for n < len(b) {
		e, consumed, err := DecodeFrame(b[n:])
		if err != nil {
			return nil, fmt.Errorf("record: decoding frame at offset %d: %w", n, err)
		}
		entries = append(entries, e)
		n += consumed
	}
	return entries, nil
}

// DecodeBatchWithOffsets behaves like DecodeBatch but additionally returns
// each entry's byte offset relative to the start of b. Unlike DecodeBatch,
// it tolerates a crash-torn trailing write: rather than failing the whole
// scan, it stops at the first frame that won't decode and returns every
// entry parsed before it. It is used by engine startup to rebuild the
// categorical indexes from a full data-file scan, where a half-written
// last record must not prevent every prior record from being recovered.
func DecodeBatchWithOffsets(b []byte) (entries []*Entry, offsets []uint64) {
	n := 0
	for n < len(b) {
		e, consumed, err := DecodeFrame(b[n:])
		if err != nil {
			break
		}
		entries = append(entries, e)
		offsets = append(offsets, uint64(n))
		n += consumed
	}
	return entries, offsets
}

// DecodeFrame decodes a single u32-length-prefixed frame at the start of b,
// returning the entry and the total number of bytes the frame occupied
// (4 + the record's encoded length).
func DecodeFrame(b []byte) (*Entry, int, error) {
	length, _, err := getUint32(b, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("record: truncated frame length: %w", err)
	}
	if int(length)+4 > len(b) {
		return nil, 0, fmt.Errorf("record: truncated frame body: need %d have %d", length, len(b)-4)
	}

	e, consumed, err := Decode(b[4 : 4+length])
	if err != nil {
		return nil, 0, err
	}
	if consumed != int(length) {
		return nil, 0, fmt.Errorf("record: frame length %d did not match decoded entry size %d", length, consumed)
	}
	return e, 4 + consumed, nil
}

func strSize(s string) int { return 4 + len(s) }

func metadataSize(m *Metadata) int {
	return strSize(m.Title) + strSize(m.Artist) + strSize(m.Album) +
	strSize(m.Genre) + 4 + 4 + strSize(m.AlbumArtist)
}

func putUint64(buf []byte, n int, v uint64) int {
	binary.LittleEndian.PutUint64(buf[n:], v)
	return n + 8
}

func putInt64(buf []byte, n int, v int64) int {
	return putUint64(buf, n, uint64(v))
}

func putUint32(buf []byte, n int, v uint32) int {
	binary.LittleEndian.PutUint32(buf[n:], v)
	return n + 4
}

func putString(buf []byte, n int, s string) int {
	n = putUint32(buf, n, uint32(len(s)))
	n += copy(buf[n:], s)
	return n
}

func putOptionalDuration(buf []byte, n int, d *time.Duration) int {
	if d == nil {
		buf[n] = tagAbsent
		return n + 1
	}
	buf[n] = tagPresent
	n++
	return putInt64(buf, n, int64(*d))
}

func putOptionalMetadata(buf []byte, n int, m *Metadata) int {
	if m == nil {
		buf[n] = tagAbsent
		return n + 1
	}
	buf[n] = tagPresent
	n++
	n = putString(buf, n, m.Title)
	n = putString(buf, n, m.Artist)
	n = putString(buf, n, m.Album)
	n = putString(buf, n, m.Genre)
	n = putUint32(buf, n, m.TrackNumber)
	n = putUint32(buf, n, m.Year)
	n = putString(buf, n, m.AlbumArtist)
	return n
}

func getUint64(b []byte, n int) (uint64, int, error) {
	if n+8 > len(b) {
		return 0, 0, fmt.Errorf("record: truncated u64 at offset %d", n)
	}
	return binary.LittleEndian.Uint64(b[n:]), n + 8, nil
}

func getInt64(b []byte, n int) (int64, int, error) {
	v, n, err := getUint64(b, n)
	return int64(v), n, err
}

func getUint32(b []byte, n int) (uint32, int, error) {
	if n+4 > len(b) {
		return 0, 0, fmt.Errorf("record: truncated u32 at offset %d", n)
	}
	return binary.LittleEndian.Uint32(b[n:]), n + 4, nil
}

func getString(b []byte, n int) (string, int, error) {
	length, n, err := getUint32(b, n)
	if err != nil {
		return "", 0, err
	}
	end := n + int(length)
	if end > len(b) || end < n {
		return "", 0, fmt.Errorf("record: truncated string at offset %d (len %d)", n, length)
	}
	return string(b[n:end]), end, nil
}

func getOptionalDuration(b []byte, n int) (*time.Duration, int, error) {
	if n >= len(b) {
		return nil, 0, fmt.Errorf("record: truncated option tag at offset %d", n)
	}
	tag := b[n]
	n++
	if tag == tagAbsent {
		return nil, n, nil
	}
	nanos, n, err := getInt64(b, n)
	if err != nil {
		return nil, 0, err
	}
	d := time.Duration(nanos)
	return &d, n, nil
}

func getOptionalMetadata(b []byte, n int) (*Metadata, int, error) {
	if n >= len(b) {
		return nil, 0, fmt.Errorf("record: truncated option tag at offset %d", n)
	}
	tag := b[n]
	n++
	if tag == tagAbsent {
		return nil, n, nil
	}

	m := &Metadata{}
	var err error
	if m.Title, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if m.Artist, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if m.Album, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if m.Genre, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	if m.TrackNumber, n, err = getUint32(b, n); err != nil {
		return nil, 0, err
	}
	if m.Year, n, err = getUint32(b, n); err != nil {
		return nil, 0, err
	}
	if m.AlbumArtist, n, err = getString(b, n); err != nil {
		return nil, 0, err
	}
	return m, n, nil
}
