// Package pager implements database file access: the 100-byte header and
// positional page reads. It is strictly read-only.
package pager

import (
	"encoding/binary"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// File format constants
const (
	// DatabaseHeaderSize is the size of the database file header (first 100 bytes).
	DatabaseHeaderSize = 100

	// MinPageSize is the minimum allowed page size (512 bytes).
	MinPageSize = 512

	// MaxPageSize is the maximum allowed page size (65536 bytes).
	MaxPageSize = 65536

	// MaxStoredPageSize is the largest page size representable directly in
	// the 16-bit header field; 65536 is stored as the sentinel 1 (or 0 in
	// pre-validation files).
	MaxStoredPageSize = 32768

	// MagicHeaderString is the magic header string for SQLite 3 database files.
	// Must be exactly 16 bytes including the null terminator.
	MagicHeaderString = "SQLite format 3\x00"
)

// Database header byte offsets
const (
	// OffsetMagic is the offset of the magic header string (16 bytes).
	OffsetMagic = 0

	// OffsetPageSize is the offset of the page size field (2 bytes, big-endian).
	// Values 0 and 1 both represent 65536 bytes.
	OffsetPageSize = 16

	// OffsetFileFormatWrite is the file format write version (1 byte).
	OffsetFileFormatWrite = 18

	// OffsetFileFormatRead is the file format read version (1 byte).
	OffsetFileFormatRead = 19

	// OffsetReservedSpace is the reserved space at end of each page (1 byte).
	OffsetReservedSpace = 20

	// OffsetMaxPayloadFrac is the maximum embedded payload fraction (1 byte).
	OffsetMaxPayloadFrac = 21

	// OffsetMinPayloadFrac is the minimum embedded payload fraction (1 byte).
	OffsetMinPayloadFrac = 22

	// OffsetLeafPayloadFrac is the leaf payload fraction (1 byte).
	OffsetLeafPayloadFrac = 23

	// OffsetFileChangeCounter is the file change counter (4 bytes, big-endian).
	OffsetFileChangeCounter = 24

	// OffsetDatabaseSize is the database size in pages (4 bytes, big-endian).
	OffsetDatabaseSize = 28

	// OffsetFreelistTrunk is the first freelist trunk page (4 bytes, big-endian).
	OffsetFreelistTrunk = 32

	// OffsetFreelistCount is the total number of freelist pages (4 bytes, big-endian).
	OffsetFreelistCount = 36

	// OffsetSchemaCookie is the schema cookie (4 bytes, big-endian).
	OffsetSchemaCookie = 40

	// OffsetSchemaFormat is the schema format number (4 bytes, big-endian).
	// Supported values: 1, 2, 3, 4.
	OffsetSchemaFormat = 44

	// OffsetDefaultCacheSize is the default page cache size (4 bytes, big-endian).
	OffsetDefaultCacheSize = 48

	// OffsetLargestRootPage is the largest root b-tree page (4 bytes, big-endian).
	// Only used for auto-vacuum and incremental-vacuum modes.
	OffsetLargestRootPage = 52

	// OffsetTextEncoding is the database text encoding (4 bytes, big-endian).
	// 1 = UTF-8, 2 = UTF-16le, 3 = UTF-16be
	OffsetTextEncoding = 56

	// OffsetUserVersion is the user version (4 bytes, big-endian).
	OffsetUserVersion = 60

	// OffsetIncrementalVacuum is the incremental vacuum mode (4 bytes, big-endian).
	OffsetIncrementalVacuum = 64

	// OffsetApplicationID is the application ID (4 bytes, big-endian).
	OffsetApplicationID = 68

	// OffsetReserved is the reserved space (20 bytes, must be zero).
	OffsetReserved = 72

	// OffsetVersionValidFor is the version-valid-for number (4 bytes, big-endian).
	OffsetVersionValidFor = 92

	// OffsetSQLiteVersion is the SQLite version number (4 bytes, big-endian).
	OffsetSQLiteVersion = 96
)

// Text encoding values
const (
	// EncodingUTF8 indicates UTF-8 text encoding.
	EncodingUTF8 = 1

	// EncodingUTF16LE indicates UTF-16 little-endian text encoding.
	EncodingUTF16LE = 2

	// EncodingUTF16BE indicates UTF-16 big-endian text encoding.
	EncodingUTF16BE = 3
)

// DatabaseHeader represents the 100-byte header at the beginning of every database file.
type DatabaseHeader struct {
	// Magic is the magic header string ("SQLite format 3\x00")
	Magic [16]byte

	// PageSize is the raw 16-bit page size field. 0 and 1 both represent
	// 65536; use GetPageSize for the effective size.
	PageSize uint16

	// FileFormatWrite is the file format write version (1 or 2).
	FileFormatWrite uint8

	// FileFormatRead is the file format read version (1 or 2).
	FileFormatRead uint8

	// ReservedSpace is the number of bytes of unused space at the end of each page.
	ReservedSpace uint8

	// MaxPayloadFrac is the maximum embedded payload fraction (must be 64).
	MaxPayloadFrac uint8

	// MinPayloadFrac is the minimum embedded payload fraction (must be 32).
	MinPayloadFrac uint8

	// LeafPayloadFrac is the leaf payload fraction (must be 32).
	LeafPayloadFrac uint8

	// FileChangeCounter is incremented whenever the database file is modified.
	FileChangeCounter uint32

	// DatabaseSize is the size of the database file in pages.
	DatabaseSize uint32

	// FreelistTrunk is the page number of the first freelist trunk page.
	FreelistTrunk uint32

	// FreelistCount is the total number of freelist pages.
	FreelistCount uint32

	// SchemaCookie is incremented whenever the database schema changes.
	SchemaCookie uint32

	// SchemaFormat is the schema format number (1, 2, 3, or 4).
	SchemaFormat uint32

	// DefaultCacheSize is the suggested cache size in pages.
	DefaultCacheSize uint32

	// LargestRootPage is the largest root b-tree page number (for auto-vacuum).
	LargestRootPage uint32

	// TextEncoding is the database text encoding (1=UTF-8, 2=UTF-16le, 3=UTF-16be).
	TextEncoding uint32

	// UserVersion is a user-defined version number.
	UserVersion uint32

	// IncrementalVacuum is non-zero if incremental vacuum is enabled.
	IncrementalVacuum uint32

	// ApplicationID is a user-defined application ID.
	ApplicationID uint32

	// Reserved is 20 bytes of reserved space.
	Reserved [20]byte

	// VersionValidFor is the version-valid-for number.
	VersionValidFor uint32

	// SQLiteVersion is the SQLite version number that wrote the database.
	SQLiteVersion uint32
}

// ParseDatabaseHeader parses the 100-byte database header from raw bytes.
// A shorter slice is a format violation, not a short read.
func ParseDatabaseHeader(data []byte) (*DatabaseHeader, error) {
	if len(data) < DatabaseHeaderSize {
		return nil, errors.NewCorrupt(0, -1,
			"file shorter than the 100-byte header", nil)
	}

	header := &DatabaseHeader{}

	copy(header.Magic[:], data[OffsetMagic:OffsetMagic+16])
	if string(header.Magic[:]) != MagicHeaderString {
		return nil, errors.NewCorrupt(0, OffsetMagic,
			"magic string mismatch", errors.ErrBadMagic)
	}

	header.PageSize = binary.BigEndian.Uint16(data[OffsetPageSize : OffsetPageSize+2])
	if !validRawPageSize(header.PageSize) {
		return nil, errors.NewCorrupt(0, OffsetPageSize,
			"page size must be a power of two in [512, 32768], or 0/1 for 65536", nil)
	}

	header.FileFormatWrite = data[OffsetFileFormatWrite]
	header.FileFormatRead = data[OffsetFileFormatRead]
	header.ReservedSpace = data[OffsetReservedSpace]
	header.MaxPayloadFrac = data[OffsetMaxPayloadFrac]
	header.MinPayloadFrac = data[OffsetMinPayloadFrac]
	header.LeafPayloadFrac = data[OffsetLeafPayloadFrac]

	header.FileChangeCounter = binary.BigEndian.Uint32(data[OffsetFileChangeCounter : OffsetFileChangeCounter+4])
	header.DatabaseSize = binary.BigEndian.Uint32(data[OffsetDatabaseSize : OffsetDatabaseSize+4])
	header.FreelistTrunk = binary.BigEndian.Uint32(data[OffsetFreelistTrunk : OffsetFreelistTrunk+4])
	header.FreelistCount = binary.BigEndian.Uint32(data[OffsetFreelistCount : OffsetFreelistCount+4])
	header.SchemaCookie = binary.BigEndian.Uint32(data[OffsetSchemaCookie : OffsetSchemaCookie+4])
	header.SchemaFormat = binary.BigEndian.Uint32(data[OffsetSchemaFormat : OffsetSchemaFormat+4])
	header.DefaultCacheSize = binary.BigEndian.Uint32(data[OffsetDefaultCacheSize : OffsetDefaultCacheSize+4])
	header.LargestRootPage = binary.BigEndian.Uint32(data[OffsetLargestRootPage : OffsetLargestRootPage+4])
	header.TextEncoding = binary.BigEndian.Uint32(data[OffsetTextEncoding : OffsetTextEncoding+4])
	header.UserVersion = binary.BigEndian.Uint32(data[OffsetUserVersion : OffsetUserVersion+4])
	header.IncrementalVacuum = binary.BigEndian.Uint32(data[OffsetIncrementalVacuum : OffsetIncrementalVacuum+4])
	header.ApplicationID = binary.BigEndian.Uint32(data[OffsetApplicationID : OffsetApplicationID+4])
	header.VersionValidFor = binary.BigEndian.Uint32(data[OffsetVersionValidFor : OffsetVersionValidFor+4])
	header.SQLiteVersion = binary.BigEndian.Uint32(data[OffsetSQLiteVersion : OffsetSQLiteVersion+4])

	copy(header.Reserved[:], data[OffsetReserved:OffsetReserved+20])

	return header, nil
}

// Serialize serializes the database header to 100 bytes. It exists for
// fixture construction; this reader never writes a database.
func (h *DatabaseHeader) Serialize() []byte {
	data := make([]byte, DatabaseHeaderSize)

	copy(data[OffsetMagic:], h.Magic[:])
	binary.BigEndian.PutUint16(data[OffsetPageSize:], h.PageSize)

	data[OffsetFileFormatWrite] = h.FileFormatWrite
	data[OffsetFileFormatRead] = h.FileFormatRead
	data[OffsetReservedSpace] = h.ReservedSpace
	data[OffsetMaxPayloadFrac] = h.MaxPayloadFrac
	data[OffsetMinPayloadFrac] = h.MinPayloadFrac
	data[OffsetLeafPayloadFrac] = h.LeafPayloadFrac

	binary.BigEndian.PutUint32(data[OffsetFileChangeCounter:], h.FileChangeCounter)
	binary.BigEndian.PutUint32(data[OffsetDatabaseSize:], h.DatabaseSize)
	binary.BigEndian.PutUint32(data[OffsetFreelistTrunk:], h.FreelistTrunk)
	binary.BigEndian.PutUint32(data[OffsetFreelistCount:], h.FreelistCount)
	binary.BigEndian.PutUint32(data[OffsetSchemaCookie:], h.SchemaCookie)
	binary.BigEndian.PutUint32(data[OffsetSchemaFormat:], h.SchemaFormat)
	binary.BigEndian.PutUint32(data[OffsetDefaultCacheSize:], h.DefaultCacheSize)
	binary.BigEndian.PutUint32(data[OffsetLargestRootPage:], h.LargestRootPage)
	binary.BigEndian.PutUint32(data[OffsetTextEncoding:], h.TextEncoding)
	binary.BigEndian.PutUint32(data[OffsetUserVersion:], h.UserVersion)
	binary.BigEndian.PutUint32(data[OffsetIncrementalVacuum:], h.IncrementalVacuum)
	binary.BigEndian.PutUint32(data[OffsetApplicationID:], h.ApplicationID)
	binary.BigEndian.PutUint32(data[OffsetVersionValidFor:], h.VersionValidFor)
	binary.BigEndian.PutUint32(data[OffsetSQLiteVersion:], h.SQLiteVersion)

	copy(data[OffsetReserved:], h.Reserved[:])

	return data
}

// NewDatabaseHeader creates a header with default values for the given page
// size. Like Serialize, it serves fixture construction only.
func NewDatabaseHeader(pageSize int) *DatabaseHeader {
	storedPageSize := uint16(pageSize)
	if pageSize == MaxPageSize {
		storedPageSize = 1
	}

	header := &DatabaseHeader{
		PageSize:        storedPageSize,
		FileFormatWrite: 1,
		FileFormatRead:  1,
		MaxPayloadFrac:  64,
		MinPayloadFrac:  32,
		LeafPayloadFrac: 32,
		SchemaFormat:    4,
		TextEncoding:    EncodingUTF8,
		SQLiteVersion:   3051020,
	}

	copy(header.Magic[:], MagicHeaderString)

	return header
}

// validRawPageSize reports whether a raw 16-bit page size field is legal:
// the sentinels 0 and 1 (both 65536), or a power of two in [512, 32768].
func validRawPageSize(raw uint16) bool {
	if raw == 0 || raw == 1 {
		return true
	}
	if raw < MinPageSize || raw > MaxStoredPageSize {
		return false
	}
	return raw&(raw-1) == 0
}

// GetPageSize returns the effective page size, resolving the 0/1 sentinels
// to 65536.
func (h *DatabaseHeader) GetPageSize() int {
	if h.PageSize == 0 || h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// UsableSize returns the bytes of each page available to the b-tree layer,
// after the per-page reserved region.
func (h *DatabaseHeader) UsableSize() int {
	return h.GetPageSize() - int(h.ReservedSpace)
}

// EncodingName returns a human-readable name for the text encoding field.
func (h *DatabaseHeader) EncodingName() string {
	switch h.TextEncoding {
	case EncodingUTF8:
		return "utf-8"
	case EncodingUTF16LE:
		return "utf-16le"
	case EncodingUTF16BE:
		return "utf-16be"
	}
	return "unknown"
}

// Validate performs validation checks beyond what ParseDatabaseHeader
// already enforces.
func (h *DatabaseHeader) Validate() error {
	if string(h.Magic[:]) != MagicHeaderString {
		return errors.NewCorrupt(0, OffsetMagic, "magic string mismatch", errors.ErrBadMagic)
	}

	if !validRawPageSize(h.PageSize) {
		return errors.NewCorrupt(0, OffsetPageSize,
			"page size must be a power of two in [512, 32768], or 0/1 for 65536", nil)
	}

	if h.FileFormatWrite != 1 && h.FileFormatWrite != 2 {
		return errors.NewCorrupt(0, OffsetFileFormatWrite,
			"file format write version must be 1 or 2", nil)
	}
	if h.FileFormatRead != 1 && h.FileFormatRead != 2 {
		return errors.NewCorrupt(0, OffsetFileFormatRead,
			"file format read version must be 1 or 2", nil)
	}

	if h.MaxPayloadFrac != 64 {
		return errors.NewCorrupt(0, OffsetMaxPayloadFrac,
			"max payload fraction must be 64", nil)
	}
	if h.MinPayloadFrac != 32 {
		return errors.NewCorrupt(0, OffsetMinPayloadFrac,
			"min payload fraction must be 32", nil)
	}
	if h.LeafPayloadFrac != 32 {
		return errors.NewCorrupt(0, OffsetLeafPayloadFrac,
			"leaf payload fraction must be 32", nil)
	}

	if h.SchemaFormat > 4 {
		return errors.NewCorrupt(0, OffsetSchemaFormat,
			"schema format must be 1 through 4", nil)
	}

	if h.TextEncoding < EncodingUTF8 || h.TextEncoding > EncodingUTF16BE {
		return errors.NewCorrupt(0, OffsetTextEncoding,
			"text encoding must be 1 (utf-8), 2 (utf-16le), or 3 (utf-16be)", nil)
	}

	// The usable page size may not drop below the format's floor.
	if h.UsableSize() < 480 {
		return errors.NewCorrupt(0, OffsetReservedSpace,
			"reserved space leaves fewer than 480 usable bytes per page", nil)
	}

	return nil
}
