// Package btree decodes b-tree pages and streams table rows in rowid order.
package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// Page type constants (first byte of page header)
const (
	PageTypeInteriorIndex = 0x02 // Interior index b-tree page
	PageTypeInteriorTable = 0x05 // Interior table b-tree page
	PageTypeLeafIndex     = 0x0a // Leaf index b-tree page
	PageTypeLeafTable     = 0x0d // Leaf table b-tree page
)

// Page type flags (bit flags in page type byte)
const (
	PTF_INTKEY   = 0x01 // True for table b-trees (integer key)
	PTF_ZERODATA = 0x02 // True for index b-trees (no data, only keys)
	PTF_LEAFDATA = 0x04 // True if data is stored in leaves
	PTF_LEAF     = 0x08 // True if this is a leaf page
)

// Page header offsets, relative to the start of the b-tree header
const (
	PageHeaderOffsetType       = 0 // Page type (1 byte)
	PageHeaderOffsetFreeblock  = 1 // First freeblock offset (2 bytes)
	PageHeaderOffsetNumCells   = 3 // Number of cells (2 bytes)
	PageHeaderOffsetCellStart  = 5 // Start of cell content area (2 bytes)
	PageHeaderOffsetFragmented = 7 // Fragmented free bytes (1 byte)
	PageHeaderOffsetRightChild = 8 // Right-most child pointer (4 bytes, interior only)
)

// Header sizes
const (
	PageHeaderSizeLeaf     = 8   // Leaf pages: 8 bytes
	PageHeaderSizeInterior = 12  // Interior pages: 12 bytes (includes right child pointer)
	FileHeaderSize         = 100 // Database file header on page 1
)

// PageHeader is the parsed header of a b-tree page. On page 1 the b-tree
// header begins after the 100-byte file header; all cell pointers remain
// relative to the start of the page.
type PageHeader struct {
	PageType         byte   // Page type (0x02, 0x05, 0x0a, 0x0d)
	FirstFreeblock   uint16 // Offset to first freeblock (0 if none)
	NumCells         uint16 // Number of cells on this page
	CellContentStart uint16 // Start of cell content area (0 means 65536)
	FragmentedBytes  byte   // Number of fragmented free bytes
	RightChild       uint32 // Right-most child page number (interior pages only)

	// Derived properties
	IsLeaf        bool // True if this is a leaf page
	IsInterior    bool // True if this is an interior page
	IsTable       bool // True if this is a table b-tree (intkey)
	IsIndex       bool // True if this is an index b-tree (blob key)
	HeaderSize    int  // Size of page header (8 or 12 bytes)
	CellPtrOffset int  // Offset where the cell pointer array starts
}

// ParsePageHeader parses the b-tree page header from a full page buffer.
// The page number determines whether the 100-byte file header is skipped
// and is attached to every error.
func ParsePageHeader(data []byte, pgno uint32) (*PageHeader, error) {
	offset := 0
	if pgno == 1 {
		offset = FileHeaderSize
	}

	if len(data) < offset+PageHeaderSizeLeaf {
		return nil, errors.NewCorrupt(pgno, int64(offset),
			"page too small for a b-tree header", nil)
	}

	pageType := data[offset+PageHeaderOffsetType]
	switch pageType {
	case PageTypeInteriorIndex, PageTypeInteriorTable, PageTypeLeafIndex, PageTypeLeafTable:
	default:
		return nil, errors.NewCorrupt(pgno, int64(offset),
			fmt.Sprintf("unknown page type 0x%02x", pageType), errors.ErrUnknownPageType)
	}

	h := &PageHeader{
		PageType:         pageType,
		FirstFreeblock:   binary.BigEndian.Uint16(data[offset+PageHeaderOffsetFreeblock:]),
		NumCells:         binary.BigEndian.Uint16(data[offset+PageHeaderOffsetNumCells:]),
		CellContentStart: binary.BigEndian.Uint16(data[offset+PageHeaderOffsetCellStart:]),
		FragmentedBytes:  data[offset+PageHeaderOffsetFragmented],
	}

	h.IsLeaf = (h.PageType & PTF_LEAF) != 0
	h.IsInterior = !h.IsLeaf
	h.IsTable = (h.PageType & PTF_INTKEY) != 0
	h.IsIndex = !h.IsTable

	if h.IsInterior {
		if len(data) < offset+PageHeaderSizeInterior {
			return nil, errors.NewCorrupt(pgno, int64(offset),
				"page too small for an interior b-tree header", nil)
		}
		h.RightChild = binary.BigEndian.Uint32(data[offset+PageHeaderOffsetRightChild:])
		h.HeaderSize = PageHeaderSizeInterior
	} else {
		h.HeaderSize = PageHeaderSizeLeaf
	}

	h.CellPtrOffset = offset + h.HeaderSize

	// The cell pointer array must fit on the page.
	if h.CellPtrOffset+2*int(h.NumCells) > len(data) {
		return nil, errors.NewCorrupt(pgno, int64(offset+PageHeaderOffsetNumCells),
			"cell pointer array extends past the end of the page", nil)
	}

	// The content area may not extend past the page. CellContentStart of 0
	// means 65536, which is only legal when the page itself is that large.
	if h.ContentStart() > len(data) {
		return nil, errors.NewCorrupt(pgno, int64(offset+PageHeaderOffsetCellStart),
			"cell content start past the end of the page", nil)
	}

	return h, nil
}

// ContentStart returns the effective cell content start, resolving the
// zero sentinel to 65536.
func (h *PageHeader) ContentStart() int {
	if h.CellContentStart == 0 {
		return 65536
	}
	return int(h.CellContentStart)
}

// CellPointer returns the page-relative offset of the i-th cell. The
// pointer must land between the end of the header and the end of the page.
func (h *PageHeader) CellPointer(data []byte, pgno uint32, i int) (int, error) {
	if i < 0 || i >= int(h.NumCells) {
		return 0, errors.NewCorrupt(pgno, -1, "cell index out of range", nil)
	}

	ptrOffset := h.CellPtrOffset + i*2
	ptr := int(binary.BigEndian.Uint16(data[ptrOffset:]))

	if ptr < h.CellPtrOffset || ptr >= len(data) {
		return 0, errors.NewCorrupt(pgno, int64(ptrOffset),
			"cell pointer outside the page content area", nil)
	}
	return ptr, nil
}

// CellPointers returns all cell pointers on the page, in array order.
func (h *PageHeader) CellPointers(data []byte, pgno uint32) ([]int, error) {
	pointers := make([]int, h.NumCells)
	for i := range pointers {
		ptr, err := h.CellPointer(data, pgno, i)
		if err != nil {
			return nil, err
		}
		pointers[i] = ptr
	}
	return pointers, nil
}

// TypeName returns a human-readable name for the page type.
func (h *PageHeader) TypeName() string {
	switch h.PageType {
	case PageTypeInteriorIndex:
		return "interior index"
	case PageTypeInteriorTable:
		return "interior table"
	case PageTypeLeafIndex:
		return "leaf index"
	case PageTypeLeafTable:
		return "leaf table"
	}
	return "unknown"
}
