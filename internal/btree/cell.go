package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/tamarack/core/errors"
	"github.com/FocuswithJustin/tamarack/internal/varint"
)

// TableLeafCell is a parsed table b-tree leaf cell.
// Format: varint(payload_size), varint(rowid), payload.
type TableLeafCell struct {
	Rowid       int64  // Integer key
	Payload     []byte // Record payload, viewed into the page buffer
	PayloadSize uint64 // Declared payload size
	Size        int    // Total bytes the cell occupies on the page
}

// TableInteriorCell is a parsed table b-tree interior cell.
// Format: 4-byte big-endian child page number, varint(rowid).
type TableInteriorCell struct {
	ChildPage uint32 // Left child page number
	Rowid     int64  // Key separating this child from the next
	Size      int    // Total bytes the cell occupies on the page
}

// tableLeafMaxLocal returns the largest payload a table leaf cell stores
// without spilling to overflow pages.
func tableLeafMaxLocal(usable int) int {
	return usable - 35
}

// ParseTableLeafCell parses a table leaf cell starting at cellData, which
// runs from the cell pointer to the end of the page. Payloads that spill
// to overflow pages are refused rather than truncated.
func ParseTableLeafCell(cellData []byte, usable int, pgno uint32, cellOffset int) (*TableLeafCell, error) {
	payloadSize, n, err := varint.Get(cellData)
	if err != nil {
		return nil, errors.NewCorrupt(pgno, int64(cellOffset), "cell payload length", err)
	}
	offset := n

	rowid, n, err := varint.Get(cellData[offset:])
	if err != nil {
		return nil, errors.NewCorrupt(pgno, int64(cellOffset+offset), "cell rowid", err)
	}
	offset += n

	if payloadSize > uint64(tableLeafMaxLocal(usable)) {
		return nil, errors.NewUnsupported("overflow pages",
			fmt.Sprintf("page %d holds a %d-byte payload that spills to overflow pages", pgno, payloadSize))
	}

	if uint64(offset)+payloadSize > uint64(len(cellData)) {
		return nil, errors.NewCorrupt(pgno, int64(cellOffset+offset),
			"cell payload extends past the end of the page", nil)
	}

	return &TableLeafCell{
		Rowid:       int64(rowid),
		Payload:     cellData[offset : offset+int(payloadSize)],
		PayloadSize: payloadSize,
		Size:        offset + int(payloadSize),
	}, nil
}

// ParseTableInteriorCell parses a table interior cell starting at cellData.
func ParseTableInteriorCell(cellData []byte, pgno uint32, cellOffset int) (*TableInteriorCell, error) {
	if len(cellData) < 4 {
		return nil, errors.NewCorrupt(pgno, int64(cellOffset),
			"interior cell too small for a child pointer", nil)
	}

	childPage := binary.BigEndian.Uint32(cellData[:4])
	if childPage == 0 {
		return nil, errors.NewCorrupt(pgno, int64(cellOffset),
			"interior cell child page number is zero", nil)
	}

	rowid, n, err := varint.Get(cellData[4:])
	if err != nil {
		return nil, errors.NewCorrupt(pgno, int64(cellOffset+4), "interior cell key", err)
	}

	return &TableInteriorCell{
		ChildPage: childPage,
		Rowid:     int64(rowid),
		Size:      4 + n,
	}, nil
}

// EncodeTableLeafCell encodes a table leaf cell for fixture pages.
func EncodeTableLeafCell(rowid int64, payload []byte) []byte {
	buf := make([]byte, 0, 2*varint.MaxLen+len(payload))
	buf = varint.Append(buf, uint64(len(payload)))
	buf = varint.Append(buf, uint64(rowid))
	return append(buf, payload...)
}

// EncodeTableInteriorCell encodes a table interior cell for fixture pages.
func EncodeTableInteriorCell(childPage uint32, rowid int64) []byte {
	buf := make([]byte, 4, 4+varint.MaxLen)
	binary.BigEndian.PutUint32(buf, childPage)
	return varint.Append(buf, uint64(rowid))
}
