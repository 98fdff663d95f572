package btree

import (
	"fmt"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// MaxDepth is the maximum b-tree depth accepted during a walk. Legitimate
// databases stay far below this; exceeding it means a page cycle.
const MaxDepth = 20

// PageSource supplies full page buffers by 1-based page number.
type PageSource interface {
	ReadPage(pgno uint32) ([]byte, error)
	UsableSize() int
}

// WalkFunc receives one table row per call. The payload slice views the
// page buffer and is only valid for the duration of the call. Returning a
// non-nil error aborts the walk and propagates to the caller.
type WalkFunc func(rowid int64, payload []byte) error

// WalkTable streams every row of the table b-tree rooted at root, in
// ascending rowid order: each interior cell's left subtree first, the
// right-most child last.
func WalkTable(src PageSource, root uint32, fn WalkFunc) error {
	return walkPage(src, root, 0, fn)
}

func walkPage(src PageSource, pgno uint32, depth int, fn WalkFunc) error {
	if depth > MaxDepth {
		return errors.NewCorrupt(pgno, -1,
			fmt.Sprintf("b-tree deeper than %d levels, assuming a page cycle", MaxDepth), nil)
	}

	data, err := src.ReadPage(pgno)
	if err != nil {
		return err
	}

	h, err := ParsePageHeader(data, pgno)
	if err != nil {
		return err
	}

	switch h.PageType {
	case PageTypeLeafTable:
		for i := 0; i < int(h.NumCells); i++ {
			ptr, err := h.CellPointer(data, pgno, i)
			if err != nil {
				return err
			}
			cell, err := ParseTableLeafCell(data[ptr:], src.UsableSize(), pgno, ptr)
			if err != nil {
				return err
			}
			if err := fn(cell.Rowid, cell.Payload); err != nil {
				return err
			}
		}
		return nil

	case PageTypeInteriorTable:
		for i := 0; i < int(h.NumCells); i++ {
			ptr, err := h.CellPointer(data, pgno, i)
			if err != nil {
				return err
			}
			cell, err := ParseTableInteriorCell(data[ptr:], pgno, ptr)
			if err != nil {
				return err
			}
			if err := walkPage(src, cell.ChildPage, depth+1, fn); err != nil {
				return err
			}
		}
		if h.RightChild == 0 {
			headerBase := h.CellPtrOffset - h.HeaderSize
			return errors.NewCorrupt(pgno, int64(headerBase+PageHeaderOffsetRightChild),
				"interior page has no right-most child", nil)
		}
		return walkPage(src, h.RightChild, depth+1, fn)

	default:
		// A well-formed index page here means an index tree (for example a
		// WITHOUT ROWID table), not file damage.
		return errors.NewUnsupported("index b-tree",
			fmt.Sprintf("page %d is %s, expected a table b-tree page", pgno, h.TypeName()))
	}
}

// CountRows walks the table b-tree rooted at root and returns the number
// of leaf cells it holds.
func CountRows(src PageSource, root uint32) (int64, error) {
	var count int64
	err := WalkTable(src, root, func(int64, []byte) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
