package pager

import (
	"io"
	"os"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// Pager provides positional read access to the pages of a database file.
// Pages are numbered starting from 1. A Pager never writes.
//
// Pager is not safe for concurrent use. Reads are positional (ReadAt), so
// no seek state is shared, but callers are expected to drive a single
// traversal at a time.
type Pager struct {
	file     *os.File
	ownsFile bool
	path     string
	header   *DatabaseHeader
	pageSize int
	numPages uint32
}

// Open opens the database file at path read-only and parses its header.
// Close releases the file.
func Open(path string) (*Pager, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, -1, err)
	}

	pager, err := FromFile(file, path)
	if err != nil {
		file.Close()
		return nil, err
	}
	pager.ownsFile = true
	return pager, nil
}

// FromFile wraps an already-open file without taking ownership: the caller
// remains responsible for closing it. The path is used only for error
// reporting.
func FromFile(file *os.File, path string) (*Pager, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewIO("stat", path, -1, err)
	}
	fileSize := info.Size()

	// A file too small to hold the header is malformed, not a short read.
	if fileSize < DatabaseHeaderSize {
		return nil, errors.NewCorrupt(0, -1,
			"file shorter than the 100-byte header", nil)
	}

	headerBytes := make([]byte, DatabaseHeaderSize)
	if _, err := file.ReadAt(headerBytes, 0); err != nil {
		return nil, errors.NewIO("read", path, 0, err)
	}

	header, err := ParseDatabaseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}

	pageSize := header.GetPageSize()

	return &Pager{
		file:     file,
		path:     path,
		header:   header,
		pageSize: pageSize,
		numPages: uint32(fileSize / int64(pageSize)),
	}, nil
}

// Header returns the parsed database header.
func (p *Pager) Header() *DatabaseHeader {
	return p.header
}

// PageSize returns the effective page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// UsableSize returns the per-page bytes available to the b-tree layer.
func (p *Pager) UsableSize() int {
	return p.header.UsableSize()
}

// NumPages returns the number of whole pages present in the file.
func (p *Pager) NumPages() uint32 {
	return p.numPages
}

// Path returns the path the database was opened from.
func (p *Pager) Path() string {
	return p.path
}

// ReadPage reads page pgno (1-based) in full. A page number outside the
// file is reported as corruption so that dangling child pointers surface
// with the offending page attached.
func (p *Pager) ReadPage(pgno uint32) ([]byte, error) {
	if pgno == 0 || pgno > p.numPages {
		return nil, errors.NewCorrupt(pgno, -1, "page number out of range", nil)
	}

	offset := int64(pgno-1) * int64(p.pageSize)
	buf := make([]byte, p.pageSize)
	if _, err := p.file.ReadAt(buf, offset); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, errors.NewCorrupt(pgno, offset, "page truncated", nil)
		}
		return nil, errors.NewIO("read", p.path, offset, err)
	}
	return buf, nil
}

// Close detaches the Pager from its file, closing it only when the Pager
// opened it itself.
func (p *Pager) Close() error {
	if p.file == nil {
		return nil
	}
	file := p.file
	p.file = nil
	if !p.ownsFile {
		return nil
	}
	if err := file.Close(); err != nil {
		return errors.NewIO("close", p.path, -1, err)
	}
	return nil
}
