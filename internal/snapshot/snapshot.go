// Package snapshot materializes database images for positional reads.
// Plain files open directly; gzip- and xz-compressed snapshots are
// decompressed into a temporary file first, since page access needs ReadAt.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// Compression magic bytes.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Snapshot is an opened database image. The image is either the original
// file or, for compressed snapshots, a temporary file that Close removes.
type Snapshot struct {
	file *os.File
	path string
	temp bool
}

// Open opens a database image, decompressing it when the leading bytes
// identify a gzip or xz stream. Detection is by content, not file name.
func Open(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, -1, err)
	}

	magic := make([]byte, len(xzMagic))
	n, err := f.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, errors.NewIO("read", path, 0, err)
	}
	magic = magic[:n]

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		return materialize(f, path, "gzip")
	case bytes.HasPrefix(magic, xzMagic):
		return materialize(f, path, "xz")
	}

	return &Snapshot{file: f, path: path}, nil
}

// materialize streams the decompressed image into a temporary file and
// hands that file back as the snapshot. The compressed original is closed.
func materialize(f *os.File, path, format string) (*Snapshot, error) {
	defer f.Close()

	var reader io.Reader
	switch format {
	case "gzip":
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading gzip snapshot %s", path)
		}
		defer gzr.Close()
		reader = gzr
	case "xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading xz snapshot %s", path)
		}
		reader = xzr // xz reader doesn't need closing
	}

	tmp, err := os.CreateTemp("", "tamarack-*.db")
	if err != nil {
		return nil, errors.NewIO("create", "temporary snapshot file", -1, err)
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.Wrapf(err, "decompressing %s snapshot %s", format, path)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.NewIO("seek", tmp.Name(), 0, err)
	}

	return &Snapshot{file: tmp, path: path, temp: true}, nil
}

// File returns the materialized database image. The Snapshot keeps
// ownership; use Close to release it.
func (s *Snapshot) File() *os.File {
	return s.file
}

// Path returns the path the snapshot was opened from, which for
// compressed input is not the file File reads.
func (s *Snapshot) Path() string {
	return s.path
}

// Materialized reports whether the image lives in a temporary file.
func (s *Snapshot) Materialized() bool {
	return s.temp
}

// Size returns the byte size of the database image.
func (s *Snapshot) Size() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, errors.NewIO("stat", s.path, -1, err)
	}
	return info.Size(), nil
}

// Close closes the image and removes the temporary file, if any.
func (s *Snapshot) Close() error {
	if s.file == nil {
		return nil
	}
	name := s.file.Name()
	err := s.file.Close()
	s.file = nil

	if s.temp {
		if rmErr := os.Remove(name); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	if err != nil {
		return errors.NewIO("close", s.path, -1, err)
	}
	return nil
}
