package snapshot

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func testImage() []byte {
	image := make([]byte, 1024)
	copy(image, "SQLite format 3\x00")
	for i := 100; i < len(image); i++ {
		image[i] = byte(i)
	}
	return image
}

func readAll(t *testing.T, s *Snapshot) []byte {
	t.Helper()
	data, err := io.ReadAll(s.File())
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	return data
}

func TestOpenPlain(t *testing.T) {
	image := testImage()
	path := filepath.Join(t.TempDir(), "plain.db")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Materialized() {
		t.Error("plain file reported as materialized")
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if !bytes.Equal(readAll(t, s), image) {
		t.Error("snapshot content differs from the original")
	}

	size, err := s.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != int64(len(image)) {
		t.Errorf("Size() = %d, want %d", size, len(image))
	}
}

func TestOpenGzip(t *testing.T) {
	image := testImage()
	path := filepath.Join(t.TempDir(), "snap.db.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(image); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if !s.Materialized() {
		t.Error("gzip snapshot not materialized")
	}
	if !bytes.Equal(readAll(t, s), image) {
		t.Error("decompressed content differs from the original")
	}

	tempName := s.File().Name()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(tempName); !os.IsNotExist(err) {
		t.Errorf("temporary file %s not removed on Close", tempName)
	}
}

func TestOpenXZ(t *testing.T) {
	image := testImage()
	path := filepath.Join(t.TempDir(), "snap.db.xz")

	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xzw.Write(image); err != nil {
		t.Fatal(err)
	}
	if err := xzw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if !s.Materialized() {
		t.Error("xz snapshot not materialized")
	}
	if !bytes.Equal(readAll(t, s), image) {
		t.Error("decompressed content differs from the original")
	}
}

func TestOpenDetectsByContentNotName(t *testing.T) {
	// A .gz name holding a plain image must open as plain.
	image := testImage()
	path := filepath.Join(t.TempDir(), "misnamed.db.gz")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Materialized() {
		t.Error("plain content materialized because of its name")
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestOpenTinyFile(t *testing.T) {
	// Shorter than any magic prefix; must open as plain.
	path := filepath.Join(t.TempDir(), "tiny.db")
	if err := os.WriteFile(path, []byte{0x42}, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Materialized() {
		t.Error("tiny file materialized")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.db")
	if err := os.WriteFile(path, testImage(), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestCorruptGzip(t *testing.T) {
	// Valid magic, garbage stream.
	path := filepath.Join(t.TempDir(), "broken.db.gz")
	data := append([]byte{0x1f, 0x8b}, bytes.Repeat([]byte{0xff}, 64)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected error for a corrupt gzip stream")
	}
}
