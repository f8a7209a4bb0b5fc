package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/ppiankov/lexigraph/internal/model"
)

type containerKind int

const (
	kindZip containerKind = iota
	kindTarGz
)

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
)

// Entry is one document inside the archive. Its content is only read when
// Open is called.
type Entry struct {
	Name string
	Size int64
	open func() (io.ReadCloser, error)
}

// Open returns a reader over the entry content
func (e *Entry) Open() (io.ReadCloser, error) {
	return e.open()
}

// Reader walks the XML entries of a compressed corpus container one at a
// time. Supported containers are zip and gzip-compressed tar.
type Reader struct {
	path string
	kind containerKind

	// zip
	zr  *zip.ReadCloser
	idx int

	// tar.gz
	file *os.File
	gz   *pgzip.Reader
	tr   *tar.Reader
}

// Open opens the archive at path. Any failure is reported as
// model.ErrArchiveUnreadable.
func Open(archivePath string) (*Reader, error) {
	kind, err := detectKind(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrArchiveUnreadable, archivePath, err)
	}

	r := &Reader{path: archivePath, kind: kind}

	switch kind {
	case kindZip:
		zr, err := zip.OpenReader(archivePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrArchiveUnreadable, archivePath, err)
		}
		r.zr = zr
	case kindTarGz:
		f, err := os.Open(archivePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrArchiveUnreadable, archivePath, err)
		}
		gz, err := pgzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s: %v", model.ErrArchiveUnreadable, archivePath, err)
		}
		r.file = f
		r.gz = gz
		r.tr = tar.NewReader(gz)
	}

	return r, nil
}

// Path returns the archive path
func (r *Reader) Path() string {
	return r.path
}

// Len returns the number of entries when the container knows it up front,
// or -1 for streamed containers
func (r *Reader) Len() int {
	if r.kind == kindZip {
		return len(r.zr.File)
	}
	return -1
}

// Next returns the next XML entry, or io.EOF when the archive is exhausted.
// Entries that are not .xml files are skipped.
func (r *Reader) Next() (*Entry, error) {
	switch r.kind {
	case kindZip:
		return r.nextZip()
	default:
		return r.nextTar()
	}
}

func (r *Reader) nextZip() (*Entry, error) {
	for r.idx < len(r.zr.File) {
		f := r.zr.File[r.idx]
		r.idx++

		if f.FileInfo().IsDir() || !isXML(f.Name) {
			continue
		}

		return &Entry{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
			open: f.Open,
		}, nil
	}
	return nil, io.EOF
}

func (r *Reader) nextTar() (*Entry, error) {
	for {
		hdr, err := r.tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read tar header: %v", model.ErrArchiveUnreadable, r.path, err)
		}

		if hdr.Typeflag != tar.TypeReg || !isXML(hdr.Name) {
			continue
		}

		// The tar stream cannot be rewound, so the entry is buffered before
		// the reader advances.
		data, err := io.ReadAll(r.tr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read %s: %v", model.ErrArchiveUnreadable, r.path, hdr.Name, err)
		}

		return &Entry{
			Name: hdr.Name,
			Size: int64(len(data)),
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		}, nil
	}
}

// Close releases the archive
func (r *Reader) Close() error {
	switch r.kind {
	case kindZip:
		if r.zr != nil {
			return r.zr.Close()
		}
	case kindTarGz:
		if r.gz != nil {
			_ = r.gz.Close()
		}
		if r.file != nil {
			return r.file.Close()
		}
	}
	return nil
}

// ReadDocument opens and parses an entry
func ReadDocument(e *Entry) (*model.Document, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open: %v", model.ErrMalformedDocument, e.Name, err)
	}
	defer func() { _ = rc.Close() }()

	return ParseDocument(e.Name, rc)
}

// detectKind picks the container format from the extension, falling back to
// the file's magic bytes
func detectKind(archivePath string) (containerKind, error) {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return kindZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return kindTarGz, nil
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	head, err := bufio.NewReader(f).Peek(4)
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return kindZip, nil
	case bytes.HasPrefix(head, gzipMagic):
		return kindTarGz, nil
	}
	return 0, fmt.Errorf("unrecognised container format")
}

func isXML(name string) bool {
	return strings.EqualFold(path.Ext(name), ".xml")
}
