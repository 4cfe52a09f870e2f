package services

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// LocalFile is a file picked by the user for upload.
type LocalFile interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

type diskFile struct {
	path        string
	size        int64
	contentType string
}

// OpenLocalFile stats path and sniffs its content type.
func OpenLocalFile(path string) (LocalFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return &diskFile{path: path, size: fi.Size(), contentType: mt.String()}, nil
}

func (f *diskFile) Name() string                 { return filepath.Base(f.path) }
func (f *diskFile) Size() int64                  { return f.size }
func (f *diskFile) ContentType() string          { return f.contentType }
func (f *diskFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type memFile struct {
	name        string
	data        []byte
	contentType string
}

// NewMemFile wraps an in-memory buffer. An empty contentType is sniffed.
func NewMemFile(name, contentType string, data []byte) LocalFile {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return &memFile{name: name, data: data, contentType: contentType}
}

func (f *memFile) Name() string        { return f.name }
func (f *memFile) Size() int64         { return int64(len(f.data)) }
func (f *memFile) ContentType() string { return f.contentType }
func (f *memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
