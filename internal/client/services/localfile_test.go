package services

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLocalFile_SniffsType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.pdf")
	body := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	f, err := OpenLocalFile(path)
	require.NoError(t, err)
	assert.Equal(t, "memo.pdf", f.Name())
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.EqualValues(t, len(body), f.Size())

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, body, b)
}

func TestOpenLocalFile_Errors(t *testing.T) {
	_, err := OpenLocalFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	_, err = OpenLocalFile(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")
}

func TestNewMemFile(t *testing.T) {
	f := NewMemFile("notes.txt", "", []byte("hello world"))
	assert.Equal(t, "text/plain; charset=utf-8", f.ContentType())
	assert.EqualValues(t, 11, f.Size())

	g := NewMemFile("a.pdf", "application/pdf", nil)
	assert.Equal(t, "application/pdf", g.ContentType())
}
