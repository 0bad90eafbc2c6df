package files

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadTextFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", []byte("alpha"))
	b := writeFile(t, dir, "b.txt", []byte("beta"))

	in, err := Read([]string{a, b})
	assert.NoError(t, err)
	assert.False(t, in.Empty())
	assert.Empty(t, in.Images)

	// concatenated in argument order with per-file delimiters
	assert.Contains(t, in.Text, "--- file: a.md ---")
	assert.Contains(t, in.Text, "alpha")
	assert.Contains(t, in.Text, "--- file: b.txt ---")
	assert.Less(t,
		strings.Index(in.Text, "alpha"),
		strings.Index(in.Text, "beta"))
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	p := writeFile(t, dir, "pic.PNG", raw) // extension match is case-insensitive

	in, err := Read([]string{p})
	assert.NoError(t, err)
	assert.Len(t, in.Images, 1)
	assert.Equal(t, "image/png", in.Images[0].MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), in.Images[0].Data)

	decoded, err := in.Images[0].Decode()
	assert.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestReadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "prog.exe", []byte{0x00})

	_, err := Read([]string{p})
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedExtension)
}

func TestEmptyInput(t *testing.T) {
	in, err := Read(nil)
	assert.NoError(t, err)
	assert.True(t, in.Empty())

	var nilInput *Input
	assert.True(t, nilInput.Empty())
}
