package attachment

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadPart(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("attachment_0", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := multipart.NewReader(&buf, w.Boundary())
	form, err := r.ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	header := form.File["attachment_0"][0]
	part, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { part.Close() })

	return part, header
}

func TestSaveAndBytes(t *testing.T) {
	dir := t.TempDir()
	part, header := uploadPart(t, "report.pdf", []byte("pdf-bytes"))

	f, err := Save(dir, "attachment_0", part, header)
	require.NoError(t, err)
	defer f.Remove()

	assert.Equal(t, "report.pdf", f.OriginalName)
	assert.Equal(t, dir, filepath.Dir(f.Path))

	data, err := f.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-bytes"), data)
}

func TestBytesCachesAcrossReads(t *testing.T) {
	dir := t.TempDir()
	part, header := uploadPart(t, "a.txt", []byte("hello"))

	f, err := Save(dir, "attachment_0", part, header)
	require.NoError(t, err)

	first, err := f.Bytes()
	require.NoError(t, err)

	// once cached, the disk copy is no longer consulted
	require.NoError(t, f.Remove())
	second, err := f.Bytes()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRemoveDeletesFromDisk(t *testing.T) {
	dir := t.TempDir()
	part, header := uploadPart(t, "a.txt", []byte("hello"))

	f, err := Save(dir, "attachment_0", part, header)
	require.NoError(t, err)

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupIsBestEffort(t *testing.T) {
	dir := t.TempDir()
	part, header := uploadPart(t, "a.txt", []byte("hello"))

	f, err := Save(dir, "attachment_0", part, header)
	require.NoError(t, err)
	require.NoError(t, f.Remove())

	// already-removed files and nils must not panic
	Cleanup(f, nil)
}
