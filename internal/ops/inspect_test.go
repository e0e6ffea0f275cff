package ops_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paper-courier/internal/fakebackend"
	"github.com/yourusername/paper-courier/internal/ops"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestInspectPDF(t *testing.T) {
	path := writeTemp(t, "report.pdf", fakebackend.SamplePDF(3))

	in, err := ops.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", in.Name)
	assert.Equal(t, ops.InputPDF, in.Class)
	assert.Equal(t, "application/pdf", in.MIME)
	assert.Equal(t, 3, in.Pages)
	assert.Positive(t, in.Size)
}

func TestInspectImage(t *testing.T) {
	// 拡張子ではなく内容で判定する
	path := writeTemp(t, "photo.bin", fakebackend.SamplePNG(3, 3))

	in, err := ops.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, ops.InputImage, in.Class)
	assert.Equal(t, "image/png", in.MIME)
	assert.Zero(t, in.Pages)
}

func TestInspectBrokenPDF(t *testing.T) {
	path := writeTemp(t, "broken.pdf", []byte("%PDF-1.4\nthis is not a document"))

	_, err := ops.Inspect(path)
	var opErr *ops.Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, ops.CodeUnsupportedPDF, opErr.Code)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := ops.Inspect(filepath.Join(t.TempDir(), "missing.pdf"))
	var opErr *ops.Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, ops.CodeInvalidInput, opErr.Code)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ops.Inspect(t.TempDir())
	assert.Error(t, err)
}

func TestInspectAllKeepsOrder(t *testing.T) {
	a := writeTemp(t, "a.pdf", fakebackend.SamplePDF(1))
	b := writeTemp(t, "b.pdf", fakebackend.SamplePDF(2))

	inputs, err := ops.InspectAll([]string{b, a})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "b.pdf", inputs[0].Name)
	assert.Equal(t, 2, inputs[0].Pages)
	assert.Equal(t, "a.pdf", inputs[1].Name)

	spec, _, err := ops.Prepare(ops.MergeParams{}, inputs, ops.Limits{MaxFileSize: 1 << 20})
	require.NoError(t, err)
	assert.Equal(t, ops.OperationMerge, spec.Type)
}
