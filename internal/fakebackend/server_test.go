package fakebackend

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paper-courier/internal/ops"
)

func TestStepAt(t *testing.T) {
	assert.Equal(t, "completed", stepAt(nil, 0).Status)

	steps := []Step{{Status: "processing"}, {Status: "failed"}}
	assert.Equal(t, "processing", stepAt(steps, 0).Status)
	assert.Equal(t, "failed", stepAt(steps, 1).Status)
	assert.Equal(t, "failed", stepAt(steps, 5).Status)
}

func TestGinPath(t *testing.T) {
	assert.Equal(t, "/merge-pdf/jobs/:id/process", ginPath("/merge-pdf/jobs/{id}/process"))
	assert.Equal(t, "/ocr-pdf/jobs/:id/download/:format", ginPath("/ocr-pdf/jobs/{id}/download/{format}"))
}

func TestUnknownJobIsNotFound(t *testing.T) {
	srv := New("api")
	req := httptest.NewRequest(http.MethodGet, "/api/deskew-pdf/jobs/missing", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Job not found"}`, rec.Body.String())
	assert.Equal(t, 1, srv.Calls("deskew", VerbStatus))
}

func TestScanUploadRejectsOtherTypes(t *testing.T) {
	assert.True(t, acceptable(ops.InputScan, "image/png"))
	assert.True(t, acceptable(ops.InputScan, "application/pdf"))
	assert.False(t, acceptable(ops.InputScan, "image/webp"))
	assert.Equal(t, "Only PDF, JPEG, and PNG files allowed", rejectMessage(ops.InputScan))
}

func TestSampleArchive(t *testing.T) {
	data := SampleArchive(3, "jpg")
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"page_0001.jpg", "page_0002.jpg", "page_0003.jpg"}, names)
}

func TestSamplePDFHeader(t *testing.T) {
	pdf := SamplePDF(2)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(pdf, []byte("%%EOF\n")))
	assert.Contains(t, string(pdf), "/Count 2")
}
