package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecsAreConsistent(t *testing.T) {
	for op, spec := range Specs {
		assert.Equal(t, op, spec.Type)
		assert.NotEmpty(t, spec.CreatePath, op)
		assert.NotEmpty(t, spec.StatusPath, op)
		assert.NotEmpty(t, spec.DownloadPath, op)
		assert.NotEmpty(t, spec.UploadField, op)
		assert.Equal(t, spec.TwoCall, spec.StartPath != "", op)
		assert.LessOrEqual(t, spec.MinInputs, spec.MaxInputs, op)
	}
	assert.False(t, Specs[OperationPDFToImages].TwoCall)
	assert.Equal(t, ResultKindArchive, Specs[OperationPDFToImages].Result)
	assert.True(t, Specs[OperationMerge].MultiFile)
	assert.Equal(t, "/image-cropper/jobs/{id}/crop", Specs[OperationImageCrop].StartPath)
	assert.Equal(t, "/image-filters/jobs/{id}/status", Specs[OperationImageFilters].StatusPath)
	assert.Equal(t, "/ocr-pdf/jobs/{id}", Specs[OperationOCR].StatusPath)
}

func TestSpecAccepts(t *testing.T) {
	pdf := Input{Class: InputPDF, MIME: "application/pdf"}
	png := Input{Class: InputImage, MIME: "image/png"}
	webp := Input{Class: InputImage, MIME: "image/webp"}

	assert.True(t, Specs[OperationMerge].Accepts(pdf))
	assert.False(t, Specs[OperationMerge].Accepts(png))
	assert.True(t, Specs[OperationImageResize].Accepts(webp))
	assert.False(t, Specs[OperationImageResize].Accepts(pdf))

	ocr := Specs[OperationOCR]
	assert.True(t, ocr.Accepts(pdf))
	assert.True(t, ocr.Accepts(png))
	assert.False(t, ocr.Accepts(webp))
	assert.False(t, ocr.Accepts(Input{MIME: "text/plain"}))
}

func TestLookup(t *testing.T) {
	spec, err := Lookup(OperationRotate)
	require.NoError(t, err)
	assert.Equal(t, "/image-rotate/upload", spec.CreatePath)

	_, err = Lookup("watermark")
	requireCode(t, err, CodeInvalidInput)
}

func TestTypesSorted(t *testing.T) {
	assert.Equal(t, []OperationType{
		OperationCompress, OperationDeskew, OperationImageCompress, OperationImageConvert,
		OperationImageCrop, OperationImageFilters, OperationImageResize, OperationMerge,
		OperationOCR, OperationOrganize, OperationPDFToImages, OperationPDFToWord,
		OperationRotate, OperationSplit,
	}, Types())
}

func TestPathEscapesJobID(t *testing.T) {
	assert.Equal(t, "/merge-pdf/jobs/abc/process", Path("/merge-pdf/jobs/{id}/process", "abc"))
	assert.Equal(t, "/merge-pdf/jobs/a%2Fb", Path("/merge-pdf/jobs/{id}", "a/b"))
}

func TestResolver(t *testing.T) {
	r := NewResolver("http://localhost:8000/", "/api/")

	locs := r.LocatorsFor(Specs[OperationMerge], "job-1")
	require.Len(t, locs, 1)
	assert.Equal(t, Locator{Name: "merged.pdf", URL: "http://localhost:8000/api/merge-pdf/jobs/job-1/download", Kind: ResultKindSingle}, locs[0])

	archive := r.LocatorsFor(Specs[OperationPDFToImages], "job-2")
	assert.Equal(t, "http://localhost:8000/api/pdf-to-images/jobs/job-2/assets/download", archive[0].URL)
	assert.Equal(t, ResultKindArchive, archive[0].Kind)

	items := r.ItemLocators(Specs[OperationPDFToImages], "job-2", "jpg", 2)
	require.Len(t, items, 2)
	assert.Equal(t, "page_0001.jpg", items[0].Name)
	assert.Equal(t, "http://localhost:8000/files/job-2/page_0002.jpg", items[1].URL)

	assert.Nil(t, r.ItemLocators(Specs[OperationMerge], "job-1", "png", 2))
}

func TestResolverMultipleFormats(t *testing.T) {
	r := NewResolver("http://localhost:8000", "/api")

	locs := r.LocatorsFor(Specs[OperationOCR], "a/b")
	assert.Equal(t, []Locator{
		{Name: "extracted_text.txt", URL: "http://localhost:8000/api/ocr-pdf/jobs/a%2Fb/download/txt", Kind: ResultKindSingle},
		{Name: "extracted_text.json", URL: "http://localhost:8000/api/ocr-pdf/jobs/a%2Fb/download/json", Kind: ResultKindSingle},
	}, locs)
}

func TestResolverWithoutPrefix(t *testing.T) {
	r := NewResolver("http://backend", "")
	assert.Equal(t, "http://backend/deskew-pdf/jobs/j/download", r.LocatorsFor(Specs[OperationDeskew], "j")[0].URL)
}

func TestDecodeMeta(t *testing.T) {
	meta, err := DecodeMeta(OperationDeskew, map[string]any{
		"avg_angle_corrected": 1.5,
		"angles_per_page":     []any{1.0, 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, &DeskewMeta{AvgAngleCorrected: 1.5, AnglesPerPage: []float64{1, 2}}, meta)

	meta, err = DecodeMeta(OperationRotate, map[string]any{
		"output_info": map[string]any{"format": "png", "width": 20.0, "height": 10.0, "size_bytes": 512.0},
	})
	require.NoError(t, err)
	assert.Equal(t, &RotateMeta{Format: "png", Width: 20, Height: 10, SizeBytes: 512}, meta)

	meta, err = DecodeMeta(OperationImageConvert, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, &ConvertMeta{}, meta)

	raw := map[string]any{"anything": true}
	meta, err = DecodeMeta(OperationMerge, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, meta)

	meta, err = DecodeMeta(OperationOCR, map[string]any{"total_characters": 120.0, "language": "jpn", "mode": "standard", "filename": "scan.pdf"})
	require.NoError(t, err)
	assert.Equal(t, &OCRMeta{TotalCharacters: 120, Language: "jpn", Mode: "standard"}, meta)

	meta, err = DecodeMeta(OperationImageCrop, map[string]any{
		"result": map[string]any{"crop_box": []any{0.0, 0.0, 2.0, 2.0}, "cropped_dimensions": []any{2.0, 2.0}, "aspect_ratio": "1:1"},
	})
	require.NoError(t, err)
	assert.Equal(t, &CropMeta{CropBox: []int{0, 0, 2, 2}, CroppedDimensions: []int{2, 2}, AspectRatio: "1:1"}, meta)

	meta, err = DecodeMeta(OperationImageFilters, map[string]any{
		"result": map[string]any{"applied_filters": []any{"grayscale"}, "output_size": 300.0},
	})
	require.NoError(t, err)
	assert.Equal(t, &FiltersMeta{AppliedFilters: []string{"grayscale"}, OutputSize: 300}, meta)

	_, err = DecodeMeta(OperationCompress, map[string]any{"original_size": "big"})
	assert.Error(t, err)
}
