package ops

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/paper-courier/internal/transform"
)

func pdfInputs(pages ...int) []Input {
	inputs := make([]Input, len(pages))
	for i, p := range pages {
		inputs[i] = Input{Name: "doc.pdf", Size: 1024, MIME: "application/pdf", Class: InputPDF, Pages: p}
	}
	return inputs
}

func imageInput() []Input {
	return []Input{{Name: "photo.png", Size: 2048, MIME: "image/png", Class: InputImage}}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var opErr *Error
	require.True(t, errors.As(err, &opErr), "expected *Error, got %v", err)
	assert.Equal(t, code, opErr.Code)
}

func startJSON(t *testing.T, p Params) string {
	t.Helper()
	raw, err := json.Marshal(p.StartBody())
	require.NoError(t, err)
	return string(raw)
}

func TestPrepareMergeFillsIdentityOrder(t *testing.T) {
	spec, params, err := Prepare(MergeParams{}, pdfInputs(1, 2, 3), Limits{})
	require.NoError(t, err)
	assert.Equal(t, OperationMerge, spec.Type)
	assert.Equal(t, MergeParams{FileOrder: []int{0, 1, 2}}, params)
	assert.JSONEq(t, `{"file_order":[0,1,2]}`, startJSON(t, params))
}

func TestPrepareMergeExplicitOrder(t *testing.T) {
	_, params, err := Prepare(MergeParams{FileOrder: []int{1, 0}}, pdfInputs(1, 1), Limits{})
	require.NoError(t, err)
	assert.Equal(t, MergeParams{FileOrder: []int{1, 0}}, params)

	_, _, err = Prepare(MergeParams{FileOrder: []int{0, 0}}, pdfInputs(1, 1), Limits{})
	requireCode(t, err, CodeInvalidInput)

	_, _, err = Prepare(MergeParams{FileOrder: []int{0}}, pdfInputs(1, 1), Limits{})
	requireCode(t, err, CodeInvalidInput)
}

func TestPrepareRejectsInputs(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		inputs []Input
		limits Limits
		code   string
	}{
		{name: "no params", params: nil, inputs: pdfInputs(1), code: CodeInvalidInput},
		{name: "no inputs", params: DeskewParams{}, inputs: nil, code: CodeInvalidInput},
		{name: "merge needs two", params: MergeParams{}, inputs: pdfInputs(1), code: CodeInvalidInput},
		{name: "merge too many", params: MergeParams{}, inputs: pdfInputs(1, 1, 1), limits: Limits{MaxMergeFiles: 2}, code: CodeLimitExceeded},
		{name: "single file kind", params: DeskewParams{}, inputs: pdfInputs(1, 1), code: CodeLimitExceeded},
		{name: "image for pdf kind", params: DeskewParams{}, inputs: imageInput(), code: CodeUnsupportedType},
		{name: "pdf for image kind", params: ImageConvertParams{Format: "webp"}, inputs: pdfInputs(1), code: CodeUnsupportedType},
		{name: "file too large", params: CompressParams{}, inputs: pdfInputs(1), limits: Limits{MaxFileSize: 10}, code: CodeLimitExceeded},
		{name: "empty pdf", params: CompressParams{}, inputs: pdfInputs(0), code: CodeUnsupportedPDF},
		{name: "webp for ocr", params: OCRParams{}, inputs: []Input{{Name: "a.webp", MIME: "image/webp", Class: InputImage}}, code: CodeUnsupportedType},
		{name: "pdf for image resize", params: ImageResizeParams{Width: 10}, inputs: pdfInputs(1), code: CodeUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Prepare(tt.params, tt.inputs, tt.limits)
			requireCode(t, err, tt.code)
		})
	}
}

func TestOrganizeParams(t *testing.T) {
	p := OrganizeParams{PageOrder: []int{2, 0, 1}}
	require.NoError(t, p.Validate(pdfInputs(3)))
	assert.JSONEq(t, `{"page_order":[2,0,1]}`, startJSON(t, p))

	requireCode(t, OrganizeParams{}.Validate(pdfInputs(3)), CodeInvalidInput)
	requireCode(t, OrganizeParams{PageOrder: []int{0, 1}}.Validate(pdfInputs(3)), CodeInvalidInput)
	requireCode(t, OrganizeParams{PageOrder: []int{0, 1, 3}}.Validate(pdfInputs(3)), CodeInvalidInput)
}

func TestSplitParams(t *testing.T) {
	p := SplitParams{Pages: []int{0, 2}}
	require.NoError(t, p.Validate(pdfInputs(3)))
	assert.JSONEq(t, `{"pages":[0,2]}`, startJSON(t, p))
	assert.Empty(t, p.FormFields())

	requireCode(t, SplitParams{}.Validate(pdfInputs(3)), CodeInvalidInput)
	requireCode(t, SplitParams{Pages: []int{3}}.Validate(pdfInputs(3)), CodeInvalidInput)
	requireCode(t, SplitParams{Pages: []int{1, 1}}.Validate(pdfInputs(3)), CodeInvalidInput)
}

func TestCompressParams(t *testing.T) {
	tests := []struct {
		name    string
		params  CompressParams
		fields  []FormField
		wantErr bool
	}{
		{name: "default", params: CompressParams{}, fields: []FormField{{Name: "quality", Value: "medium"}}},
		{name: "quality upper case", params: CompressParams{Quality: "HIGH"}, fields: []FormField{{Name: "quality", Value: "high"}}},
		{name: "percent", params: CompressParams{CompressByPercent: 30}, fields: []FormField{{Name: "compress_by_percent", Value: "30"}}},
		{name: "max size", params: CompressParams{MaxFileSizeMB: 1.5}, fields: []FormField{{Name: "max_file_size_mb", Value: "1.5"}}},
		{name: "unknown quality", params: CompressParams{Quality: "ultra"}, wantErr: true},
		{name: "percent out of range", params: CompressParams{CompressByPercent: 100}, wantErr: true},
		{name: "negative size", params: CompressParams{MaxFileSizeMB: -1}, wantErr: true},
		{name: "two modes", params: CompressParams{Quality: "low", CompressByPercent: 20}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(pdfInputs(1))
			if tt.wantErr {
				requireCode(t, err, CodeInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fields, tt.params.FormFields())
			assert.Nil(t, tt.params.StartBody())
		})
	}
}

func TestPDFToImagesParams(t *testing.T) {
	p := NewPDFToImagesParams()
	require.NoError(t, p.Validate(nil))
	assert.Equal(t, []FormField{{Name: "dpi", Value: "200"}, {Name: "format", Value: "png"}, {Name: "zip", Value: "true"}}, p.FormFields())

	jpeg := PDFToImagesParams{DPI: 300, Format: "JPEG"}
	require.NoError(t, jpeg.Validate(nil))
	assert.Equal(t, []FormField{{Name: "dpi", Value: "300"}, {Name: "format", Value: "jpg"}, {Name: "zip", Value: "false"}}, jpeg.FormFields())

	requireCode(t, PDFToImagesParams{DPI: 50}.Validate(nil), CodeInvalidInput)
	requireCode(t, PDFToImagesParams{DPI: 601}.Validate(nil), CodeInvalidInput)
	requireCode(t, PDFToImagesParams{Format: "gif"}.Validate(nil), CodeInvalidInput)
}

func TestImageConvertParams(t *testing.T) {
	p := ImageConvertParams{Format: "WEBP"}
	require.NoError(t, p.Validate(imageInput()))
	assert.JSONEq(t, `{"format":"webp","quality":85}`, startJSON(t, p))

	resized := ImageConvertParams{Format: "avif", Quality: 60, MaxWidth: 800}
	assert.JSONEq(t, `{"format":"avif","quality":60,"max_width":800}`, startJSON(t, resized))

	requireCode(t, ImageConvertParams{Format: "psd"}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageConvertParams{Format: "png", Quality: 101}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageConvertParams{Format: "png", MaxHeight: -1}.Validate(imageInput()), CodeInvalidInput)
}

func TestRotateParams(t *testing.T) {
	p := RotateParams{Transform: transform.State{Rotation: -90, FlipVertical: true}}
	require.NoError(t, p.Validate(imageInput()))
	assert.JSONEq(t, `{"rotation":270,"flip_h":false,"flip_v":true,"quality":95}`, startJSON(t, p))

	requireCode(t, RotateParams{OutputFormat: "gif"}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, RotateParams{Quality: -1}.Validate(imageInput()), CodeInvalidInput)
}

func TestDeskewParams(t *testing.T) {
	p := DeskewParams{}
	assert.NoError(t, p.Validate(pdfInputs(1)))
	assert.Nil(t, p.FormFields())
	assert.Nil(t, p.StartBody())
}
