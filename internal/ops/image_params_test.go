package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOCRParams(t *testing.T) {
	p := OCRParams{}
	require.NoError(t, p.Validate(pdfInputs(1)))
	assert.Equal(t, []FormField{{Name: "language", Value: "eng"}, {Name: "mode", Value: "standard"}}, p.FormFields())
	assert.Nil(t, p.StartBody())

	jpn := OCRParams{Language: "jpn", Mode: OCREnhanced}
	require.NoError(t, jpn.Validate(pdfInputs(1)))
	assert.Equal(t, []FormField{{Name: "language", Value: "jpn"}, {Name: "mode", Value: "enhanced"}}, jpn.FormFields())

	requireCode(t, OCRParams{Language: "tlh"}.Validate(nil), CodeInvalidInput)
	requireCode(t, OCRParams{Mode: "fast"}.Validate(nil), CodeInvalidInput)
	assert.Contains(t, OCRLanguages(), "auto")
}

func TestPrepareOCRAcceptsScannedImage(t *testing.T) {
	png := []Input{{Name: "scan.png", MIME: "image/png", Class: InputImage}}
	spec, _, err := Prepare(OCRParams{}, png, Limits{})
	require.NoError(t, err)
	assert.Equal(t, OperationOCR, spec.Type)
}

func TestPDFToWordParams(t *testing.T) {
	p := PDFToWordParams{}
	assert.NoError(t, p.Validate(pdfInputs(3)))
	assert.Nil(t, p.FormFields())
	assert.Nil(t, p.StartBody())
}

func TestImageCompressParams(t *testing.T) {
	assert.JSONEq(t, `{"quality":85}`, startJSON(t, ImageCompressParams{}))

	p := ImageCompressParams{Quality: 70, TargetSizeKB: 200, MaxWidth: 1024, OutputFormat: "JPG"}
	require.NoError(t, p.Validate(imageInput()))
	assert.JSONEq(t, `{"quality":70,"target_size_kb":200,"max_width":1024,"output_format":"jpg"}`, startJSON(t, p))

	requireCode(t, ImageCompressParams{Preset: "tiny"}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageCompressParams{TargetSizeKB: -1}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageCompressParams{OutputFormat: "psd"}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageCompressParams{Quality: 101}.Validate(imageInput()), CodeInvalidInput)
}

func TestImageResizeParams(t *testing.T) {
	tests := []struct {
		name    string
		params  ImageResizeParams
		wantErr bool
	}{
		{name: "preset", params: ImageResizeParams{Preset: "hd"}},
		{name: "scale", params: ImageResizeParams{ScalePercent: 50}},
		{name: "width only keeps aspect", params: ImageResizeParams{Width: 640}},
		{name: "exact needs both", params: ImageResizeParams{Width: 640, IgnoreAspect: true}, wantErr: true},
		{name: "exact", params: ImageResizeParams{Width: 640, Height: 480, IgnoreAspect: true}},
		{name: "nothing", params: ImageResizeParams{}, wantErr: true},
		{name: "unknown preset", params: ImageResizeParams{Preset: "8k"}, wantErr: true},
		{name: "negative scale", params: ImageResizeParams{ScalePercent: -5}, wantErr: true},
		{name: "unknown resampling", params: ImageResizeParams{Width: 10, Resampling: "cubic"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(imageInput())
			if tt.wantErr {
				requireCode(t, err, CodeInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}

	exact := ImageResizeParams{Width: 640, Height: 480, IgnoreAspect: true, Resampling: "Nearest"}
	assert.JSONEq(t, `{"width":640,"height":480,"maintain_aspect":false,"resampling":"nearest","quality":85}`, startJSON(t, exact))
}

func TestImageCropParams(t *testing.T) {
	rect := ImageCropParams{X: 10, Y: 20, Width: 100, Height: 50}
	require.NoError(t, rect.Validate(imageInput()))
	assert.JSONEq(t, `{"x":10,"y":20,"width":100,"height":50,"center_crop":false,"quality":85}`, startJSON(t, rect))

	require.NoError(t, ImageCropParams{AspectRatio: "16:9", CenterCrop: true}.Validate(imageInput()))

	requireCode(t, ImageCropParams{AspectRatio: "custom", Width: 10}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageCropParams{AspectRatio: "2:1"}.Validate(imageInput()), CodeInvalidInput)
	requireCode(t, ImageCropParams{X: -1, Width: 1, Height: 1}.Validate(imageInput()), CodeInvalidInput)
}

func TestImageFiltersParams(t *testing.T) {
	p := NewImageFiltersParams()
	require.NoError(t, p.Validate(imageInput()))
	assert.JSONEq(t, `{"brightness":1,"contrast":1,"saturation":1,"sharpness":1,"blur":0,"sharpen":false,"edge_enhance":false,"grayscale":false,"sepia":false,"quality":95}`, startJSON(t, p))

	bright := NewImageFiltersParams()
	bright.Brightness = 2.5
	requireCode(t, bright.Validate(imageInput()), CodeInvalidInput)

	blur := NewImageFiltersParams()
	blur.Blur = 11
	requireCode(t, blur.Validate(imageInput()), CodeInvalidInput)
}
