package ops

import (
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultImageQuality  = 85
	DefaultFiltersQual   = 95
	MaxBlurRadius        = 10
	defaultOCRLanguage   = "eng"
	defaultResampling    = "lanczos"
	maxFilterAdjustments = 2.0
)

// OCRMode は文字認識の方式です。
type OCRMode string

const (
	OCRStandard OCRMode = "standard"
	OCREnhanced OCRMode = "enhanced"
)

var ocrLanguages = map[string]struct{}{
	"auto": {}, "eng": {}, "hin": {}, "spa": {}, "fra": {}, "deu": {},
	"ara": {}, "chi_sim": {}, "jpn": {}, "kor": {}, "rus": {},
}

// OCRLanguages は指定できる言語コードを名前順に返します。
func OCRLanguages() []string {
	langs := make([]string, 0, len(ocrLanguages))
	for l := range ocrLanguages {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// OCRParams はスキャンPDF・画像からの文字抽出のパラメータです。
// 言語と方式は作成時に送り、処理開始は本文なしで要求します。
type OCRParams struct {
	Language string
	Mode     OCRMode
}

func (OCRParams) Operation() OperationType { return OperationOCR }

func (p OCRParams) Validate([]Input) error {
	if p.Language != "" {
		if _, ok := ocrLanguages[p.Language]; !ok {
			return newError(CodeInvalidInput, fmt.Sprintf("未対応の言語です: %s (対応: %s)", p.Language, strings.Join(OCRLanguages(), ", ")), nil)
		}
	}
	switch p.Mode {
	case "", OCRStandard, OCREnhanced:
		return nil
	default:
		return newError(CodeInvalidInput, fmt.Sprintf("mode には standard / enhanced を指定してください (received: %s)", p.Mode), nil)
	}
}

func (p OCRParams) FormFields() []FormField {
	lang := p.Language
	if lang == "" {
		lang = defaultOCRLanguage
	}
	mode := p.Mode
	if mode == "" {
		mode = OCRStandard
	}
	return []FormField{
		{Name: "language", Value: lang},
		{Name: "mode", Value: string(mode)},
	}
}

func (OCRParams) StartBody() any { return nil }

// PDFToWordParams はPDFからWord文書への変換です。指定項目はありません。
type PDFToWordParams struct{}

func (PDFToWordParams) Operation() OperationType { return OperationPDFToWord }
func (PDFToWordParams) Validate([]Input) error   { return nil }
func (PDFToWordParams) FormFields() []FormField  { return nil }
func (PDFToWordParams) StartBody() any           { return nil }

var imageCompressPresets = map[string]struct{}{
	"maximum": {}, "high": {}, "balanced": {}, "compress": {}, "max_compress": {},
}

// ImageCompressParams は画像圧縮のパラメータです。Preset を指定すると Quality より優先されます。
type ImageCompressParams struct {
	Quality      int
	TargetSizeKB int
	MaxWidth     int
	MaxHeight    int
	OutputFormat string
	Preset       string
}

func (ImageCompressParams) Operation() OperationType { return OperationImageCompress }

func (p ImageCompressParams) Validate([]Input) error {
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	if p.TargetSizeKB < 0 {
		return newError(CodeInvalidInput, "target_size_kb は正の値で指定してください。", nil)
	}
	if p.MaxWidth < 0 || p.MaxHeight < 0 {
		return newError(CodeInvalidInput, "max_width / max_height は正の値で指定してください。", nil)
	}
	if p.Preset != "" {
		if _, ok := imageCompressPresets[p.Preset]; !ok {
			return newError(CodeInvalidInput, fmt.Sprintf("未対応のプリセットです: %s", p.Preset), nil)
		}
	}
	return validateOutputFormat(p.OutputFormat)
}

func (ImageCompressParams) FormFields() []FormField { return nil }

func (p ImageCompressParams) StartBody() any {
	return imageCompressRequest{
		Quality:      orDefault(p.Quality, DefaultImageQuality),
		TargetSizeKB: p.TargetSizeKB,
		MaxWidth:     p.MaxWidth,
		MaxHeight:    p.MaxHeight,
		OutputFormat: strings.ToLower(p.OutputFormat),
		Preset:       p.Preset,
	}
}

type imageCompressRequest struct {
	Quality      int    `json:"quality"`
	TargetSizeKB int    `json:"target_size_kb,omitempty"`
	MaxWidth     int    `json:"max_width,omitempty"`
	MaxHeight    int    `json:"max_height,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	Preset       string `json:"preset,omitempty"`
}

var (
	resizePresets = map[string]struct{}{
		"thumbnail": {}, "small": {}, "medium": {}, "large": {}, "hd": {}, "4k": {},
	}
	resamplingMethods = map[string]struct{}{
		"lanczos": {}, "bicubic": {}, "bilinear": {}, "nearest": {},
	}
)

// ImageResizeParams は画像の拡大縮小です。優先順位は Preset, ScalePercent, Width/Height の順です。
// IgnoreAspect が false の場合は縦横比を保ち、Width か Height の一方だけでも指定できます。
type ImageResizeParams struct {
	Width        int
	Height       int
	ScalePercent float64
	Preset       string
	IgnoreAspect bool
	Resampling   string
	OutputFormat string
	Quality      int
}

func (ImageResizeParams) Operation() OperationType { return OperationImageResize }

func (p ImageResizeParams) Validate([]Input) error {
	switch {
	case p.Preset != "":
		if _, ok := resizePresets[p.Preset]; !ok {
			return newError(CodeInvalidInput, fmt.Sprintf("未対応のプリセットです: %s", p.Preset), nil)
		}
	case p.ScalePercent != 0:
		if p.ScalePercent < 0 {
			return newError(CodeInvalidInput, "scale_percent は正の値で指定してください。", nil)
		}
	default:
		if p.Width < 0 || p.Height < 0 {
			return newError(CodeInvalidInput, "width / height は正の値で指定してください。", nil)
		}
		if p.Width == 0 && p.Height == 0 {
			return newError(CodeInvalidInput, "width / height / scale_percent / preset のいずれかを指定してください。", nil)
		}
		if p.IgnoreAspect && (p.Width == 0 || p.Height == 0) {
			return newError(CodeInvalidInput, "縦横比を保たない場合は width と height の両方を指定してください。", nil)
		}
	}
	if p.Resampling != "" {
		if _, ok := resamplingMethods[strings.ToLower(p.Resampling)]; !ok {
			return newError(CodeInvalidInput, fmt.Sprintf("resampling には lanczos / bicubic / bilinear / nearest を指定してください (received: %s)", p.Resampling), nil)
		}
	}
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	return validateOutputFormat(p.OutputFormat)
}

func (ImageResizeParams) FormFields() []FormField { return nil }

func (p ImageResizeParams) StartBody() any {
	resampling := strings.ToLower(p.Resampling)
	if resampling == "" {
		resampling = defaultResampling
	}
	return imageResizeRequest{
		Width:          p.Width,
		Height:         p.Height,
		ScalePercent:   p.ScalePercent,
		Preset:         p.Preset,
		MaintainAspect: !p.IgnoreAspect,
		Resampling:     resampling,
		OutputFormat:   strings.ToLower(p.OutputFormat),
		Quality:        orDefault(p.Quality, DefaultImageQuality),
	}
}

type imageResizeRequest struct {
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	ScalePercent   float64 `json:"scale_percent,omitempty"`
	Preset         string  `json:"preset,omitempty"`
	MaintainAspect bool    `json:"maintain_aspect"`
	Resampling     string  `json:"resampling"`
	OutputFormat   string  `json:"output_format,omitempty"`
	Quality        int     `json:"quality"`
}

var aspectRatios = map[string]struct{}{
	"1:1": {}, "4:3": {}, "3:2": {}, "16:9": {}, "9:16": {}, "custom": {},
}

// ImageCropParams は画像の切り抜きです。AspectRatio が空か custom の場合は
// X, Y, Width, Height の矩形で切り抜きます。
type ImageCropParams struct {
	X            int
	Y            int
	Width        int
	Height       int
	AspectRatio  string
	CenterCrop   bool
	OutputFormat string
	Quality      int
}

func (ImageCropParams) Operation() OperationType { return OperationImageCrop }

func (p ImageCropParams) Validate([]Input) error {
	if p.X < 0 || p.Y < 0 {
		return newError(CodeInvalidInput, "切り抜き位置に負の値は指定できません。", nil)
	}
	if p.Width < 0 || p.Height < 0 {
		return newError(CodeInvalidInput, "width / height は正の値で指定してください。", nil)
	}
	if p.AspectRatio != "" {
		if _, ok := aspectRatios[p.AspectRatio]; !ok {
			return newError(CodeInvalidInput, fmt.Sprintf("未対応の縦横比です: %s", p.AspectRatio), nil)
		}
	}
	if (p.AspectRatio == "" || p.AspectRatio == "custom") && (p.Width == 0 || p.Height == 0) {
		return newError(CodeInvalidInput, "矩形で切り抜く場合は width と height を指定してください。", nil)
	}
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	return validateOutputFormat(p.OutputFormat)
}

func (ImageCropParams) FormFields() []FormField { return nil }

func (p ImageCropParams) StartBody() any {
	return imageCropRequest{
		X:            p.X,
		Y:            p.Y,
		Width:        p.Width,
		Height:       p.Height,
		AspectRatio:  p.AspectRatio,
		CenterCrop:   p.CenterCrop,
		OutputFormat: strings.ToLower(p.OutputFormat),
		Quality:      orDefault(p.Quality, DefaultImageQuality),
	}
}

type imageCropRequest struct {
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	AspectRatio  string `json:"aspect_ratio,omitempty"`
	CenterCrop   bool   `json:"center_crop"`
	OutputFormat string `json:"output_format,omitempty"`
	Quality      int    `json:"quality"`
}

// ImageFiltersParams は色調補正とフィルタです。補正値は 1.0 が元画像のままで、0.0〜2.0 で指定します。
type ImageFiltersParams struct {
	Brightness   float64
	Contrast     float64
	Saturation   float64
	Sharpness    float64
	Blur         int
	Sharpen      bool
	EdgeEnhance  bool
	Grayscale    bool
	Sepia        bool
	OutputFormat string
	Quality      int
}

// NewImageFiltersParams は補正なし (各値 1.0) のパラメータを返します。
func NewImageFiltersParams() ImageFiltersParams {
	return ImageFiltersParams{Brightness: 1, Contrast: 1, Saturation: 1, Sharpness: 1}
}

func (ImageFiltersParams) Operation() OperationType { return OperationImageFilters }

func (p ImageFiltersParams) Validate([]Input) error {
	adjustments := []struct {
		name  string
		value float64
	}{
		{"brightness", p.Brightness},
		{"contrast", p.Contrast},
		{"saturation", p.Saturation},
		{"sharpness", p.Sharpness},
	}
	for _, a := range adjustments {
		if a.value < 0 || a.value > maxFilterAdjustments {
			return newError(CodeInvalidInput, fmt.Sprintf("%s は 0.0〜2.0 で指定してください。", a.name), nil)
		}
	}
	if p.Blur < 0 || p.Blur > MaxBlurRadius {
		return newError(CodeInvalidInput, fmt.Sprintf("blur は 0〜%d で指定してください。", MaxBlurRadius), nil)
	}
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	return validateOutputFormat(p.OutputFormat)
}

func (ImageFiltersParams) FormFields() []FormField { return nil }

func (p ImageFiltersParams) StartBody() any {
	return imageFiltersRequest{
		Brightness:   p.Brightness,
		Contrast:     p.Contrast,
		Saturation:   p.Saturation,
		Sharpness:    p.Sharpness,
		Blur:         p.Blur,
		Sharpen:      p.Sharpen,
		EdgeEnhance:  p.EdgeEnhance,
		Grayscale:    p.Grayscale,
		Sepia:        p.Sepia,
		OutputFormat: strings.ToLower(p.OutputFormat),
		Quality:      orDefault(p.Quality, DefaultFiltersQual),
	}
}

type imageFiltersRequest struct {
	Brightness   float64 `json:"brightness"`
	Contrast     float64 `json:"contrast"`
	Saturation   float64 `json:"saturation"`
	Sharpness    float64 `json:"sharpness"`
	Blur         int     `json:"blur"`
	Sharpen      bool    `json:"sharpen"`
	EdgeEnhance  bool    `json:"edge_enhance"`
	Grayscale    bool    `json:"grayscale"`
	Sepia        bool    `json:"sepia"`
	OutputFormat string  `json:"output_format,omitempty"`
	Quality      int     `json:"quality"`
}

func validateQuality(q int) error {
	if q < 0 || q > 100 {
		return newError(CodeInvalidInput, "quality は 1〜100 で指定してください。", nil)
	}
	return nil
}

// validateOutputFormat は画像系の output_format を確認します。空は元の形式のままです。
func validateOutputFormat(format string) error {
	if format == "" {
		return nil
	}
	if _, ok := convertFormats[strings.ToLower(format)]; !ok {
		return newError(CodeInvalidInput, fmt.Sprintf("未対応の出力形式です: %q", format), nil)
	}
	return nil
}
