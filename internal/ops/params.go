package ops

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/paper-courier/internal/transform"
)

// FormField は作成リクエストに添える multipart のテキスト項目です。
type FormField struct {
	Name  string
	Value string
}

// Params は種別ごとのパラメータです。実装は種別ごとに1つの構造体で、
// 作成リクエストの追加項目と処理開始リクエストの本文を組み立てます。
type Params interface {
	Operation() OperationType
	// Validate は入力ファイルと突き合わせて値を検証します。ネットワーク呼び出しの前に使います。
	Validate(inputs []Input) error
	FormFields() []FormField
	// StartBody は処理開始リクエストの JSON 本文です。nil の場合は本文なしで送信します。
	StartBody() any
}

// MergeParams は結合のパラメータです。
// 入力はコレクションの並び順でアップロードされるため、FileOrder が空の場合はその順序をそのまま使います。
type MergeParams struct {
	FileOrder []int
}

func (MergeParams) Operation() OperationType { return OperationMerge }

func (p MergeParams) Validate(inputs []Input) error {
	if len(p.FileOrder) == 0 {
		return nil
	}
	return validateOrder("file_order", p.FileOrder, len(inputs))
}

func (MergeParams) FormFields() []FormField { return nil }

func (p MergeParams) StartBody() any {
	return map[string][]int{"file_order": p.FileOrder}
}

// withIdentityOrder は FileOrder が空なら 0..n-1 を設定したコピーを返します。
func (p MergeParams) withIdentityOrder(n int) MergeParams {
	if len(p.FileOrder) > 0 {
		return p
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return MergeParams{FileOrder: order}
}

// OrganizeParams は元PDFのページを並べ替えた新しい順序 (0-based) です。
type OrganizeParams struct {
	PageOrder []int
}

func (OrganizeParams) Operation() OperationType { return OperationOrganize }

func (p OrganizeParams) Validate(inputs []Input) error {
	if len(p.PageOrder) == 0 {
		return newError(CodeInvalidInput, "ページの順序を指定してください。", nil)
	}
	if len(inputs) != 1 {
		return newError(CodeInvalidInput, "PDFファイルを1つ選択してください。", nil)
	}
	return validateOrder("page_order", p.PageOrder, inputs[0].Pages)
}

func (OrganizeParams) FormFields() []FormField { return nil }

func (p OrganizeParams) StartBody() any {
	return map[string][]int{"page_order": p.PageOrder}
}

// SplitParams は抽出するページ (0-based) です。
type SplitParams struct {
	Pages []int
}

func (SplitParams) Operation() OperationType { return OperationSplit }

func (p SplitParams) Validate(inputs []Input) error {
	if len(p.Pages) == 0 {
		return newError(CodeInvalidInput, "抽出するページを選択してください。", nil)
	}
	if len(inputs) != 1 {
		return newError(CodeInvalidInput, "PDFファイルを1つ選択してください。", nil)
	}
	pageCount := inputs[0].Pages
	seen := make(map[int]struct{}, len(p.Pages))
	for _, page := range p.Pages {
		if page < 0 || page >= pageCount {
			return newError(CodeInvalidInput, fmt.Sprintf("ページ %d は範囲外です (全 %d ページ)。", page+1, pageCount), nil)
		}
		if _, dup := seen[page]; dup {
			return newError(CodeInvalidInput, fmt.Sprintf("ページ %d が重複しています。", page+1), nil)
		}
		seen[page] = struct{}{}
	}
	return nil
}

func (SplitParams) FormFields() []FormField { return nil }

func (p SplitParams) StartBody() any {
	return map[string][]int{"pages": p.Pages}
}

// CompressQuality は品質指定による圧縮の強さです。
type CompressQuality string

const (
	CompressLow    CompressQuality = "low"
	CompressMedium CompressQuality = "medium"
	CompressHigh   CompressQuality = "high"
)

// CompressParams は圧縮のパラメータです。品質・削減率・最大サイズのいずれか1つを指定します。
// どれも指定しない場合は medium 品質になります。
type CompressParams struct {
	Quality           CompressQuality
	CompressByPercent int
	MaxFileSizeMB     float64
}

func (CompressParams) Operation() OperationType { return OperationCompress }

func (p CompressParams) Validate([]Input) error {
	modes := 0
	if p.Quality != "" {
		modes++
		if _, err := normalizeQuality(p.Quality); err != nil {
			return err
		}
	}
	if p.CompressByPercent != 0 {
		modes++
		if p.CompressByPercent < 1 || p.CompressByPercent > 99 {
			return newError(CodeInvalidInput, "compress_by_percent は 1〜99 で指定してください。", nil)
		}
	}
	if p.MaxFileSizeMB != 0 {
		modes++
		if p.MaxFileSizeMB < 0 {
			return newError(CodeInvalidInput, "max_file_size_mb は正の値で指定してください。", nil)
		}
	}
	if modes > 1 {
		return newError(CodeInvalidInput, "圧縮方法は quality / compress_by_percent / max_file_size_mb のいずれか1つを指定してください。", nil)
	}
	return nil
}

func (p CompressParams) FormFields() []FormField {
	switch {
	case p.CompressByPercent != 0:
		return []FormField{{Name: "compress_by_percent", Value: strconv.Itoa(p.CompressByPercent)}}
	case p.MaxFileSizeMB != 0:
		return []FormField{{Name: "max_file_size_mb", Value: strconv.FormatFloat(p.MaxFileSizeMB, 'f', -1, 64)}}
	}
	quality, err := normalizeQuality(p.Quality)
	if err != nil {
		quality = CompressMedium
	}
	return []FormField{{Name: "quality", Value: string(quality)}}
}

func (CompressParams) StartBody() any { return nil }

func normalizeQuality(q CompressQuality) (CompressQuality, error) {
	switch CompressQuality(strings.ToLower(string(q))) {
	case "", CompressMedium:
		return CompressMedium, nil
	case CompressLow:
		return CompressLow, nil
	case CompressHigh:
		return CompressHigh, nil
	default:
		return "", newError(CodeInvalidInput, fmt.Sprintf("quality には low / medium / high を指定してください (received: %s)", q), nil)
	}
}

// DeskewParams は傾き補正のパラメータです。指定項目はありません。
type DeskewParams struct{}

func (DeskewParams) Operation() OperationType { return OperationDeskew }
func (DeskewParams) Validate([]Input) error   { return nil }
func (DeskewParams) FormFields() []FormField  { return nil }
func (DeskewParams) StartBody() any           { return nil }

const (
	DefaultDPI          = 200
	MinDPI              = 72
	MaxDPI              = 600
	DefaultConvertQual  = 85
	DefaultRotateQual   = 95
	defaultImagesFormat = "png"
)

// PDFToImagesParams はPDFの画像化のパラメータです。
type PDFToImagesParams struct {
	DPI    int
	Format string
	Zip    bool
}

// NewPDFToImagesParams は既定値 (200dpi, png, zip あり) のパラメータを返します。
func NewPDFToImagesParams() PDFToImagesParams {
	return PDFToImagesParams{DPI: DefaultDPI, Format: defaultImagesFormat, Zip: true}
}

func (PDFToImagesParams) Operation() OperationType { return OperationPDFToImages }

func (p PDFToImagesParams) Validate([]Input) error {
	if p.DPI != 0 && (p.DPI < MinDPI || p.DPI > MaxDPI) {
		return newError(CodeInvalidInput, fmt.Sprintf("dpi は %d〜%d で指定してください。", MinDPI, MaxDPI), nil)
	}
	if _, err := p.format(); err != nil {
		return err
	}
	return nil
}

func (p PDFToImagesParams) FormFields() []FormField {
	dpi := p.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}
	format, _ := p.format()
	return []FormField{
		{Name: "dpi", Value: strconv.Itoa(dpi)},
		{Name: "format", Value: format},
		{Name: "zip", Value: strconv.FormatBool(p.Zip)},
	}
}

func (PDFToImagesParams) StartBody() any { return nil }

// OutputFormat は送信する画像形式です (jpeg は jpg にそろえます)。
func (p PDFToImagesParams) OutputFormat() string {
	f, err := p.format()
	if err != nil {
		return defaultImagesFormat
	}
	return f
}

func (p PDFToImagesParams) format() (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(p.Format)); f {
	case "":
		return defaultImagesFormat, nil
	case "png", "jpg", "webp":
		return f, nil
	case "jpeg":
		return "jpg", nil
	default:
		return "", newError(CodeInvalidInput, fmt.Sprintf("format には png / jpg / webp を指定してください (received: %s)", p.Format), nil)
	}
}

var convertFormats = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "webp": {}, "avif": {}, "bmp": {}, "tiff": {}, "gif": {},
}

// ImageConvertParams は画像形式変換のパラメータです。Quality が 0 の場合は 85 を使います。
type ImageConvertParams struct {
	Format    string
	Quality   int
	MaxWidth  int
	MaxHeight int
}

func (ImageConvertParams) Operation() OperationType { return OperationImageConvert }

func (p ImageConvertParams) Validate([]Input) error {
	if _, ok := convertFormats[strings.ToLower(p.Format)]; !ok {
		return newError(CodeInvalidInput, fmt.Sprintf("未対応の変換先形式です: %q", p.Format), nil)
	}
	if p.Quality < 0 || p.Quality > 100 {
		return newError(CodeInvalidInput, "quality は 1〜100 で指定してください。", nil)
	}
	if p.MaxWidth < 0 || p.MaxHeight < 0 {
		return newError(CodeInvalidInput, "max_width / max_height は正の値で指定してください。", nil)
	}
	return nil
}

func (ImageConvertParams) FormFields() []FormField { return nil }

func (p ImageConvertParams) StartBody() any {
	return convertRequest{
		Format:    strings.ToLower(p.Format),
		Quality:   orDefault(p.Quality, DefaultConvertQual),
		MaxWidth:  p.MaxWidth,
		MaxHeight: p.MaxHeight,
	}
}

type convertRequest struct {
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	MaxWidth  int    `json:"max_width,omitempty"`
	MaxHeight int    `json:"max_height,omitempty"`
}

// RotateParams は画像の回転・反転のパラメータです。プレビューと同じ transform.State を送信します。
type RotateParams struct {
	Transform    transform.State
	OutputFormat string
	Quality      int
}

func (RotateParams) Operation() OperationType { return OperationRotate }

func (p RotateParams) Validate([]Input) error {
	switch strings.ToLower(p.OutputFormat) {
	case "", "jpg", "jpeg", "png", "webp":
	default:
		return newError(CodeInvalidInput, fmt.Sprintf("output_format には jpg / png / webp を指定してください (received: %s)", p.OutputFormat), nil)
	}
	if p.Quality < 0 || p.Quality > 100 {
		return newError(CodeInvalidInput, "quality は 1〜100 で指定してください。", nil)
	}
	return nil
}

func (RotateParams) FormFields() []FormField { return nil }

func (p RotateParams) StartBody() any {
	return rotateRequest{
		Rotation:     transform.Normalize(p.Transform.Rotation),
		FlipH:        p.Transform.FlipHorizontal,
		FlipV:        p.Transform.FlipVertical,
		OutputFormat: strings.ToLower(p.OutputFormat),
		Quality:      orDefault(p.Quality, DefaultRotateQual),
	}
}

type rotateRequest struct {
	Rotation     int    `json:"rotation"`
	FlipH        bool   `json:"flip_h"`
	FlipV        bool   `json:"flip_v"`
	OutputFormat string `json:"output_format,omitempty"`
	Quality      int    `json:"quality"`
}

// Prepare は種別の仕様・入力・パラメータを突き合わせ、送信可能なパラメータを返します。
func Prepare(params Params, inputs []Input, limits Limits) (Spec, Params, error) {
	if params == nil {
		return Spec{}, nil, newError(CodeInvalidInput, "パラメータが指定されていません。", nil)
	}
	spec, err := Lookup(params.Operation())
	if err != nil {
		return Spec{}, nil, err
	}
	if err := CheckInputs(spec, inputs, limits); err != nil {
		return Spec{}, nil, err
	}
	if err := params.Validate(inputs); err != nil {
		return Spec{}, nil, err
	}
	if mp, ok := params.(MergeParams); ok {
		params = mp.withIdentityOrder(len(inputs))
	}
	return spec, params, nil
}

func validateOrder(field string, order []int, count int) error {
	if len(order) != count {
		return newError(CodeInvalidInput, fmt.Sprintf("%s の長さ(%d)が対象数(%d)と一致していません。", field, len(order), count), nil)
	}
	seen := make([]bool, count)
	for _, idx := range order {
		if idx < 0 || idx >= count {
			return newError(CodeInvalidInput, fmt.Sprintf("%s に不正な番号 %d が含まれています。", field, idx), nil)
		}
		if seen[idx] {
			return newError(CodeInvalidInput, fmt.Sprintf("%s に重複した番号 %d が含まれています。", field, idx), nil)
		}
		seen[idx] = true
	}
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
