package ops

import (
	"encoding/json"
	"fmt"
)

// CompressMeta は圧縮完了時にステータスへ追加される情報です。
type CompressMeta struct {
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	ReductionPercent float64 `json:"reduction_percent"`
	Quality          string  `json:"quality,omitempty"`
}

// DeskewMeta は傾き補正完了時の情報です。
type DeskewMeta struct {
	AvgAngleCorrected float64   `json:"avg_angle_corrected"`
	AnglesPerPage     []float64 `json:"angles_per_page"`
}

// ConvertMeta は画像形式変換の結果 (result) です。
type ConvertMeta struct {
	OriginalFormat     string  `json:"original_format"`
	TargetFormat       string  `json:"target_format"`
	InputSize          int64   `json:"input_size"`
	OutputSize         int64   `json:"output_size"`
	SizeDiffPercent    float64 `json:"size_diff_percent"`
	Quality            *int    `json:"quality"`
	WasResized         bool    `json:"was_resized"`
	OriginalDimensions []int   `json:"original_dimensions"`
	OutputDimensions   []int   `json:"output_dimensions"`
}

// RotateMeta は回転結果 (output_info) です。
type RotateMeta struct {
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
}

// OCRMeta は文字抽出の完了時にステータスへ追加される情報です。
type OCRMeta struct {
	TotalCharacters int    `json:"total_characters"`
	Language        string `json:"language"`
	Mode            string `json:"mode"`
}

// ImageCompressMeta は画像圧縮の結果 (result) です。
type ImageCompressMeta struct {
	OriginalSize       int64   `json:"original_size"`
	CompressedSize     int64   `json:"compressed_size"`
	ReductionPercent   float64 `json:"reduction_percent"`
	CompressionRatio   float64 `json:"compression_ratio"`
	Quality            int     `json:"quality"`
	Format             string  `json:"format"`
	WasResized         bool    `json:"was_resized"`
	OriginalDimensions []int   `json:"original_dimensions"`
	OutputDimensions   []int   `json:"output_dimensions"`
}

// ResizeMeta は拡大縮小の結果 (result) です。
type ResizeMeta struct {
	OriginalDimensions []int   `json:"original_dimensions"`
	ResizedDimensions  []int   `json:"resized_dimensions"`
	OriginalSize       int64   `json:"original_size"`
	ResizedSize        int64   `json:"resized_size"`
	ResizeMethod       string  `json:"resize_method"`
	IsUpscaling        bool    `json:"is_upscaling"`
	ScaleFactorX       float64 `json:"scale_factor_x"`
	ScaleFactorY       float64 `json:"scale_factor_y"`
	OutputFormat       string  `json:"output_format"`
}

// CropMeta は切り抜きの結果 (result) です。CropBox は left, top, right, bottom です。
type CropMeta struct {
	OriginalDimensions []int  `json:"original_dimensions"`
	CroppedDimensions  []int  `json:"cropped_dimensions"`
	CropBox            []int  `json:"crop_box"`
	OriginalSize       int64  `json:"original_size"`
	CroppedSize        int64  `json:"cropped_size"`
	AspectRatio        string `json:"aspect_ratio"`
	OutputFormat       string `json:"output_format"`
}

// FiltersMeta はフィルタ適用の結果 (result) です。
type FiltersMeta struct {
	OriginalSize   int64    `json:"original_size"`
	OutputSize     int64    `json:"output_size"`
	Dimensions     []int    `json:"dimensions"`
	AppliedFilters []string `json:"applied_filters"`
	OutputFormat   string   `json:"output_format"`
}

// DecodeMeta はジョブの結果メタデータを種別ごとの型に変換します。
// 該当する型がない種別では meta をそのまま返します。
func DecodeMeta(op OperationType, meta map[string]any) (any, error) {
	var (
		target any
		source any = meta
	)
	switch op {
	case OperationCompress:
		target = &CompressMeta{}
	case OperationDeskew:
		target = &DeskewMeta{}
	case OperationImageConvert:
		target = &ConvertMeta{}
		source = meta["result"]
	case OperationRotate:
		target = &RotateMeta{}
		source = meta["output_info"]
	case OperationOCR:
		target = &OCRMeta{}
	case OperationImageCompress:
		target = &ImageCompressMeta{}
		source = meta["result"]
	case OperationImageResize:
		target = &ResizeMeta{}
		source = meta["result"]
	case OperationImageCrop:
		target = &CropMeta{}
		source = meta["result"]
	case OperationImageFilters:
		target = &FiltersMeta{}
		source = meta["result"]
	default:
		return meta, nil
	}
	if source == nil {
		return target, nil
	}

	raw, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("結果メタデータの変換に失敗しました: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("結果メタデータの解析に失敗しました (%s): %w", op, err)
	}
	return target, nil
}
