// Package ops はバックエンドが提供する変換種別ごとの送信仕様（ルート・アップロード形式・
// 2段階呼び出しの有無・成果物の形）とパラメータを定義します。
package ops

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// OperationType は変換の種別を表します。
type OperationType string

const (
	OperationMerge         OperationType = "merge"
	OperationSplit         OperationType = "split"
	OperationOrganize      OperationType = "organize"
	OperationCompress      OperationType = "compress"
	OperationDeskew        OperationType = "deskew"
	OperationPDFToImages   OperationType = "pdf-to-images"
	OperationImageConvert  OperationType = "image-convert"
	OperationRotate        OperationType = "rotate"
	OperationOCR           OperationType = "ocr"
	OperationPDFToWord     OperationType = "pdf-to-word"
	OperationImageCompress OperationType = "image-compress"
	OperationImageResize   OperationType = "image-resize"
	OperationImageCrop     OperationType = "image-crop"
	OperationImageFilters  OperationType = "image-filters"
)

// ResultKind は成果物が単一ファイルか、複数ファイルのアーカイブかを表します。
type ResultKind string

const (
	ResultKindSingle  ResultKind = "single"
	ResultKindArchive ResultKind = "archive"
)

// InputClass は入力ファイルの種類です。
type InputClass string

const (
	InputPDF   InputClass = "pdf"
	InputImage InputClass = "image"
	// InputScan はPDFまたは JPEG/PNG 画像です。画像はサーバー側でPDFに変換されます。
	InputScan InputClass = "pdf/image"
)

var scanImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// Accepts は入力がこの種別で受け付けられる種類かどうかを返します。
func (s Spec) Accepts(in Input) bool {
	if s.Input == InputScan {
		if in.Class == InputPDF {
			return true
		}
		_, ok := scanImageTypes[in.MIME]
		return in.Class == InputImage && ok
	}
	return in.Class == s.Input
}

// Spec は1種別分の送信仕様です。パス中の {id} はジョブIDに置き換えます。
type Spec struct {
	Type         OperationType
	CreatePath   string
	StartPath    string
	StatusPath   string
	DownloadPath string
	// Formats が空でない場合、DownloadPath の {format} を形式ごとに置き換えて複数の成果物を取得します。
	Formats []string
	// ItemPattern は個別ファイルのパスです。APIプレフィックスの外側にあります。
	ItemPattern string
	UploadField string
	MultiFile   bool
	// TwoCall が true の場合、作成直後に StartPath へ処理開始を要求します。
	TwoCall   bool
	Input     InputClass
	MinInputs int
	MaxInputs int
	Result    ResultKind
}

// Specs は対応する全種別の送信仕様です。
var Specs = map[OperationType]Spec{
	OperationMerge: {
		Type:         OperationMerge,
		CreatePath:   "/merge-pdf/jobs",
		StartPath:    "/merge-pdf/jobs/{id}/process",
		StatusPath:   "/merge-pdf/jobs/{id}",
		DownloadPath: "/merge-pdf/jobs/{id}/download",
		UploadField:  "files",
		MultiFile:    true,
		TwoCall:      true,
		Input:        InputPDF,
		MinInputs:    2,
		MaxInputs:    10,
		Result:       ResultKindSingle,
	},
	OperationOrganize: {
		Type:         OperationOrganize,
		CreatePath:   "/organize-pdf/jobs",
		StartPath:    "/organize-pdf/jobs/{id}/process",
		StatusPath:   "/organize-pdf/jobs/{id}",
		DownloadPath: "/organize-pdf/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputPDF,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationSplit: {
		Type:         OperationSplit,
		CreatePath:   "/split-pdf/jobs",
		StartPath:    "/split-pdf/jobs/{id}/process",
		StatusPath:   "/split-pdf/jobs/{id}/status",
		DownloadPath: "/split-pdf/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputPDF,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationCompress: {
		Type:         OperationCompress,
		CreatePath:   "/compress-pdf/jobs",
		StartPath:    "/compress-pdf/jobs/{id}/process",
		StatusPath:   "/compress-pdf/jobs/{id}",
		DownloadPath: "/compress-pdf/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputPDF,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationDeskew: {
		Type:         OperationDeskew,
		CreatePath:   "/deskew-pdf/jobs",
		StartPath:    "/deskew-pdf/jobs/{id}/process",
		StatusPath:   "/deskew-pdf/jobs/{id}",
		DownloadPath: "/deskew-pdf/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputPDF,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationPDFToImages: {
		Type:         OperationPDFToImages,
		CreatePath:   "/pdf-to-images/jobs",
		StatusPath:   "/pdf-to-images/jobs/{id}",
		DownloadPath: "/pdf-to-images/jobs/{id}/assets/download",
		ItemPattern:  "/files/{id}/{name}",
		UploadField:  "file",
		Input:        InputPDF,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindArchive,
	},
	OperationImageConvert: {
		Type:         OperationImageConvert,
		CreatePath:   "/image-converter/jobs",
		StartPath:    "/image-converter/jobs/{id}/convert",
		StatusPath:   "/image-converter/jobs/{id}/status",
		DownloadPath: "/image-converter/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputImage,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationRotate: {
		Type:         OperationRotate,
		CreatePath:   "/image-rotate/upload",
		StartPath:    "/image-rotate/jobs/{id}/transform",
		StatusPath:   "/image-rotate/jobs/{id}/status",
		DownloadPath: "/image-rotate/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputImage,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationOCR: {
		Type:         OperationOCR,
		CreatePath:   "/ocr-pdf/jobs",
		StartPath:    "/ocr-pdf/jobs/{id}/process",
		StatusPath:   "/ocr-pdf/jobs/{id}",
		DownloadPath: "/ocr-pdf/jobs/{id}/download/{format}",
		Formats:      []string{"txt", "json"},
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputScan,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationPDFToWord: {
		Type:         OperationPDFToWord,
		CreatePath:   "/pdf-to-word/jobs",
		StartPath:    "/pdf-to-word/jobs/{id}/process",
		StatusPath:   "/pdf-to-word/jobs/{id}/status",
		DownloadPath: "/pdf-to-word/jobs/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputPDF,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	},
	OperationImageCompress: imageJobSpec(OperationImageCompress, "image-compressor", "compress"),
	OperationImageResize:   imageJobSpec(OperationImageResize, "image-resizer", "resize"),
	OperationImageCrop:     imageJobSpec(OperationImageCrop, "image-cropper", "crop"),
	OperationImageFilters:  imageJobSpec(OperationImageFilters, "image-filters", "apply"),
}

// imageJobSpec は /{base}/jobs 形式の画像1枚を扱う種別の仕様です。
func imageJobSpec(op OperationType, base, action string) Spec {
	root := "/" + base + "/jobs"
	return Spec{
		Type:         op,
		CreatePath:   root,
		StartPath:    root + "/{id}/" + action,
		StatusPath:   root + "/{id}/status",
		DownloadPath: root + "/{id}/download",
		UploadField:  "file",
		TwoCall:      true,
		Input:        InputImage,
		MinInputs:    1,
		MaxInputs:    1,
		Result:       ResultKindSingle,
	}
}

// Lookup は種別に対応する送信仕様を返します。
func Lookup(op OperationType) (Spec, error) {
	spec, ok := Specs[op]
	if !ok {
		return Spec{}, newError(CodeInvalidInput, fmt.Sprintf("未対応の変換種別です: %s", op), nil)
	}
	return spec, nil
}

// Types は対応する種別を名前順に返します。
func Types() []OperationType {
	types := make([]OperationType, 0, len(Specs))
	for op := range Specs {
		types = append(types, op)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Path はパステンプレートの {id} をエスケープ済みのジョブIDで置き換えます。
func Path(template, jobID string) string {
	return strings.ReplaceAll(template, "{id}", url.PathEscape(jobID))
}
