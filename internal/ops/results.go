package ops

import (
	"fmt"
	"net/url"
	"strings"
)

// Locator は成果物の取得先です。
type Locator struct {
	Name string     `json:"name"`
	URL  string     `json:"url"`
	Kind ResultKind `json:"kind"`
}

var resultFilenames = map[OperationType]string{
	OperationMerge:         "merged.pdf",
	OperationOrganize:      "organized.pdf",
	OperationSplit:         "split.pdf",
	OperationCompress:      "compressed.pdf",
	OperationDeskew:        "deskewed.pdf",
	OperationPDFToImages:   "images.zip",
	OperationImageConvert:  "converted",
	OperationRotate:        "rotated",
	OperationOCR:           "extracted_text",
	OperationPDFToWord:     "converted.docx",
	OperationImageCompress: "compressed",
	OperationImageResize:   "resized",
	OperationImageCrop:     "cropped",
	OperationImageFilters:  "filtered",
}

// Resolver はジョブIDから成果物の取得先を組み立てます。入力の検証は行いません。
// 呼び出し側はジョブが完了していることを確認してから使います。
type Resolver struct {
	serverURL string
	apiPrefix string
}

// NewResolver は Resolver を作成します。
func NewResolver(serverURL, apiPrefix string) Resolver {
	return Resolver{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiPrefix: "/" + strings.Trim(apiPrefix, "/"),
	}
}

// LocatorsFor は種別のテンプレートに従って成果物の取得先を返します。
// 単一ファイルの種別は1件、アーカイブの種別はアーカイブ本体の1件です。
// 出力形式を複数持つ種別 (OCR の txt / json など) は形式ごとに1件ずつ返します。
func (r Resolver) LocatorsFor(spec Spec, jobID string) []Locator {
	name := resultFilenames[spec.Type]
	if name == "" {
		name = "result"
	}
	kind := spec.Result
	if kind == "" {
		kind = ResultKindSingle
	}
	path := Path(spec.DownloadPath, jobID)
	if len(spec.Formats) == 0 {
		return []Locator{{Name: name, URL: r.apiURL(path), Kind: kind}}
	}

	locators := make([]Locator, len(spec.Formats))
	for i, format := range spec.Formats {
		locators[i] = Locator{
			Name: name + "." + format,
			URL:  r.apiURL(strings.ReplaceAll(path, "{format}", url.PathEscape(format))),
			Kind: kind,
		}
	}
	return locators
}

// ItemLocators はアーカイブに含まれる個別ファイル (page_0001.png ...) の取得先を返します。
// 個別ファイルを持たない種別では nil を返します。
func (r Resolver) ItemLocators(spec Spec, jobID, format string, pages int) []Locator {
	if spec.ItemPattern == "" || pages <= 0 {
		return nil
	}
	if format == "" {
		format = defaultImagesFormat
	}
	items := make([]Locator, pages)
	for i := range items {
		name := PageFilename(i+1, format)
		path := strings.ReplaceAll(Path(spec.ItemPattern, jobID), "{name}", name)
		items[i] = Locator{Name: name, URL: r.serverURL + path, Kind: ResultKindSingle}
	}
	return items
}

// PageFilename はバックエンドがページ画像に付けるファイル名です (1-based)。
func PageFilename(page int, format string) string {
	return fmt.Sprintf("page_%04d.%s", page, format)
}

func (r Resolver) apiURL(path string) string {
	if r.apiPrefix == "/" {
		return r.serverURL + path
	}
	return r.serverURL + r.apiPrefix + path
}
