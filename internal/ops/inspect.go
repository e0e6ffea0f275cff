package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// Input は送信前に調べたローカルファイルの情報です。
type Input struct {
	Path  string     `json:"path"`
	Name  string     `json:"name"`
	Size  int64      `json:"size"`
	MIME  string     `json:"mime"`
	Class InputClass `json:"class,omitempty"`
	// Pages はPDFの場合のみ設定されます。
	Pages int `json:"pages,omitempty"`
}

// Limits は送信前に確認する上限値です。0 以下は無制限として扱います。
type Limits struct {
	MaxFileSize   int64
	MaxMergeFiles int
}

// Inspect はファイルの種類を判定し、PDFであればページ数を読み取ります。
func Inspect(path string) (Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Input{}, newError(CodeInvalidInput, fmt.Sprintf("ファイルを開けません: %s", path), err)
	}
	if info.IsDir() {
		return Input{}, newError(CodeInvalidInput, fmt.Sprintf("ディレクトリは指定できません: %s", path), nil)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Input{}, newError(CodeInvalidInput, fmt.Sprintf("ファイル形式の判定に失敗しました: %s", path), err)
	}

	in := Input{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mtype.String(),
	}

	switch {
	case mtype.Is("application/pdf"):
		in.Class = InputPDF
		pages, err := pdfapi.PageCountFile(path)
		if err != nil {
			return Input{}, newError(CodeUnsupportedPDF, "PDFの解析に失敗しました。ファイルが破損していないか確認してください。", err)
		}
		in.Pages = pages
	case strings.HasPrefix(mtype.String(), "image/"):
		in.Class = InputImage
	}

	return in, nil
}

// InspectAll は paths を順に Inspect します。
func InspectAll(paths []string) ([]Input, error) {
	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		in, err := Inspect(p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// CheckInputs は入力ファイルが種別の条件を満たしているか確認します。
func CheckInputs(spec Spec, inputs []Input, limits Limits) error {
	if len(inputs) == 0 {
		return newError(CodeInvalidInput, "ファイルを選択してください。", nil)
	}

	maxInputs := spec.MaxInputs
	if spec.Type == OperationMerge && limits.MaxMergeFiles > 0 {
		maxInputs = limits.MaxMergeFiles
	}
	if len(inputs) < spec.MinInputs {
		return newError(CodeInvalidInput, fmt.Sprintf("%d 個以上のファイルを選択してください。", spec.MinInputs), nil)
	}
	if maxInputs > 0 && len(inputs) > maxInputs {
		return newError(CodeLimitExceeded, fmt.Sprintf("ファイル数が上限(%d)を超えています。", maxInputs), nil)
	}

	for _, in := range inputs {
		if !spec.Accepts(in) {
			return newError(CodeUnsupportedType, fmt.Sprintf("%s は %s ファイルではありません (detected: %s)", in.Name, spec.Input, in.MIME), nil)
		}
		if limits.MaxFileSize > 0 && in.Size > limits.MaxFileSize {
			return newError(CodeLimitExceeded, fmt.Sprintf("%s のサイズが上限(%d bytes)を超えています。", in.Name, limits.MaxFileSize), nil)
		}
		if in.Class == InputPDF && in.Pages == 0 {
			return newError(CodeUnsupportedPDF, fmt.Sprintf("%s にページがありません。", in.Name), nil)
		}
	}
	return nil
}
