package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/paper-courier/internal/ops"
)

func newOCRCmd(a *app) *cobra.Command {
	var (
		params ops.OCRParams
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "ocr FILE",
		Short: "スキャンしたPDF・画像から文字を抽出します",
		Long: `スキャンしたPDF (または JPEG/PNG 画像) から文字を抽出し、テキストと JSON の2つの結果を保存します。
対応言語: ` + strings.Join(ops.OCRLanguages(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			params.Mode = ops.OCRMode(mode)
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().StringVar(&params.Language, "lang", "eng", "認識する言語")
	cmd.Flags().StringVar(&mode, "mode", string(ops.OCRStandard), "方式 standard|enhanced")
	return cmd
}

func newPDFToWordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf-to-word FILE",
		Short: "PDFをWord文書 (.docx) に変換します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), ops.PDFToWordParams{}, []ops.Input{in}, runOptions{})
		},
	}
}

func newCompressImageCmd(a *app) *cobra.Command {
	var params ops.ImageCompressParams
	cmd := &cobra.Command{
		Use:   "compress-image FILE",
		Short: "画像を圧縮します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().IntVar(&params.Quality, "quality", 0, fmt.Sprintf("品質 1-100 (既定 %d)", ops.DefaultImageQuality))
	cmd.Flags().StringVar(&params.Preset, "preset", "", "プリセット maximum|high|balanced|compress|max_compress")
	cmd.Flags().IntVar(&params.TargetSizeKB, "target-kb", 0, "目標のファイルサイズ (KB)")
	cmd.Flags().IntVar(&params.MaxWidth, "max-width", 0, "最大幅 (px)")
	cmd.Flags().IntVar(&params.MaxHeight, "max-height", 0, "最大高さ (px)")
	cmd.Flags().StringVar(&params.OutputFormat, "output-format", "", "出力形式 (既定は入力と同じ)")
	return cmd
}

func newResizeImageCmd(a *app) *cobra.Command {
	var params ops.ImageResizeParams
	cmd := &cobra.Command{
		Use:   "resize-image FILE",
		Short: "画像を拡大・縮小します",
		Long: `画像を拡大・縮小します。--preset, --scale, --width/--height の順に優先されます。
--exact を指定しない場合は縦横比を保ちます。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().IntVar(&params.Width, "width", 0, "幅 (px)")
	cmd.Flags().IntVar(&params.Height, "height", 0, "高さ (px)")
	cmd.Flags().Float64Var(&params.ScalePercent, "scale", 0, "倍率 (%)")
	cmd.Flags().StringVar(&params.Preset, "preset", "", "プリセット thumbnail|small|medium|large|hd|4k")
	cmd.Flags().BoolVar(&params.IgnoreAspect, "exact", false, "縦横比を保たずに指定サイズにする")
	cmd.Flags().StringVar(&params.Resampling, "resampling", "", "補間方式 lanczos|bicubic|bilinear|nearest")
	cmd.Flags().StringVar(&params.OutputFormat, "output-format", "", "出力形式 (既定は入力と同じ)")
	cmd.Flags().IntVar(&params.Quality, "quality", 0, fmt.Sprintf("品質 1-100 (既定 %d)", ops.DefaultImageQuality))
	return cmd
}

func newCropImageCmd(a *app) *cobra.Command {
	var params ops.ImageCropParams
	cmd := &cobra.Command{
		Use:   "crop-image FILE",
		Short: "画像を切り抜きます",
		Long: `画像を切り抜きます。--aspect を指定しない場合は --x/--y/--width/--height の矩形で切り抜きます。
--aspect と --center を指定すると、縦横比に合う最大の範囲を中央から切り抜きます。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().IntVar(&params.X, "x", 0, "左端 (px)")
	cmd.Flags().IntVar(&params.Y, "y", 0, "上端 (px)")
	cmd.Flags().IntVar(&params.Width, "width", 0, "幅 (px)")
	cmd.Flags().IntVar(&params.Height, "height", 0, "高さ (px)")
	cmd.Flags().StringVar(&params.AspectRatio, "aspect", "", "縦横比 1:1|4:3|3:2|16:9|9:16")
	cmd.Flags().BoolVar(&params.CenterCrop, "center", false, "中央から切り抜く")
	cmd.Flags().StringVar(&params.OutputFormat, "output-format", "", "出力形式 (既定は入力と同じ)")
	cmd.Flags().IntVar(&params.Quality, "quality", 0, fmt.Sprintf("品質 1-100 (既定 %d)", ops.DefaultImageQuality))
	return cmd
}

func newFilterImageCmd(a *app) *cobra.Command {
	params := ops.NewImageFiltersParams()
	cmd := &cobra.Command{
		Use:   "filter-image FILE",
		Short: "画像に色調補正やフィルタを適用します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().Float64Var(&params.Brightness, "brightness", params.Brightness, "明るさ 0.0-2.0")
	cmd.Flags().Float64Var(&params.Contrast, "contrast", params.Contrast, "コントラスト 0.0-2.0")
	cmd.Flags().Float64Var(&params.Saturation, "saturation", params.Saturation, "彩度 0.0-2.0")
	cmd.Flags().Float64Var(&params.Sharpness, "sharpness", params.Sharpness, "シャープネス 0.0-2.0")
	cmd.Flags().IntVar(&params.Blur, "blur", 0, fmt.Sprintf("ぼかし半径 0-%d", ops.MaxBlurRadius))
	cmd.Flags().BoolVar(&params.Sharpen, "sharpen", false, "シャープ化")
	cmd.Flags().BoolVar(&params.EdgeEnhance, "edge-enhance", false, "輪郭強調")
	cmd.Flags().BoolVar(&params.Grayscale, "grayscale", false, "グレースケール")
	cmd.Flags().BoolVar(&params.Sepia, "sepia", false, "セピア")
	cmd.Flags().StringVar(&params.OutputFormat, "output-format", "", "出力形式 (既定は入力と同じ)")
	cmd.Flags().IntVar(&params.Quality, "quality", 0, fmt.Sprintf("品質 1-100 (既定 %d)", ops.DefaultFiltersQual))
	return cmd
}
