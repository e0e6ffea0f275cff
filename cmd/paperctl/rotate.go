package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yourusername/paper-courier/internal/ops"
	"github.com/yourusername/paper-courier/internal/transform"
)

func newRotateCmd(a *app) *cobra.Command {
	var (
		rotations    []int
		flipH, flipV bool
		params       ops.RotateParams
		preview      string
		previewOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "rotate FILE --rotate 90",
		Short: "画像を回転・反転します",
		Long: `画像を回転・反転します。--rotate は複数回指定でき、指定順に加算されます (負の値で反時計回り)。
--preview を指定すると、送信する変換をローカルで適用した PNG を書き出します。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}

			composer := transform.NewComposer(transform.State{})
			for _, deg := range rotations {
				composer.RotateBy(deg)
			}
			if flipH {
				composer.ToggleFlipHorizontal()
			}
			if flipV {
				composer.ToggleFlipVertical()
			}
			params.Transform = composer.State()

			if preview != "" {
				if err := writePreview(composer, in.Path, preview); err != nil {
					return err
				}
				a.log.Info("preview written", "path", preview, "rotation", params.Transform.Rotation)
				if previewOnly {
					return nil
				}
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().IntSliceVar(&rotations, "rotate", nil, "回転角度 (度、時計回り)")
	cmd.Flags().BoolVar(&flipH, "flip-h", false, "左右反転")
	cmd.Flags().BoolVar(&flipV, "flip-v", false, "上下反転")
	cmd.Flags().StringVar(&params.OutputFormat, "output-format", "", "出力形式 jpg|png|webp (既定は入力と同じ)")
	cmd.Flags().IntVar(&params.Quality, "quality", 0, fmt.Sprintf("品質 1-100 (既定 %d)", ops.DefaultRotateQual))
	cmd.Flags().StringVar(&preview, "preview", "", "プレビュー PNG の出力先")
	cmd.Flags().BoolVar(&previewOnly, "preview-only", false, "プレビューだけを書き出して送信しない")
	return cmd
}

// writePreview は元画像に変換を適用して PNG で保存します。
func writePreview(composer *transform.Composer, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	if err := png.Encode(out, composer.Render(img)); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return out.Close()
}
