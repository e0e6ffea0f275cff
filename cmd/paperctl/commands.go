package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/paper-courier/internal/ops"
	"github.com/yourusername/paper-courier/internal/order"
)

func newMergeCmd(a *app) *cobra.Command {
	var orderExpr string
	cmd := &cobra.Command{
		Use:   "merge FILE FILE...",
		Short: "複数のPDFを並び順どおりに結合します",
		Long: `複数のPDFを結合します。ファイルは指定した順に結合されます。
--order で並べ替える場合は、引数の位置 (1始まり) を新しい順に並べて指定します (例: --order 2,1)。`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := ops.InspectAll(args)
			if err != nil {
				return err
			}
			files := order.Of(inputs...)
			if orderExpr != "" {
				positions, err := parsePositions(orderExpr)
				if err != nil {
					return err
				}
				if err := reorder(files, positions); err != nil {
					return err
				}
			}
			return a.runJob(cmd.Context(), ops.MergeParams{}, files.Payloads(), runOptions{})
		},
	}
	cmd.Flags().StringVar(&orderExpr, "order", "", "結合順 (引数の位置をカンマ区切りで指定)")
	return cmd
}

func newOrganizeCmd(a *app) *cobra.Command {
	var orderExpr string
	cmd := &cobra.Command{
		Use:   "organize FILE --order 3,1,2",
		Short: "PDFのページを並べ替えます",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			positions, err := parsePositions(orderExpr)
			if err != nil {
				return err
			}

			pages := order.New[int]()
			for i := 0; i < in.Pages; i++ {
				pages.Insert(i)
			}
			if err := reorder(pages, positions); err != nil {
				return err
			}
			params := ops.OrganizeParams{PageOrder: pages.Payloads()}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().StringVar(&orderExpr, "order", "", "新しいページ順 (1始まりのページ番号をカンマ区切りで指定)")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func newSplitCmd(a *app) *cobra.Command {
	var pagesExpr string
	cmd := &cobra.Command{
		Use:   "split FILE --pages 1-3,5",
		Short: "PDFから指定したページを抽出します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			pages, err := ops.SelectPages(pagesExpr, in.Pages)
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), ops.SplitParams{Pages: pages}, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().StringVar(&pagesExpr, "pages", "", `抽出するページ範囲 (例: "1-3,5,8-")`)
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

func newCompressCmd(a *app) *cobra.Command {
	var params ops.CompressParams
	var quality string
	cmd := &cobra.Command{
		Use:   "compress FILE",
		Short: "PDFを圧縮します",
		Long: `PDFを圧縮します。--quality / --percent / --max-size のいずれか1つを指定できます。
指定しない場合は medium 品質で圧縮します。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			params.Quality = ops.CompressQuality(quality)
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().StringVar(&quality, "quality", "", "圧縮品質 low|medium|high")
	cmd.Flags().IntVar(&params.CompressByPercent, "percent", 0, "削減率 (1-99)")
	cmd.Flags().Float64Var(&params.MaxFileSizeMB, "max-size", 0, "目標の最大ファイルサイズ (MB)")
	return cmd
}

func newDeskewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deskew FILE",
		Short: "スキャンしたPDFの傾きを補正します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), ops.DeskewParams{}, []ops.Input{in}, runOptions{})
		},
	}
}

func newPDFToImagesCmd(a *app) *cobra.Command {
	params := ops.NewPDFToImagesParams()
	var extract bool
	cmd := &cobra.Command{
		Use:   "pdf-to-images FILE",
		Short: "PDFの各ページを画像に変換します",
		Long: `PDFの各ページを画像に変換します。既定では zip アーカイブを保存します。
--zip=false の場合はページごとの画像 (page_0001.png ...) を個別に保存します。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			opts := runOptions{extract: extract}
			if !params.Zip {
				opts.pages = in.Pages
				opts.format = params.OutputFormat()
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, opts)
		},
	}
	cmd.Flags().IntVar(&params.DPI, "dpi", params.DPI, "解像度 (72-600)")
	cmd.Flags().StringVar(&params.Format, "format", params.Format, "画像形式 png|jpg|webp")
	cmd.Flags().BoolVar(&params.Zip, "zip", params.Zip, "zip アーカイブとして取得する")
	cmd.Flags().BoolVar(&extract, "extract", false, "取得したアーカイブを展開する")
	return cmd
}

func newConvertImageCmd(a *app) *cobra.Command {
	var params ops.ImageConvertParams
	cmd := &cobra.Command{
		Use:   "convert-image FILE --format webp",
		Short: "画像の形式を変換します",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := ops.Inspect(args[0])
			if err != nil {
				return err
			}
			return a.runJob(cmd.Context(), params, []ops.Input{in}, runOptions{})
		},
	}
	cmd.Flags().StringVar(&params.Format, "format", "", "変換先の形式 jpg|png|webp|avif|bmp|tiff|gif")
	cmd.Flags().IntVar(&params.Quality, "quality", 0, fmt.Sprintf("品質 1-100 (既定 %d)", ops.DefaultConvertQual))
	cmd.Flags().IntVar(&params.MaxWidth, "max-width", 0, "最大幅 (px)")
	cmd.Flags().IntVar(&params.MaxHeight, "max-height", 0, "最大高さ (px)")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func newPagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pages FILE...",
		Short: "ファイルの種類とページ数を表示します (送信はしません)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tPAGES\tSIZE")
			for _, path := range args {
				in, err := ops.Inspect(path)
				if err != nil {
					return err
				}
				pages := "-"
				if in.Class == ops.InputPDF {
					pages = strconv.Itoa(in.Pages)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", in.Name, in.MIME, pages, in.Size)
			}
			return w.Flush()
		},
	}
}

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "対応している変換の種類を表示します",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tINPUT\tFILES\tSTART\tRESULT")
			for _, op := range ops.Types() {
				spec := ops.Specs[op]
				start := "-"
				if spec.TwoCall {
					start = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%d-%d\t%s\t%s\n", op, spec.Input, spec.MinInputs, spec.MaxInputs, start, spec.Result)
			}
			return w.Flush()
		},
	}
}

// parsePositions は "2,1,3" のような 1 始まりの番号列を 0 始まりに変換します。
func parsePositions(expr string) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("order is empty")
	}
	parts := strings.Split(expr, ",")
	positions := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid position %q: %w", part, err)
		}
		positions = append(positions, n-1)
	}
	return positions, nil
}

// reorder はコレクションを positions (元の位置の並び) の順に並べ替えます。
func reorder[T any](c *order.Collection[T], positions []int) error {
	ids := c.IDs()
	if len(positions) != len(ids) {
		return fmt.Errorf("order must list all %d items, got %d", len(ids), len(positions))
	}
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(ids) {
			return fmt.Errorf("position %d is out of range (1-%d)", p+1, len(ids))
		}
		if seen[p] {
			return fmt.Errorf("position %d is listed twice", p+1)
		}
		seen[p] = true
	}
	for target, p := range positions {
		c.MoveToIndex(ids[p], target)
	}
	return nil
}
