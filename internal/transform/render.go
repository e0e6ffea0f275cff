package transform

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Bounds は回転後の矩形を包む軸平行バウンディングボックスの寸法を返します。
func (s State) Bounds(width, height int) (int, int) {
	sin, cos := sinCos(s.Rotation)
	w := float64(width)*math.Abs(cos) + float64(height)*math.Abs(sin)
	h := float64(width)*math.Abs(sin) + float64(height)*math.Abs(cos)
	return int(math.Round(w)), int(math.Round(h))
}

// Matrix は元画像の座標を出力キャンバスの座標へ写す行列を返します。
// 適用順は 中心へ平行移動 → 回転 → 左右反転 → 上下反転 → 元画像を原点中心に配置 で固定です。
func (s State) Matrix(src image.Rectangle) f64.Aff3 {
	outW, outH := s.Bounds(src.Dx(), src.Dy())
	sin, cos := sinCos(s.Rotation)

	fx, fy := 1.0, 1.0
	if s.FlipHorizontal {
		fx = -1
	}
	if s.FlipVertical {
		fy = -1
	}

	// R(θ)·S(fx, fy)
	a, b := cos*fx, -sin*fy
	d, e := sin*fx, cos*fy

	scx := float64(src.Min.X) + float64(src.Dx())/2
	scy := float64(src.Min.Y) + float64(src.Dy())/2
	dcx := float64(outW) / 2
	dcy := float64(outH) / 2

	return f64.Aff3{
		a, b, dcx - (a*scx + b*scy),
		d, e, dcy - (d*scx + e*scy),
	}
}

// Render は現在の変換を適用したプレビュー画像を生成します。
func (s State) Render(src image.Image) *image.RGBA {
	return s.RenderWith(src, draw.ApproxBiLinear)
}

// RenderWith は補間方式を指定して描画します。プレビューと最終出力は同じ経路を通します。
func (s State) RenderWith(src image.Image, interp draw.Transformer) *image.RGBA {
	sr := src.Bounds()
	outW, outH := s.Bounds(sr.Dx(), sr.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	if sr.Empty() {
		return dst
	}
	interp.Transform(dst, s.Matrix(sr), src, sr, draw.Over, nil)
	return dst
}

// Render は Composer の現在の State で描画します。
func (c *Composer) Render(src image.Image) *image.RGBA {
	return c.state.Render(src)
}

// sinCos は90度の倍数で誤差のない値を返します。
func sinCos(degrees int) (float64, float64) {
	switch Normalize(degrees) {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(float64(degrees) * math.Pi / 180)
}
