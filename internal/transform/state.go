// Package transform は回転・反転の編集操作を1つの正規化された変換にまとめ、
// プレビュー描画と最終送信で同じ変換を使えるようにします。
package transform

// State は累積された幾何変換です。Rotation は常に [0, 360) に正規化されています。
type State struct {
	Rotation       int  `json:"rotation"`
	FlipHorizontal bool `json:"flipHorizontal"`
	FlipVertical   bool `json:"flipVertical"`
}

// IsIdentity は変換が恒等変換かどうかを返します。
func (s State) IsIdentity() bool {
	return s.Rotation == 0 && !s.FlipHorizontal && !s.FlipVertical
}

// Normalize は角度を [0, 360) に丸めます。負の値も正の剰余になります。
func Normalize(degrees int) int {
	r := degrees % 360
	if r < 0 {
		r += 360
	}
	return r
}

// Composer は回転・反転の操作を受け付けて State を更新します。
// ゼロ値は恒等変換として使えます。並行利用は想定していません。
type Composer struct {
	state State
}

// NewComposer は初期状態を指定して Composer を作成します。
func NewComposer(initial State) *Composer {
	initial.Rotation = Normalize(initial.Rotation)
	return &Composer{state: initial}
}

// State は現在の変換を返します。
func (c *Composer) State() State {
	return c.state
}

// RotateBy は現在の角度に delta を加算します（90°+90°=180°）。
// 加算前に delta を正規化するため、極端な値でも桁あふれしません。
func (c *Composer) RotateBy(delta int) State {
	c.state.Rotation = Normalize(c.state.Rotation + Normalize(delta))
	return c.state
}

// SetRotation は角度を絶対値で置き換えます。
func (c *Composer) SetRotation(degrees int) State {
	c.state.Rotation = Normalize(degrees)
	return c.state
}

// ToggleFlipHorizontal は左右反転を切り替えます。
func (c *Composer) ToggleFlipHorizontal() State {
	c.state.FlipHorizontal = !c.state.FlipHorizontal
	return c.state
}

// ToggleFlipVertical は上下反転を切り替えます。
func (c *Composer) ToggleFlipVertical() State {
	c.state.FlipVertical = !c.state.FlipVertical
	return c.state
}

// Reset は恒等変換に戻します。
func (c *Composer) Reset() State {
	c.state = State{}
	return c.state
}
