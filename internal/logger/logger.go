// Package logger は slog ベースのロガーを生成します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Config はロガーの設定です。
type Config struct {
	Level      string    // debug, info, warn, error
	Format     string    // console, json
	Output     io.Writer // 未指定の場合は標準エラー出力
	AddSource  bool
	TimeFormat string
	NoColor    bool
}

// New は設定に従って *slog.Logger を生成します。
func New(cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		})
	default:
		// コンソール向けは tint で色付き出力にする
		timeFormat := cfg.TimeFormat
		if timeFormat == "" {
			timeFormat = time.TimeOnly
		}
		handler = tint.NewHandler(writer, &tint.Options{
			Level:      level,
			AddSource:  cfg.AddSource,
			TimeFormat: timeFormat,
			NoColor:    cfg.NoColor,
		})
	}

	return slog.New(handler)
}

// NewDefault はコンソール形式・info レベルのロガーを返します。
func NewDefault() *slog.Logger {
	return New(Config{Level: "info", Format: "console"})
}

// Discard は何も出力しないロガーを返します。テストやライブラリ利用時の既定値です。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel は文字列を slog.Level に変換します。不明な値は info とみなします。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
