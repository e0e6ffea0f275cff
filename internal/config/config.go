// Package config は環境変数と設定ファイルから設定を読み込み、クライアント全体で使用する設定を提供します。
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config はクライアントの設定を保持する構造体です。
type Config struct {
	// バックエンド接続設定
	ServerURL      string        `yaml:"server_url"`      // 変換サービスのベースURL
	APIPrefix      string        `yaml:"api_prefix"`      // APIルートの接頭辞
	RequestTimeout time.Duration `yaml:"request_timeout"` // 1リクエストあたりのタイムアウト

	// ポーリング設定
	PollInterval    time.Duration `yaml:"poll_interval"`     // ステータス確認の間隔
	MaxPollDuration time.Duration `yaml:"max_poll_duration"` // ポーリング打ち切りまでの時間（0は無制限）

	// 入力制限
	MaxFileSize   int64 `yaml:"max_file_size"`   // 単一ファイルの最大サイズ（バイト）
	MaxMergeFiles int   `yaml:"max_merge_files"` // 結合できる最大ファイル数

	// 出力設定
	OutputDir string `yaml:"output_dir"` // 成果物の保存先ディレクトリ

	// ログ設定
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // console, json
}

// Default はデフォルト値で埋めた Config を返します。
func Default() *Config {
	return &Config{
		ServerURL:       "http://localhost:8000",
		APIPrefix:       "/api",
		RequestTimeout:  30 * time.Second,
		PollInterval:    1500 * time.Millisecond,
		MaxPollDuration: 0,
		MaxFileSize:     104857600, // 100MB
		MaxMergeFiles:   10,
		OutputDir:       ".",
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load は設定ファイルと環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
// 優先順位は 環境変数 > PAPER_CONFIG_FILE の YAML > デフォルト です。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := Default()

	if path := os.Getenv("PAPER_CONFIG_FILE"); path != "" {
		if err := config.mergeFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	// 設定値のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerURL = getEnv("PAPER_SERVER_URL", c.ServerURL)
	c.APIPrefix = getEnv("PAPER_API_PREFIX", c.APIPrefix)
	c.RequestTimeout = getEnvAsDuration("PAPER_REQUEST_TIMEOUT", c.RequestTimeout)

	c.PollInterval = getEnvAsDuration("PAPER_POLL_INTERVAL", c.PollInterval)
	c.MaxPollDuration = getEnvAsDuration("PAPER_MAX_POLL_DURATION", c.MaxPollDuration)

	c.MaxFileSize = getEnvAsInt64("PAPER_MAX_FILE_SIZE", c.MaxFileSize)
	c.MaxMergeFiles = getEnvAsInt("PAPER_MAX_MERGE_FILES", c.MaxMergeFiles)

	c.OutputDir = getEnv("PAPER_OUTPUT_DIR", c.OutputDir)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("PAPER_SERVER_URL is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid PAPER_SERVER_URL: %q", c.ServerURL)
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("PAPER_API_PREFIX must start with '/': %q", c.APIPrefix)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("PAPER_POLL_INTERVAL must be greater than 0")
	}
	if c.MaxPollDuration < 0 {
		return fmt.Errorf("PAPER_MAX_POLL_DURATION must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("PAPER_REQUEST_TIMEOUT must be greater than 0")
	}
	if c.MaxMergeFiles < 2 {
		return fmt.Errorf("PAPER_MAX_MERGE_FILES must be at least 2")
	}
	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得します。
// "1500ms" のような形式に加え、単位なしの整数はミリ秒として扱います。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
