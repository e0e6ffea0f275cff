package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFilename は保存先ディレクトリに書き出すジョブ記録のファイル名です。
const ManifestFilename = "manifest.json"

// Manifest は完了したジョブの記録です。
type Manifest struct {
	JobID       string         `json:"jobId"`
	Operation   string         `json:"operation"`
	Status      string         `json:"status"`
	Inputs      []ManifestFile `json:"inputs"`
	Outputs     []ManifestFile `json:"outputs,omitempty"`
	Error       string         `json:"error,omitempty"`
	Meta        any            `json:"meta,omitempty"`
	CompletedAt time.Time      `json:"completedAt"`
}

// ManifestFile は入力または出力ファイルの情報です。
type ManifestFile struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Size  int64  `json:"size"`
	Pages int    `json:"pages,omitempty"`
}

// WriteManifest は manifest.json を保存先ディレクトリに書き出します（上書き）。
func (l *Local) WriteManifest(manifest *Manifest) (string, error) {
	if manifest == nil {
		return "", fmt.Errorf("manifest is nil")
	}
	path := filepath.Join(l.dir, ManifestFilename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// LoadManifest は保存先ディレクトリの manifest.json を読み込みます。
func (l *Local) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}
