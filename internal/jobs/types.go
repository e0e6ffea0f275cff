package jobs

import (
	"strings"
	"time"

	"github.com/yourusername/paper-courier/internal/ops"
)

// Status はサーバー上のジョブの状態を表します。
type Status string

const (
	StatusCreated    Status = "created"
	StatusUploading  Status = "uploading"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus はバックエンドが返す状態文字列を Status に変換します。
// pending / uploaded は作成直後の状態として created に揃えます。
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "uploaded", "created":
		return StatusCreated, true
	case "uploading":
		return StatusUploading, true
	case "queued":
		return StatusQueued, true
	case "processing", "running":
		return StatusProcessing, true
	case "completed":
		return StatusCompleted, true
	case "failed", "error":
		return StatusFailed, true
	}
	return "", false
}

// Terminal は終了状態かどうかを返します。
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank は状態の前後関係です。queued と processing は同じ段階として扱います。
func (s Status) rank() int {
	switch s {
	case StatusUploading:
		return 0
	case StatusCreated:
		return 1
	case StatusQueued, StatusProcessing:
		return 2
	case StatusCompleted, StatusFailed:
		return 3
	}
	return -1
}

// Progress は処理の進み具合です。processing の間だけ意味を持ちます。
type Progress struct {
	ProcessedUnits int `json:"processedUnits"`
	TotalUnits     int `json:"totalUnits"`
	Percent        int `json:"percent"`
}

// Job はコントローラーが保持している1件のジョブです。
// Error は failed の場合のみ、ResultMetadata は completed の場合のみ設定されます。
type Job struct {
	ID             string            `json:"jobId"`
	Operation      ops.OperationType `json:"operation"`
	Status         Status            `json:"status"`
	Progress       Progress          `json:"progress"`
	Error          string            `json:"error,omitempty"`
	ResultMetadata map[string]any    `json:"resultMetadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (j *Job) clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.ResultMetadata != nil {
		cp.ResultMetadata = make(map[string]any, len(j.ResultMetadata))
		for k, v := range j.ResultMetadata {
			cp.ResultMetadata[k] = v
		}
	}
	return &cp
}

// StatusReport はステータス照会1回分の応答です。
type StatusReport struct {
	JobID    string
	Status   Status
	Progress Progress
	Error    string
	// Extras は既知の項目以外のトップレベル項目です。完了時に結果メタデータになります。
	Extras map[string]any
}

// FailureKind は失敗の種類です。
type FailureKind string

const (
	// FailureJob はバックエンドがジョブの失敗を報告した場合です。
	FailureJob FailureKind = "job"
	// FailureStatusUnknown はステータスを確認できなくなった場合です。ジョブ自体の成否は不明です。
	FailureStatusUnknown FailureKind = "status_unknown"
)

// Failure は Failed 状態の理由です。
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// Snapshot はある時点のコントローラーの状態です。
type Snapshot struct {
	State   State    `json:"state"`
	Job     *Job     `json:"job,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
	// Version は状態が変わるたびに増えます。
	Version uint64 `json:"version"`
}
