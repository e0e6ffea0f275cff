package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotIdle は Idle 以外の状態で Submit した場合に返ります。再送信には Reset が必要です。
	ErrNotIdle = errors.New("jobs: controller is not idle")
	// ErrEmptyPayload は入力が空の場合に返ります。
	ErrEmptyPayload = errors.New("jobs: payload is empty")
	// ErrReset は処理中に Reset され、結果が破棄された場合に返ります。
	ErrReset = errors.New("jobs: controller was reset")
	// ErrNoJob は待機対象のジョブがない場合に返ります。
	ErrNoJob = errors.New("jobs: no job in progress")
	// ErrClosed は Close 後の操作で返ります。
	ErrClosed = errors.New("jobs: controller is closed")
)

// SubmitStage は送信のどの段階で失敗したかを表します。
type SubmitStage string

const (
	StageCreate SubmitStage = "create"
	StageStart  SubmitStage = "start"
)

// SubmitError は送信時の通信エラーです。コントローラーは Idle に戻っています。
type SubmitError struct {
	Stage SubmitStage
	// JobID は作成済みのジョブがある場合に設定されます (StageStart)。
	JobID string
	Err   error
}

func (e *SubmitError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("jobs: %s request failed (job %s): %v", e.Stage, e.JobID, e.Err)
	}
	return fmt.Sprintf("jobs: %s request failed: %v", e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
