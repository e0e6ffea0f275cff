package jobs

import (
	"time"

	"github.com/yourusername/paper-courier/internal/ops"
)

const (
	defaultFailureMessage = "ジョブの処理に失敗しました。"
)

// Store は1件のジョブ情報をメモリ上に保持します。
// 排他制御は呼び出し側 (Controller) が行います。
type Store struct {
	record *Job
	now    func() time.Time
}

// NewStore は Store を作成します。
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Get はジョブ情報のコピーを返します。ジョブがない場合は nil です。
func (s *Store) Get() *Job {
	return s.record.clone()
}

// Begin はアップロード開始時のレコードを作成します。
func (s *Store) Begin(op ops.OperationType) {
	now := s.now().UTC()
	s.record = &Job{
		Operation: op,
		Status:    StatusUploading,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Assign はバックエンドが採番したジョブIDを記録します。
func (s *Store) Assign(jobID string) {
	s.updatePartial(func(record *Job) {
		record.ID = jobID
		record.Status = StatusCreated
	})
}

// Apply はステータス照会の結果を反映し、反映後の状態を返します。
// 状態は後戻りせず、処理済み件数は減りません。
func (s *Store) Apply(report StatusReport) Status {
	s.updatePartial(func(record *Job) {
		if report.Status.rank() >= record.Status.rank() {
			record.Status = report.Status
		}
		record.Progress = mergeProgress(record.Progress, report.Progress)

		switch record.Status {
		case StatusCompleted:
			record.ResultMetadata = make(map[string]any, len(report.Extras))
			for k, v := range report.Extras {
				record.ResultMetadata[k] = v
			}
			if record.Progress.TotalUnits > 0 {
				record.Progress.ProcessedUnits = record.Progress.TotalUnits
			}
			record.Progress.Percent = 100
		case StatusFailed:
			record.Error = report.Error
			if record.Error == "" {
				record.Error = defaultFailureMessage
			}
		}
	})
	if s.record == nil {
		return ""
	}
	return s.record.Status
}

// MarkFailed はクライアント側でジョブを失敗扱いにします (ステータス確認不能)。
func (s *Store) MarkFailed(message string) {
	s.updatePartial(func(record *Job) {
		record.Status = StatusFailed
		record.Error = message
		record.ResultMetadata = nil
	})
}

// Clear はジョブ情報を破棄します。
func (s *Store) Clear() {
	s.record = nil
}

func (s *Store) updatePartial(mutate func(*Job)) {
	if s.record == nil {
		return
	}
	mutate(s.record)
	s.record.UpdatedAt = s.now().UTC()
}

func mergeProgress(cur, next Progress) Progress {
	if next.TotalUnits > 0 {
		cur.TotalUnits = next.TotalUnits
	}
	if next.ProcessedUnits > cur.ProcessedUnits {
		cur.ProcessedUnits = next.ProcessedUnits
	}
	if cur.TotalUnits > 0 && cur.ProcessedUnits > cur.TotalUnits {
		cur.ProcessedUnits = cur.TotalUnits
	}
	if next.Percent > cur.Percent {
		cur.Percent = next.Percent
	}
	if cur.Percent > 100 {
		cur.Percent = 100
	}
	return cur
}
