package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourusername/paper-courier/internal/ops"
)

// pollHandle は1件のジョブのポーリングを所有します。stop は何度呼んでも一度だけ効きます。
type pollHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	log    *slog.Logger
}

func (h *pollHandle) stop() {
	h.once.Do(h.cancel)
}

// startPolling は照会用のゴルーチンを起動します。c.mu を保持した状態で呼びます。
func (c *Controller) startPolling(spec ops.Spec, jobID string, log *slog.Logger) *pollHandle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &pollHandle{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}
	go c.poll(h, spec, jobID)
	return h
}

func (c *Controller) poll(h *pollHandle, spec ops.Spec, jobID string) {
	defer close(h.done)
	defer h.stop()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if c.opts.MaxPollDuration > 0 {
		timer := time.NewTimer(c.opts.MaxPollDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-deadline:
			c.expire(h)
			return
		case <-ticker.C:
		}

		report, err := c.backend.GetStatus(h.ctx, spec, jobID)
		if h.ctx.Err() != nil {
			// Reset / Close 済み。結果は捨てる
			return
		}
		h.log.Debug("status polled", "status", string(report.Status), "processed", report.Progress.ProcessedUnits, "total", report.Progress.TotalUnits)
		if c.applyReport(h, report, err) {
			return
		}
	}
}
