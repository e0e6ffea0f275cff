// Package jobs はサーバー上の1件の非同期ジョブを送信から終了まで管理します。
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourusername/paper-courier/internal/ops"
)

const (
	DefaultPollInterval = 1500 * time.Millisecond

	statusUnknownMessage = "ステータスを確認できませんでした。"
	pollTimeoutMessage   = "待機時間内に処理が完了しなかったため、ステータスを確認できませんでした。"
)

// Backend はジョブAPIへの呼び出しです。api.Client が実装します。
type Backend interface {
	CreateJob(ctx context.Context, spec ops.Spec, inputs []ops.Input, params ops.Params) (string, error)
	StartProcessing(ctx context.Context, spec ops.Spec, jobID string, params ops.Params) error
	GetStatus(ctx context.Context, spec ops.Spec, jobID string) (StatusReport, error)
}

// Options はコントローラーの設定です。
type Options struct {
	// PollInterval はステータス照会の間隔です。0 の場合は 1.5 秒です。
	PollInterval time.Duration
	// MaxPollDuration を超えても終了しない場合はステータス確認不能として失敗させます。0 は無制限です。
	MaxPollDuration time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// Controller は1件のジョブを所有します。送信後の再送信には Reset が必要です。
//
// Subscribe で登録した関数は状態が変わるたびに呼ばれます。登録関数の中から
// Submit / Reset / Close を同期的に呼び出してはいけません。
type Controller struct {
	backend Backend
	opts    Options
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	store   *Store
	failure *Failure
	gen     uint64
	version uint64
	handle  *pollHandle
	waitCh  chan struct{}
	closed  bool

	observers  map[int]func(Snapshot)
	nextObs    int
	notifyMu   sync.Mutex
	lastNotify uint64
}

// NewController は Controller を作成します。
func NewController(backend Backend, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPollDuration < 0 {
		opts.MaxPollDuration = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend:   backend,
		opts:      opts,
		log:       logger,
		state:     StateIdle,
		store:     NewStore(opts.Now),
		observers: make(map[int]func(Snapshot)),
	}
}

// Submit は入力をアップロードしてジョブを作成し、必要なら処理開始を要求してからポーリングを始めます。
// 成功時はジョブIDを返し、コントローラーは Polling になります。通信エラーの場合は *SubmitError を返し Idle に戻ります。
func (c *Controller) Submit(ctx context.Context, spec ops.Spec, inputs []ops.Input, params ops.Params) (string, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return "", ErrClosed
	case c.state != StateIdle:
		c.mu.Unlock()
		return "", ErrNotIdle
	case len(inputs) == 0:
		c.mu.Unlock()
		return "", ErrEmptyPayload
	}
	c.gen++
	gen := c.gen
	c.failure = nil
	c.waitCh = make(chan struct{})
	c.store.Begin(spec.Type)
	c.setStateLocked(StateSubmitting)
	c.unlockAndNotify()

	log := c.log.With("operation", string(spec.Type))
	log.Info("uploading inputs", "files", len(inputs))

	jobID, err := c.backend.CreateJob(ctx, spec, inputs, params)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return "", ErrReset
	}
	if err != nil {
		c.abortSubmitLocked()
		c.unlockAndNotify()
		log.Warn("job creation failed", "error", err)
		return "", &SubmitError{Stage: StageCreate, Err: err}
	}
	c.store.Assign(jobID)
	c.version++
	c.unlockAndNotify()

	log = log.With("job_id", jobID)
	if spec.TwoCall {
		err := c.backend.StartProcessing(ctx, spec, jobID, params)

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return "", ErrReset
		}
		if err != nil {
			c.abortSubmitLocked()
			c.unlockAndNotify()
			log.Warn("start processing failed", "error", err)
			return "", &SubmitError{Stage: StageStart, JobID: jobID, Err: err}
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return "", ErrReset
	}
	c.setStateLocked(StatePolling)
	c.handle = c.startPolling(spec, jobID, log)
	c.unlockAndNotify()

	log.Info("job submitted", "two_call", spec.TwoCall)
	return jobID, nil
}

// Reset はポーリングを止めてジョブを破棄し、Idle に戻します。
// 実行中の照会の結果は破棄されます。
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.unlockAndNotify()
}

// Close はポーリングを止め、照会用のゴルーチンの終了を待ちます。Close 後の Submit は ErrClosed になります。
func (c *Controller) Close() error {
	c.mu.Lock()
	h := c.handle
	c.closed = true
	c.resetLocked()
	c.unlockAndNotify()
	if h != nil {
		<-h.done
	}
	return nil
}

// Snapshot は現在の状態を返します。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State は現在の状態を返します。
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe は状態変化の通知先を登録し、登録解除用の関数を返します。
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.observers, id)
	}
}

// Wait はジョブが Completed か Failed になるまで待ち、その時点の Snapshot を返します。
// 途中で Reset された場合は ErrReset、送信に失敗して Idle に戻った場合は ErrNoJob を返します。
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.state.Terminal() {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	ch := c.waitCh
	gen := c.gen
	if c.state == StateIdle || ch == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrNoJob
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	case <-ch:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snapshotLocked()
	switch {
	case c.closed:
		return snap, ErrClosed
	case c.gen != gen:
		return snap, ErrReset
	case c.state.Terminal():
		return snap, nil
	}
	return snap, ErrNoJob
}

// applyReport は照会結果を反映し、ポーリングを終了すべきなら true を返します。
func (c *Controller) applyReport(h *pollHandle, report StatusReport, err error) bool {
	c.mu.Lock()
	if c.handle != h || c.state != StatePolling {
		c.mu.Unlock()
		return true
	}

	if err != nil {
		h.log.Warn("status check failed", "error", err)
		c.failLocked(&Failure{Kind: FailureStatusUnknown, Message: statusUnknownMessage, Err: err})
		c.unlockAndNotify()
		return true
	}

	status := c.store.Apply(report)
	switch status {
	case StatusCompleted:
		c.finishLocked(StateCompleted)
		h.log.Info("job completed")
	case StatusFailed:
		job := c.store.Get()
		c.failure = &Failure{Kind: FailureJob, Message: job.Error}
		c.finishLocked(StateFailed)
		h.log.Warn("job failed", "error", job.Error)
	default:
		c.version++
	}
	c.unlockAndNotify()
	return status.Terminal()
}

// expire は MaxPollDuration を超えた場合に呼ばれます。
func (c *Controller) expire(h *pollHandle) {
	c.mu.Lock()
	if c.handle != h || c.state != StatePolling {
		c.mu.Unlock()
		return
	}
	h.log.Warn("poll duration exceeded", "max_poll_duration", c.opts.MaxPollDuration)
	c.failLocked(&Failure{Kind: FailureStatusUnknown, Message: pollTimeoutMessage, Err: context.DeadlineExceeded})
	c.unlockAndNotify()
}

func (c *Controller) failLocked(f *Failure) {
	c.store.MarkFailed(f.Message)
	c.failure = f
	c.finishLocked(StateFailed)
}

// finishLocked は終了状態へ遷移し、ポーリングを一度だけ止めます。
func (c *Controller) finishLocked(next State) {
	c.setStateLocked(next)
	if c.handle != nil {
		c.handle.stop()
		c.handle = nil
	}
	c.releaseWaitersLocked()
}

func (c *Controller) abortSubmitLocked() {
	c.store.Clear()
	c.setStateLocked(StateIdle)
	c.releaseWaitersLocked()
}

func (c *Controller) resetLocked() {
	if c.handle != nil {
		c.handle.stop()
		c.handle = nil
	}
	c.gen++
	c.store.Clear()
	c.failure = nil
	c.state = StateIdle
	c.version++
	c.releaseWaitersLocked()
}

func (c *Controller) releaseWaitersLocked() {
	if c.waitCh != nil {
		close(c.waitCh)
		c.waitCh = nil
	}
}

func (c *Controller) setStateLocked(next State) {
	if !c.state.canTransitionTo(next) {
		c.log.Error("invalid state transition", "from", string(c.state), "to", string(next))
		return
	}
	c.state = next
	c.version++
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   c.state,
		Job:     c.store.Get(),
		Version: c.version,
	}
	if c.failure != nil {
		f := *c.failure
		snap.Failure = &f
	}
	return snap
}

// unlockAndNotify はロックを解放してから登録関数へ現在の状態を通知します。
// 古い Snapshot は新しいものより後に届かないよう捨てます。
func (c *Controller) unlockAndNotify() {
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Version <= c.lastNotify {
		return
	}
	c.lastNotify = snap.Version
	for _, fn := range c.observers {
		fn(snap)
	}
}
