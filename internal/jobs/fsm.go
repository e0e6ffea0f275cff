package jobs

// State はコントローラーの状態です。
//
//	Idle → Submitting → Polling → Completed | Failed
//
// Submitting の失敗は Idle に戻ります。Reset はどの状態からでも Idle に戻します。
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateIdle:       {StateSubmitting},
	StateSubmitting: {StatePolling, StateIdle},
	StatePolling:    {StateCompleted, StateFailed},
}

// Terminal は終了状態かどうかを返します。
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// canTransitionTo は通常の遷移として許されるかを返します。Reset による Idle への遷移は含みません。
func (s State) canTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
