package publisher

// Phase identifies where a resumable upload session currently is.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseTransfer Phase = "transfer"
	PhaseFinish   Phase = "finish"
	PhaseDone     Phase = "done"
	PhaseFailed   Phase = "failed"
)

// Session tracks one resumable upload. Sessions live only for the duration
// of a single publish call; nothing about them is persisted.
type Session struct {
	ID         string
	VideoID    string
	Phase      Phase
	BytesSent  int64
	TotalBytes int64
}

// advance moves the session forward. Phases only ever progress; a failed
// session stays failed.
func (s *Session) advance(next Phase) {
	if s.Phase == PhaseFailed {
		return
	}
	s.Phase = next
}

func (s *Session) fail() {
	s.Phase = PhaseFailed
}
