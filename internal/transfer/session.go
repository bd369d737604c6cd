package transfer

import "fmt"

// State is the lifecycle state of an upload session.
type State int

const (
	Idle State = iota
	Sending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Sending, Succeeded, Failed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown upload state %q", text)
}

// Session tracks one upload. Cursor and Total count characters of the encoded
// payload, not raw bytes.
type Session struct {
	Token       string `json:"token"`
	Cursor      int    `json:"cursor"`
	Total       int    `json:"total"`
	Chunks      int    `json:"chunks"`
	TargetID    string `json:"target_id"`
	ContentType string `json:"content_type"`
	Name        string `json:"name"`
	State       State  `json:"state"`
}

// Done reports whether the cursor has consumed the encoded payload.
func (s *Session) Done() bool {
	return s.Cursor >= s.Total
}

func (s *Session) next(chunkSize int) (int, int) {
	return s.Cursor, min(s.Cursor+chunkSize, s.Total)
}
