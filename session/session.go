package session

import (
	"sync"
	"time"

	"meetscribe/analyze"
)

const defaultTitle = "Live Meeting"

// MinChunkBytes is the smallest binary frame treated as audio. Anything
// shorter is keep-alive noise and gets discarded without error.
const MinChunkBytes = 10

// Session is the accumulated state for one live capture attempt: the
// capture buffer, the participant roster, the mute-event log, the declared
// chunk sequence, and the lifecycle flags. One connection owns a session at
// a time; the session mutex serializes buffer writes and eviction.
type Session struct {
	ID     string
	Buffer *CaptureBuffer

	mu            sync.Mutex
	participants  []analyze.Participant
	title         string
	muteEvents    []analyze.MuteEvent
	chunkSequence []int64
	lastActivity  time.Time
	isRecording   bool
	isFinalized   bool
}

func newSession(id, dir string, maxBytes int64) *Session {
	return &Session{
		ID:           id,
		Buffer:       NewCaptureBuffer(dir, maxBytes),
		title:        defaultTitle,
		lastActivity: time.Now(),
	}
}

// Touch refreshes the activity timestamp. Called on every inbound frame
// before the frame is interpreted.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// AppendAudio writes an audio chunk to the capture buffer under the session
// lock. Returns ErrSizeLimit when the chunk would exceed the byte ceiling.
func (s *Session) AppendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Buffer.Append(chunk)
}

// WouldExceedLimit reports whether an n-byte chunk would push the capture
// buffer past its byte ceiling.
func (s *Session) WouldExceedLimit(n int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Buffer.WouldExceed(n)
}

// SetMetadata replaces the roster and title wholesale and marks the session
// as actively recording. Last write wins.
func (s *Session) SetMetadata(participants []analyze.Participant, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = participants
	if title != "" {
		s.title = title
	}
	s.isRecording = true
}

// RecordMute appends a mute event to the session log.
func (s *Session) RecordMute(ev analyze.MuteEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muteEvents = append(s.muteEvents, ev)
}

// RecordChunkSeq appends a declared sequence number and reports whether it
// broke continuity. Ordering is advisory only; audio bytes are written in
// arrival order regardless.
func (s *Session) RecordChunkSeq(seq int64) (gap bool, expected int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.chunkSequence); n > 0 {
		expected = s.chunkSequence[n-1] + 1
		gap = seq != expected
	}
	s.chunkSequence = append(s.chunkSequence, seq)
	return gap, expected
}

// Finalize marks the session as having produced and delivered its terminal
// result.
func (s *Session) Finalize() {
	s.mu.Lock()
	s.isFinalized = true
	s.isRecording = false
	s.mu.Unlock()
}

func (s *Session) BytesReceived() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Buffer.Size()
}

func (s *Session) Participants() []analyze.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]analyze.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

func (s *Session) MuteEvents() []analyze.MuteEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]analyze.MuteEvent, len(s.muteEvents))
	copy(out, s.muteEvents)
	return out
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRecording
}

func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isFinalized
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Info is a point-in-time snapshot for the monitoring surface.
type Info struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	BytesReceived int64     `json:"bytes_received"`
	Participants  int       `json:"participants"`
	MuteEvents    int       `json:"mute_events"`
	IsRecording   bool      `json:"is_recording"`
	IsFinalized   bool      `json:"is_finalized"`
	LastActivity  time.Time `json:"last_activity"`
}

func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:            s.ID,
		Title:         s.title,
		BytesReceived: s.Buffer.Size(),
		Participants:  len(s.participants),
		MuteEvents:    len(s.muteEvents),
		IsRecording:   s.isRecording,
		IsFinalized:   s.isFinalized,
		LastActivity:  s.lastActivity,
	}
}
