package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"meetscribe/metrics"
)

const (
	defaultSweepInterval    = 60 * time.Second
	defaultRecordingTimeout = 10 * time.Minute
	defaultIdleTimeout      = 5 * time.Minute
)

// RegistryConfig tunes the registry. Zero values fall back to the defaults
// above.
type RegistryConfig struct {
	// Dir is where capture buffers are written.
	Dir string
	// MaxBytes caps each session's accumulated audio.
	MaxBytes int64

	SweepInterval    time.Duration
	RecordingTimeout time.Duration
	IdleTimeout      time.Duration
}

// Registry owns every live Session, keyed by id, and runs the background
// sweep that evicts sessions idle past a state-dependent timeout. An active
// recording tolerates a longer stall than a session that never started.
type Registry struct {
	cfg    RegistryConfig
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRegistry(cfg RegistryConfig, logger *log.Logger) *Registry {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = MaxCaptureBytes
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.RecordingTimeout <= 0 {
		cfg.RecordingTimeout = defaultRecordingTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for id, creating it lazily on first
// reference.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	sess := newSession(id, r.cfg.Dir, r.cfg.MaxBytes)
	r.sessions[id] = sess
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return sess
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Remove drops the registry entry for id. The caller is responsible for the
// capture buffer.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshots returns monitoring info for every live session.
func (r *Registry) Snapshots() []Info {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Snapshot())
	}
	return infos
}

// Start launches the idle sweep. It runs until ctx is cancelled or Stop is
// called.
func (r *Registry) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()

		r.logger.Info("session sweep started",
			"interval", r.cfg.SweepInterval,
			"recording_timeout", r.cfg.RecordingTimeout,
			"idle_timeout", r.cfg.IdleTimeout)

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("session sweep stopping")
				return
			case <-ticker.C:
				r.sweep(time.Now())
			}
		}
	}()
}

// Stop cancels the sweep and waits for it to exit.
func (r *Registry) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// sweep evicts every session whose last activity predates its threshold.
// The per-session lock is held across buffer deletion so eviction cannot
// race a handler mid-write.
func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	expired := make([]*Session, 0)
	for _, sess := range r.sessions {
		timeout := r.cfg.IdleTimeout
		if sess.Recording() {
			timeout = r.cfg.RecordingTimeout
		}
		if now.Sub(sess.LastActivity()) > timeout {
			expired = append(expired, sess)
		}
	}
	for _, sess := range expired {
		delete(r.sessions, sess.ID)
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, sess := range expired {
		r.logger.Info("purging stale session", "session", sess.ID)
		sess.mu.Lock()
		if err := sess.Buffer.Remove(); err != nil {
			r.logger.Error("session cleanup failed",
				"session", sess.ID, "error", err)
		}
		sess.mu.Unlock()
		metrics.SessionsEvicted.Inc()
	}
}
