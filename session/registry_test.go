package session

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"meetscribe/analyze"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(RegistryConfig{Dir: t.TempDir()}, log.New(io.Discard))
}

func backdate(sess *Session, d time.Duration) {
	sess.mu.Lock()
	sess.lastActivity = time.Now().Add(-d)
	sess.mu.Unlock()
}

func TestGetOrCreateIsLazy(t *testing.T) {
	r := newTestRegistry(t)

	a := r.GetOrCreate("s1")
	b := r.GetOrCreate("s1")
	if a != b {
		t.Error("same id produced distinct sessions")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if a.Title() != "Live Meeting" {
		t.Errorf("default title = %q", a.Title())
	}
}

func TestSweepRecordingThreshold(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	evicted := r.GetOrCreate("old")
	evicted.SetMetadata([]analyze.Participant{{Name: "A", Email: "a@x.com"}}, "")
	backdate(evicted, 601*time.Second)

	kept := r.GetOrCreate("fresh")
	kept.SetMetadata(nil, "")
	backdate(kept, 250*time.Second)

	r.sweep(now)

	if _, ok := r.Get("old"); ok {
		t.Error("recording idle 601s survived the sweep")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Error("recording idle 250s was evicted")
	}
}

func TestSweepIdleThreshold(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Now()

	// No metadata ever arrived, so the shorter 5 minute grace applies.
	stale := r.GetOrCreate("stale")
	backdate(stale, 301*time.Second)

	recent := r.GetOrCreate("recent")
	backdate(recent, 250*time.Second)

	r.sweep(now)

	if _, ok := r.Get("stale"); ok {
		t.Error("idle session past 5 minutes survived the sweep")
	}
	if _, ok := r.Get("recent"); !ok {
		t.Error("idle session under 5 minutes was evicted")
	}
}

func TestSweepDeletesBuffer(t *testing.T) {
	r := newTestRegistry(t)

	sess := r.GetOrCreate("doomed")
	if err := sess.AppendAudio(make([]byte, 64)); err != nil {
		t.Fatalf("AppendAudio: %v", err)
	}
	path := sess.Buffer.Path()
	backdate(sess, time.Hour)

	r.sweep(time.Now())

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("capture buffer survived eviction")
	}
}

func TestRecordChunkSeqGapDetection(t *testing.T) {
	r := newTestRegistry(t)
	sess := r.GetOrCreate("seq")

	if gap, _ := sess.RecordChunkSeq(1); gap {
		t.Error("first sequence number reported as gap")
	}
	if gap, _ := sess.RecordChunkSeq(2); gap {
		t.Error("consecutive sequence reported as gap")
	}
	gap, expected := sess.RecordChunkSeq(5)
	if !gap {
		t.Error("jump from 2 to 5 not reported as gap")
	}
	if expected != 3 {
		t.Errorf("expected = %d, want 3", expected)
	}
}

func TestSessionMetadataLastWriteWins(t *testing.T) {
	r := newTestRegistry(t)
	sess := r.GetOrCreate("meta")

	sess.SetMetadata([]analyze.Participant{{Name: "A", Email: "a@x.com"}}, "First")
	sess.SetMetadata([]analyze.Participant{
		{Name: "B", Email: "b@x.com"},
		{Name: "C", Email: "c@x.com"},
	}, "Second")

	if !sess.Recording() {
		t.Error("metadata did not mark session recording")
	}
	if got := sess.Title(); got != "Second" {
		t.Errorf("title = %q, want %q", got, "Second")
	}
	if got := sess.Participants(); len(got) != 2 || got[0].Email != "b@x.com" {
		t.Errorf("participants = %v, want replaced roster", got)
	}
}

func TestRegistryStartStop(t *testing.T) {
	r := NewRegistry(RegistryConfig{
		Dir:           t.TempDir(),
		SweepInterval: 10 * time.Millisecond,
	}, log.New(io.Discard))

	sess := r.GetOrCreate("s")
	backdate(sess, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	deadline := time.After(2 * time.Second)
	for r.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("sweep never evicted the stale session")
		case <-time.After(5 * time.Millisecond):
		}
	}
	r.Stop()
}
