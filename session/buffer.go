package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxCaptureBytes is the hard ceiling on accumulated audio per session.
const MaxCaptureBytes = 100 * 1024 * 1024

// ErrSizeLimit is returned when an append would push the buffer past its
// byte ceiling. The chunk is not written.
var ErrSizeLimit = errors.New("capture size limit exceeded")

// CaptureBuffer is the append-only on-disk accumulation of raw audio bytes
// for one session. The file name is derived from a fresh UUID so that
// client-supplied session ids never reach the filesystem.
//
// CaptureBuffer does no locking of its own; the owning Session serializes
// access.
type CaptureBuffer struct {
	path     string
	maxBytes int64
	bytes    int64
}

func NewCaptureBuffer(dir string, maxBytes int64) *CaptureBuffer {
	if maxBytes <= 0 {
		maxBytes = MaxCaptureBytes
	}
	name := fmt.Sprintf("capture_%s.webm", uuid.NewString())
	return &CaptureBuffer{
		path:     filepath.Join(dir, name),
		maxBytes: maxBytes,
	}
}

// Append writes chunk at the end of the buffer file. The size check happens
// before any bytes hit the disk, so a rejected chunk leaves the buffer
// untouched.
func (b *CaptureBuffer) Append(chunk []byte) error {
	if b.bytes+int64(len(chunk)) > b.maxBytes {
		return ErrSizeLimit
	}

	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open capture buffer: %w", err)
	}
	defer f.Close()

	n, err := f.Write(chunk)
	b.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("write capture buffer: %w", err)
	}
	return nil
}

// WouldExceed reports whether accepting n more bytes would pass the ceiling.
func (b *CaptureBuffer) WouldExceed(n int64) bool {
	return b.bytes+n > b.maxBytes
}

// Size reports the bytes accepted so far.
func (b *CaptureBuffer) Size() int64 {
	return b.bytes
}

func (b *CaptureBuffer) Path() string {
	return b.path
}

// Remove deletes the buffer file. Removing a buffer that never received a
// chunk is not an error.
func (b *CaptureBuffer) Remove() error {
	err := os.Remove(b.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove capture buffer: %w", err)
	}
	return nil
}
