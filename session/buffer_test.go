package session

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func TestCaptureBufferByteAccounting(t *testing.T) {
	buf := NewCaptureBuffer(t.TempDir(), 0)

	chunks := [][]byte{
		bytes.Repeat([]byte{0x01}, 1024),
		bytes.Repeat([]byte{0x02}, 37),
		bytes.Repeat([]byte{0x03}, 4096),
	}

	var want int64
	for _, c := range chunks {
		if err := buf.Append(c); err != nil {
			t.Fatalf("Append: %v", err)
		}
		want += int64(len(c))
	}

	if buf.Size() != want {
		t.Errorf("Size() = %d, want %d", buf.Size(), want)
	}

	info, err := os.Stat(buf.Path())
	if err != nil {
		t.Fatalf("stat buffer file: %v", err)
	}
	if info.Size() != want {
		t.Errorf("on-disk size = %d, want %d", info.Size(), want)
	}
}

func TestCaptureBufferSizeLimit(t *testing.T) {
	buf := NewCaptureBuffer(t.TempDir(), 100)

	if err := buf.Append(bytes.Repeat([]byte{0xAA}, 90)); err != nil {
		t.Fatalf("Append under limit: %v", err)
	}

	err := buf.Append(bytes.Repeat([]byte{0xBB}, 20))
	if !errors.Is(err, ErrSizeLimit) {
		t.Fatalf("err = %v, want ErrSizeLimit", err)
	}

	// The rejected chunk never touched the disk.
	if buf.Size() != 90 {
		t.Errorf("Size() = %d after rejection, want 90", buf.Size())
	}
	info, err := os.Stat(buf.Path())
	if err != nil {
		t.Fatalf("stat buffer file: %v", err)
	}
	if info.Size() != 90 {
		t.Errorf("on-disk size = %d after rejection, want 90", info.Size())
	}
}

func TestCaptureBufferRemove(t *testing.T) {
	buf := NewCaptureBuffer(t.TempDir(), 0)

	t.Run("never written", func(t *testing.T) {
		if err := buf.Remove(); err != nil {
			t.Errorf("Remove on empty buffer: %v", err)
		}
	})

	t.Run("after write", func(t *testing.T) {
		if err := buf.Append([]byte("audio")); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := buf.Remove(); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := os.Stat(buf.Path()); !os.IsNotExist(err) {
			t.Error("buffer file still exists after Remove")
		}
	})
}
