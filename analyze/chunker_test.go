package analyze

import (
	"strings"
	"testing"
)

func TestChunkShortText(t *testing.T) {
	chunks := Chunk("hello world", ChunkSize, ChunkOverlap)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Errorf("chunk = %q, want %q", chunks[0], "hello world")
	}
}

func TestChunkOverlappingWindows(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := Chunk(text, 100, 20)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 100 {
		t.Errorf("first chunk length = %d, want 100", len(chunks[0]))
	}

	// Consecutive windows share the overlap region.
	total := 0
	for i, c := range chunks {
		total += len(c)
		if i > 0 {
			total -= 20
		}
	}
	if total != 250 {
		t.Errorf("reassembled length = %d, want 250", total)
	}
}

func TestChunkExactBoundary(t *testing.T) {
	text := strings.Repeat("b", 100)
	chunks := Chunk(text, 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for exact-size text, got %d", len(chunks))
	}
}

func TestCap(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		if got := Cap("short", 100); got != "short" {
			t.Errorf("Cap = %q, want %q", got, "short")
		}
	})

	t.Run("over limit", func(t *testing.T) {
		got := Cap(strings.Repeat("x", 200), 50)
		if len(got) != 50 {
			t.Errorf("capped length = %d, want 50", len(got))
		}
	})

	t.Run("multibyte runes", func(t *testing.T) {
		got := Cap(strings.Repeat("é", 10), 5)
		if n := len([]rune(got)); n != 5 {
			t.Errorf("capped rune count = %d, want 5", n)
		}
	})
}
