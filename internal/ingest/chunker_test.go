package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunkTextEmpty(t *testing.T) {
	if got := chunkText("", 0, 0); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := chunkText("   \n\t  ", 0, 0); got != nil {
		t.Errorf("expected nil for whitespace text, got %v", got)
	}
}

func TestChunkTextSingleChunk(t *testing.T) {
	chunks := chunkText(words(150), 200, 40)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if got := len(strings.Fields(chunks[0])); got != 150 {
		t.Errorf("expected 150 words, got %d", got)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	chunks := chunkText(words(250), 200, 40)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	if len(first) != 200 {
		t.Errorf("expected first chunk of 200 words, got %d", len(first))
	}
	// Second window starts 160 words in, so the last 40 words of the
	// first chunk reappear at its head.
	if second[0] != "w160" {
		t.Errorf("expected second chunk to start at w160, got %s", second[0])
	}
	if second[len(second)-1] != "w249" {
		t.Errorf("expected second chunk to end at w249, got %s", second[len(second)-1])
	}
}

func TestChunkTextZeroSizesUseDefaultOverlap(t *testing.T) {
	// Callers passing zero sizes get the default 200/40 window, not a
	// zero-overlap one.
	chunks := chunkText(words(250), 0, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	second := strings.Fields(chunks[1])
	if second[0] != "w160" {
		t.Errorf("expected second chunk to start at w160, got %s", second[0])
	}
}

func TestChunkTextCoversAllWords(t *testing.T) {
	chunks := chunkText(words(1000), 200, 40)
	last := strings.Fields(chunks[len(chunks)-1])
	if last[len(last)-1] != "w999" {
		t.Errorf("final chunk must reach the last word, got %s", last[len(last)-1])
	}
}

func TestChunkTextDefaults(t *testing.T) {
	// Invalid sizes fall back to defaults instead of panicking.
	chunks := chunkText(words(500), -1, 900)
	if len(chunks) < 2 {
		t.Errorf("expected multiple chunks with default sizing, got %d", len(chunks))
	}
}
