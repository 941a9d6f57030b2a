package services

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker(1000, 200)

	for _, input := range []string{"", "   ", "\n\n\t  \n"} {
		if got := c.Split(input); got != nil {
			t.Fatalf("Split(%q) = %v, want nil", input, got)
		}
	}
}

func TestSplitShortInput(t *testing.T) {
	c := NewChunker(1000, 200)

	text := "A single short paragraph that fits in one chunk."
	chunks := c.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Fatalf("chunk %q does not match input", chunks[0])
	}
}

func TestSplitDeterministic(t *testing.T) {
	c := NewChunker(100, 20)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	first := c.Split(text)
	second := c.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitChunksAreSubstrings(t *testing.T) {
	c := NewChunker(100, 20)

	text := strings.Repeat("Lecture notes cover sorting algorithms. Heaps come next! Then graphs? ", 20)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Every chunk is an exact substring, and chunks appear in input order.
	pos := 0
	for i, chunk := range chunks {
		idx := strings.Index(text[pos:], chunk)
		if idx < 0 {
			t.Fatalf("chunk %d is not a substring at or after offset %d: %q", i, pos, chunk)
		}
		pos += idx
	}
}

func TestSplitRespectsSizeAndOverlap(t *testing.T) {
	c := NewChunker(1000, 200)

	// 2500 characters of sentence-sized pieces. With a 1000-char budget and
	// 200-char carryover the effective stride is ~800, giving 3-4 chunks.
	text := strings.Repeat("This sentence is exactly fifty characters long!!! ", 50)
	chunks := c.Split(text)

	if len(chunks) < 3 || len(chunks) > 4 {
		t.Fatalf("expected 3-4 chunks for 2500 chars, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Fatalf("chunk %d exceeds budget: %d bytes", i, len(chunk))
		}
	}

	// Consecutive chunks share overlap text.
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-50:]
		if !strings.Contains(chunks[i], tail[:25]) && !strings.HasPrefix(chunks[i], tail[25:]) {
			// Overlap carry is piece-granular, so just check some shared text.
			if !strings.Contains(chunks[i-1], chunks[i][:25]) {
				t.Errorf("chunks %d and %d share no overlap", i-1, i)
			}
		}
	}
}

func TestSplitOversizedUnbreakableToken(t *testing.T) {
	c := NewChunker(50, 10)

	// A single 120-byte token with no separators forces rune-level cuts.
	token := strings.Repeat("x", 120)
	chunks := c.Split(token)

	if len(chunks) < 2 {
		t.Fatalf("expected the token split across chunks, got %d", len(chunks))
	}
	total := 0
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Fatalf("chunk %d exceeds budget: %d bytes", i, len(chunk))
		}
		total += len(chunk)
	}
	if total < 120 {
		t.Fatalf("chunks cover %d bytes, want at least 120", total)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	c := NewChunker(60, 0)

	text := "First paragraph stays whole.\n\nSecond paragraph stays whole too."
	chunks := c.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "First paragraph") {
		t.Errorf("first chunk = %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "Second paragraph") {
		t.Errorf("second chunk = %q", chunks[1])
	}
}

func TestNewChunkerClampsOverlap(t *testing.T) {
	c := NewChunker(100, 100)
	if c.overlap >= c.chunkSize {
		t.Fatalf("overlap %d not clamped below chunk size %d", c.overlap, c.chunkSize)
	}

	c = NewChunker(0, -1)
	if c.chunkSize != DefaultChunkSize || c.overlap != DefaultChunkOverlap {
		t.Fatalf("defaults not applied: size=%d overlap=%d", c.chunkSize, c.overlap)
	}
}
