package services

import "strings"

// Default chunking parameters, matching the ingestion contract used by the
// rest of the pipeline.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits raw document text into overlapping, bounded-length segments
// suitable for embedding and retrieval.
//
// Splitting prefers semantic boundaries in descending priority: paragraph
// breaks, line breaks, sentence ends, word breaks, and finally raw rune cuts.
// Separator text stays attached to the piece it terminates, so every produced
// chunk is an exact substring of the input and concatenating the chunks in
// order (minus the overlap regions) reconstructs the original text.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewChunker creates a chunker with the given target chunk size and overlap,
// both in bytes of UTF-8 text. Non-positive size and negative overlap fall
// back to the defaults; overlap is clamped below the chunk size.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""},
	}
}

// Split chunks text. Empty or whitespace-only input yields zero chunks;
// callers treat that as "no content to index". Identical input and
// configuration always produce an identical sequence.
//
// Every chunk is at most chunkSize bytes except when a single unbreakable
// unit exceeds the budget with no lower-priority boundary left, in which case
// that unit is emitted alone.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, c.separators)
}

func (c *Chunker) split(text string, seps []string) []string {
	// Pick the highest-priority separator present in this span. The empty
	// separator (rune cuts) always matches, so the loop cannot fall through.
	sep := ""
	var rest []string
	for i, s := range seps {
		if s == "" {
			sep = s
			rest = nil
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	pieces := splitKeepSeparator(text, sep)

	var out []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			out = append(out, c.merge(pending)...)
			pending = nil
		}
	}

	for _, p := range pieces {
		if len(p) <= c.chunkSize {
			pending = append(pending, p)
			continue
		}
		// Oversized piece: emit what we have, then recurse with the
		// lower-priority separators.
		flush()
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, c.split(p, rest)...)
		}
	}
	flush()

	return out
}

// merge packs pieces (each within the size budget) into chunks of at most
// chunkSize bytes, carrying roughly overlap bytes of trailing pieces into the
// start of the next chunk.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var cur []string
	curLen := 0

	for _, p := range pieces {
		if curLen > 0 && curLen+len(p) > c.chunkSize {
			chunks = append(chunks, strings.Join(cur, ""))
			// Keep a tail within the overlap budget that still leaves room
			// for the incoming piece.
			for curLen > c.overlap || (curLen > 0 && curLen+len(p) > c.chunkSize) {
				curLen -= len(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		curLen += len(p)
	}
	if curLen > 0 {
		chunks = append(chunks, strings.Join(cur, ""))
	}
	return chunks
}

// splitKeepSeparator splits text on sep with the separator kept attached to
// the preceding piece. The empty separator splits into individual runes.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	pieces := strings.SplitAfter(text, sep)
	if n := len(pieces); n > 0 && pieces[n-1] == "" {
		pieces = pieces[:n-1]
	}
	return pieces
}
