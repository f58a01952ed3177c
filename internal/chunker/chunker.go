package chunker

import (
	"strings"

	"recapflow/internal/transcript"
)

// Chunk is a bounded-size slice of the transcript sent to the model in one
// request. Index is its 0-based position in the run.
type Chunk struct {
	Index int
	Text  string
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return len([]rune(c.Text))
}

const separator = "\n\n"

// Build packs blocks into chunks of at most maxChars, flushing early once a
// chunk reaches targetChars. Blocks keep their original order; a single block
// longer than maxChars is force-split into consecutive maxChars pieces.
// Callers must ensure targetChars <= maxChars.
func Build(blocks []transcript.Block, targetChars, maxChars int) []Chunk {
	var chunks []Chunk
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: buf.String()})
		buf.Reset()
		bufLen = 0
	}

	for _, block := range blocks {
		blockLen := block.Len()

		if blockLen > maxChars {
			flush()
			for _, piece := range sliceRunes(block.Text, maxChars) {
				chunks = append(chunks, Chunk{Index: len(chunks), Text: piece})
			}
			continue
		}

		additionLen := blockLen
		if bufLen > 0 {
			additionLen += len(separator)
		}
		if bufLen > 0 && bufLen+additionLen > maxChars {
			flush()
		}
		if bufLen >= targetChars {
			flush()
		}

		if bufLen > 0 {
			buf.WriteString(separator)
			bufLen += len(separator)
		}
		buf.WriteString(block.Text)
		bufLen += blockLen
	}
	flush()

	return chunks
}

// sliceRunes cuts s into consecutive pieces of exactly size runes; the final
// piece may be shorter.
func sliceRunes(s string, size int) []string {
	runes := []rune(s)
	var pieces []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
