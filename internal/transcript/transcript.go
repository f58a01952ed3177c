package transcript

import (
	"regexp"
	"strings"
)

// Block is one speaker turn: the speaker line plus every following line up to
// the next speaker line. Blocks are immutable once split.
type Block struct {
	Text string
}

// Len returns the block length in runes.
func (b Block) Len() int {
	return len([]rune(b.Text))
}

var speakerLine = regexp.MustCompile(`(?i)^speaker:\s+\S`)

// Split partitions a raw transcript into speaker-turn blocks. Line endings
// are normalized first. Text before the first speaker line is discarded.
func Split(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var blocks []Block
	var current []string
	inBlock := false

	flush := func() {
		if !inBlock {
			return
		}
		joined := strings.TrimRight(strings.Join(current, "\n"), " \t\n")
		if joined != "" {
			blocks = append(blocks, Block{Text: joined})
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		if speakerLine.MatchString(trimmed) {
			flush()
			inBlock = true
			current = append(current, trimmed)
			continue
		}
		if inBlock {
			current = append(current, trimmed)
		}
		// Lines before the first speaker line are dropped.
	}
	flush()

	return blocks
}

var speakerPrefix = regexp.MustCompile(`(?i)^speaker:\s+(\S.*)$`)

// RewriteSpeakerLine turns a leading "SPEAKER: <Name>" line into "<Name>:".
// Text that does not start with a speaker line is returned unchanged.
func RewriteSpeakerLine(blockText string) string {
	line, rest, found := strings.Cut(blockText, "\n")
	m := speakerPrefix.FindStringSubmatch(line)
	if m == nil {
		return blockText
	}
	rewritten := strings.TrimSpace(m[1]) + ":"
	if !found {
		return rewritten
	}
	return rewritten + "\n" + rest
}

// NormalizeSpeakers rewrites every "SPEAKER: <Name>" line in text to
// "<Name>:". Applied to chunk text before it is sent to the model; chunk
// boundaries are computed on the raw text, so this never changes them.
func NormalizeSpeakers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if m := speakerPrefix.FindStringSubmatch(line); m != nil {
			lines[i] = strings.TrimSpace(m[1]) + ":"
		}
	}
	return strings.Join(lines, "\n")
}
