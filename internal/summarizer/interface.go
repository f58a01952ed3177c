package summarizer

import "context"

// SummarizeRequest carries one chunk to the model along with its position in
// the run and the continuity bridge from the previous chunk's summary.
type SummarizeRequest struct {
	ChunkText string
	Index     int // 0-based chunk index
	Total     int
	Bridge    string
}

// Summarizer wraps the remote text-generation service.
type Summarizer interface {
	// Summarize produces the summary for one chunk.
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)

	// Expand lengthens a too-short summary toward minChars without adding
	// new facts. Called at most once per chunk.
	Expand(ctx context.Context, summary string, minChars int) (string, error)

	// Condense produces a brief overall summary of the combined parts.
	Condense(ctx context.Context, combined string) (string, error)
}
