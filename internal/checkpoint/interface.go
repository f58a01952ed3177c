package checkpoint

import "time"

// RunMeta is the provenance record written once per invocation as
// run_meta.json. Content is deterministic given the config, apart from the
// timestamp, so overwriting it on resume is harmless.
type RunMeta struct {
	RunID           string    `json:"run_id"`
	InputPath       string    `json:"input_path"`
	InputSHA256     string    `json:"input_sha256"`
	TargetChars     int       `json:"target_chars"`
	MaxChars        int       `json:"max_chars"`
	MinSummaryChars int       `json:"min_summary_chars"`
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
	TotalChunks     int       `json:"total_chunks"`
}

// Store persists per-chunk summaries for one run. It is the source of truth
// for resumability: a part that exists is never summarized again.
type Store interface {
	PartExists(index int) (bool, error)
	ReadPart(index int) (string, error)
	WritePart(index int, text string) error
	WriteMeta(meta RunMeta) error

	// WriteArtifact stores a named run-level output such as the combined
	// summary or the final condensed summary.
	WriteArtifact(name, text string) error

	// Dir returns the run directory on disk, or "" for stores with no
	// filesystem backing.
	Dir() string
}

// Factory creates the store for one run identity. The orchestrator depends
// on this rather than a concrete store so it can be tested in memory.
type Factory func(runID string) (Store, error)
