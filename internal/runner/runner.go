package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"recapflow/internal/checkpoint"
	"recapflow/internal/chunker"
	"recapflow/internal/summarizer"
	"recapflow/internal/transcript"
)

// Run processes one transcript end to end. Chunks are handled strictly in
// index order: each request carries a bridge excerpt from the previous
// chunk's final summary, so there is nothing to parallelize. A chunk whose
// checkpoint already exists is skipped without any remote call, which makes
// re-running after a crash or rate-limit abort cheap and idempotent.
func (r *implRunner) Run(ctx context.Context, inputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	runID := RunIDFromPath(inputPath)
	blocks := transcript.Split(string(data))
	chunks := chunker.Build(blocks, r.cfg.Chunking.TargetChars, r.cfg.Chunking.MaxChars)

	st, err := r.stores(runID)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}

	sum := sha256.Sum256(data)
	meta := checkpoint.RunMeta{
		RunID:           runID,
		InputPath:       inputPath,
		InputSHA256:     hex.EncodeToString(sum[:]),
		TargetChars:     r.cfg.Chunking.TargetChars,
		MaxChars:        r.cfg.Chunking.MaxChars,
		MinSummaryChars: r.cfg.Chunking.MinSummaryChars,
		Model:           r.cfg.Gemini.Model,
		CreatedAt:       r.now().UTC(),
		TotalChunks:     len(chunks),
	}
	if err := st.WriteMeta(meta); err != nil {
		return err
	}

	r.logger.Info(ctx, "run %s: %d blocks, %d chunks", runID, len(blocks), len(chunks))

	if r.cfg.Output.DumpChunks && len(chunks) > 0 {
		if err := st.WriteArtifact("chunks.txt", renderChunks(chunks)); err != nil {
			return err
		}
	}

	bridge := ""
	for _, chunk := range chunks {
		exists, err := st.PartExists(chunk.Index)
		if err != nil {
			return err
		}
		if exists {
			text, err := st.ReadPart(chunk.Index)
			if err != nil {
				return err
			}
			bridge = tail(text, r.cfg.Chunking.BridgeChars)
			r.logger.Info(ctx, "chunk %d/%d: checkpoint exists, skipping", chunk.Index+1, len(chunks))
			continue
		}

		text, err := r.summarizeChunk(ctx, chunk, len(chunks), bridge)
		if err != nil {
			return err
		}
		if err := st.WritePart(chunk.Index, text); err != nil {
			return err
		}
		bridge = tail(strings.TrimRight(text, " \t\n"), r.cfg.Chunking.BridgeChars)
	}

	parts, err := checkpoint.LoadParts(st, len(chunks))
	if err != nil {
		return err
	}
	if missing := checkpoint.Missing(parts); len(missing) > 0 {
		r.logger.Warn(ctx, "run %s: combined output has gaps at parts %s", runID, partNumbers(missing))
	}

	combined := checkpoint.Combine(parts)
	if err := st.WriteArtifact("combined_summary.txt", combined); err != nil {
		return err
	}

	if r.cfg.Output.FinalSummary && combined != "" {
		final, err := r.sum.Condense(ctx, combined)
		if err != nil {
			return err
		}
		if err := st.WriteArtifact("final_summary.txt", final); err != nil {
			return err
		}
	}

	if r.cfg.Output.ExportDocx && st.Dir() != "" && combined != "" {
		if err := writeDocx(runID, combined, st.Dir()); err != nil {
			return fmt.Errorf("export docx: %w", err)
		}
	}

	r.logger.Info(ctx, "run %s: complete", runID)
	return nil
}

// summarizeChunk performs the remote work for one chunk: summarize, then a
// single expansion pass when the result is under the minimum length. A
// result still short after expansion is accepted as-is.
func (r *implRunner) summarizeChunk(ctx context.Context, chunk chunker.Chunk, total int, bridge string) (string, error) {
	r.logger.Info(ctx, "chunk %d/%d: summarizing", chunk.Index+1, total)

	text, err := r.sum.Summarize(ctx, summarizer.SummarizeRequest{
		ChunkText: transcript.NormalizeSpeakers(chunk.Text),
		Index:     chunk.Index,
		Total:     total,
		Bridge:    bridge,
	})
	if err != nil {
		return "", err
	}

	minChars := r.cfg.Chunking.MinSummaryChars
	if minChars > 0 && len([]rune(text)) < minChars {
		r.logger.Info(ctx, "chunk %d/%d: summary %d chars, expanding toward %d",
			chunk.Index+1, total, len([]rune(text)), minChars)
		expanded, err := r.sum.Expand(ctx, text, minChars)
		if err != nil {
			return "", err
		}
		text = expanded
	}

	return text, nil
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func renderChunks(chunks []chunker.Chunk) string {
	sections := make([]string, 0, len(chunks))
	for _, c := range chunks {
		sections = append(sections, fmt.Sprintf("Chunk %d (%d chars)\n\n%s", c.Index+1, c.Len(), c.Text))
	}
	return strings.Join(sections, "\n\n")
}

func partNumbers(indices []int) string {
	nums := make([]string, 0, len(indices))
	for _, i := range indices {
		nums = append(nums, fmt.Sprintf("%d", i+1))
	}
	return strings.Join(nums, ", ")
}
