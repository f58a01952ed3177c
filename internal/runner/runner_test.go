package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recapflow/internal/checkpoint"
	"recapflow/internal/config"
	"recapflow/internal/logger"
	"recapflow/internal/summarizer"
)

// fakeSummarizer scripts remote behavior and records every request.
type fakeSummarizer struct {
	summarizeFn func(req summarizer.SummarizeRequest) (string, error)
	expandFn    func(summary string, minChars int) (string, error)

	requests       []summarizer.SummarizeRequest
	summarizeCalls int
	expandCalls    int
	condenseCalls  int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req summarizer.SummarizeRequest) (string, error) {
	f.summarizeCalls++
	f.requests = append(f.requests, req)
	if f.summarizeFn != nil {
		return f.summarizeFn(req)
	}
	return fmt.Sprintf("summary of chunk %d", req.Index), nil
}

func (f *fakeSummarizer) Expand(ctx context.Context, summary string, minChars int) (string, error) {
	f.expandCalls++
	if f.expandFn != nil {
		return f.expandFn(summary, minChars)
	}
	return summary + " (expanded)", nil
}

func (f *fakeSummarizer) Condense(ctx context.Context, combined string) (string, error) {
	f.condenseCalls++
	return "final overview", nil
}

type fixture struct {
	runner Runner
	sum    *fakeSummarizer
	stores map[string]*checkpoint.Memory
	cfg    *config.Config
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.Chunking.TargetChars == 0 {
		cfg.Chunking.TargetChars = 100
	}
	if cfg.Chunking.MaxChars == 0 {
		cfg.Chunking.MaxChars = 200
	}
	if cfg.Chunking.BridgeChars == 0 {
		cfg.Chunking.BridgeChars = 400
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "test-model"
	}

	f := &fixture{
		sum:    &fakeSummarizer{},
		stores: make(map[string]*checkpoint.Memory),
		cfg:    cfg,
	}
	factory := func(runID string) (checkpoint.Store, error) {
		if st, ok := f.stores[runID]; ok {
			return st, nil
		}
		st := checkpoint.NewMemory()
		f.stores[runID] = st
		return st, nil
	}
	f.runner = New(cfg, f.sum, factory, logger.NewWithWriter(os.Stderr, "error"))
	return f
}

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const threeTurns = "SPEAKER: Alice\nWe head into the cave.\n" +
	"SPEAKER: Bob\nI light a torch.\n" +
	"SPEAKER: Carol\nI check for traps."

func TestRunSingleChunk(t *testing.T) {
	f := newFixture(t, nil)
	path := writeTranscript(t, "session one.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := f.stores["session_one"]
	if st == nil {
		t.Fatalf("no store for session_one, got %v", f.stores)
	}
	if f.sum.summarizeCalls != 1 {
		t.Errorf("summarize calls = %d, want 1", f.sum.summarizeCalls)
	}
	if len(st.Parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(st.Parts))
	}
	want := "Part 1\n\nsummary of chunk 0"
	if got := st.Artifacts["combined_summary.txt"]; got != want {
		t.Errorf("combined = %q, want %q", got, want)
	}

	if len(st.Metas) != 1 {
		t.Fatalf("metas = %d, want 1", len(st.Metas))
	}
	meta := st.Metas[0]
	if meta.RunID != "session_one" || meta.TotalChunks != 1 || meta.Model != "test-model" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.InputSHA256 == "" || len(meta.InputSHA256) != 64 {
		t.Errorf("InputSHA256 = %q, want 64 hex chars", meta.InputSHA256)
	}
}

func TestRunRewritesSpeakerLines(t *testing.T) {
	f := newFixture(t, nil)
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	req := f.sum.requests[0]
	if strings.Contains(req.ChunkText, "SPEAKER:") {
		t.Errorf("chunk text still has raw speaker tags: %q", req.ChunkText)
	}
	for _, want := range []string{"Alice:", "Bob:", "Carol:"} {
		if !strings.Contains(req.ChunkText, want) {
			t.Errorf("chunk text missing %q: %q", want, req.ChunkText)
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	st := f.stores["s"]
	firstCombined := st.Artifacts["combined_summary.txt"]

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if f.sum.summarizeCalls != 1 {
		t.Errorf("summarize calls after rerun = %d, want 1 (no remote work on resume)", f.sum.summarizeCalls)
	}
	if st.PartWrites != 1 {
		t.Errorf("part writes = %d, want 1 (parts are never overwritten)", st.PartWrites)
	}
	if got := st.Artifacts["combined_summary.txt"]; got != firstCombined {
		t.Errorf("combined changed on rerun: %q vs %q", got, firstCombined)
	}
	// Metadata is rewritten on every invocation.
	if len(st.Metas) != 2 {
		t.Errorf("metas = %d, want 2", len(st.Metas))
	}
}

// multiChunk builds a transcript whose blocks are big enough that every
// speaker turn lands in its own chunk.
func multiChunk(turns int) string {
	var sb strings.Builder
	for i := 0; i < turns; i++ {
		fmt.Fprintf(&sb, "SPEAKER: P%d\n%s\n", i, strings.Repeat("word ", 30))
	}
	return sb.String()
}

func TestRunResumeRegeneratesOnlyMissing(t *testing.T) {
	f := newFixture(t, nil)
	path := writeTranscript(t, "s.txt", multiChunk(3))

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	st := f.stores["s"]
	if len(st.Parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(st.Parts))
	}
	firstCombined := st.Artifacts["combined_summary.txt"]
	part0, part2 := st.Parts[0], st.Parts[2]

	// Simulate a deleted checkpoint and re-run.
	delete(st.Parts, 1)
	f.sum.summarizeCalls = 0
	f.sum.requests = nil

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if f.sum.summarizeCalls != 1 {
		t.Fatalf("summarize calls = %d, want 1", f.sum.summarizeCalls)
	}
	if got := f.sum.requests[0].Index; got != 1 {
		t.Errorf("regenerated index = %d, want 1", got)
	}
	if st.Parts[0] != part0 || st.Parts[2] != part2 {
		t.Error("untouched parts were rewritten")
	}
	if got := st.Artifacts["combined_summary.txt"]; got != firstCombined {
		t.Errorf("combined after resume = %q, want %q", got, firstCombined)
	}
}

func TestRunBridgeOrdering(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chunking.BridgeChars = 10
	f := newFixture(t, cfg)
	f.sum.summarizeFn = func(req summarizer.SummarizeRequest) (string, error) {
		return fmt.Sprintf("summary-%d-tail%d", req.Index, req.Index), nil
	}
	path := writeTranscript(t, "s.txt", multiChunk(3))

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(f.sum.requests) != 3 {
		t.Fatalf("requests = %d, want 3", len(f.sum.requests))
	}
	if f.sum.requests[0].Bridge != "" {
		t.Errorf("first bridge = %q, want empty", f.sum.requests[0].Bridge)
	}
	for i := 1; i < 3; i++ {
		prev := fmt.Sprintf("summary-%d-tail%d", i-1, i-1)
		want := string([]rune(prev)[len([]rune(prev))-10:])
		if got := f.sum.requests[i].Bridge; got != want {
			t.Errorf("bridge into chunk %d = %q, want %q", i, got, want)
		}
	}
}

func TestRunBridgeFromExistingCheckpoint(t *testing.T) {
	f := newFixture(t, nil)
	path := writeTranscript(t, "s.txt", multiChunk(2))

	st := checkpoint.NewMemory()
	st.Parts[0] = "previously stored part zero"
	f.stores["s"] = st

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if f.sum.summarizeCalls != 1 {
		t.Fatalf("summarize calls = %d, want 1", f.sum.summarizeCalls)
	}
	req := f.sum.requests[0]
	if req.Index != 1 {
		t.Fatalf("summarized index = %d, want 1", req.Index)
	}
	if !strings.HasSuffix("previously stored part zero", req.Bridge) || req.Bridge == "" {
		t.Errorf("bridge = %q, want tail of stored part 0", req.Bridge)
	}
}

func TestRunExpandsShortSummaries(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chunking.MinSummaryChars = 50
	f := newFixture(t, cfg)
	f.sum.summarizeFn = func(req summarizer.SummarizeRequest) (string, error) {
		return "too short", nil
	}
	f.sum.expandFn = func(summary string, minChars int) (string, error) {
		return "still under fifty", nil // expansion may fall short; accepted as-is
	}
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if f.sum.expandCalls != 1 {
		t.Errorf("expand calls = %d, want exactly 1", f.sum.expandCalls)
	}
	st := f.stores["s"]
	if st.Parts[0] != "still under fifty" {
		t.Errorf("persisted part = %q, want expansion output", st.Parts[0])
	}
}

func TestRunSkipsExpansionAboveThreshold(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chunking.MinSummaryChars = 5
	f := newFixture(t, cfg)
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.sum.expandCalls != 0 {
		t.Errorf("expand calls = %d, want 0", f.sum.expandCalls)
	}
}

func TestRunEmptyTranscript(t *testing.T) {
	f := newFixture(t, nil)
	path := writeTranscript(t, "s.txt", "no speaker tags anywhere\njust narration\n")

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v, want nil for empty run", err)
	}

	st := f.stores["s"]
	if f.sum.summarizeCalls != 0 {
		t.Errorf("summarize calls = %d, want 0", f.sum.summarizeCalls)
	}
	if len(st.Metas) != 1 || st.Metas[0].TotalChunks != 0 {
		t.Errorf("metas = %+v, want one meta with 0 chunks", st.Metas)
	}
	if got, ok := st.Artifacts["combined_summary.txt"]; !ok || got != "" {
		t.Errorf("combined = %q (present=%v), want empty document", got, ok)
	}
}

func TestRunMissingInput(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.runner.Run(context.Background(), filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("Run() expected error for missing input file")
	}
}

func TestRunAbortsOnRemoteFailureKeepingCheckpoints(t *testing.T) {
	f := newFixture(t, nil)
	fail := errors.New("rate limit budget exhausted")
	f.sum.summarizeFn = func(req summarizer.SummarizeRequest) (string, error) {
		if req.Index == 1 {
			return "", fail
		}
		return fmt.Sprintf("summary of chunk %d", req.Index), nil
	}
	path := writeTranscript(t, "s.txt", multiChunk(3))

	err := f.runner.Run(context.Background(), path)
	if !errors.Is(err, fail) {
		t.Fatalf("Run() error = %v, want remote failure", err)
	}

	st := f.stores["s"]
	if len(st.Parts) != 1 {
		t.Fatalf("parts after abort = %d, want 1", len(st.Parts))
	}
	if _, ok := st.Parts[0]; !ok {
		t.Error("part 0 checkpoint lost on abort")
	}
	// No combined document for an aborted run.
	if _, ok := st.Artifacts["combined_summary.txt"]; ok {
		t.Error("combined written despite abort")
	}

	// Recovery: the remote comes back, the rerun finishes from part 1.
	f.sum.summarizeFn = nil
	f.sum.summarizeCalls = 0
	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("rerun error = %v", err)
	}
	if f.sum.summarizeCalls != 2 {
		t.Errorf("rerun summarize calls = %d, want 2", f.sum.summarizeCalls)
	}
	if len(st.Parts) != 3 {
		t.Errorf("parts after rerun = %d, want 3", len(st.Parts))
	}
}

func TestRunFinalSummary(t *testing.T) {
	cfg := &config.Config{}
	cfg.Output.FinalSummary = true
	f := newFixture(t, cfg)
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st := f.stores["s"]
	if f.sum.condenseCalls != 1 {
		t.Errorf("condense calls = %d, want 1", f.sum.condenseCalls)
	}
	if got := st.Artifacts["final_summary.txt"]; got != "final overview" {
		t.Errorf("final summary = %q", got)
	}
}

func TestRunDumpChunks(t *testing.T) {
	cfg := &config.Config{}
	cfg.Output.DumpChunks = true
	f := newFixture(t, cfg)
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dump := f.stores["s"].Artifacts["chunks.txt"]
	if !strings.Contains(dump, "Chunk 1") || !strings.Contains(dump, "SPEAKER: Alice") {
		t.Errorf("chunks dump = %q", dump)
	}
}

// lossyStore drops the write for one part index, simulating a checkpoint
// that never made it to disk.
type lossyStore struct {
	*checkpoint.Memory
	dropIndex int
}

func (l *lossyStore) WritePart(index int, text string) error {
	if index == l.dropIndex {
		return nil
	}
	return l.Memory.WritePart(index, text)
}

func TestRunWarnsOnGapsAndStillCombines(t *testing.T) {
	cfg := &config.Config{
		Chunking: config.Chunking{TargetChars: 100, MaxChars: 200, BridgeChars: 400},
		Gemini:   config.Gemini{Model: "test-model"},
	}
	st := &lossyStore{Memory: checkpoint.NewMemory(), dropIndex: 1}
	factory := func(runID string) (checkpoint.Store, error) { return st, nil }

	var logBuf strings.Builder
	r := New(cfg, &fakeSummarizer{}, factory, logger.NewWithWriter(&logBuf, "warn"))

	path := writeTranscript(t, "s.txt", multiChunk(3))
	if err := r.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v, missing parts must be non-fatal", err)
	}

	if !strings.Contains(logBuf.String(), "gaps at parts 2") {
		t.Errorf("missing gap warning in log: %q", logBuf.String())
	}
	combined := st.Artifacts["combined_summary.txt"]
	if !strings.Contains(combined, "Part 1\n\n") || !strings.Contains(combined, "Part 3\n\n") {
		t.Errorf("combined missing sections: %q", combined)
	}
	if !strings.Contains(combined, "Part 2\n\n\n\nPart 3") {
		t.Errorf("gap slot not rendered empty: %q", combined)
	}
}

func TestRunIDFromPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/data/session1.txt", "session1"},
		{"spaces collapsed", "/data/my   session one.txt", "my_session_one"},
		{"illegal chars stripped", `we|ird?na*me.txt`, "weirdname"},
		{"no extension", "/data/transcript", "transcript"},
		{"everything stripped", "???.txt", "run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RunIDFromPath(tt.in); got != tt.want {
				t.Errorf("RunIDFromPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRunDocxExportSkippedForMemoryStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Output.ExportDocx = true
	f := newFixture(t, cfg)
	path := writeTranscript(t, "s.txt", threeTurns)

	// Memory store has no directory; export must be skipped, not fail.
	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunnerUsesInjectedClock(t *testing.T) {
	f := newFixture(t, nil)
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f.runner.(*implRunner).now = func() time.Time { return fixed }
	path := writeTranscript(t, "s.txt", threeTurns)

	if err := f.runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := f.stores["s"].Metas[0].CreatedAt; !got.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", got, fixed)
	}
}
