package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recapflow/pkg/retry"
)

// ErrEmptyOutput reports that the model returned no usable text. It is never
// retried: an empty response on a successful call means something is wrong
// with the request, not the connection.
var ErrEmptyOutput = errors.New("empty response from model")

const summarizePrompt = `You are summarizing part %d of %d of a long session transcript.

Write a detailed narrative summary of the transcript excerpt below. Cover every
topic and event in the order it appears, keeping speaker attributions where
they matter. Do not copy transcript lines verbatim; describe what was said and
what happened.
%s
Transcript excerpt:
---
%s
---`

const continuityNotes = `
Continuity notes from the previous part (for context only, do not summarize
them again):
%s
`

const expandPrompt = `Expand the summary below to at least %d characters.

Strict rules:
- Do NOT introduce any fact, number, quote, or event that is not already
  present in the summary.
- You may only rephrase, add connective tissue, clarify, and reorganize.

Summary:
---
%s
---`

const condensePrompt = `Write a brief overall summary of the following combined
part summaries. Capture the main arc and the most important takeaways in a few
paragraphs:

%s`

func (s *implSummarizer) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	prompt := buildSummarizePrompt(req)
	text, err := s.call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize part %d/%d: %w", req.Index+1, req.Total, err)
	}
	return text, nil
}

func (s *implSummarizer) Expand(ctx context.Context, summary string, minChars int) (string, error) {
	prompt := fmt.Sprintf(expandPrompt, minChars, summary)
	text, err := s.call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("expand summary: %w", err)
	}
	return text, nil
}

func (s *implSummarizer) Condense(ctx context.Context, combined string) (string, error) {
	prompt := fmt.Sprintf(condensePrompt, combined)
	text, err := s.call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("condense summary: %w", err)
	}
	return text, nil
}

func buildSummarizePrompt(req SummarizeRequest) string {
	notes := ""
	if strings.TrimSpace(req.Bridge) != "" {
		notes = fmt.Sprintf(continuityNotes, req.Bridge)
	}
	return fmt.Sprintf(summarizePrompt, req.Index+1, req.Total, notes, req.ChunkText)
}

// call runs one generation request under the retry policy and enforces the
// non-empty output contract.
func (s *implSummarizer) call(ctx context.Context, prompt string) (string, error) {
	var text string
	attempt := 0
	err := retry.Do(ctx, s.policy, isRetryable, func() error {
		attempt++
		if attempt > 1 && s.logger != nil {
			s.logger.Warn(ctx, "retrying generation (attempt %d/%d)", attempt, s.policy.MaxAttempts)
		}
		out, err := s.generate(ctx, prompt)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}
