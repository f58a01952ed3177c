package runner

import "context"

// Runner drives one transcript through the full pipeline: split, chunk,
// summarize with resume, and combine.
type Runner interface {
	Run(ctx context.Context, inputPath string) error
}
