package runner

import (
	"time"

	"recapflow/internal/checkpoint"
	"recapflow/internal/config"
	"recapflow/internal/logger"
	"recapflow/internal/summarizer"
)

type implRunner struct {
	cfg    *config.Config
	sum    summarizer.Summarizer
	stores checkpoint.Factory
	logger logger.Logger
	now    func() time.Time
}

// New creates a Runner. The store factory decides where checkpoints live;
// production wires checkpoint.FileStoreFactory, tests an in-memory store.
func New(cfg *config.Config, sum summarizer.Summarizer, stores checkpoint.Factory, log logger.Logger) Runner {
	return &implRunner{
		cfg:    cfg,
		sum:    sum,
		stores: stores,
		logger: log,
		now:    time.Now,
	}
}
