package variant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/sink"
)

// Pass names the two orchestration passes of a run.
type Pass int

const (
	ResizePass Pass = iota
	ShapePass
)

func (p Pass) String() string {
	if p == ShapePass {
		return "shape"
	}
	return "resize"
}

// Hooks observe the chunk barrier. Every field is optional. The stats handed
// to the chunk hooks are copies of the run accumulator.
type Hooks struct {
	ChunkStarted func(pass Pass, chunk int, stats domain.RunStats)
	ChunkJoined  func(pass Pass, chunk int, stats domain.RunStats)
	TaskStarted  func(pass Pass, chunk int, item QueueItem)
}

type taskFunc func(ctx context.Context, sinks sink.Set, item QueueItem) (domain.RunStats, error)

// Pipeline runs the resize pass and then the shape pass over a queue.
type Pipeline struct {
	Options Options
	Sinks   sink.Set
	Logger  zerolog.Logger
	Hooks   Hooks
	// Ledger records the run when set.
	Ledger     domain.RunRepository
	ConfigPath string
}

// Run processes the whole queue. Per derivative failures are reported in the
// returned stats; the error is set only when the run itself could not finish.
// A ledger that fails to record a finished run is logged, not returned.
func (p *Pipeline) Run(ctx context.Context, queue []QueueItem) (domain.RunStats, error) {
	runID := uuid.NewString()
	logger := p.Logger.With().Str("run", runID).Logger()
	started := time.Now()
	if p.Ledger != nil {
		if _, err := p.Ledger.Start(ctx, runID, p.ConfigPath, started); err != nil {
			return domain.RunStats{}, err
		}
	}
	logger.Info().Int("sources", len(queue)).Int("chunk_size", p.chunkSize()).Int("sinks", len(p.Sinks)).Msg("run started")

	var stats domain.RunStats
	err := p.runPass(ctx, ResizePass, queue, p.resizeSource, &stats)
	if err == nil && p.Options.TransformEnabled {
		err = p.runPass(ctx, ShapePass, queue, p.shapeSource, &stats)
	}
	if err != nil {
		logger.Error().Err(err).Msg("run aborted")
		return stats, err
	}

	Report(logger, stats, time.Since(started))
	if p.Ledger != nil {
		if err := p.Ledger.Finish(ctx, runID, time.Now(), stats); err != nil {
			logger.Error().Err(err).Msg("while recording run")
		}
	}
	return stats, nil
}

func (p *Pipeline) chunkSize() int {
	if p.Options.ChunkSize < 1 {
		return 1
	}
	return p.Options.ChunkSize
}

// runPass splits queue into chunks and runs one goroutine per item. A chunk
// is merged into stats only after all of its tasks returned, and the next
// chunk starts only after that.
func (p *Pipeline) runPass(ctx context.Context, pass Pass, queue []QueueItem, fn taskFunc, stats *domain.RunStats) error {
	size := p.chunkSize()
	for start, chunk := 0, 0; start < len(queue); start, chunk = start+size, chunk+1 {
		items := queue[start:min(start+size, len(queue))]
		if p.Hooks.ChunkStarted != nil {
			p.Hooks.ChunkStarted(pass, chunk, stats.Clone())
		}

		results := make([]domain.RunStats, len(items))
		var g errgroup.Group
		for i, item := range items {
			sinks := p.Sinks.Clone()
			goJoined(&g, item.SourcePath, func() error {
				if p.Hooks.TaskStarted != nil {
					p.Hooks.TaskStarted(pass, chunk, item)
				}
				res, err := fn(ctx, sinks, item)
				results[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("%s pass, chunk %d: %w", pass, chunk, err)
		}

		for _, r := range results {
			stats.Merge(r)
		}
		p.Logger.Debug().Stringer("pass", pass).Int("chunk", chunk).Int("tasks", len(items)).Msg("chunk joined")
		if p.Hooks.ChunkJoined != nil {
			p.Hooks.ChunkJoined(pass, chunk, stats.Clone())
		}
	}
	return nil
}

// Report logs the final outcome of a run.
func Report(logger zerolog.Logger, stats domain.RunStats, took time.Duration) {
	for _, line := range stats.Failed {
		logger.Error().Msg(line)
	}
	for _, line := range stats.Skipped {
		logger.Warn().Msg(line)
	}
	for _, line := range stats.Succeeded {
		logger.Debug().Msg(line)
	}
	logger.Info().
		Int("succeeded", len(stats.Succeeded)).
		Int("skipped", len(stats.Skipped)).
		Int("failed", len(stats.Failed)).
		Dur("took", took).
		Msg("run finished")
}
