package variant

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/sink"
)

// resizeSource runs load, dedup and write for every catalog derivative of one
// source. Logical failures end up in the returned stats; the error is only set
// when a derivative goroutine could not be joined.
func (p *Pipeline) resizeSource(ctx context.Context, sinks sink.Set, item QueueItem) (domain.RunStats, error) {
	var stats domain.RunStats
	src, err := LoadSource(item.SourcePath, item.TargetBase, p.Options.Checksum)
	if err != nil {
		stats.Fail("%s: %v", item.SourcePath, err)
		return stats, nil
	}
	p.Logger.Debug().
		Str("source", item.SourcePath).
		Int("width", src.Descriptor.Width).
		Int("height", src.Descriptor.Height).
		Stringer("layout", src.Descriptor.Layout).
		Str("checksum", src.Descriptor.Checksum).
		Msg("source loaded")

	specs := Catalog(src.Descriptor, p.Options.Sizes)
	survivors := p.filter(ctx, &stats, src.Descriptor.Checksum, specs, sinks)
	jobs := make([]job, len(survivors))
	for i, spec := range survivors {
		jobs[i] = job{spec: spec, img: src.Image, desc: src.Descriptor}
	}
	written, err := p.writeJobs(ctx, sinks, jobs)
	stats.Merge(written)
	return stats, err
}

// job is one derivative to render from img described by desc.
type job struct {
	spec domain.DerivativeSpec
	img  image.Image
	desc domain.SourceDescriptor
}

// filter drops the specs every sink already holds with checksum sum,
// recording one skip per dropped spec.
func (p *Pipeline) filter(ctx context.Context, stats *domain.RunStats, sum string, specs []domain.DerivativeSpec, sinks sink.Set) []domain.DerivativeSpec {
	survivors, dropped := Oracle{Logger: p.Logger}.Filter(ctx, sum, specs, sinks)
	for _, spec := range dropped {
		stats.Skip("%s: already up to date", spec.Key)
	}
	return survivors
}

// writeJobs writes every job concurrently and records one entry per job.
func (p *Pipeline) writeJobs(ctx context.Context, sinks sink.Set, jobs []job) (domain.RunStats, error) {
	var stats domain.RunStats
	writer := Writer{Options: p.Options, Logger: p.Logger}
	results := make([]error, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		goJoined(&g, j.spec.Key, func() error {
			results[i] = writer.Write(ctx, j.img, j.desc, j.spec, sinks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	for i, j := range jobs {
		if results[i] != nil {
			stats.Fail("%s: %v", j.spec.Key, results[i])
		} else {
			stats.Succeed("%s", j.spec.Key)
		}
	}
	return stats, nil
}

// goJoined runs fn on g, turning a panic into ErrJoinFailure.
func goJoined(g *errgroup.Group, name string, fn func() error) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %s: %v", domain.ErrJoinFailure, name, r)
			}
		}()
		return fn()
	})
}
