package variant

import (
	"context"
	"errors"

	"github.com/disintegration/imaging"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/geometry"
	"github.com/lewtec/imgvariant/internal/sink"
)

// ShapeDir is the subdirectory holding the shape cuts of a source.
const ShapeDir = "shapes"

// shapeSource fetches the transform variant of one source back from the
// sinks and cuts every shape out of its centered square.
func (p *Pipeline) shapeSource(ctx context.Context, sinks sink.Set, item QueueItem) (domain.RunStats, error) {
	var stats domain.RunStats
	variant := p.Options.Transform.ID()

	var data []byte
	var key string
	var err error
	for _, ext := range []string{domain.Lossless.Ext(), domain.Lossy.Ext()} {
		key = domain.JoinKey(item.TargetBase, variant+"."+ext)
		data, err = sinks.Fetch(ctx, key)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			break
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		stats.Skip("%s: no %s derivative to cut shapes from", item.TargetBase, variant)
		return stats, nil
	}
	if err != nil {
		stats.Fail("%s: %v", key, err)
		return stats, nil
	}

	src, err := decodeDerivative(data, key, item.TargetBase, p.Options.Checksum)
	if err != nil {
		stats.Fail("%s: %v", key, err)
		return stats, nil
	}
	d := src.Descriptor
	side := min(d.Width, d.Height)
	square, err := d.WithCrop(side, side, domain.JoinKey(item.TargetBase, ShapeDir))
	if err != nil {
		stats.Fail("%s: %v", key, err)
		return stats, nil
	}
	squareImg := imaging.CropCenter(src.Image, side, side)

	specs := make([]domain.DerivativeSpec, 0, len(geometry.Shapes))
	for _, shape := range geometry.Shapes {
		specs = append(specs, domain.DerivativeSpec{
			Edge:     p.Options.Sizes.Edge(p.Options.Transform),
			ID:       shape.ID,
			Key:      square.Key("", shape.ID),
			Mode:     domain.Fit,
			Encoding: domain.EncodeLossless,
		})
	}

	survivors := p.filter(ctx, &stats, square.Checksum, specs, sinks)
	jobs := make([]job, 0, len(survivors))
	for _, spec := range survivors {
		shape, _ := geometry.ShapeByID(spec.ID)
		cut, err := shape.Cut(squareImg)
		if err != nil {
			stats.Fail("%s: %v", spec.Key, err)
			continue
		}
		b := cut.Bounds()
		desc, err := square.WithCrop(b.Dx(), b.Dy(), square.TargetBase)
		if err != nil {
			stats.Fail("%s: %v", spec.Key, err)
			continue
		}
		jobs = append(jobs, job{spec: spec, img: cut, desc: desc})
	}

	written, err := p.writeJobs(ctx, sinks, jobs)
	stats.Merge(written)
	return stats, err
}
