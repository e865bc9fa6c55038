package variant

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/sink"
)

// Oracle decides which derivatives still need to be produced.
type Oracle struct {
	Logger zerolog.Logger
}

// Filter splits specs into the ones that must be written and the ones every
// sink already holds with checksum sum. Without sinks nothing is a duplicate.
// Lookup failures are logged and count as "not stored".
func (o Oracle) Filter(ctx context.Context, sum string, specs []domain.DerivativeSpec, sinks sink.Set) (survivors, dropped []domain.DerivativeSpec) {
	for _, spec := range specs {
		if o.stored(ctx, sum, spec, sinks) {
			dropped = append(dropped, spec)
		} else {
			survivors = append(survivors, spec)
		}
	}
	return survivors, dropped
}

func (o Oracle) stored(ctx context.Context, sum string, spec domain.DerivativeSpec, sinks sink.Set) bool {
	if len(sinks) == 0 {
		return false
	}
	for _, s := range sinks {
		got, found, err := s.Checksum(ctx, spec.Key)
		if err != nil {
			o.Logger.Warn().Err(err).Str("key", spec.Key).Stringer("sink", s.Kind()).Msg("checksum lookup failed")
			return false
		}
		if !found || got != sum {
			return false
		}
	}
	return true
}
