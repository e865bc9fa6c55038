package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/lewtec/imgvariant/internal/domain"
)

// Set is the list of sinks active for a run.
type Set []domain.Sink

// Clone returns per task handles of every sink.
func (s Set) Clone() Set {
	ret := make(Set, len(s))
	for i, sk := range s {
		ret[i] = sk.Clone()
	}
	return ret
}

// Fetch reads key from the first sink holding it.
func (s Set) Fetch(ctx context.Context, key string) ([]byte, error) {
	var errs []error
	for _, sk := range s {
		data, err := sk.Fetch(ctx, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", sk.Kind(), err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
}
