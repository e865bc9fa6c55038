package variant

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/sink"
)

// Writer resizes, encodes and persists single derivatives.
type Writer struct {
	Options Options
	Logger  zerolog.Logger
}

// Render produces the resized pixels of spec without encoding them.
func Render(img image.Image, desc domain.SourceDescriptor, spec domain.DerivativeSpec) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s has an empty buffer", domain.ErrSourceUnreadable, spec.Key)
	}
	switch spec.Mode {
	case domain.CropToFit:
		side, _ := domain.FixedSquare(desc.Width, desc.Height).Resolve(desc.Width, desc.Height, spec.Edge)
		return imaging.Fill(img, side, side, imaging.Center, imaging.Lanczos), nil
	default:
		w, h := desc.Resolve(spec.Edge)
		if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
			return img, nil
		}
		return imaging.Resize(img, w, h, imaging.Lanczos), nil
	}
}

// Write renders spec from img and stores it, followed by the source checksum,
// in every sink. Sinks are written independently; the returned error joins
// the failures of every sink that did not take the derivative.
func (w Writer) Write(ctx context.Context, img image.Image, desc domain.SourceDescriptor, spec domain.DerivativeSpec, sinks sink.Set) error {
	out, err := Render(img, desc, spec)
	if err != nil {
		return err
	}
	data, err := Encode(out, spec.Encoding, w.Options.JPEGQuality)
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range sinks {
		if err := s.Write(ctx, spec.Key, data, spec.Encoding.ContentType()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Kind(), err))
			continue
		}
		if err := s.Tag(ctx, spec.Key, desc.Checksum); err != nil {
			errs = append(errs, fmt.Errorf("%s: while tagging: %w", s.Kind(), err))
			continue
		}
		w.Logger.Debug().Str("key", spec.Key).Stringer("sink", s.Kind()).Int("bytes", len(data)).Msg("derivative written")
	}
	return errors.Join(errs...)
}
