package variant

import (
	"github.com/lewtec/imgvariant/internal/domain"
)

// GrayDir is the subdirectory holding the desaturated square crops.
const GrayDir = "gray"

// cropSizes are written as center-cropped squares, in color and in gray.
var cropSizes = map[domain.TargetSize]bool{domain.Md: true, domain.Sm: true, domain.Xs: true}

// Catalog lists every resize derivative of a source: one fit per size, plus a
// gray copy of each square crop.
func Catalog(desc domain.SourceDescriptor, sizes domain.Sizes) []domain.DerivativeSpec {
	var specs []domain.DerivativeSpec
	var gray []domain.DerivativeSpec
	for _, size := range domain.AllSizes() {
		spec := domain.DerivativeSpec{
			Edge:     sizes.Edge(size),
			ID:       size.ID(),
			Key:      desc.Key("", size.ID()),
			Mode:     domain.Fit,
			Encoding: domain.EncodingFor(desc.Format, false),
		}
		if !cropSizes[size] {
			specs = append(specs, spec)
			continue
		}
		spec.Mode = domain.CropToFit
		specs = append(specs, spec)

		spec.Key = desc.Key(GrayDir, size.ID())
		spec.Encoding = domain.EncodingFor(desc.Format, true)
		gray = append(gray, spec)
	}
	return append(specs, gray...)
}
