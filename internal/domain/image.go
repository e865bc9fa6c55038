package domain

import (
	"fmt"
)

// ScaleKind selects how a requested edge length is turned into dimensions.
type ScaleKind int

const (
	// LockedWidth keeps the aspect ratio and treats the width as the reference edge.
	LockedWidth ScaleKind = iota
	// LockedHeight keeps the aspect ratio and treats the height as the reference edge.
	LockedHeight
	// Fixed always produces squares.
	Fixed
)

func (k ScaleKind) String() string {
	switch k {
	case LockedWidth:
		return "width"
	case LockedHeight:
		return "height"
	case Fixed:
		return "fixed"
	}
	return fmt.Sprintf("ScaleKind(%d)", int(k))
}

// ScaleRef is the rule used to derive (width, height) from a single edge length.
type ScaleRef struct {
	Kind ScaleKind
	// Edge is the locked edge for LockedWidth and LockedHeight.
	Edge int
	// Width and Height bound the square for Fixed.
	Width  int
	Height int
}

func LockWidth(u int) ScaleRef  { return ScaleRef{Kind: LockedWidth, Edge: u} }
func LockHeight(u int) ScaleRef { return ScaleRef{Kind: LockedHeight, Edge: u} }
func FixedSquare(w, h int) ScaleRef {
	return ScaleRef{Kind: Fixed, Width: w, Height: h}
}

// ScaleRefFor picks the scale reference of a freshly loaded image: landscape
// images lock the width, everything else locks the height.
func ScaleRefFor(width, height int) ScaleRef {
	if width > height {
		return LockWidth(width)
	}
	return LockHeight(height)
}

// Resolve converts a requested edge into concrete dimensions for an image of
// width x height. Images are never upscaled.
//
// The locked variants divide twice: the moving edge is computed first and the
// locked edge is re-derived from it, so a 1200x800 image locked at 1200 and
// asked for 600 yields 600x400 while odd ratios keep the same rounding bias.
// Returned dimensions are never below 1.
func (s ScaleRef) Resolve(width, height, edge int) (int, int) {
	var w, h int
	switch s.Kind {
	case LockedWidth:
		if edge >= s.Edge || s.Edge == 0 || height == 0 {
			return atLeastOne(width), atLeastOne(height)
		}
		h = edge * height / s.Edge
		w = h * s.Edge / height
	case LockedHeight:
		if edge >= s.Edge || s.Edge == 0 || width == 0 {
			return atLeastOne(width), atLeastOne(height)
		}
		w = edge * width / s.Edge
		h = w * s.Edge / width
	case Fixed:
		if s.Width >= edge && s.Height >= edge {
			w, h = edge, edge
		} else if s.Width >= s.Height {
			w, h = s.Height, s.Height
		} else {
			w, h = s.Width, s.Width
		}
	}
	return atLeastOne(w), atLeastOne(h)
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// TargetFormat is the output family of a source: alpha-capable sources stay
// lossless, the rest are written lossy.
type TargetFormat int

const (
	Lossless TargetFormat = iota
	Lossy
)

func (f TargetFormat) Ext() string {
	if f == Lossless {
		return "png"
	}
	return "jpeg"
}

func (f TargetFormat) ContentType() string {
	if f == Lossless {
		return "image/png"
	}
	return "image/jpeg"
}

// PixelLayout describes the channel packing of a decoded buffer.
type PixelLayout int

const (
	Gray8 PixelLayout = iota
	GrayAlpha8
	RGB8
	RGBA8
)

func (l PixelLayout) Channels() int {
	switch l {
	case Gray8:
		return 1
	case GrayAlpha8:
		return 2
	case RGB8:
		return 3
	default:
		return 4
	}
}

func (l PixelLayout) String() string {
	switch l {
	case Gray8:
		return "L8"
	case GrayAlpha8:
		return "La8"
	case RGB8:
		return "Rgb8"
	default:
		return "Rgba8"
	}
}

// LayoutFor returns the layout used for a source of the given format.
func LayoutFor(format TargetFormat, gray bool) PixelLayout {
	switch {
	case format == Lossless && gray:
		return GrayAlpha8
	case format == Lossless:
		return RGBA8
	case gray:
		return Gray8
	default:
		return RGB8
	}
}

// SourceDescriptor is the canonical description of one decoded source image.
// Values are treated as immutable; WithCrop returns a fresh copy.
type SourceDescriptor struct {
	Width      int
	Height     int
	Scale      ScaleRef
	SourcePath string
	// TargetBase is the sink-relative directory every derivative of this source lands in.
	TargetBase string
	Format     TargetFormat
	Layout     PixelLayout
	Checksum   string
}

// NewSourceDescriptor validates the dimensions and picks the scale reference.
func NewSourceDescriptor(sourcePath, targetBase string, width, height int, format TargetFormat, layout PixelLayout, checksum string) (SourceDescriptor, error) {
	if width <= 0 || height <= 0 {
		return SourceDescriptor{}, fmt.Errorf("%w: %s has invalid dimensions %dx%d", ErrSourceUnreadable, sourcePath, width, height)
	}
	return SourceDescriptor{
		Width:      width,
		Height:     height,
		Scale:      ScaleRefFor(width, height),
		SourcePath: sourcePath,
		TargetBase: targetBase,
		Format:     format,
		Layout:     layout,
		Checksum:   checksum,
	}, nil
}

// Resolve applies the descriptor's scale reference to its own dimensions.
func (d SourceDescriptor) Resolve(edge int) (int, int) {
	return d.Scale.Resolve(d.Width, d.Height, edge)
}

// WithCrop returns a copy describing a derived crop of width x height stored
// under targetBase. Square crops become Fixed, the others lock their longer edge.
func (d SourceDescriptor) WithCrop(width, height int, targetBase string) (SourceDescriptor, error) {
	if width <= 0 || height <= 0 {
		return SourceDescriptor{}, fmt.Errorf("%w: crop of %s has invalid dimensions %dx%d", ErrSourceUnreadable, d.SourcePath, width, height)
	}
	ret := d
	ret.Width = width
	ret.Height = height
	ret.TargetBase = targetBase
	switch {
	case width == height:
		ret.Scale = FixedSquare(width, height)
	case width > height:
		ret.Scale = LockWidth(width)
	default:
		ret.Scale = LockHeight(height)
	}
	return ret, nil
}

// Key returns the sink-relative key of a derivative of this source.
func (d SourceDescriptor) Key(dir, id string) string {
	return JoinKey(d.TargetBase, dir, id+"."+d.Format.Ext())
}
