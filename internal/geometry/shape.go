package geometry

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var ErrEmptyShape = errors.New("shape has no visible pixels")

// Rotation turns a marker canvas clockwise before compositing.
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) apply(img *image.NRGBA) *image.NRGBA {
	// imaging rotates counter-clockwise
	switch r {
	case Rotate90:
		return imaging.Rotate270(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case Rotate270:
		return imaging.Rotate90(img)
	}
	return img
}

// Shape is one named non rectangular crop.
type Shape struct {
	ID       string
	Rotation Rotation
	draw     func(canvas *image.NRGBA, size int)
}

func polygon(sides int) func(*image.NRGBA, int) {
	return func(canvas *image.NRGBA, size int) {
		FillPolygon(canvas, PolygonPoints(size, sides))
	}
}

func bands(count int) func(*image.NRGBA, int) {
	return func(canvas *image.NRGBA, _ int) {
		FillBands(canvas, count)
	}
}

func triangle(id string, r Rotation) Shape {
	return Shape{ID: id, Rotation: r, draw: polygon(3)}
}

// Shapes is the fixed shape catalog, in output order.
var Shapes = []Shape{
	{ID: "round", draw: func(c *image.NRGBA, _ int) { FillCircle(c) }},
	{ID: "hex", draw: polygon(6)},
	{ID: "sep", draw: polygon(7)},
	{ID: "sq45", draw: polygon(4)},
	triangle("right", Rotate0),
	triangle("down", Rotate90),
	triangle("left", Rotate180),
	triangle("up", Rotate270),
	{ID: "row2", draw: bands(2)},
	{ID: "row3", draw: bands(3)},
	{ID: "row4", draw: bands(4)},
	{ID: "cross", draw: func(c *image.NRGBA, size int) { FillPolygon(c, CrossPoints(size)) }},
	{ID: "star", draw: func(c *image.NRGBA, size int) { FillPolygon(c, StarPoints(size)) }},
}

// ShapeByID looks a shape up in the catalog.
func ShapeByID(id string) (Shape, bool) {
	for _, s := range Shapes {
		if s.ID == id {
			return s, true
		}
	}
	return Shape{}, false
}

// Mask renders the marker canvas of the shape for a size x size square,
// already rotated.
func (s Shape) Mask(size int) *image.NRGBA {
	canvas := NewCanvas(size)
	s.draw(canvas, size)
	return s.Rotation.apply(canvas)
}

// Cut composites src through the shape mask and trims the result to its
// content. src is expected to be square; only its top left size x size square
// is used, where size is its shorter side.
func (s Shape) Cut(src image.Image) (*image.NRGBA, error) {
	b := src.Bounds()
	size := min(b.Dx(), b.Dy())
	if size <= 0 {
		return nil, fmt.Errorf("cutting %s: %w", s.ID, ErrEmptyShape)
	}
	canvas := s.Mask(size)
	Substitute(canvas, src, Marker)
	out, ok := Trim(canvas)
	if !ok {
		return nil, fmt.Errorf("cutting %s: %w", s.ID, ErrEmptyShape)
	}
	return out, nil
}
