// Package geometry rasterizes shape masks and composites source pixels
// through them.
package geometry

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

var (
	// Transparent is the canvas fill.
	Transparent = color.NRGBA{0, 0, 0, 0}
	// Marker is painted wherever a mask covers the canvas and later replaced by source pixels.
	Marker = color.NRGBA{255, 255, 255, 100}
)

// circle control point distance for a four segment cubic approximation
const kappa = 0.5522847498

// coverage at or above this alpha counts as inside the shape
const coverageThreshold = 0x80

// NewCanvas allocates a transparent square canvas.
func NewCanvas(size int) *image.NRGBA {
	return imaging.New(size, size, Transparent)
}

// PolygonPoints samples a regular polygon with the given number of sides
// inscribed in a size x size square. The first vertex points right.
func PolygonPoints(size, sides int) []image.Point {
	r := float64(size / 2)
	points := make([]image.Point, 0, sides)
	for i := 0; i < sides; i++ {
		rotation := 2 * math.Pi / float64(sides) * float64(i)
		x := r*math.Cos(rotation) + r
		y := r*math.Sin(rotation) + r
		points = append(points, image.Pt(int(math.Floor(x)), int(math.Floor(y))))
	}
	return points
}

// StarPoints returns the ten vertices of a five pointed star alternating
// between an outer radius of size/2 and an inner radius of size/4.
func StarPoints(size int) []image.Point {
	outer := size / 2
	c := float64(outer)
	step := 2 * math.Pi / 10
	points := make([]image.Point, 0, 10)
	for i := 1; i <= 10; i++ {
		r := outer
		if i%2 == 0 {
			r = outer / 2
		}
		rotation := step * float64(i)
		x := float64(r)*math.Sin(rotation) + c
		y := float64(r)*math.Cos(rotation) + c
		points = append(points, image.Pt(int(math.Floor(x)), int(math.Floor(y))))
	}
	return points
}

// CrossPoints returns the twelve vertices of a plus sign built on thirds of size.
func CrossPoints(size int) []image.Point {
	d := size / 3
	return []image.Point{
		{d, 0}, {d * 2, 0}, {d * 2, d}, {size, d},
		{size, d * 2}, {d * 2, d * 2}, {d * 2, size}, {d, size},
		{d, d * 2}, {0, d * 2}, {0, d}, {d, d},
	}
}

// FillPolygon paints the marker color inside the closed polygon pts.
func FillPolygon(canvas *image.NRGBA, pts []image.Point) {
	if len(pts) < 3 {
		return
	}
	b := canvas.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	paint(canvas, z)
}

// FillCircle paints the marker color inside the circle inscribed in the canvas.
func FillCircle(canvas *image.NRGBA) {
	b := canvas.Bounds()
	size := min(b.Dx(), b.Dy())
	c := float32(size / 2)
	r := c
	k := float32(kappa) * r
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(c+r, c)
	z.CubeTo(c+r, c+k, c+k, c+r, c, c+r)
	z.CubeTo(c-k, c+r, c-r, c+k, c-r, c)
	z.CubeTo(c-r, c-k, c-k, c-r, c, c-r)
	z.CubeTo(c+k, c-r, c+r, c-k, c+r, c)
	z.ClosePath()
	paint(canvas, z)
}

// FillBands paints count full width horizontal bands. Two and three bands get
// wider gaps than four or more. Fewer than two bands paint nothing.
func FillBands(canvas *image.NRGBA, count int) {
	if count <= 1 {
		return
	}
	size := canvas.Bounds().Dx()

	paddingSizer := count
	switch count {
	case 2:
		paddingSizer = count + 2
	case 3:
		paddingSizer = count + 1
	}
	div := size / count
	padding := div / paddingSizer

	marginSizer := count - 2
	if count == 2 || count == 3 {
		marginSizer = count - 1
	}
	margin := padding/marginSizer + div
	height := div - padding
	if height <= 0 {
		return
	}

	marker := image.NewUniform(Marker)
	for i := 0; i < count; i++ {
		y := i * margin
		draw.Draw(canvas, image.Rect(0, y, size, y+height).Intersect(canvas.Bounds()), marker, image.Point{}, draw.Src)
	}
}

func paint(canvas *image.NRGBA, z *vector.Rasterizer) {
	b := canvas.Bounds()
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.AlphaAt(x, y).A >= coverageThreshold {
				canvas.SetNRGBA(b.Min.X+x, b.Min.Y+y, Marker)
			}
		}
	}
}

// Substitute replaces every pixel of canvas equal to marker with the pixel of
// src at the same offset. Other pixels are left untouched.
func Substitute(canvas *image.NRGBA, src image.Image, marker color.NRGBA) {
	cb := canvas.Bounds()
	sb := src.Bounds()
	for y := cb.Min.Y; y < cb.Max.Y; y++ {
		for x := cb.Min.X; x < cb.Max.X; x++ {
			if canvas.NRGBAAt(x, y) != marker {
				continue
			}
			sp := image.Pt(sb.Min.X+x-cb.Min.X, sb.Min.Y+y-cb.Min.Y)
			if !sp.In(sb) {
				canvas.SetNRGBA(x, y, Transparent)
				continue
			}
			canvas.Set(x, y, src.At(sp.X, sp.Y))
		}
	}
}

// ContentBounds returns the tightest rectangle holding every pixel with a
// non zero alpha. ok is false for a fully transparent image.
func ContentBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Trim crops img to its content bounds.
func Trim(img *image.NRGBA) (*image.NRGBA, bool) {
	r, ok := ContentBounds(img)
	if !ok {
		return img, false
	}
	return imaging.Crop(img, r), true
}
