package variant

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lewtec/imgvariant/internal/domain"
)

// Source is a decoded image together with its descriptor.
type Source struct {
	Image      image.Image
	Descriptor domain.SourceDescriptor
}

// LoadSource decodes the file at path and checksums its pixels.
// Every derivative of the source is stored under targetBase.
func LoadSource(path, targetBase string, alg ChecksumAlgorithm) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}
	defer f.Close()
	return DecodeSource(f, path, targetBase, alg)
}

// DecodeSource is LoadSource over an already opened stream; name is only used
// for the descriptor and error messages.
func DecodeSource(r io.Reader, name, targetBase string, alg ChecksumAlgorithm) (Source, error) {
	img, kind, err := image.Decode(r)
	if err != nil {
		return Source{}, fmt.Errorf("%w: while decoding %s: %v", domain.ErrSourceUnreadable, name, err)
	}
	format, err := formatFor(kind)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", name, err)
	}
	layout := domain.LayoutFor(format, isGray(img))
	b := img.Bounds()
	desc, err := domain.NewSourceDescriptor(name, targetBase, b.Dx(), b.Dy(), format, layout, PixelChecksum(img, layout, alg))
	if err != nil {
		return Source{}, err
	}
	return Source{Image: img, Descriptor: desc}, nil
}

// decodeDerivative reads back a derivative fetched from a sink. Its pixels are
// always checksummed as RGBA8 so the result does not depend on the stored encoding.
func decodeDerivative(data []byte, key, targetBase string, alg ChecksumAlgorithm) (Source, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Source{}, fmt.Errorf("%w: while decoding %s: %v", domain.ErrSourceUnreadable, key, err)
	}
	b := img.Bounds()
	desc, err := domain.NewSourceDescriptor(key, targetBase, b.Dx(), b.Dy(), domain.Lossless, domain.RGBA8, PixelChecksum(img, domain.RGBA8, alg))
	if err != nil {
		return Source{}, err
	}
	return Source{Image: img, Descriptor: desc}, nil
}

func formatFor(kind string) (domain.TargetFormat, error) {
	switch kind {
	case "png", "gif", "webp", "bmp", "tiff":
		return domain.Lossless, nil
	case "jpeg":
		return domain.Lossy, nil
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, kind)
}

func isGray(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}

// PixelChecksum packs the pixels of img row by row in layout and digests them.
func PixelChecksum(img image.Image, layout domain.PixelLayout, alg ChecksumAlgorithm) string {
	return alg.Sum(PackPixels(img, layout))
}

// PackPixels returns the raw pixel bytes of img in the given channel layout.
func PackPixels(img image.Image, layout domain.PixelLayout) []byte {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := make([]byte, 0, w*h*layout.Channels())
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			r, g, b, a := row[x], row[x+1], row[x+2], row[x+3]
			switch layout {
			case domain.Gray8:
				out = append(out, luma(r, g, b))
			case domain.GrayAlpha8:
				out = append(out, luma(r, g, b), a)
			case domain.RGB8:
				out = append(out, r, g, b)
			default:
				out = append(out, r, g, b, a)
			}
		}
	}
	return out
}

func luma(r, g, b uint8) uint8 {
	return color.GrayModel.Convert(color.RGBA{R: r, G: g, B: b, A: 0xff}).(color.Gray).Y
}
