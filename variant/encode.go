package variant

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"

	"github.com/lewtec/imgvariant/internal/domain"
)

// Encode serializes img with the given encoder.
func Encode(img image.Image, enc domain.Encoding, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch enc {
	case domain.EncodeLossless:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case domain.EncodeLosslessGray:
		err = encodeGrayAlpha(&buf, imaging.Grayscale(img))
	case domain.EncodeLossy:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case domain.EncodeLossyGray:
		err = imaging.Encode(&buf, toGray(img), imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return nil, fmt.Errorf("%w: encoder %v", domain.ErrUnsupportedFormat, enc)
	}
	if err != nil {
		return nil, fmt.Errorf("while encoding %v: %w", enc, err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Rect, img, b.Min, draw.Src)
	return g
}

const pngSignature = "\x89PNG\r\n\x1a\n"

// encodeGrayAlpha writes img as an 8 bit gray+alpha PNG, taking the gray
// value from the red channel. image/png cannot emit that color type.
func encodeGrayAlpha(w io.Writer, img *image.NRGBA) error {
	b := img.Bounds()
	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	row := make([]byte, 1+2*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		// filter type none
		row[0] = 0
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, y)
			row[1+2*x] = c.R
			row[2+2*x] = c.A
		}
		if _, err := zw.Write(row); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(b.Dy()))
	ihdr[8] = 8
	ihdr[9] = 4

	if _, err := io.WriteString(w, pngSignature); err != nil {
		return err
	}
	chunks := []struct {
		typ  string
		data []byte
	}{
		{"IHDR", ihdr},
		{"IDAT", idat.Bytes()},
		{"IEND", nil},
	}
	for _, c := range chunks {
		if err := writePNGChunk(w, c.typ, c.data); err != nil {
			return err
		}
	}
	return nil
}

func writePNGChunk(w io.Writer, typ string, data []byte) error {
	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(data)))
	copy(head[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(head[4:])
	crc.Write(data)
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], crc.Sum32())
	for _, p := range [][]byte{head[:], data, tail[:]} {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}
