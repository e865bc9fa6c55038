package variant

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/lewtec/imgvariant/internal/sink"
)

// writeImage saves a w x h image filled with c; the format follows the extension.
func writeImage(t *testing.T, path string, w, h int, c color.Color) image.Image {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	img := imaging.New(w, h, c)
	// a gradient keeps resizes and crops distinguishable
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(x % 256)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to save %s: %v", path, err)
	}
	return img
}

func testSinks(t *testing.T) (sink.Set, *sink.Filesystem, *sink.MemoryClient) {
	t.Helper()
	fs := sink.OpenFilesystem(t.TempDir())
	client := sink.NewMemoryClient("derivatives")
	return sink.Set{fs, sink.NewObjectStore(client, "derivatives", Adler32.TagKey())}, fs, client
}

func testPipeline(sinks sink.Set, opts Options) *Pipeline {
	return &Pipeline{Options: opts, Sinks: sinks, Logger: zerolog.Nop()}
}
