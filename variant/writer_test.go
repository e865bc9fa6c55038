package variant

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/lewtec/imgvariant/internal/domain"
)

func TestRender(t *testing.T) {
	img := imaging.New(1200, 800, red)
	desc, err := domain.NewSourceDescriptor("a.png", "a", 1200, 800, domain.Lossless, domain.RGBA8, "1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		spec  domain.DerivativeSpec
		wantW int
		wantH int
	}{
		{"fit keeps the ratio", domain.DerivativeSpec{Edge: 600, Mode: domain.Fit}, 600, 400},
		{"fit never upscales", domain.DerivativeSpec{Edge: 2500, Mode: domain.Fit}, 1200, 800},
		{"crop makes squares", domain.DerivativeSpec{Edge: 300, Mode: domain.CropToFit}, 300, 300},
		{"crop is bounded by the short side", domain.DerivativeSpec{Edge: 1000, Mode: domain.CropToFit}, 800, 800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(img, desc, tt.spec)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if b := out.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Render() = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}

	t.Run("empty buffer", func(t *testing.T) {
		_, err := Render(image.NewNRGBA(image.Rect(0, 0, 0, 0)), desc, tests[0].spec)
		if err == nil {
			t.Error("expected an error for an empty buffer")
		}
	})
}

func TestEncode(t *testing.T) {
	img := imaging.New(16, 8, color.NRGBA{R: 255, A: 128})

	tests := []struct {
		enc        domain.Encoding
		wantFormat string
		wantGray   bool
	}{
		{domain.EncodeLossless, "png", false},
		{domain.EncodeLosslessGray, "png", false},
		{domain.EncodeLossy, "jpeg", false},
		{domain.EncodeLossyGray, "jpeg", true},
	}
	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			data, err := Encode(img, tt.enc, 85)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			decoded, format, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("format = %v, want %v", format, tt.wantFormat)
			}
			if _, gray := decoded.(*image.Gray); gray != tt.wantGray {
				t.Errorf("decoded %T, gray = %v, want %v", decoded, gray, tt.wantGray)
			}
			if tt.enc == domain.EncodeLosslessGray {
				// IHDR color type 4 is gray with alpha
				if data[25] != 4 {
					t.Errorf("png color type = %d, want 4", data[25])
				}
				c := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA)
				if c.R != c.G || c.G != c.B {
					t.Errorf("pixel = %v, want a gray value", c)
				}
				if c.A != 128 {
					t.Errorf("alpha = %d, want 128", c.A)
				}
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	desc, err := domain.NewSourceDescriptor("b.jpg", "photos/b", 300, 500, domain.Lossy, domain.RGB8, "1")
	if err != nil {
		t.Fatal(err)
	}
	specs := Catalog(desc, domain.DefaultSizes().With(domain.Md, 320))

	want := []struct {
		key  string
		mode domain.ResizeMode
		enc  domain.Encoding
		edge int
	}{
		{"photos/b/og.jpeg", domain.Fit, domain.EncodeLossy, 2500},
		{"photos/b/xl.jpeg", domain.Fit, domain.EncodeLossy, 1200},
		{"photos/b/lg.jpeg", domain.Fit, domain.EncodeLossy, 600},
		{"photos/b/md.jpeg", domain.CropToFit, domain.EncodeLossy, 320},
		{"photos/b/sm.jpeg", domain.CropToFit, domain.EncodeLossy, 150},
		{"photos/b/xs.jpeg", domain.CropToFit, domain.EncodeLossy, 75},
		{"photos/b/gray/md.jpeg", domain.CropToFit, domain.EncodeLossyGray, 320},
		{"photos/b/gray/sm.jpeg", domain.CropToFit, domain.EncodeLossyGray, 150},
		{"photos/b/gray/xs.jpeg", domain.CropToFit, domain.EncodeLossyGray, 75},
	}
	if len(specs) != len(want) {
		t.Fatalf("len(Catalog) = %d, want %d", len(specs), len(want))
	}
	for i, w := range want {
		s := specs[i]
		if s.Key != w.key || s.Mode != w.mode || s.Encoding != w.enc || s.Edge != w.edge {
			t.Errorf("spec %d = %s %v %v %d, want %s %v %v %d", i, s.Key, s.Mode, s.Encoding, s.Edge, w.key, w.mode, w.enc, w.edge)
		}
	}
}
