package variant

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lewtec/imgvariant/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "export:\n  filesystem: true\n")

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.ParallelImgMax != 4 {
			t.Errorf("ParallelImgMax = %v, want %v", cfg.ParallelImgMax, 4)
		}
		if cfg.Ledger.Path != filepath.Join(cfg.Dir, ".imgvariant.db") {
			t.Errorf("Ledger.Path = %v", cfg.Ledger.Path)
		}
		opts, err := cfg.Options()
		if err != nil {
			t.Fatalf("Options() error = %v", err)
		}
		if opts != DefaultOptions() {
			t.Errorf("Options() = %+v, want %+v", opts, DefaultOptions())
		}
		export, err := cfg.Export()
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if cfg.FilesystemRoot(export) != cfg.Dir || !export.CreateBucketEnabled() {
			t.Errorf("export = %+v", export)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, `
parallel_img_max: 2
transform_variant: sm
checksum: sha256
jpeg_quality: 70
resize:
  md: 320
  xs: 64
export:
  prefix: out
  filesystem: true
  filesystem_path: public
  create_bucket: false
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		opts, err := cfg.Options()
		if err != nil {
			t.Fatalf("Options() error = %v", err)
		}
		if opts.ChunkSize != 2 || opts.Transform != domain.Sm || opts.Checksum != SHA256 || opts.JPEGQuality != 70 {
			t.Errorf("Options() = %+v", opts)
		}
		if opts.Sizes.Edge(domain.Md) != 320 || opts.Sizes.Edge(domain.Xs) != 64 || opts.Sizes.Edge(domain.Lg) != 600 {
			t.Errorf("Sizes = %v", opts.Sizes)
		}
		export, _ := cfg.Export()
		if export.FilesystemPath != filepath.Join(cfg.Dir, "public") {
			t.Errorf("FilesystemPath = %v", export.FilesystemPath)
		}
		if export.CreateBucketEnabled() {
			t.Error("CreateBucketEnabled() = true, want false")
		}
	})

	t.Run("transform none", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "transform_variant: none\n")
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		opts, _ := cfg.Options()
		if opts.TransformEnabled {
			t.Error("TransformEnabled = true, want false")
		}
	})

	invalid := map[string]string{
		"unknown variant":     "transform_variant: huge\n",
		"unknown checksum":    "checksum: md5\n",
		"negative edge":       "resize:\n  md: -1\n",
		"s3 without section":  "export:\n  s3: true\n",
		"broken yaml":         "export: [\n",
		"negative parallel":   "parallel_img_max: -3\n",
		"jpeg quality at 101": "jpeg_quality: 101\n",
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, t.TempDir(), content))
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("LoadConfig() error = %v, want ErrConfiguration", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir())
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("LoadConfig() error = %v, want a configuration error", err)
		}
	})
}

func TestConfig_Sections(t *testing.T) {
	t.Run("export is required", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, t.TempDir(), "parallel_img_max: 1\n"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := cfg.Export(); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("Export() error = %v, want ErrConfiguration", err)
		}
		if _, err := cfg.S3(); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("S3() error = %v, want ErrConfiguration", err)
		}
		if got := cfg.Server().Addr(); got != "127.0.0.1:8080" {
			t.Errorf("Server().Addr() = %v, want %v", got, "127.0.0.1:8080")
		}
	})

	t.Run("s3 credentials from the environment", func(t *testing.T) {
		t.Setenv("S3_ACCESS_KEY", "")
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("S3_ACCESS_KEY=from-dotenv\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		os.Unsetenv("S3_ACCESS_KEY")
		t.Setenv("S3_SECRET_KEY", "from-env")
		cfg, err := LoadConfig(writeConfig(t, dir, `
export:
  s3: true
s3:
  endpoint: localhost:9000
  bucket: images
server:
  port: 9090
`))
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		s3, err := cfg.S3()
		if err != nil {
			t.Fatalf("S3() error = %v", err)
		}
		if s3.AccessKey != "from-dotenv" || s3.SecretKey != "from-env" {
			t.Errorf("credentials = %q/%q", s3.AccessKey, s3.SecretKey)
		}
		if got := cfg.Server().Addr(); got != "127.0.0.1:9090" {
			t.Errorf("Server().Addr() = %v", got)
		}
	})
}
