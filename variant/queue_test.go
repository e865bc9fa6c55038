package variant

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lewtec/imgvariant/internal/domain"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildQueue(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "photos", "a.png"))
	touch(t, filepath.Join(dir, "photos", "trips", "2024", "b.jpg"))
	touch(t, filepath.Join(dir, "photos", "drafts", "c.png"))
	touch(t, filepath.Join(dir, "photos", ".hidden.png"))
	touch(t, filepath.Join(dir, "logos", "d.png"))
	touch(t, filepath.Join(dir, "scratch", "e.png"))
	touch(t, filepath.Join(dir, "out", "photos", "a", "md.png"))
	touch(t, filepath.Join(dir, ".git", "f.png"))
	// an earlier output next to its sidecar
	touch(t, filepath.Join(dir, "logos", "d", "md.png"))
	touch(t, filepath.Join(dir, "logos", "d", ".md.checksum"))

	cfg, err := ParseConfig([]byte(`
import:
  exclude: [scratch, drafts]
export:
  prefix: out
  filesystem: true
`), filepath.Join(dir, ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	export, err := cfg.Export()
	if err != nil {
		t.Fatal(err)
	}

	queue, err := BuildQueue(cfg, export)
	if err != nil {
		t.Fatalf("BuildQueue() error = %v", err)
	}
	want := []QueueItem{
		{SourcePath: filepath.Join(dir, "logos", "d.png"), TargetBase: "out/logos/d"},
		{SourcePath: filepath.Join(dir, "photos", "a.png"), TargetBase: "out/photos/a"},
		{SourcePath: filepath.Join(dir, "photos", "trips", "2024", "b.jpg"), TargetBase: "out/photos/trips/2024/b"},
	}
	if len(queue) != len(want) {
		t.Fatalf("BuildQueue() = %v, want %v", queue, want)
	}
	for i := range want {
		if queue[i] != want[i] {
			t.Errorf("queue[%d] = %+v, want %+v", i, queue[i], want[i])
		}
	}

	t.Run("include", func(t *testing.T) {
		cfg.ImportSection = &ConfigImport{Include: []string{"logos"}}
		queue, err := BuildQueue(cfg, export)
		if err != nil {
			t.Fatalf("BuildQueue() error = %v", err)
		}
		if len(queue) != 1 || queue[0].TargetBase != "out/logos/d" {
			t.Errorf("BuildQueue() = %v", queue)
		}
	})

	t.Run("no source directories", func(t *testing.T) {
		empty, err := ParseConfig([]byte("export:\n  filesystem: true\n"), filepath.Join(t.TempDir(), ConfigFileName))
		if err != nil {
			t.Fatal(err)
		}
		e, _ := empty.Export()
		if _, err := BuildQueue(empty, e); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("BuildQueue() error = %v, want ErrConfiguration", err)
		}
	})
}
