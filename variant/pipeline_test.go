package variant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/geometry"
	"github.com/lewtec/imgvariant/internal/repository"
)

var red = color.NRGBA{R: 200, G: 30, B: 30, A: 255}

// resizeCount is the number of catalog derivatives of one source.
const resizeCount = 9

func TestPipeline_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "photos", "a.png"), 400, 300, red)
	writeImage(t, filepath.Join(dir, "photos", "b.jpg"), 300, 500, red)
	queue := []QueueItem{
		{SourcePath: filepath.Join(dir, "photos", "a.png"), TargetBase: "photos/a"},
		{SourcePath: filepath.Join(dir, "photos", "b.jpg"), TargetBase: "photos/b"},
	}
	sinks, fs, client := testSinks(t)
	p := testPipeline(sinks, DefaultOptions())
	total := 2 * (resizeCount + len(geometry.Shapes))

	first, err := p.Run(context.Background(), queue)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if len(first.Failed) != 0 {
		t.Fatalf("first run failed entries: %v", first.Failed)
	}
	if len(first.Succeeded) != total || len(first.Skipped) != 0 {
		t.Errorf("first run = %d succeeded, %d skipped, want %d, 0", len(first.Succeeded), len(first.Skipped), total)
	}

	second, err := p.Run(context.Background(), queue)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(second.Succeeded) != 0 || len(second.Skipped) != total || len(second.Failed) != 0 {
		t.Errorf("second run = %d/%d/%d succeeded/skipped/failed, want 0/%d/0",
			len(second.Succeeded), len(second.Skipped), len(second.Failed), total)
	}

	for _, key := range []string{
		"photos/a/og.png", "photos/a/md.png", "photos/a/gray/xs.png", "photos/a/shapes/star.png",
		"photos/b/lg.jpeg", "photos/b/gray/md.jpeg", "photos/b/shapes/round.png",
	} {
		if _, err := fs.Fetch(context.Background(), key); err != nil {
			t.Errorf("filesystem Fetch(%s) error = %v", key, err)
		}
		if _, _, err := client.GetObject(context.Background(), "derivatives", key); err != nil {
			t.Errorf("object store GetObject(%s) error = %v", key, err)
		}
	}
}

func TestPipeline_SourceChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src, 200, 200, red)
	queue := []QueueItem{{SourcePath: src, TargetBase: "a"}}
	sinks, _, _ := testSinks(t)
	opts := DefaultOptions()
	opts.TransformEnabled = false
	p := testPipeline(sinks, opts)

	if _, err := p.Run(context.Background(), queue); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	writeImage(t, src, 200, 200, color.NRGBA{B: 255, A: 255})
	stats, err := p.Run(context.Background(), queue)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(stats.Succeeded) != resizeCount {
		t.Errorf("len(Succeeded) = %d, want %d", len(stats.Succeeded), resizeCount)
	}
}

func TestPipeline_FailuresAreContained(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writeImage(t, good, 320, 240, red)
	sinks, fs, client := testSinks(t)
	client.FailPut = func(key string) bool { return strings.HasSuffix(key, "/og.png") }
	opts := DefaultOptions()
	opts.TransformEnabled = false
	p := testPipeline(sinks, opts)

	stats, err := p.Run(context.Background(), []QueueItem{
		{SourcePath: good, TargetBase: "good"},
		{SourcePath: filepath.Join(dir, "missing.png"), TargetBase: "missing"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(stats.Failed) != 2 {
		t.Fatalf("Failed = %v, want 2 entries", stats.Failed)
	}
	if len(stats.Succeeded) != resizeCount-1 {
		t.Errorf("len(Succeeded) = %d, want %d", len(stats.Succeeded), resizeCount-1)
	}

	var sinkFailure, sourceFailure bool
	for _, line := range stats.Failed {
		sinkFailure = sinkFailure || (strings.HasPrefix(line, "good/og.png") && strings.Contains(line, "object-store"))
		sourceFailure = sourceFailure || strings.Contains(line, domain.ErrSourceUnreadable.Error())
	}
	if !sinkFailure {
		t.Errorf("Failed = %v, want an object-store failure for good/og.png", stats.Failed)
	}
	if !sourceFailure {
		t.Errorf("Failed = %v, want a source unreadable entry", stats.Failed)
	}

	// earlier sinks keep what they received
	if _, err := fs.Fetch(context.Background(), "good/og.png"); err != nil {
		t.Errorf("filesystem Fetch(good/og.png) error = %v", err)
	}
}

func TestPipeline_ChunkBarrier(t *testing.T) {
	dir := t.TempDir()
	var queue []QueueItem
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%d.png", i))
		writeImage(t, path, 64, 48, red)
		queue = append(queue, QueueItem{SourcePath: path, TargetBase: fmt.Sprint(i)})
	}
	sinks, _, _ := testSinks(t)
	opts := DefaultOptions()
	opts.ChunkSize = 2
	opts.TransformEnabled = false
	p := testPipeline(sinks, opts)

	var mu sync.Mutex
	joined := -1
	var violations []string
	p.Hooks = Hooks{
		ChunkStarted: func(_ Pass, chunk int, stats domain.RunStats) {
			if want := min(chunk*2, 5) * resizeCount; stats.Total() != want {
				violations = append(violations, fmt.Sprintf("chunk %d started with %d entries, want %d", chunk, stats.Total(), want))
			}
		},
		TaskStarted: func(_ Pass, chunk int, item QueueItem) {
			mu.Lock()
			defer mu.Unlock()
			if joined != chunk-1 {
				violations = append(violations, fmt.Sprintf("%s of chunk %d started after chunk %d joined", item, chunk, joined))
			}
		},
		ChunkJoined: func(_ Pass, chunk int, stats domain.RunStats) {
			mu.Lock()
			joined = chunk
			mu.Unlock()
			if want := min((chunk+1)*2, 5) * resizeCount; stats.Total() != want {
				violations = append(violations, fmt.Sprintf("chunk %d joined with %d entries, want %d", chunk, stats.Total(), want))
			}
		},
	}

	if _, err := p.Run(context.Background(), queue); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if joined != 2 {
		t.Errorf("last joined chunk = %d, want 2", joined)
	}
	for _, v := range violations {
		t.Error(v)
	}
}

func TestPipeline_JoinFailure(t *testing.T) {
	dir := t.TempDir()
	var queue []QueueItem
	for i := 0; i < 4; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%d.png", i))
		writeImage(t, path, 32, 32, red)
		queue = append(queue, QueueItem{SourcePath: path, TargetBase: fmt.Sprint(i)})
	}
	sinks, _, _ := testSinks(t)
	opts := DefaultOptions()
	opts.ChunkSize = 2
	p := testPipeline(sinks, opts)

	var started []int
	p.Hooks = Hooks{
		ChunkStarted: func(_ Pass, chunk int, _ domain.RunStats) { started = append(started, chunk) },
		TaskStarted: func(_ Pass, _ int, item QueueItem) {
			if item.TargetBase == "1" {
				panic("worker lost")
			}
		},
	}

	_, err := p.Run(context.Background(), queue)
	if !errors.Is(err, domain.ErrJoinFailure) {
		t.Fatalf("Run() error = %v, want ErrJoinFailure", err)
	}
	if len(started) != 1 {
		t.Errorf("started chunks = %v, want only the first", started)
	}
}

func TestPipeline_Ledger(t *testing.T) {
	db := repository.SetupTestDB(t)
	defer repository.CleanupTestDB(t, db)

	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src, 40, 40, red)
	sinks, _, _ := testSinks(t)
	opts := DefaultOptions()
	opts.TransformEnabled = false
	p := testPipeline(sinks, opts)
	p.Ledger = repository.NewRunRepository(db)
	p.ConfigPath = "/data/config.yaml"

	if _, err := p.Run(context.Background(), []QueueItem{{SourcePath: src, TargetBase: "a"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	runs, err := p.Ledger.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].Succeeded != resizeCount || runs[0].ConfigPath != "/data/config.yaml" {
		t.Errorf("run = %+v", runs[0])
	}
}

// finishFailingLedger records runs but cannot store their outcome.
type finishFailingLedger struct {
	*repository.RunRepository
}

func (finishFailingLedger) Finish(context.Context, string, time.Time, domain.RunStats) error {
	return errors.New("disk full")
}

func TestPipeline_LedgerFinishFailure(t *testing.T) {
	db := repository.SetupTestDB(t)
	defer repository.CleanupTestDB(t, db)

	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src, 40, 40, red)
	sinks, _, _ := testSinks(t)
	opts := DefaultOptions()
	opts.TransformEnabled = false
	var logs bytes.Buffer
	p := testPipeline(sinks, opts)
	p.Logger = NewLoggerTo(&logs, "info", false)
	p.Ledger = finishFailingLedger{repository.NewRunRepository(db)}

	stats, err := p.Run(context.Background(), []QueueItem{{SourcePath: src, TargetBase: "a"}})
	if err != nil {
		t.Fatalf("Run() error = %v, want the completed work to count", err)
	}
	if len(stats.Succeeded) != resizeCount {
		t.Errorf("succeeded = %d, want %d", len(stats.Succeeded), resizeCount)
	}
	if !strings.Contains(logs.String(), `"level":"error"`) || !strings.Contains(logs.String(), "disk full") {
		t.Errorf("expected the ledger failure to be logged, got %s", logs.String())
	}
}

func TestPipeline_ShapeSourceMissing(t *testing.T) {
	sinks, _, _ := testSinks(t)
	p := testPipeline(sinks, DefaultOptions())

	stats, err := p.shapeSource(context.Background(), sinks, QueueItem{SourcePath: "x.png", TargetBase: "x"})
	if err != nil {
		t.Fatalf("shapeSource() error = %v", err)
	}
	if len(stats.Skipped) != 1 || len(stats.Failed) != 0 {
		t.Errorf("stats = %+v, want one skip", stats)
	}
}
