package variant

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/lewtec/imgvariant/internal/domain"
)

// QueueItem is one source image and the sink directory of its derivatives.
type QueueItem struct {
	SourcePath string
	// TargetBase is "<prefix>/<rootdir>/<subpath>/<stem>".
	TargetBase string
}

func (q QueueItem) String() string { return q.SourcePath }

// BuildQueue walks the top level directories of the config directory and
// lists every file below them. Dot entries, the export prefix directory, the
// filesystem output directory and files carrying a checksum sidecar (earlier
// outputs) are never read.
func BuildQueue(cfg *Config, export ConfigExport) ([]QueueItem, error) {
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("while listing %s: %w", cfg.Dir, err)
	}
	imp := cfg.Import()
	prefixDir := strings.SplitN(domain.JoinKey(export.Prefix), "/", 2)[0]
	outputDir := ""
	if export.Filesystem {
		outputDir = filepath.Clean(cfg.FilesystemRoot(export))
	}

	var roots []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if prefixDir != "" && name == prefixDir {
			continue
		}
		if outputDir != "" && outputDir != filepath.Clean(cfg.Dir) && filepath.Join(cfg.Dir, name) == outputDir {
			continue
		}
		if len(imp.Include) > 0 && !slices.Contains(imp.Include, name) {
			continue
		}
		if slices.Contains(imp.Exclude, name) {
			continue
		}
		roots = append(roots, name)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no source directories found in %s", domain.ErrConfiguration, cfg.Dir)
	}
	sort.Strings(roots)

	var queue []QueueItem
	for _, root := range roots {
		rootPath := filepath.Join(cfg.Dir, root)
		err := filepath.WalkDir(rootPath, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(rootPath, p)
			if err != nil {
				return err
			}
			if strings.HasPrefix(d.Name(), ".") && p != rootPath {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if rel != "." && slices.Contains(imp.Exclude, filepath.ToSlash(rel)) {
					return filepath.SkipDir
				}
				return nil
			}
			if isDerivative(p) {
				return nil
			}
			stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			queue = append(queue, QueueItem{
				SourcePath: p,
				TargetBase: domain.JoinKey(export.Prefix, root, filepath.ToSlash(filepath.Dir(rel)), stem),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("while walking %s: %w", rootPath, err)
		}
	}
	return queue, nil
}

func isDerivative(p string) bool {
	_, err := os.Stat(filepath.FromSlash(domain.ChecksumKey(filepath.ToSlash(p))))
	return err == nil
}
