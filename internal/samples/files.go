package samples

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewTraceID returns an identifier for one run, used to name saved samples.
func NewTraceID() string {
	return fmt.Sprintf("%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

// FileName returns "<traceID>_<suffix>.json".
func FileName(traceID string, k Kind) string {
	return fmt.Sprintf("%s_%s.json", traceID, k)
}

// Save writes one JSON file per metric present in set and returns the paths
// written, in report order.
func Save(dir, traceID string, set Set) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	var paths []string
	for _, k := range Kinds {
		raws, ok := set[k]
		if !ok {
			continue
		}
		data, err := Encode(k, raws)
		if err != nil {
			return paths, fmt.Errorf("failed to encode %s samples: %w", k, err)
		}
		path := filepath.Join(dir, FileName(traceID, k))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Scan returns every .json file under dir.
func Scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return paths, nil
}

// SeriesName returns the file name without directory and extension, and the
// metric named by its last "_"-separated token.
func SeriesName(path string) (string, Kind, bool) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	suffix := name
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		suffix = name[i+1:]
	}
	k, ok := ParseKind(suffix)
	return name, k, ok
}

// FileSet groups loaded sample files by metric, then by series name.
type FileSet struct {
	Series map[Kind]map[string][]Raw
}

// Names returns the series names of a metric, sorted.
func (s *FileSet) Names(k Kind) []string {
	names := make([]string, 0, len(s.Series[k]))
	for name := range s.Series[k] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type loaded struct {
	name  string
	kind  Kind
	raws  []Raw
	valid bool
}

// Load reads sample files concurrently. Files whose name does not end in a
// known metric suffix are ignored. A file that cannot be read or decoded is
// logged and contributes an empty series; the others are unaffected. Each
// array is reversed on load, as the exported files are.
func Load(ctx context.Context, paths []string, logger *zap.Logger) (*FileSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]loaded, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, k, ok := SeriesName(path)
			if !ok {
				logger.Debug("Skipping file without metric suffix", zap.String("path", path))
				return nil
			}
			results[i] = loaded{name: name, kind: k, valid: true}

			raws, err := loadFile(path, k)
			if err != nil {
				logger.Warn("Failed to load samples", zap.String("path", path), zap.Error(err))
				results[i].raws = []Raw{}
				return nil
			}
			slices.Reverse(raws)
			results[i].raws = raws
			logger.Debug("Loaded samples", zap.String("path", path), zap.Int("count", len(raws)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &FileSet{Series: make(map[Kind]map[string][]Raw)}
	for _, r := range results {
		if !r.valid {
			continue
		}
		if set.Series[r.kind] == nil {
			set.Series[r.kind] = make(map[string][]Raw)
		}
		set.Series[r.kind][r.name] = r.raws
	}
	return set, nil
}

func loadFile(path string, k Kind) ([]Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	raws, err := Decode(k, data)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return raws, nil
}

