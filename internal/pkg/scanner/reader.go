package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of scanning one reader or file.
type Result struct {
	Source   string        `json:"source"`
	Indices  []int         `json:"indices"`
	Patterns []string      `json:"patterns"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Matched reports whether any pattern was found.
func (r Result) Matched() bool {
	return len(r.Indices) > 0
}

// ScanReader scans r chunk by chunk with one session. The context is checked
// between chunks. In first-match mode reading stops at the first match.
func (s *Scanner) ScanReader(ctx context.Context, name string, r io.Reader) (Result, error) {
	result, err := s.scanReader(ctx, name, r)
	metrics.ObserveScan(metrics.SourceReader, result.Bytes, len(result.Indices), err)
	return result, err
}

// ScanFile opens and scans the file at path.
func (s *Scanner) ScanFile(ctx context.Context, path string) (Result, error) {
	result, err := s.scanFile(ctx, path)
	metrics.ObserveScan(metrics.SourceFile, result.Bytes, len(result.Indices), err)
	return result, err
}

func (s *Scanner) scanFile(ctx context.Context, path string) (Result, error) {
	// #nosec G304 -- Paths are supplied on the command line
	f, err := os.Open(path)
	if err != nil {
		return Result{Source: path}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.scanReader(ctx, path, f)
}

func (s *Scanner) scanReader(ctx context.Context, name string, r io.Reader) (Result, error) {
	start := time.Now()
	result := Result{Source: name}

	session := s.automaton.NewSession(s.firstMatch)
	defer session.Close()

	found := ahocorasick.NewMatchSet()
	buf := make([]byte, s.chunkSize)

	finish := func() {
		result.Bytes = session.Offset()
		result.Indices = found.Indices()
		result.Patterns = s.patternsFor(result.Indices)
		result.Duration = time.Since(start)
	}

	for {
		if err := ctx.Err(); err != nil {
			finish()
			return result, err
		}

		n, err := r.Read(buf)
		if n > 0 {
			found.Merge(session.Execute(buf[:n]))
			if s.firstMatch && found.Len() > 0 {
				break
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			finish()
			return result, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}

	finish()
	return result, nil
}

// ScanFiles scans paths concurrently with at most workers files in flight
// (GOMAXPROCS when workers <= 0). Results are returned in input order. A file
// that cannot be read is reported through its Result.Error and does not stop
// the others; only context cancellation aborts the run.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	runID := uuid.NewString()
	logger.Debug("Scanning files",
		"run_id", runID,
		"files", len(paths),
		"workers", workers)

	results := make([]Result, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			result, err := s.ScanFile(gCtx, path)
			if err != nil {
				if ctxErr := gCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("Failed to scan file",
					"run_id", runID,
					"path", path,
					"error", err)
				result.Error = err.Error()
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	matched := 0
	for _, r := range results {
		if r.Matched() {
			matched++
		}
	}
	logger.Debug("Scanned files",
		"run_id", runID,
		"files", len(paths),
		"matched", matched)

	return results, nil
}
