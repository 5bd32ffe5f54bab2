package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/endorses/acscan/internal/pkg/cmdutil"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/metrics"
	"github.com/endorses/acscan/internal/pkg/output"
	"github.com/endorses/acscan/internal/pkg/patternset"
	"github.com/endorses/acscan/internal/pkg/signals"
)

// lineResult is the JSON record printed for a matching line in watch mode.
type lineResult struct {
	Source   string   `json:"source"`
	Line     int      `json:"line"`
	Indices  []int    `json:"indices"`
	Patterns []string `json:"patterns"`
}

// runWatch scans stdin line by line against a Reloader that follows the
// pattern file.
func runWatch(ctx context.Context, in io.Reader, printer *output.Printer, patterns []string, first bool) error {
	path := patternFlags.PatternFile()
	if path == "" {
		return fmt.Errorf("--watch needs a pattern file (--patterns)")
	}
	inline := cmdutil.GetStringSliceConfig("patterns.inline", patternFlags.Inline)

	reloader := ahocorasick.NewReloader(first)
	if err := update(reloader, patterns); err != nil {
		return err
	}

	onChange := func(filePatterns []string) {
		combined := append(append([]string{}, filePatterns...), inline...)
		if err := update(reloader, combined); err != nil {
			logger.Warn("Keeping previous patterns", "path", path, "error", err)
		}
	}

	watcher, err := patternset.Watch(ctx, path, onChange)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	cleanupHangup := signals.OnHangup(ctx, func() {
		loaded, err := patternset.Load(path)
		if err != nil {
			metrics.ObserveReload(err)
			logger.Warn("Failed to reload pattern file", "path", path, "error", err)
			return
		}
		onChange(loaded)
	})
	defer cleanupHangup()

	return scanLines(ctx, in, printer, reloader)
}

// update rebuilds the reloader's automaton and records the outcome.
func update(r *ahocorasick.Reloader, patterns []string) error {
	start := time.Now()
	err := r.UpdateSync(patterns)
	metrics.ObserveReload(err)
	if err != nil {
		metrics.ObserveBuild(time.Since(start), len(patterns), 0, err)
		return err
	}
	if a := r.Current(); a != nil {
		metrics.ObserveBuild(time.Since(start), a.PatternCount(), a.StateCount(), nil)
	}
	return nil
}

// scanLines matches every input line against the automaton in service when the
// line arrives. Lines are read on a separate goroutine so cancellation is not
// held up by a blocked read.
func scanLines(ctx context.Context, in io.Reader, printer *output.Printer, r *ahocorasick.Reloader) error {
	type line struct {
		text []byte
		err  error
	}
	lines := make(chan line)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			text := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line{text: text}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("failed to read stdin: %w", l.err)
			}
			lineNo++

			session, err := r.NewSession()
			if err != nil {
				continue
			}
			a := session.Automaton()
			found := session.Execute(l.text)
			session.Close()
			metrics.ObserveScan(metrics.SourceStream, int64(len(l.text)), found.Len(), nil)
			if found == nil {
				continue
			}

			indices := found.Indices()
			names := make([]string, len(indices))
			for i, idx := range indices {
				names[i] = a.Pattern(idx)
			}

			if printer.JSONOutput() {
				err = printer.Record(lineResult{Source: "stdin", Line: lineNo, Indices: indices, Patterns: names})
			} else {
				err = printer.Matches(fmt.Sprintf("stdin:%d", lineNo), names)
			}
			if err != nil {
				return err
			}
		}
	}
}
