package scan

import (
	"fmt"
	"io"

	"github.com/endorses/acscan/internal/pkg/cmdutil"
	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/output"
	"github.com/endorses/acscan/internal/pkg/scanner"
	"github.com/endorses/acscan/internal/pkg/signals"
	"github.com/spf13/cobra"
)

var ScanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Scan files or standard input for patterns",
	Long: `Scan files or standard input for patterns.

Every file is read in chunks through one automaton session, so matches that
straddle chunk boundaries are found. Without file arguments standard input is
scanned. With --watch, standard input is scanned line by line and the pattern
file is reloaded whenever it changes or the process receives SIGHUP.`,
	Example: `  acscan scan -p patterns.txt access.log error.log
  tail -f app.log | acscan scan -p patterns.yaml --watch
  acscan scan --pattern "union select" --pattern "../" --json request.txt`,
	RunE: runScan,
}

var (
	patternFlags cmdutil.PatternFlags
	firstMatch   bool
	workers      int
	chunkSize    string
	jsonOutput   bool
	watch        bool
)

func init() {
	cmdutil.AddPatternFlags(ScanCmd, &patternFlags)
	ScanCmd.Flags().BoolVar(&firstMatch, "first", false, "stop each input at its first match")
	ScanCmd.Flags().IntVar(&workers, "workers", constants.DefaultWorkers, "files scanned concurrently (0 = GOMAXPROCS)")
	ScanCmd.Flags().StringVar(&chunkSize, "chunk-size", "", "read size per chunk, e.g. 4K or 1M (default 64K)")
	ScanCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	ScanCmd.Flags().BoolVar(&watch, "watch", false, "scan stdin lines and reload the pattern file on change")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signals.WithShutdown(cmd.Context())
	defer stop()

	patterns, err := patternFlags.Load()
	if err != nil {
		return err
	}

	first := cmdutil.GetBoolConfig("scan.first", firstMatch)
	size, err := cmdutil.GetSizeConfig("scan.chunk_size", chunkSize, constants.DefaultChunkSize)
	if err != nil {
		return err
	}
	n := workers
	if !cmd.Flags().Changed("workers") {
		n = cmdutil.GetIntConfig("scan.workers", workers)
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), cmdutil.GetBoolConfig("output.json", jsonOutput))

	if watch {
		if len(args) > 0 {
			return fmt.Errorf("--watch scans standard input and takes no file arguments")
		}
		return runWatch(ctx, cmd.InOrStdin(), printer, patterns, first)
	}

	s, err := scanner.New(patterns, scanner.WithFirstMatch(first), scanner.WithChunkSize(size))
	if err != nil {
		return err
	}
	logger.Debug("Automaton ready",
		"patterns", s.Automaton().PatternCount(),
		"states", s.Automaton().StateCount(),
		"first_match", first)

	if len(args) == 0 {
		result, err := s.ScanReader(ctx, "stdin", cmd.InOrStdin())
		if err != nil {
			return err
		}
		return printResult(printer, cmd.ErrOrStderr(), result)
	}

	results, err := s.ScanFiles(ctx, args, n)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
		if err := printResult(printer, cmd.ErrOrStderr(), result); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be scanned", failed, len(results))
	}
	return nil
}

func printResult(p *output.Printer, errOut io.Writer, result scanner.Result) error {
	if p.JSONOutput() {
		return p.Record(result)
	}
	if result.Error != "" {
		_, err := fmt.Fprintf(errOut, "%s: %s\n", result.Source, result.Error)
		return err
	}
	return p.Matches(result.Source, result.Patterns)
}
