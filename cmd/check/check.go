package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/endorses/acscan/internal/pkg/charscan"
	"github.com/endorses/acscan/internal/pkg/cmdutil"
	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/output"
	"github.com/endorses/acscan/internal/pkg/signals"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Flag input containing stop characters or a double dash",
	Long: `Flag input containing any byte from the stop-character set, or two
consecutive dashes ("--"). Each file is checked as one stream, so a "--" split
across read chunks is still found. Without file arguments standard input is
checked.`,
	Example: `  acscan check query.sql
  echo "name=x' or 1=1" | acscan check --stop-chars "';"`,
	RunE: runCheck,
}

var (
	stopChars  string
	chunkSize  string
	jsonOutput bool
)

func init() {
	CheckCmd.Flags().StringVar(&stopChars, "stop-chars", "", fmt.Sprintf("stop characters (default %q)", constants.DefaultStopChars))
	CheckCmd.Flags().StringVar(&chunkSize, "chunk-size", "", "read size per chunk (default 64K)")
	CheckCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// checkResult is the outcome of checking one input.
type checkResult struct {
	Source     string `json:"source"`
	Suspicious bool   `json:"suspicious"`
	Bytes      int64  `json:"bytes"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signals.WithShutdown(cmd.Context())
	defer stop()

	stops := cmdutil.GetStringConfig("check.stop_chars", stopChars)
	if stops == "" {
		stops = constants.DefaultStopChars
	}
	size, err := cmdutil.GetSizeConfig("check.chunk_size", chunkSize, constants.DefaultChunkSize)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), cmdutil.GetBoolConfig("output.json", jsonOutput))

	s := charscan.New([]byte(stops))
	buf := make([]byte, size)

	if len(args) == 0 {
		result, err := checkReader(ctx, s, buf, "stdin", cmd.InOrStdin())
		if err != nil {
			return err
		}
		return printResult(printer, result)
	}

	for _, path := range args {
		s.Reset()
		result, err := checkFile(ctx, s, buf, path)
		if err != nil {
			return err
		}
		if err := printResult(printer, result); err != nil {
			return err
		}
	}
	return nil
}

func checkFile(ctx context.Context, s *charscan.Scanner, buf []byte, path string) (checkResult, error) {
	// #nosec G304 -- Paths are supplied on the command line
	f, err := os.Open(path)
	if err != nil {
		return checkResult{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return checkReader(ctx, s, buf, path, f)
}

// checkReader feeds r through s chunk by chunk, stopping at the first hit.
func checkReader(ctx context.Context, s *charscan.Scanner, buf []byte, name string, r io.Reader) (checkResult, error) {
	result := checkResult{Source: name}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			result.Bytes += int64(n)
			if s.Suspicious(buf[:n]) {
				result.Suspicious = true
				return result, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
}

func printResult(p *output.Printer, result checkResult) error {
	if p.JSONOutput() {
		return p.Record(result)
	}
	if result.Suspicious {
		return p.Matches(result.Source, []string{"suspicious"})
	}
	return p.Matches(result.Source, nil)
}
