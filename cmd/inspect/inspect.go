package inspect

import (
	"strconv"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/endorses/acscan/internal/pkg/cmdutil"
	"github.com/endorses/acscan/internal/pkg/output"
	"github.com/endorses/acscan/internal/pkg/scanner"
	"github.com/spf13/cobra"
)

var InspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Build the automaton and show its size",
	Long: `Build the automaton for a pattern set and show the pattern list, the
computed state bound, the number of states actually allocated and the number
of live holders. A pattern set that does not fit the automaton is reported
with the state bound it needed.`,
	Example: `  acscan inspect -p patterns.txt
  acscan inspect --pattern he --pattern she --json`,
	RunE: runInspect,
}

var (
	patternFlags cmdutil.PatternFlags
	jsonOutput   bool
	quiet        bool
)

func init() {
	cmdutil.AddPatternFlags(InspectCmd, &patternFlags)
	InspectCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	InspectCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "omit the pattern list")
}

// report describes a built automaton.
type report struct {
	Patterns     []string `json:"patterns,omitempty"`
	PatternCount int      `json:"pattern_count"`
	MaxStates    int      `json:"max_states"`
	StateCount   int      `json:"state_count"`
	StateLimit   int      `json:"state_limit"`
	Holders      int      `json:"holders"`
}

func newReport(a *ahocorasick.Automaton, withPatterns bool) report {
	r := report{
		PatternCount: a.PatternCount(),
		MaxStates:    a.MaxStates(),
		StateCount:   a.StateCount(),
		StateLimit:   int(ahocorasick.Undefined),
		Holders:      a.Holders(),
	}
	if withPatterns {
		r.Patterns = a.Patterns()
	}
	return r
}

func runInspect(cmd *cobra.Command, args []string) error {
	patterns, err := patternFlags.Load()
	if err != nil {
		return err
	}

	s, err := scanner.New(patterns)
	if err != nil {
		return err
	}
	r := newReport(s.Automaton(), !quiet)

	printer := output.NewPrinter(cmd.OutOrStdout(), cmdutil.GetBoolConfig("output.json", jsonOutput))
	if printer.JSONOutput() {
		return printer.Record(r)
	}

	fields := []struct {
		label string
		value any
	}{
		{"patterns", r.PatternCount},
		{"max states", r.MaxStates},
		{"states", r.StateCount},
		{"state limit", r.StateLimit},
		{"holders", r.Holders},
	}
	for _, f := range fields {
		if err := printer.Field(f.label, f.value); err != nil {
			return err
		}
	}
	for i, p := range r.Patterns {
		if err := printer.Field("#"+strconv.Itoa(i), p); err != nil {
			return err
		}
	}
	return nil
}
