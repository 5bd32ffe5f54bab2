package pcap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/endorses/acscan/internal/pkg/cmdutil"
	"github.com/endorses/acscan/internal/pkg/flowscan"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/output"
	"github.com/endorses/acscan/internal/pkg/pcapwriter"
	"github.com/endorses/acscan/internal/pkg/scanner"
	"github.com/endorses/acscan/internal/pkg/signals"
	"github.com/spf13/cobra"
)

var PcapCmd = &cobra.Command{
	Use:   "pcap",
	Short: "Scan the TCP and UDP flows of a capture file",
	Long: `Scan the TCP and UDP flows of a pcap or pcapng capture file.

TCP streams are reassembled per direction before scanning, so patterns split
across segments are found. UDP payloads are scanned packet by packet on one
session per flow. Only flows with matches are printed unless --all is given.

With --write-matches, every packet of a matched flow, in either direction, is
copied to a new pcap file.`,
	Example: `  acscan pcap -r capture.pcap -p patterns.txt
  acscan pcap -r capture.pcapng --pattern password --json
  acscan pcap -r capture.pcap -p patterns.txt -w matched.pcap`,
	RunE: runPcap,
}

var (
	patternFlags cmdutil.PatternFlags
	readFile     string
	writeFile    string
	firstMatch   bool
	allFlows     bool
	jsonOutput   bool
)

func init() {
	cmdutil.AddPatternFlags(PcapCmd, &patternFlags)
	PcapCmd.Flags().StringVarP(&readFile, "read-file", "r", "", "pcap or pcapng file to read")
	PcapCmd.Flags().StringVarP(&writeFile, "write-matches", "w", "", "write the packets of matched flows to this pcap file")
	PcapCmd.Flags().BoolVar(&firstMatch, "first", false, "stop each flow at its first match")
	PcapCmd.Flags().BoolVar(&allFlows, "all", false, "print flows without matches too")
	PcapCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	_ = PcapCmd.MarkFlagRequired("read-file")
}

func runPcap(cmd *cobra.Command, args []string) error {
	ctx, stop := signals.WithShutdown(cmd.Context())
	defer stop()

	patterns, err := patternFlags.Load()
	if err != nil {
		return err
	}
	first := cmdutil.GetBoolConfig("scan.first", firstMatch)

	s, err := scanner.New(patterns)
	if err != nil {
		return err
	}

	// #nosec G304 -- Path is supplied on the command line
	f, err := os.Open(readFile)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	results, err := flowscan.New(s.Automaton(), first).ScanPcap(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", readFile, err)
	}

	if writeFile != "" {
		if err := exportMatches(ctx, f, results); err != nil {
			return err
		}
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), cmdutil.GetBoolConfig("output.json", jsonOutput))
	for _, result := range results {
		if !allFlows && !result.Matched() {
			continue
		}
		if printer.JSONOutput() {
			err = printer.Record(result)
		} else {
			err = printer.Matches(fmt.Sprintf("%s %s", result.Protocol, result.Flow), result.Patterns)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// exportMatches rereads the capture and copies the packets of matched flows
// to writeFile.
func exportMatches(ctx context.Context, f *os.File, results []flowscan.FlowResult) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind capture: %w", err)
	}

	w, err := pcapwriter.New(&pcapwriter.Config{FilePath: writeFile})
	if err != nil {
		return err
	}

	flows := flowscan.MatchedFlows(results)
	n, err := flowscan.Export(ctx, f, flows, w)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", writeFile, err)
	}

	logger.Info("Wrote matched flows", "file", writeFile, "flows", len(flows), "packets", n)
	return nil
}
