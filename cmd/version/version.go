package version

import (
	"fmt"

	"github.com/endorses/acscan/internal/pkg/output"
	"github.com/endorses/acscan/internal/pkg/version"
	"github.com/spf13/cobra"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		printer := output.NewPrinter(cmd.OutOrStdout(), jsonOutput)
		if printer.JSONOutput() {
			return printer.Record(version.Get())
		}
		if short {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "acscan", version.GetFullVersion())
		return err
	},
}

var (
	jsonOutput bool
	short      bool
)

func init() {
	VersionCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	VersionCmd.Flags().BoolVar(&short, "short", false, "print the short version only")
}
