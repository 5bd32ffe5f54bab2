package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/endorses/acscan/cmd/check"
	"github.com/endorses/acscan/cmd/inspect"
	"github.com/endorses/acscan/cmd/pcap"
	"github.com/endorses/acscan/cmd/scan"
	versioncmd "github.com/endorses/acscan/cmd/version"
	"github.com/endorses/acscan/internal/pkg/cmdutil"
	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/metrics"
	"github.com/endorses/acscan/internal/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	logLevel    string
	logFormat   string
	metricsAddr string

	metricsServer *metrics.Server
)

var rootCmd = &cobra.Command{
	Use:   "acscan",
	Short: "acscan finds many patterns in one pass",
	Long: fmt.Sprintf(`acscan %s - multi-pattern scanner

acscan compiles a set of ASCII patterns into an Aho-Corasick automaton and
reports which of them occur in files, standard input or captured network
flows. Matching is ASCII case-insensitive.`, version.GetVersion()),
	Version:            version.GetFullVersion(),
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSubCommandPalattes() {
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(check.CheckCmd)
	rootCmd.AddCommand(pcap.PcapCmd)
	rootCmd.AddCommand(inspect.InspectCmd)
	rootCmd.AddCommand(versioncmd.VersionCmd)
}

func init() {
	cobra.OnInitialize(initConfig)

	addSubCommandPalattes()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/acscan/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default text)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Priority order for config files:
		// 1. ~/.config/acscan/config.yaml
		// 2. ~/.config/acscan.yaml
		viper.AddConfigPath(filepath.Join(home, ".config", "acscan"))
		viper.AddConfigPath(filepath.Join(home, ".config"))
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigName("acscan")
		}
	}

	// ACSCAN_LOG_LEVEL overrides log.level, and so on.
	viper.SetEnvPrefix("acscan")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Failed to read config file:", err)
	}
}

// setup configures logging and the metrics endpoint before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	err := logger.Configure(logger.Options{
		Level:  cmdutil.GetStringConfig("log.level", logLevel),
		Format: cmdutil.GetStringConfig("log.format", logFormat),
	})
	if err != nil {
		return err
	}

	if addr := cmdutil.GetStringConfig("metrics.addr", metricsAddr); addr != "" {
		metricsServer, err = metrics.StartServer(addr)
		if err != nil {
			return err
		}
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()
	err := metricsServer.Shutdown(ctx)
	metricsServer = nil
	return err
}
