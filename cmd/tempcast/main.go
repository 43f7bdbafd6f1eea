// tempcast forecasts annual mean maximum temperatures per region.
//
// Usage:
//
//	tempcast run [--location=<name>] [--forecast-until=<year>]
//	tempcast run --all-locations [--forecast-until=<year>]
//	tempcast serve
//	tempcast watch
//	tempcast version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tempcast",
		Short: "Regional annual temperature trends and forecasts",
		Long: "tempcast downloads daily maximum temperatures from the Open-Meteo climate API,\n" +
			"estimates the historical warming trend and forecasts annual means with\n" +
			"bootstrap uncertainty bands.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newVersionCmd())
	root.Version = Version
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
