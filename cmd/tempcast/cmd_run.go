package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tempcast/tempcast/internal/report"
	"github.com/tempcast/tempcast/internal/services"
)

// singleLocationSimulations is the ensemble size of a single-location run
// when --simulations is not given
const singleLocationSimulations = 500

type runOptions struct {
	forecastUntil int
	allLocations  bool
	location      string
	simulations   int
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Forecast one location or all configured locations",
		Long: `Forecasts the annual mean maximum temperature up to --forecast-until (inclusive).

Without --all-locations the first configured location (or --location) is trained
on its full history and the run fails when nothing is left to forecast. With
--all-locations every configured location is processed, failures are reported
per location and a summary table is written to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForecast(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.forecastUntil, "forecast-until", 0, "Year to forecast until, inclusive (default from config)")
	f.BoolVar(&opts.allLocations, "all-locations", false, "Run the analysis for all configured locations")
	f.StringVar(&opts.location, "location", "", "Configured location name or slug (default: first location)")
	f.IntVar(&opts.simulations, "simulations", 0, "Bootstrap trajectories (default from config, 500 for a single location)")
	cmd.MarkFlagsMutuallyExclusive("all-locations", "location")

	return cmd
}

func runForecast(cmd *cobra.Command, flags runOptions) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := a.defaults()
	if cmd.Flags().Changed("forecast-until") {
		opts.ForecastUntil = flags.forecastUntil
	}
	if cmd.Flags().Changed("simulations") {
		opts.Simulations = flags.simulations
	}

	writer := report.NewWriter(a.cfg.Output.Dir, a.cfg.Output.WriteEnsemble, a.logger)

	if flags.allLocations {
		return runAll(ctx, cmd, a, writer, opts)
	}

	if !cmd.Flags().Changed("simulations") {
		opts.Simulations = singleLocationSimulations
	}
	return runSingle(ctx, cmd, a, writer, flags.location, opts)
}

func runAll(ctx context.Context, cmd *cobra.Command, a *app, writer *report.Writer, opts services.ForecastOptions) error {
	out := cmd.OutOrStdout()

	batch := services.NewBatchService(a.logger, a.forecastService(writer), a.cfg.Batch.Parallelism,
		services.WithSummaryWriter(writer),
		services.WithBatchEvents(a.events),
		services.WithBatchMetrics(a.metrics))

	result, err := batch.Run(ctx, a.locations, opts)
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		fmt.Fprintf(out, "Error processing %s: %s\n", f.Region, f.Error)
	}
	if len(result.Summaries) == 0 {
		return errors.New("no location could be processed")
	}

	fmt.Fprintf(out, "Wrote summary for %d regions to %s\n", len(result.Summaries), writer.Path(report.SummaryFile))
	return nil
}

func runSingle(ctx context.Context, cmd *cobra.Command, a *app, writer *report.Writer, name string, opts services.ForecastOptions) error {
	out := cmd.OutOrStdout()

	loc, err := a.findLocation(name)
	if err != nil {
		return err
	}

	// A single location is trained on everything that was downloaded
	opts.HistoricalEndYear = 0
	opts.RequireHorizon = true

	result, err := a.forecastService(writer).Process(ctx, loc, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Data spans %d to %d. Forecasting %d years to %d.\n",
		result.Observed.FirstYear(), result.Observed.LastYear(), result.Horizon, opts.ForecastUntil)
	fmt.Fprintf(out, "Trend: %.3f °C/decade (R² %.3f)\n", result.Trend.SlopePerDecade, result.Trend.R2)
	fmt.Fprintln(out, result.Evidence)
	if result.EnsembleError != "" {
		fmt.Fprintf(out, "Warning: could not build ensemble: %s\n", result.EnsembleError)
	}
	fmt.Fprintf(out, "Wrote outputs for %s to %s\n", result.Region, a.cfg.Output.Dir)
	return nil
}
