package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a location's stored history as CSV",
	Long:  `Write the full persisted history of one location as CSV, to a file or stdout.`,
	RunE:  runExport,
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List configured locations",
	RunE:  runLocations,
}

func init() {
	exportCmd.Flags().StringP("location", "l", "", "location id (defaults to DEFAULT_LOCATION or the first location)")
	exportCmd.Flags().StringP("out", "o", "", "output file (defaults to stdout)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(locationsCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("location")
	if id == "" {
		id = cfg.DefaultLocation
	}
	loc, ok := findLocation(cfg.Locations, id)
	if !ok {
		return fmt.Errorf("unknown location %q", id)
	}

	storage, err := store.NewFileStorage(cfg.HistoryDir)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	history := store.OpenHistory(storage, cfg.HistoryKey, cfg.HistoryMax, logger, observability.NewUnregisteredMetrics())

	if len(history.ForLocation(loc.ID)) == 0 {
		return fmt.Errorf("no history for %s: %w", loc.ID, store.ErrEmptyHistory)
	}

	var w io.Writer = cmd.OutOrStdout()
	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := history.ExportCSV(w, loc.ID, loc.TZ())
	if errors.Is(err, store.ErrEmptyHistory) {
		return fmt.Errorf("no history for %s: %w", loc.ID, err)
	}
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", n, out)
	}
	return nil
}

func runLocations(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tLAT\tLON\tTIMEZONE")
	for _, l := range cfg.Locations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Label,
			weather.FormatValue(l.Latitude, 4), weather.FormatValue(l.Longitude, 4),
			l.Timezone)
	}
	return tw.Flush()
}

func findLocation(locs []weather.Location, id string) (weather.Location, bool) {
	if id == "" && len(locs) > 0 {
		return locs[0], true
	}
	for _, l := range locs {
		if l.ID == id {
			return l, true
		}
	}
	return weather.Location{}, false
}
