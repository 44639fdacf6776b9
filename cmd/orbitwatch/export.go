package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbitwatch/internal/config"
	"github.com/signalsfoundry/orbitwatch/internal/ingest"
	"github.com/signalsfoundry/orbitwatch/model"
)

var csvHeader = []string{"name", "catalogId", "altitudeKm", "inclinationDeg", "riskTier", "latitude", "longitude", "positionPlaceholder"}

func (a *app) exportCmd() *cobra.Command {
	var (
		format     string
		output     string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load the catalog once and write the derived records",
		Example: `  orbitwatch export --format csv -o debris.csv
  orbitwatch export --feed-url http://localhost:3000/debris`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != "json" && format != "csv" {
				return fmt.Errorf("unsupported format %q (want json or csv)", format)
			}

			ctx := cmd.Context()
			log := a.logger(a.errOut)
			stopTracing := a.initTracing(ctx, a.errOut, log)
			defer stopTracing()

			var bar *progressbar.ProgressBar
			progress := func(done, total int) {
				if noProgress {
					return
				}
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetWriter(a.errOut),
						progressbar.OptionShowCount(),
						progressbar.OptionSetWidth(40),
						progressbar.OptionSetDescription("deriving records"),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set(done)
			}

			adapter, cleanup := a.newAdapter(ctx, log, ingest.WithProgress(progress))
			defer cleanup()

			res := adapter.Load(ctx)
			if bar != nil {
				_ = bar.Finish()
			}
			if res.Notice != "" {
				fmt.Fprintln(a.errOut, res.Notice)
			}

			w := a.out
			if output != "" && output != "-" {
				f, err := os.Create(config.ExpandPath(output))
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if format == "csv" {
				return writeCSV(w, res.Records)
			}
			return writeJSON(w, res.Records)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")
	return cmd
}

func writeJSON(w io.Writer, records []model.DebrisRecord) error {
	if records == nil {
		records = []model.DebrisRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeCSV(w io.Writer, records []model.DebrisRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.CatalogIDString(),
			strconv.FormatFloat(r.AltitudeKm, 'f', -1, 64),
			r.InclinationDeg,
			string(r.RiskTier),
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			strconv.FormatBool(r.PositionPlaceholder),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
