package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"sitewatch/internal/storage"
)

// Without an explicit --from the export window covers the last 30 days.
const defaultExportWindow = 30 * 24 * time.Hour

// Export renders journaled runs for a site as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-defaultExportWindow)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	runs, err := store.ListRunsBetween(ctx, opts.SiteID, from, to)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		a.Logger.Info().Str("site_id", opts.SiteID).Msg("no runs found for export window")
		return nil
	}

	downsampled := downsampleRuns(runs, opts.MaxPoints)
	a.Logger.Info().Int("total", len(runs)).Int("exported", len(downsampled)).Msg("exporting runs")

	if opts.CSVPath != "" {
		if err := writeRunsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRunsPNG(opts.PNGPath, opts.SiteID, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleRuns(runs []storage.CheckRun, max int) []storage.CheckRun {
	if max <= 0 || len(runs) <= max {
		return runs
	}

	result := make([]storage.CheckRun, 0, max)
	step := float64(len(runs)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(runs) {
			idx = len(runs) - 1
		}
		result = append(result, runs[idx])
	}
	return result
}

func writeRunsCSV(path string, runs []storage.CheckRun) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"checked_at", "status_code", "size_bytes", "row_count", "size_change_pct", "checksum", "severity", "exit_code", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, run := range runs {
		rows := ""
		if run.RowCount != nil {
			rows = fmt.Sprintf("%d", *run.RowCount)
		}
		errMsg := ""
		if run.Error != nil {
			errMsg = *run.Error
		}
		record := []string{
			run.CheckedAt.UTC().Format(time.RFC3339),
			fmt.Sprintf("%d", run.StatusCode),
			fmt.Sprintf("%d", run.SizeBytes),
			rows,
			run.SizeChangePct.String(),
			run.Checksum,
			run.Severity,
			fmt.Sprintf("%d", run.ExitCode),
			errMsg,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRunsPNG(path, siteID string, runs []storage.CheckRun) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(runs))
	sizes := make([]float64, len(runs))
	changes := make([]float64, len(runs))

	for i, run := range runs {
		x[i] = run.CheckedAt
		sizes[i] = float64(run.SizeBytes)
		changes[i] = run.SizeChangePct.InexactFloat64()
	}

	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  siteID,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Size (bytes)",
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Size change (%)",
			ValueFormatter: pctFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Size",
				XValues: x,
				YValues: sizes,
			},
			chart.TimeSeries{
				Name:    "Change %",
				XValues: x,
				YValues: changes,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
