package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/occutrend/internal/analytics"
	"github.com/HerbHall/occutrend/internal/clock"
	"github.com/HerbHall/occutrend/internal/forecast"
	"github.com/HerbHall/occutrend/internal/repair"
	"github.com/HerbHall/occutrend/internal/store"
	"github.com/HerbHall/occutrend/pkg/occupancy"
)

const dateFormat = "2006-01-02"

func runRepair(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	fromStr := fs.String("from", "", "first day to repair (YYYY-MM-DD, default yesterday)")
	toStr := fs.String("to", "", "last day to repair (YYYY-MM-DD, default same as -from)")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.sched.Location()
	start := time.Now().In(loc).AddDate(0, 0, -1)
	if *fromStr != "" {
		start, err = time.ParseInLocation(dateFormat, *fromStr, loc)
		if err != nil {
			return fmt.Errorf("invalid -from date: %w", err)
		}
	}
	end := start
	if *toStr != "" {
		end, err = time.ParseInLocation(dateFormat, *toStr, loc)
		if err != nil {
			return fmt.Errorf("invalid -to date: %w", err)
		}
	}

	rep := repair.New(a.samples, a.sched, a.log.Named("repair"))
	summary, err := rep.RepairRange(ctx, start, end, func(p repair.Progress) {
		a.log.Info("repairing day",
			zap.String("day", p.CurrentDay.Format(dateFormat)),
			zap.Int("processed", p.ProcessedDays),
			zap.Int("total", p.TotalDays))
	})
	if err != nil {
		return err
	}

	fmt.Printf("repaired %d day(s): %d gaps filled, %d records zeroed, %d end-of-day markers added\n",
		summary.DaysProcessed, summary.GapsFilled, summary.RecordsZeroed, summary.EndEntriesAdded)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	outPath := fs.String("out", "", "also write the model snapshot to this file")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	clk := clock.System{}
	loc := a.sched.Location()
	since := clk.Now().AddDate(0, 0, -a.cfg.Forecast.TrainingWindowDays)

	samples, err := a.samples.Since(ctx, since)
	if err != nil {
		return err
	}
	baseline, err := a.samples.SlotAverages(ctx, since, loc)
	if err != nil {
		return err
	}

	result, err := forecast.Train(samples, baseline, a.sched, a.cfg.Forecast, clk, a.log.Named("forecast"))
	if err != nil {
		return err
	}

	payload, err := result.Snapshot.Encode()
	if err != nil {
		return err
	}
	row := store.SnapshotRow{
		ID:        result.Snapshot.ID,
		CreatedAt: result.Snapshot.CreatedAt,
		Payload:   string(payload),
	}
	if err := a.snapshots.Save(ctx, row); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if err := a.snapshots.Prune(ctx, 5); err != nil {
		a.log.Warn("pruning old snapshots failed", zap.Error(err))
	}
	if *outPath != "" {
		if err := result.Snapshot.SaveFile(*outPath); err != nil {
			return err
		}
	}

	fmt.Println(result.Snapshot.Summary())
	return nil
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	asJSON := fs.Bool("json", false, "print predictions as JSON")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	clk := clock.System{}
	loc := a.sched.Location()
	now := clk.Now()
	since := now.AddDate(0, 0, -a.cfg.Forecast.TrainingWindowDays)

	baseline, err := a.samples.SlotAverages(ctx, since, loc)
	if err != nil {
		return err
	}

	p := forecast.NewPredictor(a.cfg.Forecast, a.sched, a.log.Named("forecast"))
	p.UpdateBaseline(baseline)

	recent, err := a.samples.Since(ctx, now.Add(-3*time.Hour))
	if err != nil {
		return err
	}
	for _, smp := range recent {
		p.AddObservation(smp.Timestamp, smp.Percentage)
	}

	if a.cfg.Forecast.Enabled {
		samples, err := a.samples.Since(ctx, since)
		if err != nil {
			return err
		}
		result, err := forecast.Train(samples, baseline, a.sched, a.cfg.Forecast, clk, a.log.Named("forecast"))
		switch {
		case err == nil:
			p.SetModel(result.Model, clk.Now())
		case a.cfg.Forecast.FallbackOnError:
			a.log.Warn("training failed, using historical averages", zap.Error(err))
		default:
			return err
		}
	}

	predictions := p.Predict(baseline, a.sched, clk)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(predictions)
	}
	if len(predictions) == 0 {
		fmt.Println("no open hours within the prediction horizon")
		return nil
	}
	for _, pred := range predictions {
		fmt.Printf("%s  %5.1f%%  [%5.1f, %5.1f]  confidence %.2f  via %s\n",
			pred.Timestamp.In(loc).Format("Mon 15:04"),
			pred.PredictedValue, pred.ConfidenceLow, pred.ConfidenceHigh,
			pred.ConfidenceScore, pred.Method)
	}
	return nil
}

func runInsights(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	days := fs.Int("days", 28, "length of the analysis period in days")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.sched.Location()
	now := time.Now()
	periodStart := now.AddDate(0, 0, -*days)
	baselineStart := periodStart.AddDate(0, 0, -*days)

	current, err := a.samples.SlotAveragesBetween(ctx, periodStart, now, loc)
	if err != nil {
		return err
	}
	baseline, err := a.samples.SlotAveragesBetween(ctx, baselineStart, periodStart, loc)
	if err != nil {
		return err
	}

	insights := analytics.GenerateInsights(current, baseline)
	if len(insights) == 0 {
		fmt.Println("not enough data for insights yet")
		return nil
	}
	for _, in := range insights {
		fmt.Printf("[%d] %s\n    %s\n", in.Importance, in.Title, in.Description)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	days := fs.Int("days", 28, "length of the analysis period in days")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	clk := clock.System{}
	loc := a.sched.Location()
	since := clk.Now().AddDate(0, 0, -*days)

	data, err := a.samples.SlotAverages(ctx, since, loc)
	if err != nil {
		return err
	}

	stats := analytics.CalculateStats(data)
	if stats == nil {
		fmt.Println("no data in the selected period")
		return nil
	}

	fmt.Printf("last %d days (%d slots)\n", *days, stats.SampleCount)
	fmt.Printf("  mean %.1f%%  median %.1f%%  std %.1f  min %.1f%%  max %.1f%%  cv %.2f\n\n",
		stats.Mean, stats.Median, stats.StdDev, stats.Min, stats.Max, stats.CoefficientOfVariation)

	for _, day := range analytics.AnalyzeDays(data) {
		if day.SampleCount == 0 {
			fmt.Printf("%-10s no data\n", day.DayName)
			continue
		}
		fmt.Printf("%-10s avg %5.1f%%  peak %02d:00 (%.1f%%)  quietest %02d:00 (%.1f%%)\n",
			day.DayName, day.AvgOccupancy,
			day.PeakHour, day.PeakOccupancy,
			day.QuietestHour, day.QuietestOccupancy)
	}

	if peaks := analytics.FindPeakHours(data, 3); len(peaks) > 0 {
		fmt.Println("\nbusiest slots:")
		for _, h := range peaks {
			fmt.Printf("  %s %02d:00  %.1f%%\n", occupancy.WeekdayShort(h.Weekday), h.Hour, h.AvgPercentage)
		}
	}
	if quiet := analytics.FindQuietHours(data, 3); len(quiet) > 0 {
		fmt.Println("quietest slots:")
		for _, h := range quiet {
			fmt.Printf("  %s %02d:00  %.1f%%\n", occupancy.WeekdayShort(h.Weekday), h.Hour, h.AvgPercentage)
		}
	}
	if best := analytics.FindBestTimeToday(data, a.sched, clk); best != nil {
		fmt.Printf("\nbest time to go today: %02d:00 (%.1f%% expected)\n", best.Hour, best.AvgPercentage)
	}
	return nil
}
