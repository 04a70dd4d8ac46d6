// Command genmock converts saved NASA POWER climatology responses into series
// fixtures for the pipeline test suite. It runs each series through the real
// engine and prints the resulting figures so test assertions can be updated.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -power-dir data/power \
//	  -out-dir internal/pipeline/testdata \
//	  -month 7 -year 2036
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/adapter/nasapower"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// fixtureYear pins "current year" so printed classifications match the tests.
const fixtureYear = 2026

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	powerDir := flag.String("power-dir", "", "directory containing saved NASA POWER climatology responses (*.json)")
	outDir := flag.String("out-dir", "", "output directory for series fixtures")
	month := flag.Int("month", 7, "target month used for the printed assessment")
	year := flag.Int("year", fixtureYear, "target year used for the printed assessment")
	flag.Parse()

	if *powerDir == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -power-dir, -out-dir")
	}

	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(fixtureYear, time.June, 15, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	paths, err := filepath.Glob(filepath.Join(*powerDir, "*.json"))
	if err != nil {
		return fmt.Errorf("list responses: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no *.json responses in %s", *powerDir)
	}
	sort.Strings(paths)

	engine := pipeline.NewEngine(domain.DefaultCalibration())
	for _, path := range paths {
		series, err := decodeFile(path)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		name := filepath.Base(path)
		out := filepath.Join(*outDir, name)
		if err := writeJSON(out, series); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		log.Printf("%s: %d of 12 months, wrote %s", name, series.ValidMonths(), out)

		q := domain.TargetQuery{Month: *month, Day: 15, Year: *year, Location: strings.TrimSuffix(name, ".json")}
		a, _, err := engine.Evaluate(series, q, domain.CurrentYear())
		if err != nil {
			log.Printf("%s: evaluate: %v", name, err)
			continue
		}
		printStats(a)
	}
	return nil
}

func decodeFile(path string) (domain.ClimatologySeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ClimatologySeries{}, err
	}
	defer f.Close()
	return nasapower.DecodeSeries(f)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(a domain.Assessment) {
	m := a.AccuracyMetrics
	fmt.Printf("\n=== %s, month %d, %d (%s) ===\n", a.Query.Location, a.Query.Month, a.Query.Year, a.TemporalClassification)
	for _, c := range domain.Categories {
		r := a.DetailedAnalysis[c]
		fmt.Printf("  %-20s %6.2f  [%6.2f, %6.2f]  z=%5.2f  rank=%5.1f\n",
			c, r.Probability, r.UncertaintyRange.Min, r.UncertaintyRange.Max, r.StdDeviations, r.PercentileRank)
	}
	fmt.Printf("  data quality %.2f, statistical %.2f, reliability %.2f, overall %.2f (%s)\n",
		m.DataQualityScore, m.StatisticalConfidence, m.ModelReliability, m.OverallConfidence, m.UncertaintyLevel)
	for _, cond := range a.Conditions {
		fmt.Printf("  ! %s: %s\n", cond.Kind, cond.Detail)
	}
}
