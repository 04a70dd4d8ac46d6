// riskcli runs climate risk assessments from the command line.
//
// Usage:
//
//	riskcli assess --lat 40.71 --lon -74.01 --date 07-15 [--year 2030] [--json]
//	riskcli assess --location "Lisbon, Portugal" --date 08-01
//	riskcli compare --lat 40.71 --lon -74.01 --date 07-15 --years 2020,2025,2035
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/couchcryptid/climate-risk-engine/internal/adapter/gemini"
	"github.com/couchcryptid/climate-risk-engine/internal/adapter/mapbox"
	"github.com/couchcryptid/climate-risk-engine/internal/adapter/nasapower"
	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
	"github.com/couchcryptid/climate-risk-engine/internal/pipeline"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "riskcli",
		Usage:   "Estimate extreme-weather risk probabilities from NASA POWER climatology",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			assessCommand(),
			compareCommand(),
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "lat", Usage: "Latitude in degrees"},
		&cli.Float64Flag{Name: "lon", Usage: "Longitude in degrees"},
		&cli.StringFlag{Name: "date", Usage: "Target day as MM-DD", Required: true},
		&cli.StringFlag{Name: "location", Usage: "Place name; geocoded with Mapbox when --lat/--lon are omitted"},
		&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
	}
}

func assessCommand() *cli.Command {
	return &cli.Command{
		Name:  "assess",
		Usage: "Assess one target date",
		Flags: append(queryFlags(),
			&cli.IntFlag{Name: "year", Usage: "Target year (default: next year)"},
		),
		Action: func(c *cli.Context) error {
			assessor, err := newAssessor(c, true)
			if err != nil {
				return err
			}
			q, err := queryFromFlags(c, assessor)
			if err != nil {
				return err
			}
			q.Year = c.Int("year")

			a, err := assessor.Assess(c.Context, q)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(c.App.Writer, a)
			}
			printAssessment(c.App.Writer, a)
			return nil
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare several target years for one location and date",
		Flags: append(queryFlags(),
			&cli.StringFlag{Name: "years", Usage: "Comma-separated target years", Required: true},
		),
		Action: func(c *cli.Context) error {
			assessor, err := newAssessor(c, false)
			if err != nil {
				return err
			}
			q, err := queryFromFlags(c, assessor)
			if err != nil {
				return err
			}
			years, err := parseYears(c.String("years"))
			if err != nil {
				return err
			}

			results, err := assessor.CompareYears(c.Context, q, years)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(c.App.Writer, results)
			}
			printComparison(c.App.Writer, results)
			return nil
		},
	}
}

func newAssessor(c *cli.Context, withNarrative bool) (*pipeline.Assessor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = c.String("log-level")
	cfg.LogFormat = "text"
	logger := observability.NewLogger(cfg)
	metrics := observability.NewUnregisteredMetrics()

	provider := nasapower.NewClient(cfg.ClimatologyURL, cfg.ClimatologyTimeout, metrics, logger)

	var narrator domain.Narrator
	if withNarrative && cfg.NarrativeEnabled {
		narrator = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiURL, metrics, logger)
	}

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
	}

	collab := pipeline.Collaborators{Provider: provider, Narrator: narrator, Geocoder: geocoder}
	return pipeline.New(pipeline.NewEngine(cfg.Calibration()), collab, logger, metrics, pipeline.Options{
		ClimatologyTimeout: cfg.ClimatologyTimeout,
		NarrativeTimeout:   cfg.NarrativeTimeout,
		GeocodeTimeout:     cfg.MapboxTimeout,
		PublishTimeout:     cfg.KafkaPublishTimeout,
	}), nil
}

// queryFromFlags builds the target query, geocoding --location when no
// coordinates were given.
func queryFromFlags(c *cli.Context, assessor *pipeline.Assessor) (domain.TargetQuery, error) {
	month, day, err := domain.ParseMonthDay(c.String("date"))
	if err != nil {
		return domain.TargetQuery{}, err
	}
	q := domain.TargetQuery{
		Latitude:  c.Float64("lat"),
		Longitude: c.Float64("lon"),
		Location:  c.String("location"),
		Month:     month,
		Day:       day,
	}
	switch {
	case c.IsSet("lat") && c.IsSet("lon"):
		return q, nil
	case c.IsSet("lat") || c.IsSet("lon"):
		return domain.TargetQuery{}, fmt.Errorf("%w: --lat and --lon must be given together", domain.ErrInvalidInput)
	default:
		return assessor.Locate(c.Context, q)
	}
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: year %q", domain.ErrInvalidInput, part)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: --years is empty", domain.ErrInvalidInput)
	}
	return years, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAssessment(w io.Writer, a domain.Assessment) {
	m := a.AccuracyMetrics
	fmt.Fprintf(w, "%s (%d)  confidence %.1f%%  uncertainty %s\n\n",
		a.TemporalClassification.Label(), a.Query.Year, m.OverallConfidence, m.UncertaintyLevel)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPROBABILITY\tRANGE\tLEVEL\tPERCENTILE")
	for _, c := range domain.Categories {
		r := a.DetailedAnalysis[c]
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f–%.1f\t%s\t%.0f\n",
			c.Label(), r.Probability, r.UncertaintyRange.Min, r.UncertaintyRange.Max, r.RiskLevel, r.PercentileRank)
	}
	tw.Flush() //nolint:errcheck // terminal output

	fmt.Fprintf(w, "\n%s\n%s\n", a.Narrative.Summary, a.Narrative.KeyTakeaway)
	for _, cond := range a.Conditions {
		fmt.Fprintf(w, "! %s: %s\n", cond.Kind, cond.Detail)
	}
}

func printComparison(w io.Writer, results []pipeline.YearResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"YEAR", "CLASS"}
	for _, c := range domain.Categories {
		header = append(header, strings.ToUpper(string(c)))
	}
	header = append(header, "UNCERTAINTY")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range results {
		row := []string{strconv.Itoa(r.Year), string(r.Assessment.TemporalClassification)}
		for _, c := range domain.Categories {
			rec := r.Assessment.DetailedAnalysis[c]
			row = append(row, fmt.Sprintf("%.1f (±%.1f)", rec.Probability, rec.UncertaintyRange.Width()/2))
		}
		row = append(row, string(r.Assessment.AccuracyMetrics.UncertaintyLevel))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush() //nolint:errcheck // terminal output
}
