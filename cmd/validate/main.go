// Command validate checks the engine's output invariants across every series
// fixture: input plausibility, value bounds, determinism, forecast widening and
// reported conditions. Each fixture is evaluated for every month across a
// spread of target years.
//
// Usage:
//
//	go run ./cmd/validate -fixtures internal/pipeline/testdata
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

const currentYear = 2026

// targetYears spans every temporal classification.
var targetYears = []int{1990, currentYear - 1, currentYear, currentYear + 1, currentYear + 10, domain.MaxTargetYear}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type fixture struct {
	name   string
	series domain.ClimatologySeries
}

func main() {
	dir := flag.String("fixtures", "", "directory containing series fixtures (*.json)")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(currentYear, time.June, 15, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Climate Risk Engine Validation ===")
	fmt.Println()

	fixtures, err := loadFixtures(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixtures: %v\n", err)
		return 1
	}

	engine := pipeline.NewEngine(domain.DefaultCalibration())

	phases := []*phase{
		validateFixtures(fixtures),
		validateBounds(engine, fixtures),
		validateDeterminism(engine, fixtures),
		validateHorizon(engine, fixtures),
		validateConditions(engine, fixtures),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d, evaluations per fixture: %d\n", len(fixtures), 12*len(targetYears))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadFixtures(dir string) ([]fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no *.json fixtures in %s", dir)
	}
	sort.Strings(paths)

	out := make([]fixture, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var s domain.ClimatologySeries
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, fixture{name: filepath.Base(path), series: s})
	}
	return out, nil
}

// evaluateAll runs fn for every month and target year of f.
func evaluateAll(engine *pipeline.Engine, f fixture, p *phase, fn func(q domain.TargetQuery, a domain.Assessment)) {
	for month := 1; month <= 12; month++ {
		for _, year := range targetYears {
			q := domain.TargetQuery{Month: month, Day: 1, Year: year}
			a, _, err := engine.Evaluate(f.series, q, currentYear)
			if err != nil {
				p.errorf("%s month %d year %d: %v", f.name, month, year, err)
				continue
			}
			fn(q, a)
		}
	}
}

// ── Phase 1: fixture plausibility ──

func validateFixtures(fixtures []fixture) *phase {
	p := &phase{name: "Phase 1: Fixture plausibility"}
	for _, f := range fixtures {
		if f.series.ValidMonths() == 0 {
			p.errorf("%s: no valid months", f.name)
			continue
		}
		for i, m := range f.series.Months {
			if m == nil {
				continue
			}
			if m.TemperatureMin > m.TemperatureMax {
				p.errorf("%s month %d: temperature_min %.2f > temperature_max %.2f", f.name, i+1, m.TemperatureMin, m.TemperatureMax)
			}
			if m.Precipitation < 0 || m.WindSpeed < 0 {
				p.errorf("%s month %d: negative precipitation or wind speed", f.name, i+1)
			}
			if m.RelativeHumidity < 0 || m.RelativeHumidity > 100 {
				p.errorf("%s month %d: relative_humidity %.2f out of [0, 100]", f.name, i+1, m.RelativeHumidity)
			}
		}
	}
	return p
}

// ── Phase 2: value bounds ──

func validateBounds(engine *pipeline.Engine, fixtures []fixture) *phase {
	p := &phase{name: "Phase 2: Probability and score bounds"}
	for _, f := range fixtures {
		evaluateAll(engine, f, p, func(q domain.TargetQuery, a domain.Assessment) {
			at := fmt.Sprintf("%s month %d year %d", f.name, q.Month, q.Year)
			for _, c := range domain.Categories {
				r, ok := a.DetailedAnalysis[c]
				if !ok {
					p.errorf("%s: missing %s", at, c)
					continue
				}
				if !inPercent(r.Probability) || !inPercent(r.PercentileRank) {
					p.errorf("%s %s: probability %.2f or rank %.2f out of [0, 100]", at, c, r.Probability, r.PercentileRank)
				}
				if r.UncertaintyRange.Min > r.Probability || r.UncertaintyRange.Max < r.Probability {
					p.errorf("%s %s: range [%.2f, %.2f] excludes %.2f", at, c, r.UncertaintyRange.Min, r.UncertaintyRange.Max, r.Probability)
				}
				if r.RiskLevel != domain.ClassifyProbability(r.Probability) {
					p.errorf("%s %s: risk level %s for %.2f", at, c, r.RiskLevel, r.Probability)
				}
			}
			m := a.AccuracyMetrics
			for name, v := range map[string]float64{
				"data_quality": m.DataQualityScore,
				"statistical":  m.StatisticalConfidence,
				"reliability":  m.ModelReliability,
				"overall":      m.OverallConfidence,
			} {
				if !inPercent(v) {
					p.errorf("%s: %s %.2f out of [0, 100]", at, name, v)
				}
			}
		})
	}
	return p
}

// ── Phase 3: determinism ──

func validateDeterminism(engine *pipeline.Engine, fixtures []fixture) *phase {
	p := &phase{name: "Phase 3: Determinism"}
	for _, f := range fixtures {
		evaluateAll(engine, f, p, func(q domain.TargetQuery, a domain.Assessment) {
			again, _, err := engine.Evaluate(f.series, q, currentYear)
			if err != nil {
				p.errorf("%s month %d year %d: %v", f.name, q.Month, q.Year, err)
				return
			}
			if diff := cmp.Diff(a, again); diff != "" {
				p.errorf("%s month %d year %d: repeated evaluation differs:\n%s", f.name, q.Month, q.Year, diff)
			}
		})
	}
	return p
}

// ── Phase 4: forecast widening ──

func validateHorizon(engine *pipeline.Engine, fixtures []fixture) *phase {
	p := &phase{name: "Phase 4: Forecast uncertainty widening"}
	for _, f := range fixtures {
		for month := 1; month <= 12; month++ {
			now, _, err := engine.Evaluate(f.series, domain.TargetQuery{Month: month, Day: 1, Year: currentYear}, currentYear)
			if err != nil {
				p.errorf("%s month %d: %v", f.name, month, err)
				continue
			}
			later, _, err := engine.Evaluate(f.series, domain.TargetQuery{Month: month, Day: 1, Year: currentYear + 10}, currentYear)
			if err != nil {
				p.errorf("%s month %d: %v", f.name, month, err)
				continue
			}
			if later.TemporalClassification != domain.LongTermProjection {
				p.errorf("%s month %d: classification %s for +10 years", f.name, month, later.TemporalClassification)
			}
			for _, c := range domain.Categories {
				// Ranges clamped at 0 or 100 may not grow; they must never shrink
				// by more than the shift of the probability itself.
				wNow := now.DetailedAnalysis[c].UncertaintyRange.Width()
				wLater := later.DetailedAnalysis[c].UncertaintyRange.Width()
				shift := math.Abs(later.Probabilities[c] - now.Probabilities[c])
				if wLater+shift < wNow-0.01 {
					p.errorf("%s month %d %s: width %.2f → %.2f", f.name, month, c, wNow, wLater)
				}
			}
		}
	}
	return p
}

// ── Phase 5: reported conditions ──

func validateConditions(engine *pipeline.Engine, fixtures []fixture) *phase {
	p := &phase{name: "Phase 5: Reported conditions"}
	for _, f := range fixtures {
		incomplete := f.series.ValidMonths() < 12
		evaluateAll(engine, f, p, func(q domain.TargetQuery, a domain.Assessment) {
			at := fmt.Sprintf("%s month %d year %d", f.name, q.Month, q.Year)
			if got := hasCondition(a, domain.DataIncomplete); got != incomplete {
				p.errorf("%s: data_incomplete reported=%t, series incomplete=%t", at, got, incomplete)
			}
			if hasCondition(a, domain.ComputationDegenerate) {
				for _, c := range domain.Categories {
					if a.Probabilities[c] != 50 {
						p.errorf("%s %s: degenerate series gave %.2f, want 50", at, c, a.Probabilities[c])
					}
				}
				if a.AccuracyMetrics.UncertaintyLevel != domain.UncertaintyHigh {
					p.errorf("%s: degenerate series has uncertainty %s", at, a.AccuracyMetrics.UncertaintyLevel)
				}
			}
		})
	}
	return p
}

func hasCondition(a domain.Assessment, kind domain.ConditionKind) bool {
	for _, c := range a.Conditions {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

func inPercent(v float64) bool { return v >= 0 && v <= 100 }
