package benchmark

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ToleranceConfig defines acceptable variance thresholds against a baseline run.
//
// @example
//
//	config := &ToleranceConfig{
//	    DurationPercent: 10.0, // 10% slower is acceptable.
//	    MemoryPercent:   15.0, // 15% more allocation is acceptable.
//	}
type ToleranceConfig struct {
	DurationPercent float64 `json:"duration_percent" yaml:"duration_percent"` // Percentage increase in mean filter time before flagging.
	MemoryPercent   float64 `json:"memory_percent"   yaml:"memory_percent"`   // Percentage increase in allocated bytes before flagging.
}

// NewDefaultToleranceConfig creates a tolerance configuration with defaults suited to CI runners.
func NewDefaultToleranceConfig() *ToleranceConfig {
	return &ToleranceConfig{
		DurationPercent: 10.0, // Flag if 10% slower.
		MemoryPercent:   15.0, // Flag if 15% more memory.
	}
}

// ScenarioComparison compares one scenario between a baseline and a current run.
type ScenarioComparison struct {
	Name                  string        `json:"name"`
	BaselineMean          time.Duration `json:"baseline_mean"`
	CurrentMean           time.Duration `json:"current_mean"`
	DurationChangePercent float64       `json:"duration_change_percent"`
	AllocChangePercent    float64       `json:"alloc_change_percent"`
	ChecksumChanged       bool          `json:"checksum_changed"`
	Regression            bool          `json:"regression"`
	Improvement           bool          `json:"improvement"`
}

// Statistics summarises a set of values.
type Statistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P95    float64 `json:"p95"`
}

// RegressionReport is the outcome of comparing a run against a baseline.
type RegressionReport struct {
	Timestamp      time.Time            `json:"timestamp"`
	HasRegression  bool                 `json:"has_regression"`
	HasImprovement bool                 `json:"has_improvement"`
	Summary        string               `json:"summary"`
	Comparisons    []ScenarioComparison `json:"comparisons"`
	// Scenarios present in only one of the runs.
	Unmatched      []string   `json:"unmatched"`
	DurationChange Statistics `json:"duration_change"`
}

// LoadResults reads a results.json written by Suite.SaveResults.
func LoadResults(path string) ([]PerformanceMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read results")
	}

	var results []PerformanceMetrics
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal results from %s", path)
	}

	return results, nil
}

func percentChange(baseline, current float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (current - baseline) / baseline * 100
}

// CompareResults matches scenarios by name and flags those outside tolerance.
// A changed checksum is always a regression: the same scenario must produce the
// same bytes.
//
// Arguments:
// - baseline: Results of the reference run.
// - current: Results of the run under test.
// - tolerance: Thresholds; nil uses NewDefaultToleranceConfig.
//
// Returns:
// - The report, with comparisons sorted by scenario name.
func CompareResults(baseline, current []PerformanceMetrics, tolerance *ToleranceConfig) *RegressionReport {
	if tolerance == nil {
		tolerance = NewDefaultToleranceConfig()
	}

	byName := lo.KeyBy(baseline, func(m PerformanceMetrics) string { return m.Scenario.Name })
	currentNames := lo.SliceToMap(current, func(m PerformanceMetrics) (string, bool) { return m.Scenario.Name, true })

	report := &RegressionReport{Timestamp: time.Now()}
	for _, cur := range current {
		base, ok := byName[cur.Scenario.Name]
		if !ok {
			report.Unmatched = append(report.Unmatched, cur.Scenario.Name)
			continue
		}

		c := ScenarioComparison{
			Name:                  cur.Scenario.Name,
			BaselineMean:          base.MeanFilterDuration,
			CurrentMean:           cur.MeanFilterDuration,
			DurationChangePercent: percentChange(float64(base.MeanFilterDuration), float64(cur.MeanFilterDuration)),
			AllocChangePercent:    percentChange(float64(base.MemoryStats.TotalAllocBytes), float64(cur.MemoryStats.TotalAllocBytes)),
			ChecksumChanged:       base.Checksum != "" && cur.Checksum != "" && base.Checksum != cur.Checksum,
		}
		c.Regression = c.ChecksumChanged ||
			c.DurationChangePercent > tolerance.DurationPercent ||
			c.AllocChangePercent > tolerance.MemoryPercent
		c.Improvement = !c.Regression && c.DurationChangePercent < -tolerance.DurationPercent

		report.HasRegression = report.HasRegression || c.Regression
		report.HasImprovement = report.HasImprovement || c.Improvement
		report.Comparisons = append(report.Comparisons, c)
	}
	for _, base := range baseline {
		if !currentNames[base.Scenario.Name] {
			report.Unmatched = append(report.Unmatched, base.Scenario.Name)
		}
	}

	sort.Slice(report.Comparisons, func(i, j int) bool { return report.Comparisons[i].Name < report.Comparisons[j].Name })
	sort.Strings(report.Unmatched)

	report.DurationChange = calculateStatistics(lo.Map(report.Comparisons, func(c ScenarioComparison, _ int) float64 {
		return c.DurationChangePercent
	}))

	regressions := lo.Filter(report.Comparisons, func(c ScenarioComparison, _ int) bool { return c.Regression })
	switch {
	case report.HasRegression:
		report.Summary = fmt.Sprintf("REGRESSION: %s", strings.Join(lo.Map(regressions, func(c ScenarioComparison, _ int) string {
			if c.ChecksumChanged {
				return c.Name + " output changed"
			}
			return fmt.Sprintf("%s %+.1f%%", c.Name, c.DurationChangePercent)
		}), "; "))
	case report.HasImprovement:
		report.Summary = fmt.Sprintf("IMPROVEMENT: mean change %+.1f%%", report.DurationChange.Mean)
	default:
		report.Summary = fmt.Sprintf("STABLE: Performance within %.1f%% tolerance", tolerance.DurationPercent)
	}

	return report
}

// calculateStatistics computes summary statistics without modifying values.
func calculateStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats := Statistics{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: lo.Sum(sorted) / float64(len(sorted)),
	}

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stats.Median = sorted[mid]
	}

	variance := 0.0
	for _, v := range sorted {
		variance += math.Pow(v-stats.Mean, 2)
	}
	stats.StdDev = math.Sqrt(variance / float64(len(sorted)))

	p95 := int(float64(len(sorted)) * 0.95)
	if p95 >= len(sorted) {
		p95 = len(sorted) - 1
	}
	stats.P95 = sorted[p95]

	return stats
}

// Markdown renders the report for CI job summaries.
func (r *RegressionReport) Markdown() string {
	var md strings.Builder

	md.WriteString("# Convolution Benchmark Regression Analysis\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.Timestamp.Format(time.RFC3339)))

	status := "✅ STABLE"
	if r.HasRegression {
		status = "❌ REGRESSION"
	} else if r.HasImprovement {
		status = "🎉 IMPROVEMENT"
	}
	md.WriteString(fmt.Sprintf("## Status: %s\n\n", status))
	md.WriteString(fmt.Sprintf("%s\n\n", r.Summary))

	if len(r.Comparisons) > 0 {
		md.WriteString("| Scenario | Baseline | Current | Change | Alloc | Output |\n")
		md.WriteString("|----------|----------|---------|--------|-------|--------|\n")
		for _, c := range r.Comparisons {
			output := "same"
			if c.ChecksumChanged {
				output = "changed"
			}
			md.WriteString(fmt.Sprintf("| %s | %v | %v | %+.1f%% | %+.1f%% | %s |\n",
				c.Name, c.BaselineMean, c.CurrentMean, c.DurationChangePercent, c.AllocChangePercent, output))
		}
		md.WriteString("\n")
	}

	if len(r.Unmatched) > 0 {
		md.WriteString("## Unmatched Scenarios\n\n")
		for _, name := range r.Unmatched {
			md.WriteString(fmt.Sprintf("- %s\n", name))
		}
	}

	return md.String()
}

// Export writes the report as JSON or Markdown, chosen by the path extension.
func (r *RegressionReport) Export(path string) error {
	var data []byte
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json":
		var err error
		if data, err = json.MarshalIndent(r, "", "  "); err != nil {
			return errors.Wrap(err, "failed to marshal report")
		}
	case "md", "markdown":
		data = []byte(r.Markdown())
	default:
		return errors.Errorf("unsupported report format: %s", path)
	}

	return os.WriteFile(path, data, 0o644)
}
