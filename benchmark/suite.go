package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/nvr-ai/go-convolution/pipeline"
	"github.com/nvr-ai/go-convolution/profiler"
	"github.com/nvr-ai/go-convolution/util"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Suite manages and executes benchmark scenarios
type Suite struct {
	scenarios []Scenario
	outputDir string
	corpus    []util.ImageFile
	logger    *log.Logger
	mu        sync.RWMutex
	results   []PerformanceMetrics
	// filter runs one iteration; pipeline.Filter unless replaced in tests.
	filter func(ctx context.Context, e *convolution.Engine, src *images.Buffer, mode pipeline.Mode, workers int) (*images.Buffer, error)
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	OutputPath string      `json:"outputPath" yaml:"outputPath"`
	Logger     *log.Logger `json:"-"          yaml:"-"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	logger := args.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Suite{
		outputDir: args.OutputPath,
		logger:    logger,
		filter:    pipeline.Filter,
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarioSet adds every scenario of set.
func (bs *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, s := range set.Scenarios {
		bs.AddScenario(s)
	}
}

// Scenarios returns a copy of the queued scenarios.
func (bs *Suite) Scenarios() []Scenario {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return append([]Scenario(nil), bs.scenarios...)
}

// LoadCorpus decodes the images scenarios filter instead of synthetic noise.
//
// Arguments:
//   - ctx: Stops decoding early.
//   - path: An image file or a directory of images.
//
// Returns:
//   - error: Error if nothing could be loaded.
func (bs *Suite) LoadCorpus(ctx context.Context, path string) error {
	files, err := util.LoadImageFiles(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "failed to load corpus from %s", path)
	}

	bs.mu.Lock()
	bs.corpus = files
	bs.mu.Unlock()

	bs.logger.Printf("📂 Loaded %d corpus image(s) from %s", len(files), path)
	return nil
}

// inputs returns the images a scenario filters and the time spent resizing them.
func (bs *Suite) inputs(scenario Scenario) ([]*images.Buffer, time.Duration) {
	bs.mu.RLock()
	corpus := bs.corpus
	bs.mu.RUnlock()

	w, h := scenario.Resolution.Width, scenario.Resolution.Height
	if len(corpus) == 0 {
		return []*images.Buffer{SyntheticImage(w, h, int64(w*31+h))}, 0
	}

	start := time.Now()
	inputs := lo.Map(corpus, func(f util.ImageFile, _ int) *images.Buffer {
		if f.Image.Width == w && f.Image.Height == h {
			return f.Image
		}
		return images.Resize(f.Image, w, h, images.LanczosFilter)
	})
	return inputs, time.Since(start)
}

// RunScenario executes a single benchmark scenario
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	k, err := NewKernel(scenario.KernelKind, scenario.KernelSize)
	if err != nil {
		return nil, err
	}
	border, err := convolution.NewBorder(scenario.Border)
	if err != nil {
		return nil, err
	}
	engine := convolution.NewEngine(k, border, convolution.WithPool(&convolution.Pool{}))

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: time.Now(),
	}

	inputs, resizeDuration := bs.inputs(scenario)
	metrics.ImageResizeDuration = resizeDuration

	// Warmup runs
	for i := 0; i < scenario.WarmupRuns; i++ {
		if _, err := bs.filter(ctx, engine, inputs[i%len(inputs)], scenario.Mode, scenario.Workers); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue // Skip warmup errors
		}
	}

	prof := profiler.New(profiler.ProfilingOptions{SampleInterval: 10 * time.Millisecond})

	// Capture initial memory stats
	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	prof.Start()
	startTime := time.Now()
	failures := 0
	var last *images.Buffer
	lastInput := 0

	// Run benchmark iterations
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			prof.Stop()
			return nil, err
		}

		input := i % len(inputs)
		done := prof.StartOperation("filter")
		out, err := bs.filter(ctx, engine, inputs[input], scenario.Mode, scenario.Workers)
		done()
		if err != nil {
			failures++
			bs.logger.Printf("⚠️  %s iteration %d: %v", scenario.Name, i, err)
			continue
		}
		last, lastInput = out, input
	}

	totalDuration := time.Since(startTime)
	prof.Stop()

	// Capture final memory stats
	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	// Calculate metrics
	metrics.TotalDuration = totalDuration
	metrics.ErrorRate = float64(failures) / float64(scenario.Iterations)
	if op, ok := prof.Operation("filter"); ok {
		metrics.MeanFilterDuration = op.Mean
		metrics.MinFilterDuration = op.Min
		metrics.MaxFilterDuration = op.Max
	}
	succeeded := scenario.Iterations - failures
	if seconds := totalDuration.Seconds(); seconds > 0 {
		metrics.FramesPerSecond = float64(succeeded) / seconds
		metrics.MegapixelsPerSecond = float64(succeeded*scenario.Resolution.Pixels()) / 1e6 / seconds
	}

	if last != nil {
		metrics.Checksum = images.Checksum(last)
		reference, err := engine.Run(inputs[lastInput])
		if err == nil {
			metrics.MatchesSequential = reference.Equal(last)
		}
	}

	metrics.MemoryStats = memoryDelta(&startMem, &endMem, prof.PeakHeap())
	metrics.CPUStats = CollectCPUMetrics()

	return metrics, nil
}

// RunAllScenarios executes all scenarios in the suite, stopping at the first error.
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	scenarios := bs.Scenarios()

	bs.logger.Printf("🚀 Running %d scenario(s)", len(scenarios))
	for i, scenario := range scenarios {
		bs.logger.Printf("▶️  [%d/%d] %s", i+1, len(scenarios), scenario.Name)

		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			return errors.Wrapf(err, "scenario %s failed", scenario.Name)
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		bs.logger.Printf("   ⏱️  mean %v, %.2f fps, %.2f MP/s, matches sequential: %v",
			metrics.MeanFilterDuration, metrics.FramesPerSecond, metrics.MegapixelsPerSecond, metrics.MatchesSequential)
	}

	return nil
}

// GetResults returns a copy of the collected results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return append([]PerformanceMetrics(nil), bs.results...)
}

var csvHeader = []string{
	"scenario", "width", "height", "kernel_kind", "kernel_size", "border", "mode", "workers",
	"iterations", "mean_ms", "min_ms", "max_ms", "fps", "megapixels_per_second",
	"matches_sequential", "checksum", "total_alloc_bytes", "peak_heap_bytes", "num_gc", "error_rate",
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}

func csvRecord(m PerformanceMetrics) []string {
	s := m.Scenario
	return []string{
		s.Name,
		strconv.Itoa(s.Resolution.Width),
		strconv.Itoa(s.Resolution.Height),
		string(s.KernelKind),
		strconv.Itoa(s.KernelSize),
		string(s.Border),
		string(s.Mode),
		strconv.Itoa(s.Workers),
		strconv.Itoa(s.Iterations),
		millis(m.MeanFilterDuration),
		millis(m.MinFilterDuration),
		millis(m.MaxFilterDuration),
		strconv.FormatFloat(m.FramesPerSecond, 'f', 2, 64),
		strconv.FormatFloat(m.MegapixelsPerSecond, 'f', 2, 64),
		strconv.FormatBool(m.MatchesSequential),
		m.Checksum,
		strconv.FormatUint(m.MemoryStats.TotalAllocBytes, 10),
		strconv.FormatUint(m.MemoryStats.PeakHeapBytes, 10),
		strconv.FormatUint(uint64(m.MemoryStats.NumGC), 10),
		strconv.FormatFloat(m.ErrorRate, 'f', 4, 64),
	}
}

// SaveResults writes the collected results as results.json and results.csv
// under the output directory.
//
// Returns:
//   - []string: The written file paths.
//   - error: Error if the directory or a file cannot be written.
func (bs *Suite) SaveResults() ([]string, error) {
	results := bs.GetResults()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	jsonPath := filepath.Join(bs.outputDir, "results.json")
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write results")
	}

	csvPath := filepath.Join(bs.outputDir, "results.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return nil, errors.Wrap(err, "failed to write csv")
	}
	for _, m := range results {
		if err := w.Write(csvRecord(m)); err != nil {
			return nil, errors.Wrap(err, "failed to write csv")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to write csv")
	}

	return []string{jsonPath, csvPath}, nil
}

// ModeSummary aggregates every result of one execution mode.
type ModeSummary struct {
	Mode                    pipeline.Mode `json:"mode"`
	Scenarios               int           `json:"scenarios"`
	MeanFilterDuration      time.Duration `json:"mean_filter_duration"`
	MeanMegapixelsPerSecond float64       `json:"mean_megapixels_per_second"`
	AllMatchSequential      bool          `json:"all_match_sequential"`
}

// Summarize groups results by mode, ordered sequential, parallel, distributed.
func Summarize(results []PerformanceMetrics) []ModeSummary {
	groups := lo.GroupBy(results, func(m PerformanceMetrics) pipeline.Mode { return m.Scenario.Mode })

	summaries := make([]ModeSummary, 0, len(groups))
	for mode, group := range groups {
		n := len(group)
		summaries = append(summaries, ModeSummary{
			Mode:                    mode,
			Scenarios:               n,
			MeanFilterDuration:      lo.SumBy(group, func(m PerformanceMetrics) time.Duration { return m.MeanFilterDuration }) / time.Duration(n),
			MeanMegapixelsPerSecond: lo.SumBy(group, func(m PerformanceMetrics) float64 { return m.MegapixelsPerSecond }) / float64(n),
			AllMatchSequential:      lo.EveryBy(group, func(m PerformanceMetrics) bool { return m.MatchesSequential }),
		})
	}

	order := map[pipeline.Mode]int{pipeline.ModeSequential: 0, pipeline.ModeParallel: 1, pipeline.ModeDistributed: 2}
	sort.Slice(summaries, func(i, j int) bool { return order[summaries[i].Mode] < order[summaries[j].Mode] })
	return summaries
}

// Fastest returns the result with the highest throughput.
func Fastest(results []PerformanceMetrics) (PerformanceMetrics, bool) {
	if len(results) == 0 {
		return PerformanceMetrics{}, false
	}
	return lo.MaxBy(results, func(a, b PerformanceMetrics) bool {
		return a.MegapixelsPerSecond > b.MegapixelsPerSecond
	}), true
}

// PrintSummary writes a per-mode summary table.
func PrintSummary(w io.Writer, results []PerformanceMetrics) {
	fmt.Fprintf(w, "\n📊 %-12s %9s %14s %10s %8s\n", "MODE", "SCENARIOS", "MEAN", "MP/s", "MATCH")
	for _, s := range Summarize(results) {
		fmt.Fprintf(w, "   %-12s %9d %14v %10.2f %8v\n",
			s.Mode, s.Scenarios, s.MeanFilterDuration.Truncate(time.Microsecond), s.MeanMegapixelsPerSecond, s.AllMatchSequential)
	}
	if best, ok := Fastest(results); ok {
		fmt.Fprintf(w, "🏆 Fastest: %s (%.2f MP/s)\n", best.Scenario.Name, best.MegapixelsPerSecond)
	}
}
