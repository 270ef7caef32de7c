package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/nvr-ai/go-convolution/pipeline"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Resolution represents image dimensions for benchmarking
type Resolution struct {
	Width  int    `json:"width"  yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Name   string `json:"name"   yaml:"name"`
}

// Pixels returns the pixel count of the resolution.
func (r Resolution) Pixels() int { return r.Width * r.Height }

// FromImagesResolution converts a named resolution.
func FromImagesResolution(r images.Resolution) Resolution {
	return Resolution{Width: r.Pixels.Width, Height: r.Pixels.Height, Name: string(r.Name)}
}

// Scenario defines a specific test configuration
type Scenario struct {
	Name       string                 `json:"name"        yaml:"name"`
	Resolution Resolution             `json:"resolution"  yaml:"resolution"`
	KernelKind KernelKind             `json:"kernel_kind" yaml:"kernel_kind"`
	KernelSize int                    `json:"kernel_size" yaml:"kernel_size"`
	Border     convolution.BorderMode `json:"border"      yaml:"border"`
	Mode       pipeline.Mode          `json:"mode"        yaml:"mode"`
	Workers    int                    `json:"workers"     yaml:"workers"`
	Iterations int                    `json:"iterations"  yaml:"iterations"`
	WarmupRuns int                    `json:"warmup_runs" yaml:"warmup_runs"`
}

// ErrInvalidScenario is returned for scenarios that cannot run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Validate checks that the scenario can run.
func (s Scenario) Validate() error {
	if s.Resolution.Width <= 0 || s.Resolution.Height <= 0 {
		return errors.Wrapf(ErrInvalidScenario, "%s: resolution %dx%d", s.Name, s.Resolution.Width, s.Resolution.Height)
	}
	if s.Iterations < 1 {
		return errors.Wrapf(ErrInvalidScenario, "%s: iterations must be at least 1", s.Name)
	}
	if s.WarmupRuns < 0 {
		return errors.Wrapf(ErrInvalidScenario, "%s: negative warmup runs", s.Name)
	}
	if s.Workers < 1 {
		return errors.Wrapf(ErrInvalidScenario, "%s: workers must be at least 1", s.Name)
	}
	if _, err := convolution.NewBorder(s.Border); err != nil {
		return errors.Wrapf(ErrInvalidScenario, "%s: %v", s.Name, err)
	}
	if _, err := pipeline.ParseMode(string(s.Mode)); err != nil {
		return errors.Wrapf(ErrInvalidScenario, "%s: %v", s.Name, err)
	}
	if _, err := NewKernel(s.KernelKind, s.KernelSize); err != nil {
		return errors.Wrapf(ErrInvalidScenario, "%s: %v", s.Name, err)
	}
	return nil
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Resolution: Resolution{Width: 640, Height: 480, Name: string(images.ResolutionTypeVGA)},
			KernelKind: KernelBlackman,
			KernelSize: 3,
			Border:     convolution.BorderPassthrough,
			Mode:       pipeline.ModeSequential,
			Workers:    1,
			Iterations: 10,
			WarmupRuns: 1,
		},
	}
}

// WithResolution sets the image resolution
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = Resolution{
		Width:  width,
		Height: height,
		Name:   fmt.Sprintf("%dx%d", width, height),
	}
	return sb
}

// WithNamedResolution sets the image resolution from a named size
func (sb *ScenarioBuilder) WithNamedResolution(r images.Resolution) *ScenarioBuilder {
	sb.scenario.Resolution = FromImagesResolution(r)
	return sb
}

// WithKernel sets the kernel generator and size
func (sb *ScenarioBuilder) WithKernel(kind KernelKind, size int) *ScenarioBuilder {
	sb.scenario.KernelKind = kind
	sb.scenario.KernelSize = size
	return sb
}

// WithBorder sets the border policy
func (sb *ScenarioBuilder) WithBorder(border convolution.BorderMode) *ScenarioBuilder {
	sb.scenario.Border = border
	return sb
}

// WithMode sets the execution mode and worker count
func (sb *ScenarioBuilder) WithMode(mode pipeline.Mode, workers int) *ScenarioBuilder {
	sb.scenario.Mode = mode
	sb.scenario.Workers = workers
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name"        yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios"   yaml:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct {
	// Workers is the worker count for parallel and distributed scenarios; 0 means NumCPU.
	Workers int
}

func (ps *PredefinedScenarios) workers() int {
	if ps.Workers > 0 {
		return ps.Workers
	}
	return runtime.NumCPU()
}

var (
	allModes   = []pipeline.Mode{pipeline.ModeSequential, pipeline.ModeParallel, pipeline.ModeDistributed}
	allBorders = []convolution.BorderMode{convolution.BorderPassthrough, convolution.BorderReflect}
)

// scenarioName joins the varying parts of a scenario into a stable identifier.
func scenarioName(prefix string, res Resolution, size int, border convolution.BorderMode, mode pipeline.Mode, workers int) string {
	return strings.ReplaceAll(fmt.Sprintf("%s_%s_k%d_%s_%s_w%d", prefix, res.Name, size, border, mode, workers), " ", "")
}

// GetQuickScenarios returns a smaller set for quick testing
func (ps *PredefinedScenarios) GetQuickScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)

	res, _ := images.GetResolutionByType(images.ResolutionTypeQVGA)
	for _, mode := range allModes {
		workers := ps.workers()
		if mode == pipeline.ModeSequential {
			workers = 1
		}
		r := FromImagesResolution(res)
		scenario := NewScenarioBuilder(scenarioName("quick", r, 5, convolution.BorderPassthrough, mode, workers)).
			WithNamedResolution(res).
			WithKernel(KernelBlackman, 5).
			WithMode(mode, workers).
			WithIterations(5).
			WithWarmupRuns(1).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Every execution mode once at QVGA with a 5x5 kernel",
		Scenarios:   scenarios,
	}
}

// GetComprehensiveScenarios returns every combination of resolution up to
// Full HD, kernel size, border and mode.
func (ps *PredefinedScenarios) GetComprehensiveScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, res := range images.GetAllResolutions() {
		if res.Pixels.Width*res.Pixels.Height > 1920*1080 {
			continue
		}
		r := FromImagesResolution(res)
		for _, size := range []int{3, 7, 15} {
			for _, border := range allBorders {
				for _, mode := range allModes {
					workers := ps.workers()
					if mode == pipeline.ModeSequential {
						workers = 1
					}
					scenario := NewScenarioBuilder(scenarioName("full", r, size, border, mode, workers)).
						WithNamedResolution(res).
						WithKernel(KernelBlackman, size).
						WithBorder(border).
						WithMode(mode, workers).
						WithIterations(10).
						WithWarmupRuns(2).
						Build()

					scenarios = append(scenarios, scenario)
				}
			}
		}
	}

	return &ScenarioSet{
		Name:        "Comprehensive Performance Test",
		Description: "Tests all combinations of resolutions, kernel sizes, borders and modes",
		Scenarios:   scenarios,
	}
}

// GetResolutionComparisonScenarios tests every named resolution with one kernel and mode
func (ps *PredefinedScenarios) GetResolutionComparisonScenarios(kernelSize int, mode pipeline.Mode) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	workers := ps.workers()
	if mode == pipeline.ModeSequential {
		workers = 1
	}
	for _, res := range images.GetAllResolutions() {
		r := FromImagesResolution(res)
		scenario := NewScenarioBuilder(scenarioName("resolution", r, kernelSize, convolution.BorderPassthrough, mode, workers)).
			WithNamedResolution(res).
			WithKernel(KernelBlackman, kernelSize).
			WithMode(mode, workers).
			WithIterations(5).
			WithWarmupRuns(1).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Resolution Comparison - k%d %s", kernelSize, mode),
		Description: fmt.Sprintf("Compares input resolutions for a %dx%d kernel in %s mode", kernelSize, kernelSize, mode),
		Scenarios:   scenarios,
	}
}

// GetWorkerScalingScenarios runs one mode with 1, 2, 4 ... up to maxWorkers workers
func (ps *PredefinedScenarios) GetWorkerScalingScenarios(resolution Resolution, kernelSize int, mode pipeline.Mode, maxWorkers int) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for workers := 1; workers <= maxWorkers; workers *= 2 {
		scenario := NewScenarioBuilder(scenarioName("scaling", resolution, kernelSize, convolution.BorderPassthrough, mode, workers)).
			WithResolution(resolution.Width, resolution.Height).
			WithKernel(KernelBlackman, kernelSize).
			WithMode(mode, workers).
			WithIterations(5).
			WithWarmupRuns(1).
			Build()
		scenario.Resolution.Name = resolution.Name

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Worker Scaling - %s @ %s", mode, resolution.Name),
		Description: fmt.Sprintf("Doubles the worker count up to %d in %s mode", maxWorkers, mode),
		Scenarios:   scenarios,
	}
}

// GetKernelSizeScenarios compares kernel sizes for both border policies
func (ps *PredefinedScenarios) GetKernelSizeScenarios(resolution Resolution, sizes []int) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, size := range sizes {
		for _, border := range allBorders {
			scenario := NewScenarioBuilder(scenarioName("kernel", resolution, size, border, pipeline.ModeSequential, 1)).
				WithResolution(resolution.Width, resolution.Height).
				WithKernel(KernelBlackman, size).
				WithBorder(border).
				WithIterations(3).
				WithWarmupRuns(1).
				Build()
			scenario.Resolution.Name = resolution.Name

			scenarios = append(scenarios, scenario)
		}
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Kernel Size Comparison @ %s", resolution.Name),
		Description: "Compares kernel sizes under both border policies",
		Scenarios:   scenarios,
	}
}

// marshalByExt encodes v as YAML for .yaml/.yml paths and JSON otherwise.
func marshalByExt(filename string, v any) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return yaml.Marshal(v)
	default:
		return json.MarshalIndent(v, "", "  ")
	}
}

// unmarshalByExt decodes YAML for .yaml/.yml paths and JSON otherwise.
func unmarshalByExt(filename string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

// SaveScenarioSet saves a scenario set to a JSON or YAML file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := marshalByExt(filename, scenarioSet)
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON or YAML file
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := unmarshalByExt(filename, data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}

	for _, s := range scenarioSet.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	return &scenarioSet, nil
}

// Config represents the overall benchmark configuration
type Config struct {
	OutputDir       string `json:"output_dir"        yaml:"output_dir"`
	CorpusPath      string `json:"corpus_path"       yaml:"corpus_path"`
	Workers         int    `json:"workers"           yaml:"workers"`
	TimeoutSeconds  int    `json:"timeout_seconds"   yaml:"timeout_seconds"`
	SaveDetailedLog bool   `json:"save_detailed_log" yaml:"save_detailed_log"`
}

// DefaultConfig returns a default benchmark configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir:       "./benchmark_results",
		Workers:         runtime.NumCPU(),
		TimeoutSeconds:  3600, // 1 hour
		SaveDetailedLog: true,
	}
}

// SaveConfig saves the benchmark configuration to a JSON or YAML file
func (c *Config) SaveConfig(filename string) error {
	data, err := marshalByExt(filename, c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// LoadConfig loads benchmark configuration from a JSON or YAML file on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := unmarshalByExt(filename, data, config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return config, nil
}
