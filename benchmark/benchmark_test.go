package benchmark

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/nvr-ai/go-convolution/pipeline"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuite(t *testing.T) {
	outputDir := t.TempDir()

	suite := NewSuite(NewSuiteArgs{OutputPath: outputDir})

	assert.NotNil(t, suite)
	assert.NotNil(t, suite.logger)
	assert.Equal(t, outputDir, suite.outputDir)
	assert.Empty(t, suite.scenarios)
	assert.Empty(t, suite.results)
}

func TestScenarioBuilder(t *testing.T) {
	scenario := NewScenarioBuilder("test_scenario").
		WithResolution(416, 320).
		WithKernel(KernelBox, 7).
		WithBorder(convolution.BorderReflect).
		WithMode(pipeline.ModeDistributed, 6).
		WithIterations(50).
		WithWarmupRuns(5).
		Build()

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, Resolution{Width: 416, Height: 320, Name: "416x320"}, scenario.Resolution)
	assert.Equal(t, KernelBox, scenario.KernelKind)
	assert.Equal(t, 7, scenario.KernelSize)
	assert.Equal(t, convolution.BorderReflect, scenario.Border)
	assert.Equal(t, pipeline.ModeDistributed, scenario.Mode)
	assert.Equal(t, 6, scenario.Workers)
	assert.Equal(t, 50, scenario.Iterations)
	assert.Equal(t, 5, scenario.WarmupRuns)
	assert.NoError(t, scenario.Validate())
}

func TestScenarioBuilderDefaults(t *testing.T) {
	scenario := NewScenarioBuilder("defaults").Build()

	assert.Equal(t, 640, scenario.Resolution.Width)
	assert.Equal(t, 480, scenario.Resolution.Height)
	assert.Equal(t, KernelBlackman, scenario.KernelKind)
	assert.Equal(t, 3, scenario.KernelSize)
	assert.Equal(t, convolution.BorderPassthrough, scenario.Border)
	assert.Equal(t, pipeline.ModeSequential, scenario.Mode)
	assert.Equal(t, 1, scenario.Workers)
	assert.NoError(t, scenario.Validate())
}

func TestScenarioValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{name: "zero width", mutate: func(s *Scenario) { s.Resolution.Width = 0 }},
		{name: "no iterations", mutate: func(s *Scenario) { s.Iterations = 0 }},
		{name: "negative warmups", mutate: func(s *Scenario) { s.WarmupRuns = -1 }},
		{name: "no workers", mutate: func(s *Scenario) { s.Workers = 0 }},
		{name: "unknown border", mutate: func(s *Scenario) { s.Border = "wrap" }},
		{name: "unknown mode", mutate: func(s *Scenario) { s.Mode = "gpu" }},
		{name: "even kernel", mutate: func(s *Scenario) { s.KernelSize = 4 }},
		{name: "unknown kernel kind", mutate: func(s *Scenario) { s.KernelKind = "sobel" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScenarioBuilder(tc.name).Build()
			tc.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidScenario), "got %v", err)
		})
	}
}

func TestNewKernel(t *testing.T) {
	for _, kind := range []KernelKind{KernelBlackman, KernelBox, KernelIdentity, ""} {
		k, err := NewKernel(kind, 5)
		require.NoError(t, err, "kind %q", kind)
		assert.Equal(t, 5, k.Size())
	}

	_, err := NewKernel("sobel", 3)
	assert.True(t, errors.Is(err, ErrUnknownKernelKind), "got %v", err)
}

func TestSyntheticImageIsReproducible(t *testing.T) {
	a := SyntheticImage(32, 24, 7)
	b := SyntheticImage(32, 24, 7)
	c := SyntheticImage(32, 24, 8)

	assert.Equal(t, 32, a.Width)
	assert.Equal(t, 24, a.Height)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestPredefinedScenarios(t *testing.T) {
	predefined := &PredefinedScenarios{Workers: 3}

	t.Run("quick covers every mode", func(t *testing.T) {
		set := predefined.GetQuickScenarios()
		require.Len(t, set.Scenarios, 3)
		for i, mode := range []pipeline.Mode{pipeline.ModeSequential, pipeline.ModeParallel, pipeline.ModeDistributed} {
			s := set.Scenarios[i]
			assert.Equal(t, mode, s.Mode)
			assert.NoError(t, s.Validate())
			if mode == pipeline.ModeSequential {
				assert.Equal(t, 1, s.Workers)
			} else {
				assert.Equal(t, 3, s.Workers)
			}
		}
	})

	t.Run("comprehensive stays within full HD", func(t *testing.T) {
		set := predefined.GetComprehensiveScenarios()
		require.NotEmpty(t, set.Scenarios)
		assert.Zero(t, len(set.Scenarios)%18, "3 kernel sizes x 2 borders x 3 modes per resolution")
		names := make(map[string]bool)
		for _, s := range set.Scenarios {
			assert.LessOrEqual(t, s.Resolution.Pixels(), 1920*1080)
			assert.NoError(t, s.Validate())
			assert.False(t, names[s.Name], "duplicate scenario name %s", s.Name)
			names[s.Name] = true
		}
	})

	t.Run("resolution comparison uses every named resolution", func(t *testing.T) {
		set := predefined.GetResolutionComparisonScenarios(5, pipeline.ModeParallel)
		assert.Len(t, set.Scenarios, len(images.GetAllResolutions()))
	})

	t.Run("worker scaling doubles", func(t *testing.T) {
		set := predefined.GetWorkerScalingScenarios(Resolution{Width: 64, Height: 48, Name: "tiny"}, 3, pipeline.ModeDistributed, 8)
		var workers []int
		for _, s := range set.Scenarios {
			workers = append(workers, s.Workers)
			assert.Equal(t, "tiny", s.Resolution.Name)
		}
		assert.Equal(t, []int{1, 2, 4, 8}, workers)
	})

	t.Run("kernel sizes cover both borders", func(t *testing.T) {
		set := predefined.GetKernelSizeScenarios(Resolution{Width: 64, Height: 48, Name: "tiny"}, []int{3, 9})
		assert.Len(t, set.Scenarios, 4)
	})
}

func TestScenarioSetSaveLoad(t *testing.T) {
	set := (&PredefinedScenarios{Workers: 2}).GetQuickScenarios()

	for _, name := range []string{"scenarios.json", "scenarios.yaml", "scenarios.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveScenarioSet(set, path))

			loaded, err := LoadScenarioSet(path)
			require.NoError(t, err)
			assert.Equal(t, set, loaded)
		})
	}

	t.Run("invalid scenario is rejected", func(t *testing.T) {
		bad := &ScenarioSet{Name: "bad", Scenarios: []Scenario{NewScenarioBuilder("odd").WithKernel(KernelBox, 2).Build()}}
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, SaveScenarioSet(bad, path))

		_, err := LoadScenarioSet(path)
		assert.True(t, errors.Is(err, ErrInvalidScenario), "got %v", err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScenarioSet(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestConfigSaveLoad(t *testing.T) {
	config := DefaultConfig()
	config.OutputDir = "/tmp/results"
	config.Workers = 7

	for _, name := range []string{"config.json", "config.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, config.SaveConfig(path))

		loaded, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, config, loaded)
	}

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

		loaded, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Workers)
		assert.Equal(t, DefaultConfig().OutputDir, loaded.OutputDir)
		assert.Equal(t, 3600, loaded.TimeoutSeconds)
	})
}

func tinyScenario(name string, mode pipeline.Mode, workers int, border convolution.BorderMode) Scenario {
	return NewScenarioBuilder(name).
		WithResolution(40, 30).
		WithKernel(KernelBlackman, 5).
		WithBorder(border).
		WithMode(mode, workers).
		WithIterations(3).
		WithWarmupRuns(1).
		Build()
}

func TestRunScenario(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})

	var checksums []string
	for _, mode := range []pipeline.Mode{pipeline.ModeSequential, pipeline.ModeParallel, pipeline.ModeDistributed} {
		metrics, err := suite.RunScenario(context.Background(), tinyScenario(string(mode), mode, 3, convolution.BorderReflect))
		require.NoError(t, err)

		assert.True(t, metrics.MatchesSequential, "mode %s", mode)
		assert.Zero(t, metrics.ErrorRate)
		assert.Positive(t, metrics.TotalDuration)
		assert.Positive(t, metrics.FramesPerSecond)
		assert.LessOrEqual(t, metrics.MinFilterDuration, metrics.MeanFilterDuration)
		assert.LessOrEqual(t, metrics.MeanFilterDuration, metrics.MaxFilterDuration)
		assert.NotZero(t, metrics.CPUStats.NumCPU)
		assert.NotEmpty(t, metrics.Checksum)
		checksums = append(checksums, metrics.Checksum)
	}
	assert.Equal(t, checksums[0], checksums[1])
	assert.Equal(t, checksums[0], checksums[2])
}

func TestRunScenarioErrors(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})

	_, err := suite.RunScenario(context.Background(), NewScenarioBuilder("bad").WithIterations(0).Build())
	assert.True(t, errors.Is(err, ErrInvalidScenario), "got %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = suite.RunScenario(ctx, tinyScenario("cancelled", pipeline.ModeSequential, 1, convolution.BorderPassthrough))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunScenarioWithCorpus(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.png", "b.png"} {
		require.NoError(t, images.Encode(filepath.Join(dir, name), SyntheticImage(50+i*10, 40, int64(i))))
	}

	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	require.NoError(t, suite.LoadCorpus(context.Background(), dir))

	metrics, err := suite.RunScenario(context.Background(), tinyScenario("corpus", pipeline.ModeParallel, 2, convolution.BorderPassthrough))
	require.NoError(t, err)
	assert.True(t, metrics.MatchesSequential)
	assert.Zero(t, metrics.ErrorRate)

	assert.Error(t, suite.LoadCorpus(context.Background(), t.TempDir()), "an empty directory is not a corpus")
}

func TestRunScenarioComparesAgainstLastSuccessfulInput(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.png", "b.png"} {
		require.NoError(t, images.Encode(filepath.Join(dir, name), SyntheticImage(40, 30, int64(100+i))))
	}

	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	require.NoError(t, suite.LoadCorpus(context.Background(), dir))

	// The second corpus image always fails, so only the first produces output.
	failing := suite.corpus[1].Image
	suite.filter = func(ctx context.Context, e *convolution.Engine, src *images.Buffer, mode pipeline.Mode, workers int) (*images.Buffer, error) {
		if src == failing {
			return nil, errors.New("worker lost")
		}
		return pipeline.Filter(ctx, e, src, mode, workers)
	}

	scenario := tinyScenario("last_fails", pipeline.ModeDistributed, 2, convolution.BorderReflect)
	scenario.Iterations = 2
	scenario.WarmupRuns = 0

	metrics, err := suite.RunScenario(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, 0.5, metrics.ErrorRate)
	assert.True(t, metrics.MatchesSequential, "reference must come from the input that produced the last output")

	expected, err := convolution.NewEngine(kernelFor(t, scenario), convolution.Reflect{}).Run(suite.corpus[0].Image)
	require.NoError(t, err)
	assert.Equal(t, images.Checksum(expected), metrics.Checksum)
}

func kernelFor(t *testing.T, s Scenario) *kernels.Kernel {
	k, err := NewKernel(s.KernelKind, s.KernelSize)
	require.NoError(t, err)
	return k
}

func TestRunAllScenariosAndSaveResults(t *testing.T) {
	var logs bytes.Buffer
	outputDir := filepath.Join(t.TempDir(), "results")
	suite := NewSuite(NewSuiteArgs{OutputPath: outputDir, Logger: log.New(&logs, "", 0)})

	suite.AddScenario(tinyScenario("seq", pipeline.ModeSequential, 1, convolution.BorderPassthrough))
	suite.AddScenarioSet(&ScenarioSet{Scenarios: []Scenario{
		tinyScenario("par", pipeline.ModeParallel, 2, convolution.BorderPassthrough),
		tinyScenario("dist", pipeline.ModeDistributed, 4, convolution.BorderPassthrough),
	}})
	require.Len(t, suite.Scenarios(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, suite.RunAllScenarios(ctx))
	assert.Contains(t, logs.String(), "Running 3 scenario(s)")

	results := suite.GetResults()
	require.Len(t, results, 3)

	paths, err := suite.SaveResults()
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var decoded []PerformanceMetrics
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)
	assert.Equal(t, "dist", decoded[2].Scenario.Name)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "seq", records[1][0])
	assert.Equal(t, "true", records[3][14])

	summaries := Summarize(results)
	require.Len(t, summaries, 3)
	assert.Equal(t, pipeline.ModeSequential, summaries[0].Mode)
	assert.Equal(t, pipeline.ModeParallel, summaries[1].Mode)
	assert.Equal(t, pipeline.ModeDistributed, summaries[2].Mode)
	for _, s := range summaries {
		assert.Equal(t, 1, s.Scenarios)
		assert.True(t, s.AllMatchSequential)
	}

	var out bytes.Buffer
	PrintSummary(&out, results)
	assert.Contains(t, out.String(), "Fastest:")
}

func TestFastest(t *testing.T) {
	_, ok := Fastest(nil)
	assert.False(t, ok)

	best, ok := Fastest([]PerformanceMetrics{
		{Scenario: Scenario{Name: "a"}, MegapixelsPerSecond: 1},
		{Scenario: Scenario{Name: "b"}, MegapixelsPerSecond: 3},
		{Scenario: Scenario{Name: "c"}, MegapixelsPerSecond: 2},
	})
	require.True(t, ok)
	assert.Equal(t, "b", best.Scenario.Name)
}
