package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nvr-ai/go-convolution/benchmark"
	"github.com/nvr-ai/go-convolution/pipeline"
)

func main() {
	var (
		configFile    = flag.String("config", "", "Path to benchmark configuration file (JSON or YAML)")
		scenarioFile  = flag.String("scenarios", "", "Path to scenario configuration file (JSON or YAML)")
		outputDir     = flag.String("output", "", "Output directory for results (overrides the config)")
		testImages    = flag.String("images", "", "Path to corpus images directory or file; synthetic noise when empty")
		workers       = flag.Int("workers", 0, "Workers for parallel and distributed scenarios (0 uses the config)")
		quick         = flag.Bool("quick", false, "Run quick benchmark scenarios")
		comprehensive = flag.Bool("comprehensive", false, "Run comprehensive benchmark scenarios")
		resolutions   = flag.Bool("resolutions", false, "Compare different input resolutions")
		modes         = flag.Bool("modes", false, "Compare worker scaling of the parallel and distributed modes")
		kernelSizes   = flag.String("kernels", "", "Compare comma-separated kernel sizes, e.g. 3,7,15")
		timeout       = flag.Duration("timeout", 0, "Benchmark timeout duration (0 uses the config)")
		baseline      = flag.String("baseline", "", "Compare against a previous results.json and fail on regressions")
		tolerance     = flag.Float64("tolerance", 10.0, "Allowed mean filter time increase over the baseline, in percent")
	)
	flag.Parse()

	// Load configuration if provided
	config := benchmark.DefaultConfig()
	if *configFile != "" {
		var err error
		config, err = benchmark.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *outputDir != "" {
		config.OutputDir = *outputDir
	}
	if *testImages != "" {
		config.CorpusPath = *testImages
	}
	if *workers > 0 {
		config.Workers = *workers
	}
	if *timeout > 0 {
		config.TimeoutSeconds = int(timeout.Seconds())
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	if !config.SaveDetailedLog {
		logger.SetFlags(0)
	}

	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
		OutputPath: config.OutputDir,
		Logger:     logger,
	})

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.TimeoutSeconds)*time.Second)
	defer cancel()

	if config.CorpusPath != "" {
		if err := suite.LoadCorpus(ctx, config.CorpusPath); err != nil {
			log.Fatalf("Failed to load corpus: %v", err)
		}
	}

	predefined := &benchmark.PredefinedScenarios{Workers: config.Workers}

	// Add scenarios based on flags
	if *scenarioFile != "" {
		scenarioSet, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			log.Fatalf("Failed to load scenario file: %v", err)
		}
		suite.AddScenarioSet(scenarioSet)
		fmt.Printf("Loaded %d scenarios from %s\n", len(scenarioSet.Scenarios), *scenarioFile)
	} else {
		added := false
		add := func(set *benchmark.ScenarioSet) {
			suite.AddScenarioSet(set)
			fmt.Printf("Added %d scenarios: %s\n", len(set.Scenarios), set.Name)
			added = true
		}

		if *quick {
			add(predefined.GetQuickScenarios())
		}

		if *comprehensive {
			add(predefined.GetComprehensiveScenarios())
		}

		if *resolutions {
			add(predefined.GetResolutionComparisonScenarios(5, pipeline.ModeParallel))
		}

		if *modes {
			vga := benchmark.Resolution{Width: 640, Height: 480, Name: "VGA"}
			add(predefined.GetWorkerScalingScenarios(vga, 7, pipeline.ModeParallel, config.Workers))
			add(predefined.GetWorkerScalingScenarios(vga, 7, pipeline.ModeDistributed, config.Workers))
		}

		if *kernelSizes != "" {
			sizes, err := parseSizes(*kernelSizes)
			if err != nil {
				log.Fatalf("Invalid -kernels: %v", err)
			}
			add(predefined.GetKernelSizeScenarios(benchmark.Resolution{Width: 640, Height: 480, Name: "VGA"}, sizes))
		}

		// If no specific scenarios requested, use quick by default
		if !added {
			add(predefined.GetQuickScenarios())
		}
	}

	// Run benchmarks
	fmt.Println("Starting benchmark execution...")
	start := time.Now()

	if err := suite.RunAllScenarios(ctx); err != nil {
		log.Fatalf("Benchmark execution failed: %v", err)
	}

	duration := time.Since(start)
	fmt.Printf("Benchmark completed in %v\n", duration)

	paths, err := suite.SaveResults()
	if err != nil {
		log.Fatalf("Failed to save results: %v", err)
	}

	// Print summary
	results := suite.GetResults()
	fmt.Printf("\n=== BENCHMARK RESULTS SUMMARY ===\n")
	fmt.Printf("Total scenarios: %d\n", len(results))
	fmt.Printf("Results saved to: %s\n", strings.Join(paths, ", "))
	benchmark.PrintSummary(os.Stdout, results)

	if *baseline != "" {
		previous, err := benchmark.LoadResults(*baseline)
		if err != nil {
			log.Fatalf("Failed to load baseline: %v", err)
		}
		limits := benchmark.NewDefaultToleranceConfig()
		limits.DurationPercent = *tolerance
		report := benchmark.CompareResults(previous, results, limits)
		reportPath := filepath.Join(filepath.Dir(paths[0]), "regression.md")
		if err := report.Export(reportPath); err != nil {
			log.Fatalf("Failed to write regression report: %v", err)
		}
		fmt.Printf("\n%s\nRegression report saved to: %s\n", report.Summary, reportPath)
		if report.HasRegression {
			os.Exit(1)
		}
	}

	for _, result := range results {
		if !result.MatchesSequential {
			log.Fatalf("❌ %s did not match the sequential output", result.Scenario.Name)
		}
	}
}

// parseSizes parses a comma-separated list of kernel sizes.
func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Benchmark tool for convolution engine performance testing.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -quick\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -images ./test_images -modes -workers 8\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -config ./benchmark_config.yaml -scenarios ./scenarios.json\n", filepath.Base(os.Args[0]))
	}
}
