package main

import (
	"fmt"
	"log"

	"github.com/nvr-ai/go-convolution/benchmark"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/nvr-ai/go-convolution/pipeline"
)

// Example program to create and save benchmark scenarios
func main() {
	predefined := &benchmark.PredefinedScenarios{Workers: 4}

	// Create comprehensive scenarios
	comprehensive := predefined.GetComprehensiveScenarios()
	err := benchmark.SaveScenarioSet(comprehensive, "comprehensive_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save comprehensive scenarios: %v", err)
	}
	fmt.Printf("Saved %d comprehensive scenarios\n", len(comprehensive.Scenarios))

	// Create quick scenarios
	quick := predefined.GetQuickScenarios()
	err = benchmark.SaveScenarioSet(quick, "quick_scenarios.yaml")
	if err != nil {
		log.Fatalf("Failed to save quick scenarios: %v", err)
	}
	fmt.Printf("Saved %d quick scenarios\n", len(quick.Scenarios))

	// Create resolution comparison scenarios
	resolutions := predefined.GetResolutionComparisonScenarios(5, pipeline.ModeParallel)
	err = benchmark.SaveScenarioSet(resolutions, "resolution_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save resolution scenarios: %v", err)
	}
	fmt.Printf("Saved %d resolution scenarios\n", len(resolutions.Scenarios))

	// Create kernel size comparison scenarios
	hd := benchmark.Resolution{Width: 1280, Height: 720, Name: "HD 720p"}
	sizes := predefined.GetKernelSizeScenarios(hd, []int{3, 5, 9, 15, 25})
	err = benchmark.SaveScenarioSet(sizes, "kernel_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save kernel scenarios: %v", err)
	}
	fmt.Printf("Saved %d kernel scenarios\n", len(sizes.Scenarios))

	// Create custom scenario using builder
	customScenario := benchmark.NewScenarioBuilder("custom_4k_reflect_distributed").
		WithResolution(3840, 2160).
		WithKernel(benchmark.KernelBlackman, 31).
		WithBorder(convolution.BorderReflect).
		WithMode(pipeline.ModeDistributed, 16).
		WithIterations(5).
		WithWarmupRuns(1).
		Build()

	customSet := &benchmark.ScenarioSet{
		Name:        "Custom 4K Reflect Test",
		Description: "Large kernel with reflected borders over 16 distributed workers",
		Scenarios:   []benchmark.Scenario{customScenario},
	}

	err = benchmark.SaveScenarioSet(customSet, "custom_scenarios.yaml")
	if err != nil {
		log.Fatalf("Failed to save custom scenarios: %v", err)
	}
	fmt.Printf("Saved %d custom scenarios\n", len(customSet.Scenarios))

	fmt.Println("All scenario files created successfully!")
}
