// Package benchmark - Functionality for running benchmarks.
package benchmark

import (
	"runtime"
	"time"

	"golang.org/x/sys/cpu"
)

// PerformanceMetrics captures detailed performance data
type PerformanceMetrics struct {
	Scenario            Scenario      `json:"scenario"              yaml:"scenario"`
	Timestamp           time.Time     `json:"timestamp"             yaml:"timestamp"`
	TotalDuration       time.Duration `json:"total_duration"        yaml:"total_duration"`
	ImageResizeDuration time.Duration `json:"image_resize_duration" yaml:"image_resize_duration"`
	MeanFilterDuration  time.Duration `json:"mean_filter_duration"  yaml:"mean_filter_duration"`
	MinFilterDuration   time.Duration `json:"min_filter_duration"   yaml:"min_filter_duration"`
	MaxFilterDuration   time.Duration `json:"max_filter_duration"   yaml:"max_filter_duration"`
	FramesPerSecond     float64       `json:"frames_per_second"     yaml:"frames_per_second"`
	MegapixelsPerSecond float64       `json:"megapixels_per_second" yaml:"megapixels_per_second"`
	Checksum            string        `json:"checksum"              yaml:"checksum"`
	MatchesSequential   bool          `json:"matches_sequential"    yaml:"matches_sequential"`
	MemoryStats         MemoryMetrics `json:"memory_stats"          yaml:"memory_stats"`
	CPUStats            CPUMetrics    `json:"cpu_stats"             yaml:"cpu_stats"`
	ErrorRate           float64       `json:"error_rate"            yaml:"error_rate"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"       yaml:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes" yaml:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"         yaml:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"            yaml:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"  yaml:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"    yaml:"heap_sys_bytes"`
	PeakHeapBytes   uint64 `json:"peak_heap_bytes"   yaml:"peak_heap_bytes"`
}

// CPUMetrics describes the processor the scenario ran on.
type CPUMetrics struct {
	NumCPU     int    `json:"num_cpu"    yaml:"num_cpu"`
	GOMAXPROCS int    `json:"gomaxprocs" yaml:"gomaxprocs"`
	Arch       string `json:"arch"       yaml:"arch"`
	// SIMD feature flags, useful when comparing results across machines.
	HasSSE41   bool `json:"has_sse41"   yaml:"has_sse41"`
	HasAVX2    bool `json:"has_avx2"    yaml:"has_avx2"`
	HasAVX512F bool `json:"has_avx512f" yaml:"has_avx512f"`
	HasFMA     bool `json:"has_fma"     yaml:"has_fma"`
	HasASIMD   bool `json:"has_asimd"   yaml:"has_asimd"`
}

// CollectCPUMetrics reports the current processor and scheduler settings.
func CollectCPUMetrics() CPUMetrics {
	return CPUMetrics{
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		Arch:       runtime.GOARCH,
		HasSSE41:   cpu.X86.HasSSE41,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasASIMD:   cpu.ARM64.HasASIMD,
	}
}

// memoryDelta builds MemoryMetrics from stats taken before and after a scenario.
func memoryDelta(start, end *runtime.MemStats, peak uint64) MemoryMetrics {
	return MemoryMetrics{
		AllocBytes:      end.Alloc,
		TotalAllocBytes: end.TotalAlloc - start.TotalAlloc,
		SysBytes:        end.Sys,
		NumGC:           end.NumGC - start.NumGC,
		HeapAllocBytes:  end.HeapAlloc,
		HeapSysBytes:    end.HeapSys,
		PeakHeapBytes:   peak,
	}
}
