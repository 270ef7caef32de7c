// Package profiler times the phases of a run and samples memory while it executes.
package profiler

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Profiler records named operation timings and custom metrics, and can
// sample heap usage in the background between Start and Stop.
//
// All methods are safe for concurrent use.
type Profiler struct {
	// Configuration
	sampleInterval time.Duration
	maxSamples     int

	// State management
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	// Memory
	memStats   runtime.MemStats
	peakHeap   uint64
	gcAtStart  uint32
	gcAtReport uint32

	// Custom metrics
	customMetrics map[string]*MetricTracker

	// Phase timings, reported in first-seen order.
	operationTimes map[string]*TimeTracker
	operationOrder []string
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	name   string
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name      string
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one operation's timings.
type OperationStats struct {
	Name  string        `json:"name"  yaml:"name"`
	Count int64         `json:"count" yaml:"count"`
	Total time.Duration `json:"total" yaml:"total"`
	Min   time.Duration `json:"min"   yaml:"min"`
	Max   time.Duration `json:"max"   yaml:"max"`
	Last  time.Duration `json:"last"  yaml:"last"`
	Mean  time.Duration `json:"mean"  yaml:"mean"`
}

// MetricStats is a snapshot of one custom metric.
type MetricStats struct {
	Name    string  `json:"name"    yaml:"name"`
	Mean    float64 `json:"mean"    yaml:"mean"`
	Min     float64 `json:"min"     yaml:"min"`
	Max     float64 `json:"max"     yaml:"max"`
	Samples int     `json:"samples" yaml:"samples"`
}

// ProfilingOptions configures the profiler.
type ProfilingOptions struct {
	// SampleInterval specifies how often to sample the heap while running (default: 50ms)
	SampleInterval time.Duration
	// MaxSamples specifies maximum number of samples kept per metric or operation (default: 1000)
	MaxSamples int
}

// New creates a profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured Profiler instance
func New(opts ProfilingOptions) *Profiler {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 50 * time.Millisecond
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 1000
	}

	return &Profiler{
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		startTime:      time.Now(),
		customMetrics:  make(map[string]*MetricTracker),
		operationTimes: make(map[string]*TimeTracker),
	}
}

// Start begins background heap sampling. Calling it while running is a no-op.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.startTime = time.Now()
	p.ctx, p.cancel = context.WithCancel(context.Background())
	runtime.ReadMemStats(&p.memStats)
	p.peakHeap = p.memStats.HeapAlloc
	p.gcAtStart = p.memStats.NumGC
	p.gcAtReport = p.memStats.NumGC

	p.wg.Add(1)
	go p.sampleLoop(p.ctx)
}

// Stop ends sampling, takes a final sample and waits for the sampler to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.sample()
}

// sampleLoop reads memory statistics until ctx is cancelled.
func (p *Profiler) sampleLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sample()
		}
	}
}

func (p *Profiler) sample() {
	p.mu.Lock()
	defer p.mu.Unlock()

	runtime.ReadMemStats(&p.memStats)
	if p.memStats.HeapAlloc > p.peakHeap {
		p.peakHeap = p.memStats.HeapAlloc
	}
}

// PeakHeap returns the largest heap allocation observed since Start.
func (p *Profiler) PeakHeap() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.peakHeap
}

// GCCycles returns the number of garbage collections since Start.
func (p *Profiler) GCCycles() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.memStats.NumGC - p.gcAtStart
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.customMetrics[name]
	if !exists {
		tracker = &MetricTracker{
			name: name,
			min:  value,
			max:  value,
		}
		p.customMetrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	tracker.sum += value
	if len(tracker.values) > p.maxSamples {
		// Remove oldest sample
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.count++

	if value < tracker.min {
		tracker.min = value
	}
	if value > tracker.max {
		tracker.max = value
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes; it records and returns
// the elapsed time.
func (p *Profiler) StartOperation(name string) func() time.Duration {
	sw := NewStopwatch(true)
	return func() time.Duration {
		sw.Pause()
		d := sw.Elapsed()
		p.RecordOperation(name, d)
		return d
	}
}

// RecordOperation records the completion time of an operation.
func (p *Profiler) RecordOperation(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		p.operationTimes[name] = tracker
		p.operationOrder = append(p.operationOrder, name)
	}

	tracker.durations = append(tracker.durations, duration)
	tracker.totalTime += duration
	if len(tracker.durations) > p.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Operation returns the timings recorded under name.
func (p *Profiler) Operation(name string) (OperationStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, ok := p.operationTimes[name]
	if !ok {
		return OperationStats{}, false
	}
	return tracker.snapshot(), true
}

// Operations returns every operation in the order it was first recorded.
func (p *Profiler) Operations() []OperationStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]OperationStats, 0, len(p.operationOrder))
	for _, name := range p.operationOrder {
		out = append(out, p.operationTimes[name].snapshot())
	}
	return out
}

// Metrics returns every custom metric sorted by name.
func (p *Profiler) Metrics() []MetricStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]MetricStats, 0, len(p.customMetrics))
	for _, tracker := range p.customMetrics {
		if len(tracker.values) == 0 {
			continue
		}
		out = append(out, MetricStats{
			Name:    tracker.name,
			Mean:    tracker.sum / float64(len(tracker.values)),
			Min:     tracker.min,
			Max:     tracker.max,
			Samples: len(tracker.values),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (t *TimeTracker) snapshot() OperationStats {
	s := OperationStats{
		Name:  t.name,
		Count: t.count,
		Total: t.totalTime,
		Min:   t.minTime,
		Max:   t.maxTime,
	}
	if n := len(t.durations); n > 0 {
		s.Last = t.durations[n-1]
		s.Mean = t.totalTime / time.Duration(n)
	}
	return s
}

// Report writes a status report: uptime, memory, custom metrics and
// operation timings.
//
// Arguments:
// - w: The destination, e.g. os.Stdout.
func (p *Profiler) Report(w io.Writer) {
	metrics := p.Metrics()
	operations := p.Operations()

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(w, "PROFILER REPORT - %s\n", time.Now().Format("15:04:05.000"))
	fmt.Fprintf(w, "Uptime: %v\n", time.Since(p.startTime).Truncate(time.Millisecond))

	fmt.Fprintf(w, "\nMEMORY USAGE:\n")
	fmt.Fprintf(w, "  Heap Alloc: %s\n", formatBytes(p.memStats.HeapAlloc))
	fmt.Fprintf(w, "  Peak Heap: %s\n", formatBytes(p.peakHeap))
	fmt.Fprintf(w, "  Total Alloc: %s\n", formatBytes(p.memStats.TotalAlloc))
	fmt.Fprintf(w, "  Sys: %s\n", formatBytes(p.memStats.Sys))

	if p.memStats.NumGC > p.gcAtReport {
		fmt.Fprintf(w, "\nGARBAGE COLLECTION:\n")
		fmt.Fprintf(w, "  GC Cycles: %d (new: %d)\n", p.memStats.NumGC, p.memStats.NumGC-p.gcAtReport)
		fmt.Fprintf(w, "  GC CPU Fraction: %.4f%%\n", p.memStats.GCCPUFraction*100)
		p.gcAtReport = p.memStats.NumGC
	}

	if len(metrics) > 0 {
		fmt.Fprintf(w, "\nCUSTOM METRICS:\n")
		for _, m := range metrics {
			fmt.Fprintf(w, "  %s: avg=%.2f, min=%.2f, max=%.2f, samples=%d\n", m.Name, m.Mean, m.Min, m.Max, m.Samples)
		}
	}

	if len(operations) > 0 {
		fmt.Fprintf(w, "\nOPERATION TIMINGS:\n")
		for _, op := range operations {
			fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
				op.Name,
				op.Mean.Truncate(time.Microsecond),
				op.Min.Truncate(time.Microsecond),
				op.Max.Truncate(time.Microsecond),
				op.Count)
		}
	}
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatBytes is the exported form of the report's byte formatting.
func FormatBytes(bytes uint64) string { return formatBytes(bytes) }
