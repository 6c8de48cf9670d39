package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names recorded by the evaluator
const (
	PhaseLearn    = "learn"
	PhaseEvaluate = "evaluate"
)

// Profiler tracks execution times of named phases
type Profiler struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{
		times: make(map[string][]time.Duration),
	}
}

// Timer represents a timing operation
type Timer struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// Start begins timing an operation. A nil profiler returns a timer that records nothing.
func (p *Profiler) Start(name string) *Timer {
	return &Timer{
		profiler: p,
		name:     name,
		start:    time.Now(),
	}
}

// Stop completes the timing and records the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	if t.profiler != nil {
		t.profiler.Record(t.name, duration)
	}
	return duration
}

// Record manually records a timing
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	p.times[name] = append(p.times[name], duration)
	p.mu.Unlock()
}

// Stats contains timing statistics
type Stats struct {
	Name    string
	Count   int
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	Median  time.Duration
	P95     time.Duration
}

// GetStats returns timing statistics for an operation
func (p *Profiler) GetStats(name string) *Stats {
	p.mu.RLock()
	times, exists := p.times[name]
	sorted := make([]float64, len(times))
	for i, d := range times {
		sorted[i] = float64(d)
	}
	p.mu.RUnlock()

	if !exists || len(sorted) == 0 {
		return &Stats{Name: name}
	}
	sort.Float64s(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += time.Duration(d)
	}

	return &Stats{
		Name:    name,
		Count:   len(sorted),
		Total:   total,
		Average: total / time.Duration(len(sorted)),
		Min:     time.Duration(sorted[0]),
		Max:     time.Duration(sorted[len(sorted)-1]),
		Median:  time.Duration(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		P95:     time.Duration(stat.Quantile(0.95, stat.Empirical, sorted, nil)),
	}
}

// GetAllStats returns statistics for all tracked operations, sorted by name
func (p *Profiler) GetAllStats() []*Stats {
	p.mu.RLock()
	names := make([]string, 0, len(p.times))
	for name := range p.times {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)

	stats := make([]*Stats, 0, len(names))
	for _, name := range names {
		stats = append(stats, p.GetStats(name))
	}
	return stats
}

// Reset clears all timing data
func (p *Profiler) Reset() {
	p.mu.Lock()
	p.times = make(map[string][]time.Duration)
	p.mu.Unlock()
}

// PrintReport writes a formatted timing report to w
func (p *Profiler) PrintReport(w io.Writer) {
	stats := p.GetAllStats()

	if len(stats) == 0 {
		fmt.Fprintln(w, "No timing data available")
		return
	}

	fmt.Fprintf(w, "⏱️  Performance Profile Report\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "%-20s %8s %10s %8s %8s %8s %8s\n",
		"Phase", "Count", "Total", "Avg", "Min", "Max", "P95")
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────────────\n")

	for _, s := range stats {
		if s.Count == 0 {
			continue
		}

		fmt.Fprintf(w, "%-20s %8d %10s %8s %8s %8s %8s\n",
			truncate(s.Name, 20),
			s.Count,
			formatDuration(s.Total),
			formatDuration(s.Average),
			formatDuration(s.Min),
			formatDuration(s.Max),
			formatDuration(s.P95),
		)
	}

	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
}

// Phase joins a phase and a classifier name into a timer name
func Phase(phase, classifier string) string {
	return phase + "/" + classifier
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%.0fns", float64(d.Nanoseconds()))
	} else if d < time.Millisecond {
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else {
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
