package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler keeps the last duration of named CPU scopes and a set of counters.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if _, seen := p.Scopes[name]; !seen {
		p.Order = append(p.Order, name)
		p.Scopes[name] = 0
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *Profiler) StatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		fmt.Fprintf(&sb, "  %-15s: %.2f ms\n", name, ms)
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-15s: %d\n", k, p.Counts[k])
	}
	return sb.String()
}

// FPSMeter measures the frame rate over a fixed number of frames after a
// warm-up. Timestamps are seconds, as returned by glfw.GetTime.
type FPSMeter struct {
	Warmup int
	Frames int

	seen  int
	start float64
	end   float64
}

func NewFPSMeter(warmup, frames int) *FPSMeter {
	return &FPSMeter{Warmup: warmup, Frames: frames}
}

// Frame records a finished frame at time now and reports whether the
// measurement is complete.
func (m *FPSMeter) Frame(now float64) bool {
	if m.Done() {
		return true
	}
	m.seen++
	if m.seen == m.Warmup+1 {
		m.start = now
	}
	if m.seen == m.Warmup+1+m.Frames {
		m.end = now
	}
	return m.Done()
}

func (m *FPSMeter) Done() bool {
	return m.seen >= m.Warmup+1+m.Frames
}

// FPS returns the measured rate, zero until Done.
func (m *FPSMeter) FPS() float64 {
	if !m.Done() || m.end <= m.start {
		return 0
	}
	return float64(m.Frames) / (m.end - m.start)
}

// RollingFPS averages the frame rate over roughly one second windows.
type RollingFPS struct {
	FPS    float64
	frames int
	accum  float64
	last   float64
}

func (r *RollingFPS) Frame(now float64) {
	if r.last > 0 {
		r.frames++
		r.accum += now - r.last
		if r.accum >= 1.0 {
			r.FPS = float64(r.frames) / r.accum
			r.frames = 0
			r.accum = 0
		}
	}
	r.last = now
}
