// Package threads picks a CPU thread count for model evaluation.
//
// On big.LITTLE style parts only the fast cores are worth scheduling on, so
// when at least two cores report a maximum frequency of 2 GHz or more those
// are used; otherwise a couple of cores are left free for the host.
package threads

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// HighPerformanceMHz is the max frequency from which a core counts as fast.
const HighPerformanceMHz = 2000.0

// Config is a thread recommendation and the topology it was derived from.
type Config struct {
	Threads                 int  `json:"threads"`
	TotalCores              int  `json:"total_cores"`
	HighPerformanceCores    int  `json:"high_performance_cores"`
	UsedHighPerformanceOnly bool `json:"used_high_performance_only"`
}

// Probe reports CPU topology.
type Probe interface {
	// LogicalCores is the number of logical CPUs.
	LogicalCores() (int, error)
	// MaxFrequenciesMHz returns one entry per logical CPU, 0 when unknown.
	MaxFrequenciesMHz() ([]float64, error)
}

// SystemProbe reads topology through gopsutil.
type SystemProbe struct{}

func (SystemProbe) LogicalCores() (int, error) { return cpu.Counts(true) }

func (SystemProbe) MaxFrequenciesMHz() ([]float64, error) {
	infos, err := cpu.Info()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(infos))
	for _, in := range infos {
		out = append(out, in.Mhz)
	}
	return out, nil
}

// Recommend inspects the running machine.
func Recommend() Config { return RecommendWith(SystemProbe{}) }

// RecommendWith derives a recommendation from p. Probe errors degrade to
// runtime.NumCPU and no fast-core information.
func RecommendWith(p Probe) Config {
	total, err := p.LogicalCores()
	if err != nil || total < 1 {
		total = runtime.NumCPU()
	}
	if total < 1 {
		total = 1
	}

	fast := 0
	if freqs, err := p.MaxFrequenciesMHz(); err == nil {
		for i, mhz := range freqs {
			if i >= total {
				break
			}
			if mhz >= HighPerformanceMHz {
				fast++
			}
		}
	}

	var n int
	switch {
	case fast >= 2:
		n = fast
	case total >= 8:
		n = total - 2
	case total >= 4:
		n = total - 1
	default:
		n = total
	}
	n = min(max(n, 1), total)

	return Config{
		Threads:                 n,
		TotalCores:              total,
		HighPerformanceCores:    fast,
		UsedHighPerformanceOnly: fast >= 2 && n <= fast,
	}
}

// Resolve returns requested when positive, otherwise the recommendation.
func Resolve(requested int) int {
	if requested > 0 {
		return requested
	}
	return Recommend().Threads
}
