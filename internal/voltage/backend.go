package voltage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/hwprofile"
)

const (
	intelUnsupported   = "Undervolt not supported for Intel CPUs."
	unknownUnsupported = "Undervolt not supported for this CPU type."

	// IA32_PERF_STATUS core voltage field, in 1/8192 V units.
	perfStatusMSR      = "0x198"
	perfStatusBitfield = "47:32"
	perfStatusScale    = 8192.0

	amdStatusHeaderLines = 3
	amdStatusMinColumns  = 12
	amdVIDStep           = 16
)

// Sampler is one vendor's way to read and adjust the core voltage.
type Sampler interface {
	// Sample returns the current core voltage in volts, or false when the
	// utility produced nothing usable.
	Sample() (float64, bool)
	// Apply sets the undervolt offset selected by index and returns the
	// resulting status text.
	Apply(index int) string
	// Status returns a human-readable undervolt summary.
	Status() string
}

// NewSampler picks the backend for vendor. The choice is fixed for the life of
// the daemon.
func NewSampler(vendor hwprofile.CPUVendor, runner Runner, cfg config.VoltageConfig) Sampler {
	switch vendor {
	case hwprofile.VendorAMD:
		return &amdSampler{runner: runner, amdctl: cfg.Amdctl}
	case hwprofile.VendorIntel:
		return &intelSampler{runner: runner, sudo: cfg.Sudo, rdmsr: cfg.Rdmsr}
	default:
		return unknownSampler{}
	}
}

type amdSampler struct {
	runner Runner
	amdctl string
}

func (s *amdSampler) Sample() (float64, bool) {
	return parseAMDVoltage(s.runner.Run(s.amdctl, "-g", "-c0"))
}

func (s *amdSampler) Apply(index int) string {
	s.runner.Run(s.amdctl, "-m", fmt.Sprintf("-v%d", amdVID(index)))
	return s.Status()
}

func (s *amdSampler) Status() string {
	return formatAMDStatus(s.runner.Run(s.amdctl, "-m", "-g", "-c0"))
}

type intelSampler struct {
	runner Runner
	sudo   string
	rdmsr  string
}

func (s *intelSampler) Sample() (float64, bool) {
	out := s.runner.Run(s.sudo, s.rdmsr, perfStatusMSR, "-a", "-u", "--bitfield", perfStatusBitfield)
	return parseIntelVoltage(out)
}

func (s *intelSampler) Apply(int) string { return intelUnsupported }
func (s *intelSampler) Status() string  { return intelUnsupported }

type unknownSampler struct{}

func (unknownSampler) Sample() (float64, bool) { return 0, false }
func (unknownSampler) Apply(int) string        { return unknownUnsupported }
func (unknownSampler) Status() string          { return unknownUnsupported }

// amdVID maps a dropdown index to the amdctl VID offset. Index 0 means the
// smallest offset, not zero.
func amdVID(index int) int {
	if index <= 0 {
		return 1
	}
	return index * amdVIDStep
}

// parseAMDVoltage averages every "<n>mV" token in amdctl output.
func parseAMDVoltage(out string) (float64, bool) {
	var sum float64
	var n int
	for _, word := range strings.Fields(out) {
		if !strings.HasSuffix(word, "mV") {
			continue
		}
		mv, err := strconv.ParseFloat(strings.TrimSuffix(word, "mV"), 64)
		if err != nil {
			continue
		}
		sum += mv / 1000
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// parseIntelVoltage averages the per-core raw values printed by rdmsr.
func parseIntelVoltage(out string) (float64, bool) {
	var sum float64
	var n int
	for _, line := range strings.Split(out, "\n") {
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) / perfStatusScale, true
}

// formatAMDStatus keeps the P-state, voltage and frequency columns of the
// amdctl P-state table.
func formatAMDStatus(out string) string {
	lines := strings.Split(out, "\n")
	if len(lines) <= amdStatusHeaderLines {
		return ""
	}

	rows := make([]string, 0, len(lines)-amdStatusHeaderLines)
	for _, line := range lines[amdStatusHeaderLines:] {
		cols := strings.Fields(line)
		if len(cols) < amdStatusMinColumns {
			continue
		}
		rows = append(rows, strings.Join([]string{
			cols[0],
			cols[5],
			strings.ReplaceAll(cols[6], ".00", ""),
			cols[7],
			cols[11],
		}, "\t"))
	}
	return strings.Join(rows, "\n")
}
