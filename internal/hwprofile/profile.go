package hwprofile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

// ErrUnsupportedModel means no register map is known for the machine. There is
// no safe default layout, so callers treat it as fatal.
var ErrUnsupportedModel = errors.New("unsupported model")

type CPUVendor string

const (
	VendorAMD     CPUVendor = "AMD"
	VendorIntel   CPUVendor = "Intel"
	VendorUnknown CPUVendor = "Unknown"
)

const unknownModel = "Unknown"

// Profile is the result of hardware detection. It is built once at startup.
type Profile struct {
	Model     string
	MatchedAs string
	Registers RegisterMap
	Vendor    CPUVendor
}

// Detect reads the DMI product name and cpuinfo and resolves them to a
// register map and CPU vendor.
func Detect(log *slog.Logger, cfg config.HardwareConfig) (*Profile, error) {
	model := readModel(log, cfg.ProductNamePath)

	var vendor CPUVendor = VendorUnknown
	cpuinfo, err := os.ReadFile(cfg.CPUInfoPath)
	if err != nil {
		log.Warn("failed to read cpuinfo", slog.String("path", cfg.CPUInfoPath), sl.Err(err))
	} else {
		vendor = ParseVendor(string(cpuinfo))
	}

	log.Info("detected hardware",
		slog.String("model", model),
		slog.String("cpu", string(vendor)),
	)

	regs, matched, ok := Resolve(model)
	if !ok {
		return nil, fmt.Errorf("device %q: %w", model, ErrUnsupportedModel)
	}

	if matched != model {
		log.Info("using registers from substring match",
			slog.String("registers", matched),
			slog.String("model", model),
		)
	} else {
		log.Info("using registers", slog.String("registers", matched))
	}

	return &Profile{
		Model:     model,
		MatchedAs: matched,
		Registers: regs,
		Vendor:    vendor,
	}, nil
}

func readModel(log *slog.Logger, path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("failed to read product name", slog.String("path", path), sl.Err(err))
		return unknownModel
	}
	return strings.TrimSpace(string(data))
}

// Resolve maps an identification string to a register map. An exact match is
// tried first, then any known name contained in model (firmware often appends
// revision text).
func Resolve(model string) (RegisterMap, string, bool) {
	for _, m := range knownModels {
		if m.name == model {
			return *m.regs, m.name, true
		}
	}

	for _, m := range knownModels {
		if strings.Contains(model, m.name) {
			return *m.regs, m.name, true
		}
	}

	return RegisterMap{}, "", false
}

// ParseVendor does a case-insensitive search of cpuinfo text. AMD is checked
// before Intel.
func ParseVendor(cpuinfo string) CPUVendor {
	lower := strings.ToLower(cpuinfo)
	switch {
	case strings.Contains(lower, "amd"):
		return VendorAMD
	case strings.Contains(lower, "intel"):
		return VendorIntel
	default:
		return VendorUnknown
	}
}
