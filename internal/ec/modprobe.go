package ec

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ModuleLoader loads and unloads the kernel modules behind the EC interfaces.
type ModuleLoader interface {
	Load(module string, params ...string) error
	Unload(module string) error
}

// Modprobe shells out to modprobe(8).
type Modprobe struct {
	log *slog.Logger
	bin string
}

func NewModprobe(log *slog.Logger, bin string) *Modprobe {
	if bin == "" {
		bin = "modprobe"
	}
	return &Modprobe{log: log, bin: bin}
}

func (m *Modprobe) Load(module string, params ...string) error {
	return m.run(append([]string{module}, params...)...)
}

func (m *Modprobe) Unload(module string) error {
	return m.run("-r", module)
}

func (m *Modprobe) run(args ...string) error {
	m.log.Debug("running modprobe", slog.String("args", strings.Join(args, " ")))
	out, err := exec.Command(m.bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", m.bin, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
