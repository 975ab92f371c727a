package voltage

import (
	"log/slog"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

// Runner executes a diagnostic utility and returns its stdout. Any failure
// yields an empty string.
type Runner interface {
	Run(name string, args ...string) string
}

// ExecRunner runs commands with os/exec. There is no timeout: a hung utility
// blocks the caller.
type ExecRunner struct {
	log *slog.Logger
}

func NewExecRunner(log *slog.Logger) *ExecRunner {
	return &ExecRunner{log: log}
}

func (r *ExecRunner) Run(name string, args ...string) string {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		r.log.Warn("command failed",
			slog.String("cmd", name),
			slog.String("args", strings.Join(args, " ")),
			sl.Err(err),
		)
		return ""
	}
	if !utf8.Valid(out) {
		r.log.Warn("command output is not valid UTF-8", slog.String("cmd", name))
		return ""
	}
	return string(out)
}
