package health

import (
	"context"
	"fmt"
	"os"
)

type HistoryHealthChecker struct {
	countFunc func(ctx context.Context) (int64, error)
}

func NewHistoryHealthChecker(countFunc func(ctx context.Context) (int64, error)) *HistoryHealthChecker {
	return &HistoryHealthChecker{countFunc: countFunc}
}

func (c *HistoryHealthChecker) Name() string {
	return "history"
}

func (c *HistoryHealthChecker) Check(ctx context.Context) (Status, string) {
	count, err := c.countFunc(ctx)
	if err != nil {
		return StatusDegraded, err.Error()
	}
	return StatusHealthy, fmt.Sprintf("%d entries", count)
}

// HardwareHealthChecker reports the profile detected at startup. It never
// changes after construction.
type HardwareHealthChecker struct {
	message string
}

func NewHardwareHealthChecker(model, registers, vendor string) *HardwareHealthChecker {
	return &HardwareHealthChecker{
		message: fmt.Sprintf("model=%q registers=%q cpu=%s", model, registers, vendor),
	}
}

func (c *HardwareHealthChecker) Name() string {
	return "hardware"
}

func (c *HardwareHealthChecker) Check(context.Context) (Status, string) {
	return StatusHealthy, c.message
}

// SocketHealthChecker fails when the control socket has disappeared from the
// filesystem, which leaves clients unable to connect.
type SocketHealthChecker struct {
	path string
}

func NewSocketHealthChecker(path string) *SocketHealthChecker {
	return &SocketHealthChecker{path: path}
}

func (c *SocketHealthChecker) Name() string {
	return "socket"
}

func (c *SocketHealthChecker) Check(context.Context) (Status, string) {
	fi, err := os.Stat(c.path)
	if err != nil {
		return StatusUnhealthy, err.Error()
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return StatusUnhealthy, c.path + " is not a socket"
	}
	return StatusHealthy, ""
}
