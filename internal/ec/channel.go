package ec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

// ErrNoDevice is returned by Open when neither EC interface can be opened
// read-write.
var ErrNoDevice = errors.New("failed to open any EC device file")

// Channel gives byte access to the embedded controller address space. Reads
// are served from a snapshot taken by Refresh; writes go straight to the
// device.
//
// A Channel is owned by a single goroutine and is not safe for concurrent use.
type Channel struct {
	log  *slog.Logger
	dev  io.ReadWriteSeeker
	path string
	buf  []byte
}

// New wraps an already opened device.
func New(log *slog.Logger, dev io.ReadWriteSeeker, path string) *Channel {
	return &Channel{
		log:  log.With(slog.String("ec", path)),
		dev:  dev,
		path: path,
	}
}

// Open tries the ec_sys debugfs interface first, reloading the module with
// write support if the file is missing or not writable, and falls back to
// acpi_ec.
func Open(log *slog.Logger, cfg config.ECConfig, loader ModuleLoader) (*Channel, error) {
	if f := openECSys(log, cfg, loader); f != nil {
		return New(log, f, cfg.ECSysPath), nil
	}
	if f := openACPIEC(log, cfg, loader); f != nil {
		return New(log, f, cfg.ACPIECPath), nil
	}
	return nil, ErrNoDevice
}

func openECSys(log *slog.Logger, cfg config.ECConfig, loader ModuleLoader) *os.File {
	if f, err := openRW(cfg.ECSysPath); err == nil {
		log.Info("ec_sys interface found and writable", slog.String("path", cfg.ECSysPath))
		return f
	}

	log.Info("reloading module with write support", slog.String("module", cfg.ECSysModule))
	if err := loader.Unload(cfg.ECSysModule); err != nil {
		log.Debug("module unload failed", slog.String("module", cfg.ECSysModule), sl.Err(err))
	}
	if err := loader.Load(cfg.ECSysModule, "write_support=1"); err != nil {
		log.Warn("module load failed", slog.String("module", cfg.ECSysModule), sl.Err(err))
	}

	f, err := openRW(cfg.ECSysPath)
	if err != nil {
		log.Warn("opening ec_sys read-write failed, trying acpi_ec",
			slog.String("path", cfg.ECSysPath),
			sl.Err(err),
		)
		return nil
	}
	log.Info("loaded module", slog.String("module", cfg.ECSysModule))
	return f
}

func openACPIEC(log *slog.Logger, cfg config.ECConfig, loader ModuleLoader) *os.File {
	if err := loader.Load(cfg.ACPIECModule); err != nil {
		log.Warn("module load failed", slog.String("module", cfg.ACPIECModule), sl.Err(err))
	}

	f, err := openRW(cfg.ACPIECPath)
	if err != nil {
		log.Error("failed to open EC device", slog.String("path", cfg.ACPIECPath), sl.Err(err))
		return nil
	}
	log.Info("loaded module", slog.String("module", cfg.ACPIECModule))
	return f
}

func openRW(path string) (*os.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR, 0)
}

// Path returns the device file backing the channel.
func (c *Channel) Path() string {
	return c.path
}

// Write stores one byte at address. Failures are logged and otherwise
// ignored; the caller sees them only as an unchanged register on the next
// Refresh.
func (c *Channel) Write(address, value uint8) {
	if _, err := c.dev.Seek(int64(address), io.SeekStart); err != nil {
		c.log.Error("EC seek failed", slog.String("address", hex(address)), sl.Err(err))
		return
	}
	if _, err := c.dev.Write([]byte{value}); err != nil {
		c.log.Error("EC write failed",
			slog.String("address", hex(address)),
			slog.String("value", hex(value)),
			sl.Err(err),
		)
		return
	}
	c.log.Debug("EC write", slog.String("address", hex(address)), slog.String("value", hex(value)))
}

// Refresh replaces the snapshot with a full read of the device from offset 0.
// On failure the snapshot is left empty so no stale byte is ever served.
func (c *Channel) Refresh() {
	c.buf = c.buf[:0]

	if _, err := c.dev.Seek(0, io.SeekStart); err != nil {
		c.log.Error("EC seek to start failed", sl.Err(err))
		return
	}

	data, err := io.ReadAll(c.dev)
	if err != nil {
		c.log.Error("EC read failed", sl.Err(err))
		return
	}
	c.buf = append(c.buf, data...)

	if len(c.buf) == 0 {
		c.log.Warn("empty EC buffer after refresh")
	}
}

// Read returns the snapshot byte at address, or 0 when the snapshot does not
// cover it.
func (c *Channel) Read(address uint8) uint8 {
	if int(address) >= len(c.buf) {
		c.log.Warn("EC read out of range",
			slog.String("address", hex(address)),
			slog.Int("buffer_len", len(c.buf)),
		)
		return 0
	}
	return c.buf[address]
}

// Len reports the size of the current snapshot.
func (c *Channel) Len() int {
	return len(c.buf)
}

func (c *Channel) Close() error {
	if closer, ok := c.dev.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func hex(v uint8) string {
	return fmt.Sprintf("0x%02X", v)
}
