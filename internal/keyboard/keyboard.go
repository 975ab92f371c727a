package keyboard

import (
	"log/slog"
	"os"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/settings"
)

const (
	payloadSize       = 16
	staticPayloadSize = 4

	modeStatic = 0
	modeWave   = 3
	waveFlag   = 8
	zoneCount  = 4
)

// Device drives the four-zone RGB backlight through the acer-gkbbl character
// devices. Write failures are logged and dropped.
type Device struct {
	log           *slog.Logger
	staticDevice  string
	dynamicDevice string
}

func New(log *slog.Logger, cfg config.KeyboardConfig) *Device {
	return &Device{
		log:           log,
		staticDevice:  cfg.StaticDevice,
		dynamicDevice: cfg.DynamicDevice,
	}
}

// Apply sends l to the keyboard. Mode 0 is a static colour; any other mode is
// a firmware effect.
func (d *Device) Apply(l settings.Lighting) {
	if l.Mode == modeStatic {
		d.setStatic(l)
		return
	}
	d.write(d.dynamicDevice, dynamicPayload(l))
}

func (d *Device) setStatic(l settings.Lighting) {
	if l.Zone == 0 {
		for z := uint8(1); z <= zoneCount; z++ {
			d.write(d.staticDevice, staticPayload(z, l.R, l.G, l.B))
		}
	} else {
		d.write(d.staticDevice, staticPayload(l.Zone, l.R, l.G, l.B))
	}
	d.write(d.dynamicDevice, brightnessPayload(l.Brightness))
}

func (d *Device) write(path string, payload []byte) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		d.log.Debug("keyboard device unavailable", slog.String("path", path), sl.Err(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		d.log.Error("keyboard write failed", slog.String("path", path), sl.Err(err))
	}
}

// staticPayload selects zone (1-4) by bitmask.
func staticPayload(zone, r, g, b uint8) []byte {
	return []byte{1 << (zone - 1), r, g, b}
}

func brightnessPayload(brightness uint8) []byte {
	p := make([]byte, payloadSize)
	p[2] = brightness
	p[9] = 1
	return p
}

func dynamicPayload(l settings.Lighting) []byte {
	p := make([]byte, payloadSize)
	p[0] = l.Mode
	p[1] = l.Speed
	p[2] = l.Brightness
	if l.Mode == modeWave {
		p[3] = waveFlag
	}
	p[4] = l.Direction
	p[5] = l.R
	p[6] = l.G
	p[7] = l.B
	p[9] = 1
	return p
}
