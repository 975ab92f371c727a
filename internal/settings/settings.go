package settings

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

// Nitro holds the register values that survive a daemon restart. Field order
// is the on-disk line order.
type Nitro struct {
	CPUMode            uint8
	GPUMode            uint8
	KbTimeout          uint8
	USBCharging        uint8
	NitroMode          uint8
	BatteryChargeLimit uint8
}

func (n Nitro) values() []uint8 {
	return []uint8{n.CPUMode, n.GPUMode, n.KbTimeout, n.USBCharging, n.NitroMode, n.BatteryChargeLimit}
}

// Lighting is the last keyboard backlight configuration.
type Lighting struct {
	Mode       uint8
	Zone       uint8
	Speed      uint8
	Brightness uint8
	Direction  uint8
	R          uint8
	G          uint8
	B          uint8
}

// DefaultLighting is static white on every zone.
func DefaultLighting() Lighting {
	return Lighting{R: 255, G: 255, B: 255}
}

func (l Lighting) values() []uint8 {
	return []uint8{l.Mode, l.Zone, l.Speed, l.Brightness, l.Direction, l.R, l.G, l.B}
}

// Store reads and writes the line-per-value settings files. The daemon is the
// only writer.
type Store struct {
	log       *slog.Logger
	dir       string
	nitroPath string
	rgbPath   string
}

func NewStore(log *slog.Logger, cfg config.SettingsConfig) *Store {
	return &Store{
		log:       log,
		dir:       cfg.Dir,
		nitroPath: filepath.Join(cfg.Dir, cfg.NitroFile),
		rgbPath:   filepath.Join(cfg.Dir, cfg.RGBFile),
	}
}

// LoadNitro reports false when the file is missing, short or malformed.
func (s *Store) LoadNitro() (Nitro, bool) {
	v, ok := s.load(s.nitroPath, 6)
	if !ok {
		return Nitro{}, false
	}
	return Nitro{
		CPUMode:            v[0],
		GPUMode:            v[1],
		KbTimeout:          v[2],
		USBCharging:        v[3],
		NitroMode:          v[4],
		BatteryChargeLimit: v[5],
	}, true
}

// LoadNitroOrDefault falls back to all zeros.
func (s *Store) LoadNitroOrDefault() Nitro {
	n, _ := s.LoadNitro()
	return n
}

func (s *Store) SaveNitro(n Nitro) error {
	return s.save(s.nitroPath, n.values())
}

func (s *Store) LoadLighting() (Lighting, bool) {
	v, ok := s.load(s.rgbPath, 8)
	if !ok {
		return DefaultLighting(), false
	}
	return Lighting{
		Mode:       v[0],
		Zone:       v[1],
		Speed:      v[2],
		Brightness: v[3],
		Direction:  v[4],
		R:          v[5],
		G:          v[6],
		B:          v[7],
	}, true
}

func (s *Store) LoadLightingOrDefault() Lighting {
	l, _ := s.LoadLighting()
	return l
}

func (s *Store) SaveLighting(l Lighting) error {
	return s.save(s.rgbPath, l.values())
}

func (s *Store) load(path string, count int) ([]uint8, bool) {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to open settings", slog.String("path", path), sl.Err(err))
		}
		return nil, false
	}
	defer f.Close()

	values := make([]uint8, 0, count)
	scanner := bufio.NewScanner(f)
	for len(values) < count && scanner.Scan() {
		v, err := strconv.ParseUint(strings.TrimSpace(scanner.Text()), 10, 8)
		if err != nil {
			s.log.Warn("malformed settings file",
				slog.String("path", path),
				slog.Int("line", len(values)+1),
				sl.Err(err),
			)
			return nil, false
		}
		values = append(values, uint8(v))
	}

	if len(values) < count {
		s.log.Warn("short settings file",
			slog.String("path", path),
			slog.Int("values", len(values)),
			slog.Int("want", count),
		)
		return nil, false
	}
	return values, true
}

func (s *Store) save(path string, values []uint8) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.Itoa(int(v)))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
