package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "nitrosense")
	cfg := config.SettingsConfig{Dir: dir, NitroFile: "nitrosense.conf", RGBFile: "rbg.conf"}
	return NewStore(sl.Discard(), cfg), dir
}

func TestNitroRoundTrip(t *testing.T) {
	s, dir := newStore(t)
	want := Nitro{CPUMode: 0x0C, GPUMode: 0x30, KbTimeout: 0x1E, USBCharging: 0x0F, NitroMode: 0x04, BatteryChargeLimit: 0x51}

	if err := s.SaveNitro(want); err != nil {
		t.Fatalf("SaveNitro: %v", err)
	}

	got, ok := s.LoadNitro()
	if !ok || got != want {
		t.Errorf("LoadNitro = %+v, %v; want %+v", got, ok, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, "nitrosense.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12\n48\n30\n15\n4\n81\n" {
		t.Errorf("file = %q", data)
	}
}

func TestNitroMissingFileDefaults(t *testing.T) {
	s, _ := newStore(t)

	if _, ok := s.LoadNitro(); ok {
		t.Error("LoadNitro reported a file that does not exist")
	}
	if got := s.LoadNitroOrDefault(); got != (Nitro{}) {
		t.Errorf("default = %+v, want zeros", got)
	}
}

func TestNitroShortOrMalformedFile(t *testing.T) {
	for name, content := range map[string]string{
		"short":     "1\n2\n3\n",
		"garbage":   "1\n2\nthree\n4\n5\n6\n",
		"overflow":  "1\n2\n300\n4\n5\n6\n",
		"blankline": "1\n\n3\n4\n5\n6\n",
	} {
		t.Run(name, func(t *testing.T) {
			s, dir := newStore(t)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "nitrosense.conf"), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, ok := s.LoadNitro(); ok {
				t.Error("LoadNitro accepted a bad file")
			}
			if got := s.LoadNitroOrDefault(); got != (Nitro{}) {
				t.Errorf("default = %+v", got)
			}
		})
	}
}

func TestNitroTolerantParsing(t *testing.T) {
	s, dir := newStore(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := " 1 \n2\r\n3\n4\n5\n6\nextra\n"
	if err := os.WriteFile(filepath.Join(dir, "nitrosense.conf"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := s.LoadNitro()
	want := Nitro{1, 2, 3, 4, 5, 6}
	if !ok || got != want {
		t.Errorf("LoadNitro = %+v, %v", got, ok)
	}
}

func TestLightingRoundTrip(t *testing.T) {
	s, _ := newStore(t)

	if got := s.LoadLightingOrDefault(); got != DefaultLighting() {
		t.Errorf("default = %+v", got)
	}

	want := Lighting{Mode: 3, Zone: 2, Speed: 4, Brightness: 100, Direction: 1, R: 10, G: 20, B: 30}
	if err := s.SaveLighting(want); err != nil {
		t.Fatalf("SaveLighting: %v", err)
	}
	got, ok := s.LoadLighting()
	if !ok || got != want {
		t.Errorf("LoadLighting = %+v, %v; want %+v", got, ok, want)
	}
}

func TestSaveFailsOnUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(sl.Discard(), config.SettingsConfig{Dir: file, NitroFile: "n", RGBFile: "r"})

	if err := s.SaveNitro(Nitro{}); err == nil {
		t.Error("SaveNitro into a regular file path succeeded")
	}
}
