package ec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

func newDeviceFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "io")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func openFile(t *testing.T, path string) *Channel {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return New(sl.Discard(), f, path)
}

func TestReadBeforeRefreshReturnsZero(t *testing.T) {
	c := openFile(t, newDeviceFile(t, 256))

	if got := c.Read(0x10); got != 0 {
		t.Errorf("Read before Refresh = %d, want 0", got)
	}
}

func TestRefreshAndRead(t *testing.T) {
	c := openFile(t, newDeviceFile(t, 256))
	c.Refresh()

	if c.Len() != 256 {
		t.Fatalf("Len = %d, want 256", c.Len())
	}
	for _, addr := range []uint8{0x00, 0x2C, 0xB0, 0xFF} {
		if got := c.Read(addr); got != addr {
			t.Errorf("Read(%#x) = %#x", addr, got)
		}
	}
}

func TestReadBeyondTruncatedSnapshot(t *testing.T) {
	c := openFile(t, newDeviceFile(t, 16))
	c.Refresh()

	if got := c.Read(0x0F); got != 0x0F {
		t.Errorf("Read(0x0F) = %#x", got)
	}
	if got := c.Read(0x10); got != 0 {
		t.Errorf("Read(0x10) past end = %#x, want 0", got)
	}
	if got := c.Read(0xFF); got != 0 {
		t.Errorf("Read(0xFF) past end = %#x, want 0", got)
	}
}

func TestWriteThenRefresh(t *testing.T) {
	c := openFile(t, newDeviceFile(t, 256))

	c.Write(0x2C, 0x04)
	c.Write(0x22, 0x08)
	c.Refresh()

	if got := c.Read(0x2C); got != 0x04 {
		t.Errorf("Read(0x2C) = %#x, want 0x04", got)
	}
	if got := c.Read(0x22); got != 0x08 {
		t.Errorf("Read(0x22) = %#x, want 0x08", got)
	}
	if got := c.Read(0x23); got != 0x23 {
		t.Errorf("neighbour register changed: %#x", got)
	}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	path := newDeviceFile(t, 256)
	c := openFile(t, path)
	c.Refresh()

	if err := os.Truncate(path, 8); err != nil {
		t.Fatal(err)
	}
	c.Refresh()

	if c.Len() != 8 {
		t.Fatalf("Len = %d, want 8", c.Len())
	}
	if got := c.Read(0x20); got != 0 {
		t.Errorf("stale byte served: %#x", got)
	}
}

type brokenDevice struct{}

var errBroken = errors.New("broken")

func (brokenDevice) Read([]byte) (int, error)       { return 0, errBroken }
func (brokenDevice) Write([]byte) (int, error)      { return 0, errBroken }
func (brokenDevice) Seek(int64, int) (int64, error) { return 0, errBroken }

func TestIOFailuresAreAbsorbed(t *testing.T) {
	c := New(sl.Discard(), brokenDevice{}, "broken")

	c.Write(0x2C, 0x01)
	c.Refresh()

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if got := c.Read(0x2C); got != 0 {
		t.Errorf("Read = %#x, want 0", got)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on non-closer: %v", err)
	}
}

type fakeLoader struct {
	calls  []string
	onLoad func(module string)
}

func (l *fakeLoader) Load(module string, params ...string) error {
	l.calls = append(l.calls, strings.TrimSpace("load "+module+" "+strings.Join(params, " ")))
	if l.onLoad != nil {
		l.onLoad(module)
	}
	return nil
}

func (l *fakeLoader) Unload(module string) error {
	l.calls = append(l.calls, "unload "+module)
	return errors.New("module not loaded")
}

func testECConfig(dir string) config.ECConfig {
	return config.ECConfig{
		ECSysPath:    filepath.Join(dir, "ec_sys_io"),
		ECSysModule:  "ec_sys",
		ACPIECPath:   filepath.Join(dir, "ec"),
		ACPIECModule: "acpi_ec",
	}
}

func TestOpenPrefersECSys(t *testing.T) {
	dir := t.TempDir()
	cfg := testECConfig(dir)
	if err := os.WriteFile(cfg.ECSysPath, make([]byte, 256), 0o600); err != nil {
		t.Fatal(err)
	}
	loader := &fakeLoader{}

	c, err := Open(sl.Discard(), cfg, loader)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Path() != cfg.ECSysPath {
		t.Errorf("Path = %s", c.Path())
	}
	if len(loader.calls) != 0 {
		t.Errorf("unexpected module calls: %v", loader.calls)
	}
}

func TestOpenReloadsECSysWithWriteSupport(t *testing.T) {
	dir := t.TempDir()
	cfg := testECConfig(dir)
	loader := &fakeLoader{onLoad: func(module string) {
		if module == "ec_sys" {
			os.WriteFile(cfg.ECSysPath, make([]byte, 256), 0o600)
		}
	}}

	c, err := Open(sl.Discard(), cfg, loader)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Path() != cfg.ECSysPath {
		t.Errorf("Path = %s", c.Path())
	}
	want := []string{"unload ec_sys", "load ec_sys write_support=1"}
	if strings.Join(loader.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", loader.calls, want)
	}
}

func TestOpenFallsBackToACPIEC(t *testing.T) {
	dir := t.TempDir()
	cfg := testECConfig(dir)
	if err := os.WriteFile(cfg.ACPIECPath, make([]byte, 256), 0o600); err != nil {
		t.Fatal(err)
	}
	loader := &fakeLoader{}

	c, err := Open(sl.Discard(), cfg, loader)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Path() != cfg.ACPIECPath {
		t.Errorf("Path = %s, want acpi_ec path", c.Path())
	}
	if n := len(loader.calls); n != 3 || loader.calls[2] != "load acpi_ec" {
		t.Errorf("calls = %v", loader.calls)
	}
}

func TestOpenNoDevice(t *testing.T) {
	_, err := Open(sl.Discard(), testECConfig(t.TempDir()), &fakeLoader{})
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}
