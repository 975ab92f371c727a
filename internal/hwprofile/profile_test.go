package hwprofile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		model   string
		family  string
		matched string
		ok      bool
	}{
		{"Nitro AN515-46", "AN515-46", "Nitro AN515-46", true},
		{"Nitro AN515-44", "AN515-44", "Nitro AN515-44", true},
		{"Nitro AN515-58", "AN515-46", "Nitro AN515-58", true},
		{"Nitro AN515-46-Rev2", "AN515-46", "Nitro AN515-46", true},
		{"Acer Nitro AN515-44 (2020)", "AN515-44", "Nitro AN515-44", true},
		{"Aspire A515-54", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		regs, matched, ok := Resolve(tt.model)
		if ok != tt.ok {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.model, ok, tt.ok)
			continue
		}
		if regs.Family != tt.family || matched != tt.matched {
			t.Errorf("Resolve(%q) = (%s, %q), want (%s, %q)", tt.model, regs.Family, matched, tt.family, tt.matched)
		}
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	regs, _, _ := Resolve("Nitro AN515-46")
	regs.NitroMode = 0xFF

	again, _, _ := Resolve("Nitro AN515-46")
	if again.NitroMode != 0x2C {
		t.Errorf("package table was mutated: NitroMode = %#x", again.NitroMode)
	}
}

func TestParseVendor(t *testing.T) {
	tests := []struct {
		in   string
		want CPUVendor
	}{
		{"vendor_id\t: AuthenticAMD\nmodel name\t: AMD Ryzen 7 5800H", VendorAMD},
		{"vendor_id\t: GenuineIntel\nmodel name\t: Intel(R) Core(TM) i7-10750H", VendorIntel},
		{"model name : something with amd and intel", VendorAMD},
		{"processor : 0\nvendor_id : ARM", VendorUnknown},
		{"", VendorUnknown},
	}
	for _, tt := range tests {
		if got := ParseVendor(tt.in); got != tt.want {
			t.Errorf("ParseVendor(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	product := filepath.Join(dir, "product_name")
	cpuinfo := filepath.Join(dir, "cpuinfo")
	writeFile(t, product, "Nitro AN515-46-Rev2\n")
	writeFile(t, cpuinfo, "vendor_id\t: AuthenticAMD\n")

	p, err := Detect(sl.Discard(), config.HardwareConfig{ProductNamePath: product, CPUInfoPath: cpuinfo})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if p.Model != "Nitro AN515-46-Rev2" || p.MatchedAs != "Nitro AN515-46" {
		t.Errorf("model = %q matched = %q", p.Model, p.MatchedAs)
	}
	if p.Registers.Family != "AN515-46" || p.Vendor != VendorAMD {
		t.Errorf("family = %s vendor = %s", p.Registers.Family, p.Vendor)
	}
}

func TestDetectUnsupported(t *testing.T) {
	dir := t.TempDir()
	product := filepath.Join(dir, "product_name")
	writeFile(t, product, "Predator PH315-53\n")

	_, err := Detect(sl.Discard(), config.HardwareConfig{
		ProductNamePath: product,
		CPUInfoPath:     filepath.Join(dir, "missing"),
	})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("err = %v, want ErrUnsupportedModel", err)
	}
}

func TestDetectMissingSources(t *testing.T) {
	dir := t.TempDir()
	_, err := Detect(sl.Discard(), config.HardwareConfig{
		ProductNamePath: filepath.Join(dir, "none"),
		CPUInfoPath:     filepath.Join(dir, "none"),
	})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("err = %v, want ErrUnsupportedModel", err)
	}
}

func TestSupportedModels(t *testing.T) {
	models := SupportedModels()
	if len(models) != 6 || models[0] != "Nitro AN515-44" {
		t.Errorf("SupportedModels() = %v", models)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
