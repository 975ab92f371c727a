package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/speedwagon-io/nitrosense/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		args []string
		want model.Request
	}{
		{nil, model.GetStatus()},
		{[]string{"status"}, model.GetStatus()},
		{[]string{"cpu-fan", "auto"}, model.SetCPUFanMode(model.FanAuto)},
		{[]string{"gpu-fan", "Turbo"}, model.SetGPUFanMode(model.FanTurbo)},
		{[]string{"cpu-speed", "128"}, model.SetCPUFanSpeed(128)},
		{[]string{"gpu-speed", "0"}, model.SetGPUFanSpeed(0)},
		{[]string{"nitro", "quiet"}, model.SetNitroMode(model.NitroQuiet)},
		{[]string{"kb-timeout", "on"}, model.SetKbTimeout(true)},
		{[]string{"usb-charging", "off"}, model.SetUSBCharging(false)},
		{[]string{"battery-limit", "true"}, model.SetBatteryLimit(true)},
		{[]string{"kb-color", "0", "255", "16", "0"}, model.SetKeyboardColor(0, 255, 16, 0)},
		{[]string{"undervolt", "3"}, model.ApplyUndervolt(3)},
	}

	for _, tt := range tests {
		got, err := Parse(tt.args)
		if err != nil {
			t.Errorf("Parse(%v): %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%v) = %s, want %s", tt.args, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	bad := [][]string{
		{"reboot"},
		{"status", "now"},
		{"cpu-fan"},
		{"cpu-fan", "warp"},
		{"cpu-speed", "256"},
		{"cpu-speed", "-1"},
		{"nitro", "max"},
		{"kb-timeout", "maybe"},
		{"kb-color", "1", "2", "3"},
		{"kb-color", "5", "0", "0", "0"},
		{"undervolt", "-1"},
		{"undervolt", "x"},
	}
	for _, args := range bad {
		_, err := Parse(args)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("Parse(%v) = %v, want ErrUsage", args, err)
		}
	}
}

func TestPrintOk(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, model.Ok()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ok\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, model.Error("Invalid mode"))
	if err == nil || !strings.Contains(err.Error(), "Invalid mode") {
		t.Errorf("err = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	resp := model.StatusResponse(model.Status{
		CPUTemp:         58,
		CPUFanSpeed:     2400,
		CPUMode:         model.FanAuto,
		GPUMode:         model.UnknownFanMode(0x42),
		NitroMode:       model.NitroExtreme,
		BatteryStatus:   model.BatteryDischarging,
		VoltageInfo:     model.VoltageInfo{Voltage: 1.1, MinRecorded: 0.95, MaxRecorded: 1.35},
		UndervoltStatus: "0\t72\t22.50\t2250\t10.00",
	})
	if err := Print(&buf, resp); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"58°C",
		"2400 RPM",
		"Auto",
		"Unknown(66)",
		"Extreme",
		"on battery",
		"Discharging",
		"1.100 V",
		"min 0.950  max 1.350",
		"Undervolt:\n0\t72",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
