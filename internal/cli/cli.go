package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/speedwagon-io/nitrosense/internal/model"
)

var ErrUsage = errors.New("usage error")

const Usage = `usage: nitrosense [-config path] <command> [args]
       nitrosense -daemon [-config path]

commands:
  status                            show sensors, modes and voltage
  cpu-fan auto|turbo|manual         set CPU fan mode
  gpu-fan auto|turbo|manual         set GPU fan mode
  cpu-speed N                       set CPU manual fan level (0-255)
  gpu-speed N                       set GPU manual fan level (0-255)
  nitro quiet|default|extreme       set performance profile
  kb-timeout on|off                 keyboard backlight 30s timeout
  usb-charging on|off               power USB ports while off
  battery-limit on|off              cap battery charge
  kb-color ZONE R G B               static keyboard colour, zone 0 is all
  undervolt INDEX                   apply undervolt offset
`

// Parse turns command-line arguments into a request.
func Parse(args []string) (model.Request, error) {
	if len(args) == 0 {
		return model.GetStatus(), nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		if err := arity(cmd, rest, 0); err != nil {
			return model.Request{}, err
		}
		return model.GetStatus(), nil

	case "cpu-fan", "gpu-fan":
		if err := arity(cmd, rest, 1); err != nil {
			return model.Request{}, err
		}
		m, err := parseFanMode(rest[0])
		if err != nil {
			return model.Request{}, err
		}
		if cmd == "cpu-fan" {
			return model.SetCPUFanMode(m), nil
		}
		return model.SetGPUFanMode(m), nil

	case "cpu-speed", "gpu-speed":
		if err := arity(cmd, rest, 1); err != nil {
			return model.Request{}, err
		}
		v, err := parseByte(rest[0])
		if err != nil {
			return model.Request{}, err
		}
		if cmd == "cpu-speed" {
			return model.SetCPUFanSpeed(v), nil
		}
		return model.SetGPUFanSpeed(v), nil

	case "nitro":
		if err := arity(cmd, rest, 1); err != nil {
			return model.Request{}, err
		}
		m, err := parseNitroMode(rest[0])
		if err != nil {
			return model.Request{}, err
		}
		return model.SetNitroMode(m), nil

	case "kb-timeout", "usb-charging", "battery-limit":
		if err := arity(cmd, rest, 1); err != nil {
			return model.Request{}, err
		}
		on, err := parseSwitch(rest[0])
		if err != nil {
			return model.Request{}, err
		}
		switch cmd {
		case "kb-timeout":
			return model.SetKbTimeout(on), nil
		case "usb-charging":
			return model.SetUSBCharging(on), nil
		default:
			return model.SetBatteryLimit(on), nil
		}

	case "kb-color":
		if err := arity(cmd, rest, 4); err != nil {
			return model.Request{}, err
		}
		var v [4]uint8
		for i, s := range rest {
			b, err := parseByte(s)
			if err != nil {
				return model.Request{}, err
			}
			v[i] = b
		}
		if v[0] > 4 {
			return model.Request{}, fmt.Errorf("%w: zone must be 0-4", ErrUsage)
		}
		return model.SetKeyboardColor(v[0], v[1], v[2], v[3]), nil

	case "undervolt":
		if err := arity(cmd, rest, 1); err != nil {
			return model.Request{}, err
		}
		idx, err := strconv.Atoi(rest[0])
		if err != nil || idx < 0 {
			return model.Request{}, fmt.Errorf("%w: undervolt index must be a non-negative integer", ErrUsage)
		}
		return model.ApplyUndervolt(idx), nil

	default:
		return model.Request{}, fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func arity(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrUsage, cmd, n, len(args))
	}
	return nil
}

func parseFanMode(s string) (model.FanMode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return model.FanAuto, nil
	case "turbo":
		return model.FanTurbo, nil
	case "manual":
		return model.FanManual, nil
	}
	return model.FanMode{}, fmt.Errorf("%w: fan mode %q", ErrUsage, s)
}

func parseNitroMode(s string) (model.NitroMode, error) {
	switch strings.ToLower(s) {
	case "quiet":
		return model.NitroQuiet, nil
	case "default":
		return model.NitroDefault, nil
	case "extreme":
		return model.NitroExtreme, nil
	}
	return model.NitroMode{}, fmt.Errorf("%w: nitro mode %q", ErrUsage, s)
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrUsage, s)
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a value between 0 and 255", ErrUsage, s)
	}
	return uint8(v), nil
}

// Print writes resp for a human. An Error response is returned as an error
// instead.
func Print(w io.Writer, resp model.Response) error {
	switch resp.Kind {
	case model.KindOk:
		_, err := fmt.Fprintln(w, "ok")
		return err
	case model.KindError:
		return fmt.Errorf("daemon: %s", resp.Message)
	case model.KindStatus:
		if resp.Status == nil {
			return errors.New("status response without payload")
		}
		return printStatus(w, *resp.Status)
	default:
		return fmt.Errorf("unexpected response %q", resp.Kind)
	}
}

func printStatus(w io.Writer, s model.Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "CPU temp\t%d°C\n", s.CPUTemp)
	fmt.Fprintf(tw, "GPU temp\t%d°C\n", s.GPUTemp)
	fmt.Fprintf(tw, "System temp\t%d°C\n", s.SysTemp)
	fmt.Fprintf(tw, "CPU fan\t%d RPM\t%s (manual level %d)\n", s.CPUFanSpeed, s.CPUMode, s.CPUManualLevel)
	fmt.Fprintf(tw, "GPU fan\t%d RPM\t%s (manual level %d)\n", s.GPUFanSpeed, s.GPUMode, s.GPUManualLevel)
	fmt.Fprintf(tw, "Nitro mode\t%s\n", s.NitroMode)
	fmt.Fprintf(tw, "Power\t%s\n", onOff(s.PowerPluggedIn, "plugged in", "on battery"))
	fmt.Fprintf(tw, "Battery\t%s\n", s.BatteryStatus)
	fmt.Fprintf(tw, "Battery limit\t%s\n", onOff(s.BatteryChargeLimit, "on", "off"))
	fmt.Fprintf(tw, "USB charging\t%s\n", onOff(s.USBCharging, "on", "off"))
	fmt.Fprintf(tw, "KB timeout\t%s\n", onOff(s.KbTimeout, "on", "off"))
	fmt.Fprintf(tw, "Voltage\t%.3f V\tmin %.3f  max %.3f\n",
		s.VoltageInfo.Voltage, s.VoltageInfo.MinRecorded, s.VoltageInfo.MaxRecorded)

	if err := tw.Flush(); err != nil {
		return err
	}

	if s.UndervoltStatus != "" {
		if _, err := fmt.Fprintf(w, "\nUndervolt:\n%s\n", s.UndervoltStatus); err != nil {
			return err
		}
	}
	return nil
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}
