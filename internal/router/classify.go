package router

import (
	"github.com/speedwagon-io/nitrosense/internal/hwprofile"
	"github.com/speedwagon-io/nitrosense/internal/model"
)

// Classification is exact-match only and checks sentinels in a fixed order, so
// when two sentinels share a value the earlier name wins.

func ClassifyFanMode(v, auto, turbo, manual uint8) model.FanMode {
	switch v {
	case auto:
		return model.FanAuto
	case turbo:
		return model.FanTurbo
	case manual:
		return model.FanManual
	default:
		return model.UnknownFanMode(v)
	}
}

func ClassifyNitroMode(v uint8, regs hwprofile.RegisterMap) model.NitroMode {
	switch v {
	case regs.QuietMode:
		return model.NitroQuiet
	case regs.DefaultMode:
		return model.NitroDefault
	case regs.ExtremeMode:
		return model.NitroExtreme
	default:
		return model.UnknownNitroMode(v)
	}
}

func ClassifyBatteryStatus(v uint8, regs hwprofile.RegisterMap) model.BatteryStatus {
	switch v {
	case regs.BatteryCharging:
		return model.BatteryCharging
	case regs.BatteryDischarging:
		return model.BatteryDischarging
	case regs.BatteryNotInUse:
		return model.BatteryNotInUse
	default:
		return model.UnknownBatteryStatus(v)
	}
}

// fanSentinel is the inverse of ClassifyFanMode. Unknown modes have no
// sentinel.
func fanSentinel(m model.FanMode, auto, turbo, manual uint8) (uint8, bool) {
	switch m {
	case model.FanAuto:
		return auto, true
	case model.FanTurbo:
		return turbo, true
	case model.FanManual:
		return manual, true
	default:
		return 0, false
	}
}

func nitroSentinel(m model.NitroMode, regs hwprofile.RegisterMap) (uint8, bool) {
	switch m {
	case model.NitroQuiet:
		return regs.QuietMode, true
	case model.NitroDefault:
		return regs.DefaultMode, true
	case model.NitroExtreme:
		return regs.ExtremeMode, true
	default:
		return 0, false
	}
}

func toggle(on bool, onValue, offValue uint8) uint8 {
	if on {
		return onValue
	}
	return offValue
}
