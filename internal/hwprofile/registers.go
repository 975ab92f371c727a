package hwprofile

// RegisterMap holds the EC addresses and sentinel values for one model family.
// Values are copied out of the package tables, so a RegisterMap handed to the
// daemon is never mutated.
type RegisterMap struct {
	Family string

	GPUFanModeControl     uint8
	GPUAutoMode           uint8
	GPUTurboMode          uint8
	GPUManualMode         uint8
	GPUManualSpeedControl uint8

	CPUFanModeControl     uint8
	CPUAutoMode           uint8
	CPUTurboMode          uint8
	CPUManualMode         uint8
	CPUManualSpeedControl uint8

	KbTimeout    uint8
	KbTimeoutOff uint8
	KbTimeoutOn  uint8

	CPUFanSpeedHigh uint8
	CPUFanSpeedLow  uint8
	GPUFanSpeedHigh uint8
	GPUFanSpeedLow  uint8

	CPUTemp uint8
	GPUTemp uint8
	SysTemp uint8

	PowerStatus    uint8
	PowerPluggedIn uint8
	PowerUnplugged uint8

	BatteryChargeLimit uint8
	BatteryLimitOn     uint8
	BatteryLimitOff    uint8

	BatteryStatus      uint8
	BatteryCharging    uint8
	BatteryDischarging uint8
	BatteryNotInUse    uint8

	USBCharging    uint8
	USBChargingOn  uint8
	USBChargingOff uint8

	NitroMode   uint8
	QuietMode   uint8
	DefaultMode uint8
	ExtremeMode uint8
}

// AN515-46 family, also used by AN515-54/56/57/58.
var an51546 = RegisterMap{
	Family: "AN515-46",

	GPUFanModeControl:     0x21,
	GPUAutoMode:           0x10,
	GPUTurboMode:          0x20,
	GPUManualMode:         0x30,
	GPUManualSpeedControl: 0x3A,

	CPUFanModeControl:     0x22,
	CPUAutoMode:           0x04,
	CPUTurboMode:          0x08,
	CPUManualMode:         0x0C,
	CPUManualSpeedControl: 0x37,

	KbTimeout:    0x06,
	KbTimeoutOff: 0x00,
	KbTimeoutOn:  0x1E,

	CPUFanSpeedHigh: 0x13,
	CPUFanSpeedLow:  0x14,
	GPUFanSpeedHigh: 0x15,
	GPUFanSpeedLow:  0x16,

	CPUTemp: 0xB0,
	GPUTemp: 0xB6,
	SysTemp: 0xB3,

	PowerStatus:    0x00,
	PowerPluggedIn: 0x01,
	PowerUnplugged: 0x00,

	BatteryChargeLimit: 0x03,
	BatteryLimitOn:     0x51,
	BatteryLimitOff:    0x11,

	BatteryStatus:      0xC1,
	BatteryCharging:    0x02,
	BatteryDischarging: 0x01,
	BatteryNotInUse:    0x00,

	USBCharging:    0x08,
	USBChargingOn:  0x0F,
	USBChargingOff: 0x1F,

	NitroMode:   0x2C,
	QuietMode:   0x00,
	DefaultMode: 0x01,
	ExtremeMode: 0x04,
}

// AN515-44 differs in the GPU/system temperature and battery limit registers.
var an51544 = RegisterMap{
	Family: "AN515-44",

	GPUFanModeControl:     0x21,
	GPUAutoMode:           0x10,
	GPUTurboMode:          0x20,
	GPUManualMode:         0x30,
	GPUManualSpeedControl: 0x3A,

	CPUFanModeControl:     0x22,
	CPUAutoMode:           0x04,
	CPUTurboMode:          0x08,
	CPUManualMode:         0x0C,
	CPUManualSpeedControl: 0x37,

	KbTimeout:    0x06,
	KbTimeoutOff: 0x00,
	KbTimeoutOn:  0x1E,

	CPUFanSpeedHigh: 0x13,
	CPUFanSpeedLow:  0x14,
	GPUFanSpeedHigh: 0x15,
	GPUFanSpeedLow:  0x16,

	CPUTemp: 0xB0,
	GPUTemp: 0xB4,
	SysTemp: 0xB0,

	PowerStatus:    0x00,
	PowerPluggedIn: 0x01,
	PowerUnplugged: 0x00,

	BatteryChargeLimit: 0x03,
	BatteryLimitOn:     0x40,
	BatteryLimitOff:    0x00,

	BatteryStatus:      0xC1,
	BatteryCharging:    0x02,
	BatteryDischarging: 0x01,
	BatteryNotInUse:    0x00,

	USBCharging:    0x08,
	USBChargingOn:  0x0F,
	USBChargingOff: 0x1F,

	NitroMode:   0x2C,
	QuietMode:   0x00,
	DefaultMode: 0x01,
	ExtremeMode: 0x04,
}

type knownModel struct {
	name string
	regs *RegisterMap
}

// Order matters for the substring fallback: the first listed name contained
// in the detected string wins.
var knownModels = []knownModel{
	{"Nitro AN515-44", &an51544},
	{"Nitro AN515-46", &an51546},
	{"Nitro AN515-54", &an51546},
	{"Nitro AN515-56", &an51546},
	{"Nitro AN515-57", &an51546},
	{"Nitro AN515-58", &an51546},
}

// SupportedModels lists the model names the daemon knows register maps for.
func SupportedModels() []string {
	names := make([]string, 0, len(knownModels))
	for _, m := range knownModels {
		names = append(names, m.name)
	}
	return names
}
