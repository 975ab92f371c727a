package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

const unknownVariant = "Unknown"

// ErrUnsetVariant is returned when encoding a mode that was never classified.
var ErrUnsetVariant = errors.New("variant not set")

// FanMode is a classified fan-mode register value. Values outside the named
// set keep the raw byte.
type FanMode struct {
	Name string
	Raw  uint8
}

var (
	FanAuto   = FanMode{Name: "Auto"}
	FanTurbo  = FanMode{Name: "Turbo"}
	FanManual = FanMode{Name: "Manual"}
)

var fanModeNames = []string{"Auto", "Turbo", "Manual"}

func UnknownFanMode(raw uint8) FanMode {
	return FanMode{Name: unknownVariant, Raw: raw}
}

func (m FanMode) IsUnknown() bool { return m.Name == unknownVariant }

func (m FanMode) String() string { return variantString(m.Name, m.Raw) }

func (m FanMode) MarshalJSON() ([]byte, error) {
	return marshalVariant(m.Name, m.Raw)
}

func (m *FanMode) UnmarshalJSON(data []byte) error {
	name, raw, err := unmarshalVariant(data, fanModeNames)
	if err != nil {
		return fmt.Errorf("fan mode: %w", err)
	}
	*m = FanMode{Name: name, Raw: raw}
	return nil
}

// NitroMode is the laptop-wide performance profile.
type NitroMode struct {
	Name string
	Raw  uint8
}

var (
	NitroQuiet   = NitroMode{Name: "Quiet"}
	NitroDefault = NitroMode{Name: "Default"}
	NitroExtreme = NitroMode{Name: "Extreme"}
)

var nitroModeNames = []string{"Quiet", "Default", "Extreme"}

func UnknownNitroMode(raw uint8) NitroMode {
	return NitroMode{Name: unknownVariant, Raw: raw}
}

func (m NitroMode) IsUnknown() bool { return m.Name == unknownVariant }

func (m NitroMode) String() string { return variantString(m.Name, m.Raw) }

func (m NitroMode) MarshalJSON() ([]byte, error) {
	return marshalVariant(m.Name, m.Raw)
}

func (m *NitroMode) UnmarshalJSON(data []byte) error {
	name, raw, err := unmarshalVariant(data, nitroModeNames)
	if err != nil {
		return fmt.Errorf("nitro mode: %w", err)
	}
	*m = NitroMode{Name: name, Raw: raw}
	return nil
}

type BatteryStatus struct {
	Name string
	Raw  uint8
}

var (
	BatteryCharging    = BatteryStatus{Name: "Charging"}
	BatteryDischarging = BatteryStatus{Name: "Discharging"}
	BatteryNotInUse    = BatteryStatus{Name: "NotInUse"}
)

var batteryStatusNames = []string{"Charging", "Discharging", "NotInUse"}

func UnknownBatteryStatus(raw uint8) BatteryStatus {
	return BatteryStatus{Name: unknownVariant, Raw: raw}
}

func (s BatteryStatus) IsUnknown() bool { return s.Name == unknownVariant }

func (s BatteryStatus) String() string { return variantString(s.Name, s.Raw) }

func (s BatteryStatus) MarshalJSON() ([]byte, error) {
	return marshalVariant(s.Name, s.Raw)
}

func (s *BatteryStatus) UnmarshalJSON(data []byte) error {
	name, raw, err := unmarshalVariant(data, batteryStatusNames)
	if err != nil {
		return fmt.Errorf("battery status: %w", err)
	}
	*s = BatteryStatus{Name: name, Raw: raw}
	return nil
}

func variantString(name string, raw uint8) string {
	if name == unknownVariant {
		return fmt.Sprintf("Unknown(%d)", raw)
	}
	return name
}

// Named variants encode as a bare string, Unknown as {"Unknown":raw}.
func marshalVariant(name string, raw uint8) ([]byte, error) {
	if name == "" {
		return nil, ErrUnsetVariant
	}
	if name == unknownVariant {
		return json.Marshal(map[string]uint8{unknownVariant: raw})
	}
	return json.Marshal(name)
}

func unmarshalVariant(data []byte, names []string) (string, uint8, error) {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if !slices.Contains(names, name) {
			return "", 0, fmt.Errorf("%w: unknown variant %q", ErrInvalidRequest, name)
		}
		return name, 0, nil
	}

	var tagged map[string]uint8
	if err := json.Unmarshal(data, &tagged); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	raw, ok := tagged[unknownVariant]
	if !ok || len(tagged) != 1 {
		return "", 0, fmt.Errorf("%w: expected a variant name or {\"Unknown\":n}", ErrInvalidRequest)
	}
	return unknownVariant, raw, nil
}
