package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRequest wraps every decode failure of a request line.
var ErrInvalidRequest = errors.New("invalid request")

// MaxUndervoltIndex is the largest dropdown index whose AMD offset code
// (index * 16) still fits an int.
const MaxUndervoltIndex = math.MaxInt / 16

type RequestKind string

const (
	KindGetStatus        RequestKind = "GetStatus"
	KindSetCPUFanMode    RequestKind = "SetCpuFanMode"
	KindSetGPUFanMode    RequestKind = "SetGpuFanMode"
	KindSetCPUFanSpeed   RequestKind = "SetCpuFanSpeed"
	KindSetGPUFanSpeed   RequestKind = "SetGpuFanSpeed"
	KindSetNitroMode     RequestKind = "SetNitroMode"
	KindSetKbTimeout     RequestKind = "SetKbTimeout"
	KindSetUSBCharging   RequestKind = "SetUsbCharging"
	KindSetBatteryLimit  RequestKind = "SetBatteryLimit"
	KindSetKeyboardColor RequestKind = "SetKeyboardColor"
	KindApplyUndervolt   RequestKind = "ApplyUndervolt"
)

// KeyboardColor is the payload of SetKeyboardColor. Zone 0 addresses every
// zone.
type KeyboardColor struct {
	Zone uint8
	R    uint8
	G    uint8
	B    uint8
}

// Request is one client command. Only the field matching Kind is meaningful.
type Request struct {
	Kind RequestKind

	FanMode   FanMode
	NitroMode NitroMode
	Speed     uint8
	Enabled   bool
	Color     KeyboardColor
	Index     int
}

func GetStatus() Request { return Request{Kind: KindGetStatus} }

func SetCPUFanMode(m FanMode) Request { return Request{Kind: KindSetCPUFanMode, FanMode: m} }
func SetGPUFanMode(m FanMode) Request { return Request{Kind: KindSetGPUFanMode, FanMode: m} }
func SetCPUFanSpeed(v uint8) Request  { return Request{Kind: KindSetCPUFanSpeed, Speed: v} }
func SetGPUFanSpeed(v uint8) Request  { return Request{Kind: KindSetGPUFanSpeed, Speed: v} }

func SetNitroMode(m NitroMode) Request { return Request{Kind: KindSetNitroMode, NitroMode: m} }

func SetKbTimeout(on bool) Request    { return Request{Kind: KindSetKbTimeout, Enabled: on} }
func SetUSBCharging(on bool) Request  { return Request{Kind: KindSetUSBCharging, Enabled: on} }
func SetBatteryLimit(on bool) Request { return Request{Kind: KindSetBatteryLimit, Enabled: on} }

func SetKeyboardColor(zone, r, g, b uint8) Request {
	return Request{Kind: KindSetKeyboardColor, Color: KeyboardColor{Zone: zone, R: r, G: g, B: b}}
}

func ApplyUndervolt(index int) Request { return Request{Kind: KindApplyUndervolt, Index: index} }

func (r Request) payload() (any, error) {
	switch r.Kind {
	case KindSetCPUFanMode, KindSetGPUFanMode:
		return r.FanMode, nil
	case KindSetNitroMode:
		return r.NitroMode, nil
	case KindSetCPUFanSpeed, KindSetGPUFanSpeed:
		return r.Speed, nil
	case KindSetKbTimeout, KindSetUSBCharging, KindSetBatteryLimit:
		return r.Enabled, nil
	case KindSetKeyboardColor:
		return []uint16{uint16(r.Color.Zone), uint16(r.Color.R), uint16(r.Color.G), uint16(r.Color.B)}, nil
	case KindApplyUndervolt:
		if r.Index < 0 || r.Index > MaxUndervoltIndex {
			return nil, fmt.Errorf("%w: undervolt index %d out of range", ErrInvalidRequest, r.Index)
		}
		return r.Index, nil
	default:
		return nil, fmt.Errorf("%w: unknown request %q", ErrInvalidRequest, r.Kind)
	}
}

// MarshalJSON writes GetStatus as a bare string and every other request as a
// single-key object holding its payload.
func (r Request) MarshalJSON() ([]byte, error) {
	if r.Kind == KindGetStatus {
		return json.Marshal(string(r.Kind))
	}
	p, err := r.payload()
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[RequestKind]any{r.Kind: p})
}

func (r *Request) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if RequestKind(kind) != KindGetStatus {
			return fmt.Errorf("%w: %q needs a value", ErrInvalidRequest, kind)
		}
		*r = GetStatus()
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: expected exactly one request variant, got %d", ErrInvalidRequest, len(tagged))
	}

	for kind, body := range tagged {
		req, err := decodePayload(RequestKind(kind), body)
		if err != nil {
			return err
		}
		*r = req
	}
	return nil
}

func decodePayload(kind RequestKind, body json.RawMessage) (Request, error) {
	req := Request{Kind: kind}

	if kind != KindGetStatus && bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return Request{}, fmt.Errorf("%w: %s: missing value", ErrInvalidRequest, kind)
	}

	var err error
	switch kind {
	case KindSetCPUFanMode, KindSetGPUFanMode:
		err = json.Unmarshal(body, &req.FanMode)
	case KindSetNitroMode:
		err = json.Unmarshal(body, &req.NitroMode)
	case KindSetCPUFanSpeed, KindSetGPUFanSpeed:
		err = json.Unmarshal(body, &req.Speed)
	case KindSetKbTimeout, KindSetUSBCharging, KindSetBatteryLimit:
		err = json.Unmarshal(body, &req.Enabled)
	case KindSetKeyboardColor:
		req.Color, err = decodeColor(body)
	case KindApplyUndervolt:
		var index uint64
		if err = json.Unmarshal(body, &index); err == nil && index > MaxUndervoltIndex {
			err = fmt.Errorf("%w: undervolt index %d out of range", ErrInvalidRequest, index)
		}
		req.Index = int(index)
	default:
		return Request{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidRequest, kind)
	}

	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return Request{}, fmt.Errorf("%s: %w", kind, err)
		}
		return Request{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, kind, err)
	}
	return req, nil
}

// decodeColor expects [zone, r, g, b].
func decodeColor(body json.RawMessage) (KeyboardColor, error) {
	var nums []json.Number
	if err := json.Unmarshal(body, &nums); err != nil {
		return KeyboardColor{}, err
	}
	if len(nums) != 4 {
		return KeyboardColor{}, fmt.Errorf("%w: expected 4 values, got %d", ErrInvalidRequest, len(nums))
	}

	var vals [4]uint8
	for i, n := range nums {
		if err := json.Unmarshal([]byte(n), &vals[i]); err != nil {
			return KeyboardColor{}, err
		}
	}
	return KeyboardColor{Zone: vals[0], R: vals[1], G: vals[2], B: vals[3]}, nil
}

func (r Request) String() string {
	switch r.Kind {
	case KindGetStatus:
		return string(r.Kind)
	case KindSetKeyboardColor:
		return fmt.Sprintf("%s(%d, %d, %d, %d)", r.Kind, r.Color.Zone, r.Color.R, r.Color.G, r.Color.B)
	}
	p, err := r.payload()
	if err != nil {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s(%v)", r.Kind, p)
}
