package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ResponseKind string

const (
	KindStatus ResponseKind = "Status"
	KindOk     ResponseKind = "Ok"
	KindError  ResponseKind = "Error"
)

type VoltageInfo struct {
	Voltage     float64 `json:"voltage"`
	MinRecorded float64 `json:"min_recorded"`
	MaxRecorded float64 `json:"max_recorded"`
}

// Status is a full snapshot of sensor and mode state.
type Status struct {
	CPUTemp            uint8         `json:"cpu_temp"`
	GPUTemp            uint8         `json:"gpu_temp"`
	SysTemp            uint8         `json:"sys_temp"`
	CPUFanSpeed        uint16        `json:"cpu_fan_speed"`
	GPUFanSpeed        uint16        `json:"gpu_fan_speed"`
	PowerPluggedIn     bool          `json:"power_plugged_in"`
	BatteryStatus      BatteryStatus `json:"battery_status"`
	CPUMode            FanMode       `json:"cpu_mode"`
	GPUMode            FanMode       `json:"gpu_mode"`
	NitroMode          NitroMode     `json:"nitro_mode"`
	KbTimeout          bool          `json:"kb_timeout"`
	USBCharging        bool          `json:"usb_charging"`
	BatteryChargeLimit bool          `json:"battery_charge_limit"`
	VoltageInfo        VoltageInfo   `json:"voltage_info"`
	UndervoltStatus    string        `json:"undervolt_status"`
	CPUManualLevel     uint8         `json:"cpu_manual_level"`
	GPUManualLevel     uint8         `json:"gpu_manual_level"`
}

// Response is the daemon's reply to one request line.
type Response struct {
	Kind    ResponseKind
	Status  *Status
	Message string
}

func Ok() Response { return Response{Kind: KindOk} }

func Error(msg string) Response { return Response{Kind: KindError, Message: msg} }

func StatusResponse(s Status) Response { return Response{Kind: KindStatus, Status: &s} }

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindOk:
		return json.Marshal(string(KindOk))
	case KindError:
		return json.Marshal(map[ResponseKind]string{KindError: r.Message})
	case KindStatus:
		if r.Status == nil {
			return nil, fmt.Errorf("status response without payload")
		}
		return json.Marshal(map[ResponseKind]*Status{KindStatus: r.Status})
	default:
		return nil, fmt.Errorf("unknown response kind %q", r.Kind)
	}
}

func (r *Response) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return err
		}
		if ResponseKind(kind) != KindOk {
			return fmt.Errorf("unexpected response %q", kind)
		}
		*r = Ok()
		return nil
	}

	var tagged struct {
		Status *Status `json:"Status"`
		Error  *string `json:"Error"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}

	switch {
	case tagged.Status != nil:
		*r = Response{Kind: KindStatus, Status: tagged.Status}
	case tagged.Error != nil:
		*r = Error(*tagged.Error)
	default:
		return fmt.Errorf("unexpected response shape: %s", data)
	}
	return nil
}
