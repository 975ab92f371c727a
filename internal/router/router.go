package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/nitrosense/internal/hwprofile"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/model"
	"github.com/speedwagon-io/nitrosense/internal/settings"
	"github.com/speedwagon-io/nitrosense/internal/voltage"
)

// EC is the register access the router needs. *ec.Channel implements it.
type EC interface {
	Write(address, value uint8)
	Refresh()
	Read(address uint8) uint8
}

// Lighting applies a keyboard backlight configuration.
type Lighting interface {
	Apply(l settings.Lighting)
}

// Recorder journals status samples.
type Recorder interface {
	Record(ctx context.Context, s model.Status) error
}

// Router executes protocol requests against the hardware. It owns the EC
// handle and voltage state and must be driven from a single goroutine.
type Router struct {
	log      *slog.Logger
	ec       EC
	regs     hwprofile.RegisterMap
	voltage  *voltage.Monitor
	settings *settings.Store
	keyboard Lighting
	recorder Recorder
}

func New(
	log *slog.Logger,
	ec EC,
	regs hwprofile.RegisterMap,
	mon *voltage.Monitor,
	store *settings.Store,
	keyboard Lighting,
) *Router {
	return &Router{
		log:      log,
		ec:       ec,
		regs:     regs,
		voltage:  mon,
		settings: store,
		keyboard: keyboard,
	}
}

// SetRecorder enables journaling of GetStatus results.
func (r *Router) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// RestoreNitroMode writes the persisted nitro mode back to the EC. Nothing is
// written when no complete settings file exists.
func (r *Router) RestoreNitroMode() {
	cfg, ok := r.settings.LoadNitro()
	if !ok {
		r.log.Info("no persisted settings, nitro mode left as is")
		return
	}
	r.ec.Write(r.regs.NitroMode, cfg.NitroMode)
	r.log.Info("restored nitro mode", slog.Int("value", int(cfg.NitroMode)))
}

// Handle runs one request to completion. Hardware failures never surface
// here; the only error responses are for mode values with no sentinel.
func (r *Router) Handle(ctx context.Context, req model.Request) model.Response {
	switch req.Kind {
	case model.KindGetStatus:
		return model.StatusResponse(r.status(ctx))

	case model.KindSetCPUFanMode:
		v, ok := fanSentinel(req.FanMode, r.regs.CPUAutoMode, r.regs.CPUTurboMode, r.regs.CPUManualMode)
		if !ok {
			return invalidMode(req.FanMode)
		}
		r.ec.Write(r.regs.CPUFanModeControl, v)
		r.persist(func(n *settings.Nitro) { n.CPUMode = v })

	case model.KindSetGPUFanMode:
		v, ok := fanSentinel(req.FanMode, r.regs.GPUAutoMode, r.regs.GPUTurboMode, r.regs.GPUManualMode)
		if !ok {
			return invalidMode(req.FanMode)
		}
		r.ec.Write(r.regs.GPUFanModeControl, v)
		r.persist(func(n *settings.Nitro) { n.GPUMode = v })

	case model.KindSetCPUFanSpeed:
		r.ec.Write(r.regs.CPUManualSpeedControl, req.Speed)

	case model.KindSetGPUFanSpeed:
		r.ec.Write(r.regs.GPUManualSpeedControl, req.Speed)

	case model.KindSetNitroMode:
		v, ok := nitroSentinel(req.NitroMode, r.regs)
		if !ok {
			return invalidMode(req.NitroMode)
		}
		r.ec.Write(r.regs.NitroMode, v)
		r.persist(func(n *settings.Nitro) { n.NitroMode = v })

	case model.KindSetKbTimeout:
		v := toggle(req.Enabled, r.regs.KbTimeoutOn, r.regs.KbTimeoutOff)
		r.ec.Write(r.regs.KbTimeout, v)
		r.persist(func(n *settings.Nitro) { n.KbTimeout = v })

	case model.KindSetUSBCharging:
		v := toggle(req.Enabled, r.regs.USBChargingOn, r.regs.USBChargingOff)
		r.ec.Write(r.regs.USBCharging, v)
		r.persist(func(n *settings.Nitro) { n.USBCharging = v })

	case model.KindSetBatteryLimit:
		v := toggle(req.Enabled, r.regs.BatteryLimitOn, r.regs.BatteryLimitOff)
		r.ec.Write(r.regs.BatteryChargeLimit, v)
		r.persist(func(n *settings.Nitro) { n.BatteryChargeLimit = v })

	case model.KindSetKeyboardColor:
		r.setKeyboardColor(req.Color)

	case model.KindApplyUndervolt:
		r.voltage.ApplyUndervolt(req.Index)

	default:
		return model.Error(fmt.Sprintf("unsupported request %q", req.Kind))
	}

	return model.Ok()
}

func (r *Router) status(ctx context.Context) model.Status {
	r.ec.Refresh()
	r.voltage.Refresh()

	regs := r.regs
	sample := r.voltage.Sample()

	s := model.Status{
		CPUTemp:            r.ec.Read(regs.CPUTemp),
		GPUTemp:            r.ec.Read(regs.GPUTemp),
		SysTemp:            r.ec.Read(regs.SysTemp),
		CPUFanSpeed:        r.fanSpeed(regs.CPUFanSpeedHigh, regs.CPUFanSpeedLow),
		GPUFanSpeed:        r.fanSpeed(regs.GPUFanSpeedHigh, regs.GPUFanSpeedLow),
		PowerPluggedIn:     r.ec.Read(regs.PowerStatus) == regs.PowerPluggedIn,
		BatteryStatus:      ClassifyBatteryStatus(r.ec.Read(regs.BatteryStatus), regs),
		CPUMode:            ClassifyFanMode(r.ec.Read(regs.CPUFanModeControl), regs.CPUAutoMode, regs.CPUTurboMode, regs.CPUManualMode),
		GPUMode:            ClassifyFanMode(r.ec.Read(regs.GPUFanModeControl), regs.GPUAutoMode, regs.GPUTurboMode, regs.GPUManualMode),
		NitroMode:          ClassifyNitroMode(r.ec.Read(regs.NitroMode), regs),
		KbTimeout:          r.ec.Read(regs.KbTimeout) == regs.KbTimeoutOn,
		USBCharging:        r.ec.Read(regs.USBCharging) == regs.USBChargingOn,
		BatteryChargeLimit: r.ec.Read(regs.BatteryChargeLimit) == regs.BatteryLimitOn,
		VoltageInfo: model.VoltageInfo{
			Voltage:     sample.Voltage,
			MinRecorded: sample.MinRecorded,
			MaxRecorded: sample.MaxRecorded,
		},
		UndervoltStatus: r.voltage.UndervoltStatus(),
		CPUManualLevel:  r.ec.Read(regs.CPUManualSpeedControl),
		GPUManualLevel:  r.ec.Read(regs.GPUManualSpeedControl),
	}

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, s); err != nil {
			r.log.Warn("failed to record status", sl.Err(err))
		}
	}

	return s
}

// fanSpeed combines the two tachometer registers. The register named "low"
// holds the high byte on these machines.
func (r *Router) fanSpeed(high, low uint8) uint16 {
	return uint16(r.ec.Read(low))<<8 | uint16(r.ec.Read(high))
}

func (r *Router) persist(update func(n *settings.Nitro)) {
	cfg := r.settings.LoadNitroOrDefault()
	update(&cfg)
	if err := r.settings.SaveNitro(cfg); err != nil {
		r.log.Error("failed to persist settings", sl.Err(err))
	}
}

// setKeyboardColor switches the backlight to a static colour. Brightness and
// the effect parameters are kept from the persisted lighting config.
func (r *Router) setKeyboardColor(c model.KeyboardColor) {
	l := r.settings.LoadLightingOrDefault()
	l.Mode = 0
	l.Zone = c.Zone
	l.R, l.G, l.B = c.R, c.G, c.B

	r.keyboard.Apply(l)

	if err := r.settings.SaveLighting(l); err != nil {
		r.log.Error("failed to persist lighting", sl.Err(err))
	}
}

func invalidMode(m fmt.Stringer) model.Response {
	return model.Error(fmt.Sprintf("Invalid mode: %s", m))
}
