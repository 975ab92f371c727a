package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/model"
)

func openJournal(t *testing.T, maxAge, interval time.Duration) *Journal {
	t.Helper()
	j, err := Open(sl.Discard(), filepath.Join(t.TempDir(), "db", "history.db"), maxAge, interval)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// fakeClock returns a controllable time source.
func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func sampleStatus(temp uint8) model.Status {
	return model.Status{
		CPUTemp:        temp,
		GPUTemp:        temp + 5,
		CPUFanSpeed:    3200,
		CPUMode:        model.FanAuto,
		GPUMode:        model.UnknownFanMode(0x42),
		NitroMode:      model.NitroQuiet,
		BatteryStatus:  model.BatteryCharging,
		PowerPluggedIn: true,
		VoltageInfo:    model.VoltageInfo{Voltage: 1.2},
	}
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, time.Hour, time.Minute)
	clock, advance := fakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	j.now = clock

	for _, temp := range []uint8{50, 60, 70} {
		if err := j.Record(ctx, sampleStatus(temp)); err != nil {
			t.Fatalf("Record: %v", err)
		}
		advance(time.Second)
	}

	count, err := j.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}

	entries, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	e := entries[0]
	if e.CPUTemp != 70 || e.GPUTemp != 75 || e.CPUFanSpeed != 3200 {
		t.Errorf("newest entry = %+v", e)
	}
	if e.CPUMode != "Auto" || e.GPUMode != "Unknown(66)" || e.NitroMode != "Quiet" || e.Battery != "Charging" {
		t.Errorf("modes = %s %s %s %s", e.CPUMode, e.GPUMode, e.NitroMode, e.Battery)
	}
	if !e.PluggedIn || e.Voltage != 1.2 {
		t.Errorf("plugged = %v voltage = %v", e.PluggedIn, e.Voltage)
	}
	if !e.RecordedAt.Equal(time.Date(2024, 5, 1, 12, 0, 2, 0, time.UTC)) {
		t.Errorf("RecordedAt = %v", e.RecordedAt)
	}
	if entries[1].CPUTemp != 60 {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestRecordPrunesOldRows(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, time.Hour, 10*time.Minute)
	clock, advance := fakeClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	j.now = clock

	for i := 0; i < 3; i++ {
		if err := j.Record(ctx, sampleStatus(40)); err != nil {
			t.Fatal(err)
		}
		advance(time.Minute)
	}

	advance(2 * time.Hour)
	if err := j.Record(ctx, sampleStatus(41)); err != nil {
		t.Fatal(err)
	}

	count, err := j.Count(ctx)
	if err != nil || count != 1 {
		t.Errorf("Count after prune = %d, %v; want 1", count, err)
	}
}

func TestPruneRespectsInterval(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, time.Minute, time.Hour)
	clock, advance := fakeClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	j.now = clock

	if err := j.Record(ctx, sampleStatus(40)); err != nil {
		t.Fatal(err)
	}
	advance(5 * time.Minute)
	if err := j.Record(ctx, sampleStatus(41)); err != nil {
		t.Fatal(err)
	}

	// first row is past max age, but the prune interval has not elapsed
	count, _ := j.Count(ctx)
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}

	if err := j.Cleanup(ctx, time.Minute); err != nil {
		t.Fatal(err)
	}
	count, _ = j.Count(ctx)
	if count != 1 {
		t.Errorf("Count after Cleanup = %d, want 1", count)
	}
}
