package voltage

import (
	"log/slog"
)

// Monitor tracks the core voltage envelope and the last undervolt status.
type Monitor struct {
	log     *slog.Logger
	sampler Sampler
	sample  Sample
	status  string
}

// NewMonitor queries the initial undervolt status once.
func NewMonitor(log *slog.Logger, sampler Sampler) *Monitor {
	return &Monitor{
		log:     log,
		sampler: sampler,
		sample:  NewSample(),
		status:  sampler.Status(),
	}
}

// Refresh takes one sample. When the utility gives nothing usable the
// previous sample is kept.
func (m *Monitor) Refresh() {
	v, ok := m.sampler.Sample()
	if !ok {
		m.log.Debug("no voltage sample")
		return
	}
	m.sample.Update(v)
}

func (m *Monitor) ApplyUndervolt(index int) {
	m.status = m.sampler.Apply(index)
	m.log.Info("undervolt applied", slog.Int("index", index))
}

func (m *Monitor) Sample() Sample {
	return m.sample
}

func (m *Monitor) UndervoltStatus() string {
	return m.status
}
