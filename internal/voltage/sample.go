package voltage

// Initial envelope bounds. The min starts above and the max below any real
// core voltage so the first sample sets both.
const (
	initialVoltage = 0.5
	initialMin     = 2.0
	initialMax     = 0.0
)

// Sample is the current core voltage plus the widest range seen since the
// daemon started.
type Sample struct {
	Voltage     float64
	MinRecorded float64
	MaxRecorded float64
}

func NewSample() Sample {
	return Sample{
		Voltage:     initialVoltage,
		MinRecorded: initialMin,
		MaxRecorded: initialMax,
	}
}

// Update records v. The envelope only ever widens.
func (s *Sample) Update(v float64) {
	s.Voltage = v
	if v < s.MinRecorded {
		s.MinRecorded = v
	}
	if v > s.MaxRecorded {
		s.MaxRecorded = v
	}
}
