// Package scheduler provides epoch-indexed hyperparameter schedules.
//
// A Scheduler holds no reference to the optimizer: the caller feeds the
// current value in and writes the returned value back.
//
//	sched := scheduler.NewStepDecay(scheduler.StepDecayConfig{StepSize: 10, Gamma: 0.5})
//	for epoch := range epochs {
//	    train(...)
//	    opt.SetLR(sched.Step(opt.LR())[0])
//	}
package scheduler

// Scheduler maps hyperparameter values to their values for the next epoch.
type Scheduler interface {
	// Step advances the epoch by one and returns the scheduled values, one
	// per input value.
	Step(values ...float32) []float32

	// Epoch returns the number of Step calls since creation or Reset.
	Epoch() int

	// Reset returns the schedule to epoch zero.
	Reset()
}

// StepDecayConfig configures StepDecay.
type StepDecayConfig struct {
	StepSize int     // Epochs between decays (default: 1)
	Gamma    float32 // Multiplicative factor (default: 0.1)
}

// StepDecay multiplies the values by Gamma every StepSize epochs and leaves
// them unchanged otherwise.
type StepDecay struct {
	stepSize int
	gamma    float32
	epoch    int
}

// NewStepDecay creates a StepDecay schedule.
func NewStepDecay(config StepDecayConfig) *StepDecay {
	if config.StepSize <= 0 {
		config.StepSize = 1
	}
	if config.Gamma == 0 {
		config.Gamma = 0.1
	}
	return &StepDecay{stepSize: config.StepSize, gamma: config.Gamma}
}

// Step implements Scheduler.
func (s *StepDecay) Step(values ...float32) []float32 {
	s.epoch++
	out := make([]float32, len(values))
	copy(out, values)
	if s.epoch%s.stepSize == 0 {
		for i := range out {
			out[i] *= s.gamma
		}
	}
	return out
}

// Epoch implements Scheduler.
func (s *StepDecay) Epoch() int { return s.epoch }

// Reset implements Scheduler.
func (s *StepDecay) Reset() { s.epoch = 0 }

// LinearShiftConfig configures LinearShift.
type LinearShiftConfig struct {
	From  float32 // Value up to and including epoch Start
	To    float32 // Value from epoch End on
	Start int     // First epoch of the ramp
	End   int     // Last epoch of the ramp
}

// LinearShift ramps linearly from From to To between epochs Start and End
// and holds the bound outside that window. The result does not depend on
// the input values, only on how many there are.
type LinearShift struct {
	cfg   LinearShiftConfig
	epoch int
}

// NewLinearShift creates a LinearShift schedule. End before Start is
// treated as an instant switch at Start.
func NewLinearShift(config LinearShiftConfig) *LinearShift {
	if config.End < config.Start {
		config.End = config.Start
	}
	return &LinearShift{cfg: config}
}

// Step implements Scheduler.
func (s *LinearShift) Step(values ...float32) []float32 {
	s.epoch++
	v := s.at(s.epoch)
	out := make([]float32, len(values))
	for i := range out {
		out[i] = v
	}
	return out
}

func (s *LinearShift) at(epoch int) float32 {
	c := s.cfg
	switch {
	case epoch <= c.Start:
		return c.From
	case epoch >= c.End:
		return c.To
	}
	frac := float32(epoch-c.Start) / float32(c.End-c.Start)
	return c.From + (c.To-c.From)*frac
}

// Epoch implements Scheduler.
func (s *LinearShift) Epoch() int { return s.epoch }

// Reset implements Scheduler.
func (s *LinearShift) Reset() { s.epoch = 0 }
