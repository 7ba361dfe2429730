package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/fnstack/internal/scheduler"
)

func TestStepDecayBoundaries(t *testing.T) {
	s := scheduler.NewStepDecay(scheduler.StepDecayConfig{StepSize: 5, Gamma: 0.5})
	lr := float32(1)

	for epoch := 1; epoch <= 10; epoch++ {
		lr = s.Step(lr)[0]
		switch {
		case epoch < 5:
			assert.Equal(t, float32(1), lr, "epoch %d", epoch)
		case epoch < 10:
			assert.Equal(t, float32(0.5), lr, "epoch %d", epoch)
		default:
			assert.Equal(t, float32(0.25), lr, "epoch %d", epoch)
		}
	}
	assert.Equal(t, 10, s.Epoch())
}

func TestStepDecayGroups(t *testing.T) {
	s := scheduler.NewStepDecay(scheduler.StepDecayConfig{StepSize: 1, Gamma: 0.1})
	in := []float32{1, 10}
	out := s.Step(in...)
	assert.InDeltaSlice(t, []float32{0.1, 1}, out, 1e-7)
	assert.Equal(t, []float32{1, 10}, in)
}

func TestStepDecayDefaultsAndReset(t *testing.T) {
	s := scheduler.NewStepDecay(scheduler.StepDecayConfig{})
	assert.InDelta(t, 0.1, s.Step(1)[0], 1e-7)

	s.Reset()
	assert.Zero(t, s.Epoch())
}

func TestLinearShift(t *testing.T) {
	s := scheduler.NewLinearShift(scheduler.LinearShiftConfig{From: 1, To: 0, Start: 2, End: 6})
	want := []float32{1, 1, 0.75, 0.5, 0.25, 0, 0}

	for i, w := range want {
		got := s.Step(123)
		assert.InDelta(t, w, got[0], 1e-6, "epoch %d", i+1)
	}
	assert.Equal(t, len(want), s.Epoch())

	s.Reset()
	assert.Equal(t, []float32{1, 1}, s.Step(5, 6))
}

func TestLinearShiftInstantSwitch(t *testing.T) {
	s := scheduler.NewLinearShift(scheduler.LinearShiftConfig{From: 2, To: 4, Start: 3, End: 1})
	var got []float32
	for range 4 {
		got = append(got, s.Step(0)[0])
	}
	assert.Equal(t, []float32{2, 2, 2, 4}, got)
}

var _ scheduler.Scheduler = (*scheduler.StepDecay)(nil)
var _ scheduler.Scheduler = (*scheduler.LinearShift)(nil)
