package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/tensor"
)

func newTestLinear(t *testing.T, w, b []float32, cfg LinearConfig) *Linear {
	t.Helper()
	l := NewLinear("fc", cfg)
	copy(l.Weight().Data(), w)
	if b != nil {
		copy(l.Bias().Data(), b)
	}
	return l
}

func randomTensor(rng *rand.Rand, shape tensor.Shape, batch int) *tensor.Tensor {
	x := tensor.Zeros(shape, batch)
	for i := range x.Data() {
		x.Data()[i] = float32(rng.NormFloat64())
	}
	return x
}

func TestLinearCreation(t *testing.T) {
	l := NewLinear("fc1", LinearConfig{In: 4, Out: 3})

	assert.Equal(t, 4, l.In())
	assert.Equal(t, 3, l.Out())
	assert.Equal(t, tensor.Shape{3, 4}, l.Weight().Shape())
	assert.Equal(t, tensor.Shape{3}, l.Bias().Shape())
	assert.Equal(t, "fc1.w", l.Weight().Name())
	assert.Equal(t, "fc1.b", l.Bias().Name())
	assert.Len(t, l.Parameters(), 2)
	assert.Nil(t, l.Activation())

	for _, v := range l.Bias().Data() {
		assert.Zero(t, v)
	}
	bound := float32(1.07) // sqrt(6/7)
	for _, v := range l.Weight().Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}

	noBias := NewLinear("fc2", LinearConfig{In: 2, Out: 2, NoBias: true})
	assert.Nil(t, noBias.Bias())
	assert.Len(t, noBias.Parameters(), 1)

	assert.Panics(t, func() { NewLinear("bad", LinearConfig{In: 0, Out: 2}) })
}

func TestLinearForward(t *testing.T) {
	for _, accelerated := range []bool{false, true} {
		l := newTestLinear(t,
			[]float32{1, 2, 3, 4, 5, 6},
			[]float32{0.5, -1},
			LinearConfig{In: 3, Out: 2, Accelerated: accelerated})

		x, err := tensor.FromSlice([]float32{1, 0, -1, 2, 1, 0}, tensor.Shape{3}, 2)
		require.NoError(t, err)

		ys, err := l.Forward(x)
		require.NoError(t, err)
		y := ys[0]
		assert.Equal(t, tensor.Shape{2}, y.Shape())
		assert.Equal(t, 2, y.BatchCount())

		// Sample 0: [1-3+0.5, 4-6-1], sample 1: [2+2+0.5, 8+5-1]
		want := []float32{-1.5, -3, 4.5, 12}
		for i, v := range want {
			assert.True(t, floatEqual(v, y.Data()[i], 1e-5), "accelerated=%v y[%d]=%v want %v", accelerated, i, y.Data()[i], v)
		}
	}
}

func TestLinearShapeError(t *testing.T) {
	l := NewLinear("fc", LinearConfig{In: 3, Out: 2})
	x := tensor.Zeros(tensor.Shape{4}, 1)

	_, err := l.Forward(x)
	assert.ErrorIs(t, err, errs.ErrShape)
	assert.Zero(t, l.Pending())
	assert.Zero(t, x.UseCount())
}

func TestLinearReLUGradient(t *testing.T) {
	// z = W x + b = [1+3, 1-2] = [4, -1]; relu masks the second row.
	l := newTestLinear(t,
		[]float32{1, 0, 1, 1, 1, 0},
		[]float32{0, 0},
		LinearConfig{In: 3, Out: 2})
	relu := NewReLU("relu")

	x, err := tensor.FromSlice([]float32{1, -2, 3}, tensor.Shape{3}, 1)
	require.NoError(t, err)

	hs, err := l.Forward(x)
	require.NoError(t, err)
	ys, err := relu.Forward(hs[0])
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 0}, ys[0].Data())

	// Upstream g = [0.5, 2]; the mask leaves [0.5, 0], so dW = [0.5, 0] ⊗ x.
	require.NoError(t, ys[0].InitGrad())
	copy(ys[0].Grad(), []float32{0.5, 2})
	_, err = relu.Backward(ys[0])
	require.NoError(t, err)
	_, err = l.Backward(hs[0])
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -1, 1.5, 0, 0, 0}, l.Weight().Grad())
	assert.Equal(t, []float32{0.5, 0}, l.Bias().Grad())
	assert.Equal(t, []float32{0.5, 0, 0.5}, x.Grad())
	assert.Equal(t, 1, l.Weight().TrainCount())
	assert.Equal(t, 1, l.Bias().TrainCount())
}

func TestLinearFusedMatchesUnfused(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := randomTensor(rng, tensor.Shape{4, 5}, 1).Data()
	b := randomTensor(rng, tensor.Shape{4}, 1).Data()
	x := randomTensor(rng, tensor.Shape{5}, 3)

	plain := newTestLinear(t, w, b, LinearConfig{In: 5, Out: 4})
	act := NewLeakyReLU("act", 0.1)
	fused := newTestLinear(t, w, b, LinearConfig{In: 5, Out: 4})
	require.NoError(t, fused.SetActivation(act.Activator()))

	x1, x2 := x.Clone(), x.Clone()

	hs, err := plain.Forward(x1)
	require.NoError(t, err)
	ys, err := act.Forward(hs[0])
	require.NoError(t, err)
	fys, err := fused.Forward(x2)
	require.NoError(t, err)
	assert.Equal(t, ys[0].Data(), fys[0].Data())

	require.NoError(t, ys[0].InitGradOnes())
	require.NoError(t, fys[0].InitGradOnes())
	_, err = act.Backward(ys[0])
	require.NoError(t, err)
	_, err = plain.Backward(hs[0])
	require.NoError(t, err)
	_, err = fused.Backward(fys[0])
	require.NoError(t, err)

	assert.InDeltaSlice(t, plain.Weight().Grad(), fused.Weight().Grad(), 1e-5)
	assert.InDeltaSlice(t, plain.Bias().Grad(), fused.Bias().Grad(), 1e-5)
	assert.InDeltaSlice(t, x1.Grad(), x2.Grad(), 1e-5)
}

func TestLinearSetActivation(t *testing.T) {
	l := NewLinear("fc", LinearConfig{In: 2, Out: 2})
	require.NoError(t, l.SetActivation(ReLU{}))
	assert.Equal(t, "relu", l.Activation().Name())

	err := l.SetActivation(Tanh{})
	assert.ErrorIs(t, err, errs.ErrState)

	busy := NewLinear("busy", LinearConfig{In: 2, Out: 2})
	_, err = busy.Forward(tensor.Zeros(tensor.Shape{2}, 1))
	require.NoError(t, err)
	assert.ErrorIs(t, busy.SetActivation(ReLU{}), errs.ErrState)
}

func TestLinearAcceleratedMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := randomTensor(rng, tensor.Shape{6, 8}, 1).Data()
	b := randomTensor(rng, tensor.Shape{6}, 1).Data()
	x := randomTensor(rng, tensor.Shape{8}, 40)

	ref := newTestLinear(t, w, b, LinearConfig{In: 8, Out: 6, Activation: Sigmoid{}})
	fast := newTestLinear(t, w, b, LinearConfig{In: 8, Out: 6, Activation: Sigmoid{}})
	fast.SetAccelerated(true)
	require.True(t, fast.Accelerated())

	xr, xf := x.Clone(), x.Clone()
	yr, err := ref.Forward(xr)
	require.NoError(t, err)
	yf, err := fast.Forward(xf)
	require.NoError(t, err)
	assert.InDeltaSlice(t, yr[0].Data(), yf[0].Data(), 1e-5)

	require.NoError(t, yr[0].InitGradOnes())
	require.NoError(t, yf[0].InitGradOnes())
	_, err = ref.Backward(yr[0])
	require.NoError(t, err)
	_, err = fast.Backward(yf[0])
	require.NoError(t, err)

	assert.InDeltaSlice(t, ref.Weight().Grad(), fast.Weight().Grad(), 1e-4)
	assert.InDeltaSlice(t, ref.Bias().Grad(), fast.Bias().Grad(), 1e-4)
	assert.InDeltaSlice(t, xr.Grad(), xf.Grad(), 1e-4)
}

// Weight gradient against a central difference of sum(r * y).
func TestLinearNumericGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	l := NewLinear("fc", LinearConfig{In: 3, Out: 2, Activation: Tanh{}})
	x := randomTensor(rng, tensor.Shape{3}, 2)
	r := randomTensor(rng, tensor.Shape{2}, 2).Data()

	objective := func() float64 {
		ys, err := l.Predict(x)
		require.NoError(t, err)
		var sum float64
		for i, v := range ys[0].Data() {
			sum += float64(r[i] * v)
		}
		return sum
	}

	ys, err := l.Forward(x)
	require.NoError(t, err)
	require.NoError(t, ys[0].InitGrad())
	copy(ys[0].Grad(), r)
	_, err = l.Backward(ys[0])
	require.NoError(t, err)

	const h = 1e-2
	w := l.Weight().Data()
	for i := range w {
		orig := w[i]
		w[i] = orig + h
		plus := objective()
		w[i] = orig - h
		minus := objective()
		w[i] = orig
		assert.InDelta(t, (plus-minus)/(2*h), l.Weight().Grad()[i], 1e-2, "dW[%d]", i)
	}
}

func benchmarkLinear(b *testing.B, accelerated bool) {
	rng := rand.New(rand.NewSource(1))
	l := NewLinear("fc", LinearConfig{In: 256, Out: 128, Accelerated: accelerated})
	x := randomTensor(rng, tensor.Shape{256}, 64)

	for b.Loop() {
		ys, err := l.Forward(x)
		if err != nil {
			b.Fatal(err)
		}
		if err := ys[0].InitGradOnes(); err != nil {
			b.Fatal(err)
		}
		if _, err := l.Backward(ys[0]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLinearReference(b *testing.B)   { benchmarkLinear(b, false) }
func BenchmarkLinearAccelerated(b *testing.B) { benchmarkLinear(b, true) }
