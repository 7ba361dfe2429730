package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/nn"
	"github.com/born-ml/fnstack/internal/tensor"
)

func linearPair(seed int64) (*FunctionStack, *nn.Linear) {
	rng := rand.New(rand.NewSource(seed))
	fc := nn.NewLinear("fc", nn.LinearConfig{In: 4, Out: 3})
	for _, p := range fc.Parameters() {
		for i := range p.Data() {
			p.Data()[i] = float32(rng.NormFloat64())
		}
	}
	act := nn.NewLeakyReLU("act", 0.05)
	act.SetIONames([]string{"h"}, []string{"y"})
	return New("pair", fc, act), fc
}

func TestCompressFusesLinearActivation(t *testing.T) {
	plain, _ := linearPair(3)
	fused, fc := linearPair(3)

	require.NoError(t, fused.Compress())
	require.Equal(t, 1, fused.Len())
	assert.Same(t, fc, fused.Node(0))
	require.NotNil(t, fc.Activation())
	assert.Equal(t, "leaky_relu", fc.Activation().Name())
	assert.Equal(t, []string{"y"}, fc.OutputNames())

	x := sample(rand.New(rand.NewSource(11)))
	ys, err := plain.Forward(x.Clone())
	require.NoError(t, err)
	fys, err := fused.Forward(x.Clone())
	require.NoError(t, err)
	assert.Equal(t, ys[0].Data(), fys[0].Data())

	require.NoError(t, ys[0].InitGradOnes())
	require.NoError(t, fys[0].InitGradOnes())
	xs, err := plain.Backward(ys...)
	require.NoError(t, err)
	fxs, err := fused.Backward(fys...)
	require.NoError(t, err)

	assert.InDeltaSlice(t, xs[0].Grad(), fxs[0].Grad(), 1e-6)
	for i, p := range fused.Parameters() {
		assert.InDeltaSlice(t, plain.Parameters()[i].Grad(), p.Grad(), 1e-6, p.Name())
	}
}

func TestCompressIsIdempotent(t *testing.T) {
	s, fc := linearPair(3)
	require.NoError(t, s.Compress())
	require.NoError(t, s.Compress())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "leaky_relu", fc.Activation().Name())
}

func TestCompressAfterForward(t *testing.T) {
	s, fc := linearPair(3)
	_, err := s.Forward(sample(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Compress(), errs.ErrState)
	assert.Equal(t, 2, s.Len())
	assert.Nil(t, fc.Activation())

	s.ResetState()
	require.NoError(t, s.Compress())
	assert.Equal(t, 1, s.Len())
}

func TestCompressSkipsNonMatchingPairs(t *testing.T) {
	fc1 := nn.NewLinear("fc1", nn.LinearConfig{In: 4, Out: 4})
	fc2 := nn.NewLinear("fc2", nn.LinearConfig{In: 4, Out: 4})
	fc3 := nn.NewLinear("fc3", nn.LinearConfig{In: 4, Out: 2, Activation: nn.Tanh{}})
	s := New("mixed",
		nn.NewReLU("lead"),  // activation with no function before it
		fc1, fc2,            // function followed by a function
		nn.NewTanh("t2"),    // fused into fc2
		fc3,                 // already carries an activation
		nn.NewSigmoid("s3"), // kept
	)

	require.NoError(t, s.Compress())
	require.Equal(t, 5, s.Len())
	assert.Nil(t, fc1.Activation())
	assert.Equal(t, "tanh", fc2.Activation().Name())
	assert.Equal(t, "tanh", fc3.Activation().Name())
	assert.Equal(t, "s3", s.Node(4).Name())

	y, err := s.Predict(tensor.Zeros(tensor.Shape{4}, 1))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, y[0].Shape())
}

func TestCompressKeepsAcceleratedMode(t *testing.T) {
	s, fc := linearPair(3)
	s.SetAccelerated(true)
	require.NoError(t, s.Compress())
	assert.True(t, fc.Accelerated())

	single := New("one", nn.NewReLU("r"))
	require.NoError(t, single.Compress())
	assert.Equal(t, 1, single.Len())
}

func TestCompressNested(t *testing.T) {
	inner, fc := linearPair(3)
	outer := New("outer", inner, nn.NewSigmoid("s"))

	require.NoError(t, outer.Compress())
	assert.Equal(t, 2, outer.Len())
	assert.Equal(t, 1, inner.Len())
	assert.NotNil(t, fc.Activation())
}

func TestCompressNestedOnlyChild(t *testing.T) {
	inner, fc := linearPair(3)
	outer := New("outer", inner)

	require.NoError(t, outer.Compress())
	assert.Equal(t, 1, outer.Len())
	assert.Equal(t, 1, inner.Len())
	require.NotNil(t, fc.Activation())
	assert.Equal(t, "leaky_relu", fc.Activation().Name())
}
