package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/nn"
	"github.com/born-ml/fnstack/internal/tensor"
)

// newMLP builds Linear(4→3) → LeakyReLU → Linear(3→2) with weights drawn
// from seed, so two calls with the same seed give identical models.
func newMLP(seed int64) *FunctionStack {
	rng := rand.New(rand.NewSource(seed))
	fc1 := nn.NewLinear("fc1", nn.LinearConfig{In: 4, Out: 3})
	fc2 := nn.NewLinear("fc2", nn.LinearConfig{In: 3, Out: 2})
	for _, p := range append(fc1.Parameters(), fc2.Parameters()...) {
		for i := range p.Data() {
			p.Data()[i] = float32(rng.NormFloat64())
		}
	}
	return New("mlp", fc1, nn.NewLeakyReLU("act", 0.1), fc2)
}

func sample(rng *rand.Rand) *tensor.Tensor {
	x := tensor.Zeros(tensor.Shape{4}, 2)
	for i := range x.Data() {
		x.Data()[i] = float32(rng.NormFloat64())
	}
	return x
}

func TestStackBasics(t *testing.T) {
	s := newMLP(1)
	assert.Equal(t, "mlp", s.Name())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "act", s.Node(1).Name())
	assert.Len(t, s.Nodes(), 3)
	assert.Len(t, s.Parameters(), 4)
	assert.Panics(t, func() { s.Node(3) })

	s.Add(nn.NewTanh("out"))
	assert.Equal(t, 4, s.Len())

	s.SetIONames([]string{"x"}, []string{"y"})
	assert.Equal(t, []string{"x"}, s.InputNames())
	assert.Equal(t, []string{"y"}, s.OutputNames())
}

func TestStackForwardBackwardDrainsPending(t *testing.T) {
	s := newMLP(1)
	x := sample(rand.New(rand.NewSource(2)))

	ys, err := s.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Pending())
	for _, f := range s.Nodes() {
		assert.Equal(t, 1, f.(function.Stateful).Pending(), f.Name())
	}

	require.NoError(t, ys[0].InitGradOnes())
	xs, err := s.Backward(ys...)
	require.NoError(t, err)
	require.Len(t, xs, 1)
	assert.Same(t, x, xs[0])
	assert.True(t, x.HasGrad())
	assert.Zero(t, x.UseCount())

	assert.Zero(t, s.Pending())
	for _, f := range s.Nodes() {
		assert.Zero(t, f.(function.Stateful).Pending(), f.Name())
	}

	_, err = s.Backward(ys...)
	assert.ErrorIs(t, err, errs.ErrGraph)
}

func TestStackLIFOMatchesIndependentPairs(t *testing.T) {
	const k = 3
	rng := rand.New(rand.NewSource(5))
	inputs := make([]*tensor.Tensor, k)
	for i := range inputs {
		inputs[i] = sample(rng)
	}

	batched := newMLP(9)
	var outs [][]*tensor.Tensor
	for _, x := range inputs {
		ys, err := batched.Forward(x.Clone())
		require.NoError(t, err)
		outs = append(outs, ys)
	}
	assert.Equal(t, k, batched.Pending())
	for i := k - 1; i >= 0; i-- {
		require.NoError(t, outs[i][0].InitGradOnes())
		_, err := batched.Backward(outs[i]...)
		require.NoError(t, err)
	}

	paired := newMLP(9)
	for _, x := range inputs {
		ys, err := paired.Forward(x.Clone())
		require.NoError(t, err)
		require.NoError(t, ys[0].InitGradOnes())
		_, err = paired.Backward(ys...)
		require.NoError(t, err)
	}

	bp, pp := batched.Parameters(), paired.Parameters()
	for i := range bp {
		assert.InDeltaSlice(t, pp[i].Grad(), bp[i].Grad(), 1e-4, bp[i].Name())
		assert.Equal(t, k, bp[i].TrainCount())
		assert.Equal(t, k, pp[i].TrainCount())
	}
}

func TestStackPredictLeavesNoState(t *testing.T) {
	s := newMLP(1)
	x := sample(rand.New(rand.NewSource(2)))

	want, err := s.Forward(x.Clone())
	require.NoError(t, err)
	s.ResetState()

	got, err := s.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, want[0].Data(), got[0].Data())
	assert.False(t, s.HasState())
	assert.Zero(t, x.UseCount())
}

func TestStackRewind(t *testing.T) {
	s := newMLP(1)
	x := sample(rand.New(rand.NewSource(2)))

	ys, err := s.Forward(x)
	require.NoError(t, err)
	require.NoError(t, ys[0].InitGradOnes())
	_, err = s.Backward(ys...)
	require.NoError(t, err)

	require.NoError(t, s.Rewind())
	assert.Equal(t, 1, s.Pending())
	_, err = s.Backward(ys...)
	require.NoError(t, err)
	assert.Zero(t, s.Pending())
	for _, p := range s.Parameters() {
		assert.Equal(t, 2, p.TrainCount(), p.Name())
	}

	_, err = s.Forward(x)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Rewind(), errs.ErrState)
}

func TestStackNested(t *testing.T) {
	inner := newMLP(4)
	outer := New("outer", inner, nn.NewSigmoid("squash"))
	x := sample(rand.New(rand.NewSource(8)))

	ys, err := outer.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, 1, outer.Pending())
	assert.Equal(t, 1, inner.Pending())

	require.NoError(t, ys[0].InitGradOnes())
	xs, err := outer.Backward(ys...)
	require.NoError(t, err)
	assert.Same(t, x, xs[0])
	assert.Zero(t, inner.Pending())

	dict := outer.StateDict()
	assert.Contains(t, dict, "0.0.fc1.w")
	assert.Contains(t, dict, "0.2.fc2.b")
	assert.Len(t, dict, 4)
}

func TestStackGraphBackward(t *testing.T) {
	s := newMLP(1)
	ref := newMLP(1)
	x := sample(rand.New(rand.NewSource(2)))

	ys, err := s.Forward(x.Clone())
	require.NoError(t, err)
	require.NoError(t, function.Backward(ys[0]))
	assert.Zero(t, s.Pending())

	rys, err := ref.Forward(x.Clone())
	require.NoError(t, err)
	require.NoError(t, rys[0].InitGradOnes())
	_, err = ref.Backward(rys...)
	require.NoError(t, err)

	for i, p := range s.Parameters() {
		assert.InDeltaSlice(t, ref.Parameters()[i].Grad(), p.Grad(), 1e-6, p.Name())
	}
}

func TestStackAccelerated(t *testing.T) {
	s := newMLP(1)
	assert.False(t, s.Accelerated())

	s.SetAccelerated(true)
	assert.True(t, s.Accelerated())
	for _, f := range s.Nodes() {
		assert.True(t, f.(function.Accelerable).Accelerated(), f.Name())
	}

	assert.False(t, New("empty").Accelerated())
}

func TestStateDictRoundTrip(t *testing.T) {
	src := newMLP(1)
	dst := newMLP(2)

	dict := src.StateDict()
	assert.Len(t, dict, 4)
	assert.Contains(t, dict, "0.fc1.w")
	assert.Contains(t, dict, "2.fc2.b")

	require.NoError(t, dst.LoadStateDict(dict))
	for i, p := range dst.Parameters() {
		assert.Equal(t, src.Parameters()[i].Data(), p.Data())
	}

	delete(dict, "0.fc1.b")
	assert.ErrorIs(t, dst.LoadStateDict(dict), errs.ErrGraph)

	dict = src.StateDict()
	dict["0.fc1.b"] = tensor.Zeros(tensor.Shape{5}, 1)
	assert.ErrorIs(t, dst.LoadStateDict(dict), errs.ErrShape)
}
