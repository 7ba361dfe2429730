// Package tensor provides the dense tensor type the graph engine operates on.
//
// A Tensor is a flat float32 buffer holding BatchCount samples of a fixed
// Shape, plus a lazily allocated gradient buffer and two counters that drive
// the engine's bookkeeping:
//   - useCount: how many forward consumers have not yet sent their gradient back
//   - trainCount: how many backward contributions reached a parameter since the
//     last optimizer step
package tensor

import (
	"fmt"
	"weak"

	"github.com/born-ml/fnstack/internal/errs"
)

// Tensor is a batch of samples sharing one Shape.
//
// Data layout is row-major with the batch as the outermost dimension:
// sample b occupies Data()[b*Length() : (b+1)*Length()].
type Tensor struct {
	name       string
	shape      Shape
	batch      int
	data       []float32
	grad       []float32
	useCount   int
	trainCount int
	producer   weak.Pointer[Origin]
	seq        uint64
}

// New allocates a zero-filled tensor. The gradient is left unallocated.
func New(shape Shape, batch int) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errs.Shape("tensor.New", "%v", err)
	}
	if batch < 1 {
		return nil, errs.Shape("tensor.New", "batch count must be >= 1, got %d", batch)
	}
	return &Tensor{
		shape: shape.Clone(),
		batch: batch,
		data:  make([]float32, shape.NumElements()*batch),
	}, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape, batch int) (*Tensor, error) {
	t, err := New(shape, batch)
	if err != nil {
		return nil, err
	}
	if len(data) != len(t.data) {
		return nil, errs.Shape("tensor.FromSlice", "shape %v x batch %d requires %d elements, but got %d",
			shape, batch, len(t.data), len(data))
	}
	copy(t.data, data)
	return t, nil
}

// Zeros allocates a zero-filled tensor and panics on an invalid shape.
// Used by operators whose output shape is already validated.
func Zeros(shape Shape, batch int) *Tensor {
	t, err := New(shape, batch)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates a single-element tensor holding v.
func Scalar(v float32) *Tensor {
	t := Zeros(Shape{1}, 1)
	t.data[0] = v
	return t
}

// Name returns the tensor label (empty for anonymous intermediates).
func (t *Tensor) Name() string {
	return t.name
}

// SetName labels the tensor and returns it for chaining.
func (t *Tensor) SetName(name string) *Tensor {
	t.name = name
	return t
}

// Shape returns the per-sample shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// BatchCount returns the number of samples.
func (t *Tensor) BatchCount() int {
	return t.batch
}

// Length returns the number of elements of one sample.
func (t *Tensor) Length() int {
	return t.shape.NumElements()
}

// Size returns the total number of elements across the batch.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns the underlying buffer (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Grad returns the gradient buffer, or nil before InitGrad.
func (t *Tensor) Grad() []float32 {
	return t.grad
}

// HasGrad reports whether the gradient buffer is allocated.
func (t *Tensor) HasGrad() bool {
	return t.grad != nil
}

// Sample returns a view of sample b.
func (t *Tensor) Sample(b int) []float32 {
	n := t.Length()
	return t.data[b*n : (b+1)*n]
}

// GradSample returns a view of the gradient of sample b.
func (t *Tensor) GradSample(b int) []float32 {
	n := t.Length()
	return t.grad[b*n : (b+1)*n]
}

// At returns element i of sample b.
func (t *Tensor) At(b, i int) float32 {
	return t.data[b*t.Length()+i]
}

// Fill sets every element of Data to v.
func (t *Tensor) Fill(v float32) {
	for i := range t.data {
		t.data[i] = v
	}
}

// InitGrad allocates a zeroed gradient buffer if none exists yet.
// Calling it again is a no-op.
func (t *Tensor) InitGrad() error {
	if t.data == nil {
		return errs.Shape("Tensor.InitGrad", "tensor %q has no data", t.name)
	}
	if t.grad == nil {
		t.grad = make([]float32, len(t.data))
	}
	return nil
}

// InitGradOnes allocates the gradient (if needed) and sets it to ones.
// Used to seed the backward pass of a loss or output tensor.
func (t *Tensor) InitGradOnes() error {
	if err := t.InitGrad(); err != nil {
		return err
	}
	for i := range t.grad {
		t.grad[i] = 1
	}
	return nil
}

// AccumulateGrad adds value into grad[index].
func (t *Tensor) AccumulateGrad(index int, value float32) error {
	if t.grad == nil {
		return errs.Graph("Tensor.AccumulateGrad", "gradient of %q not initialized", t.name)
	}
	if index < 0 || index >= len(t.grad) {
		return errs.Shape("Tensor.AccumulateGrad", "index %d out of range [0,%d)", index, len(t.grad))
	}
	t.grad[index] += value
	return nil
}

// ClearGrad zeroes the gradient buffer and resets the contribution counter.
func (t *Tensor) ClearGrad() {
	for i := range t.grad {
		t.grad[i] = 0
	}
	t.trainCount = 0
}

// Reduce divides the accumulated gradient by the number of backward
// contributions received since the last clear. It reports whether any
// contribution was present.
func (t *Tensor) Reduce() bool {
	if t.trainCount <= 0 || t.grad == nil {
		return false
	}
	if t.trainCount > 1 {
		scale := 1 / float32(t.trainCount)
		for i := range t.grad {
			t.grad[i] *= scale
		}
	}
	return true
}

// CountUp records one backward contribution into a parameter.
func (t *Tensor) CountUp() {
	t.trainCount++
}

// TrainCount returns the backward contributions since the last clear.
func (t *Tensor) TrainCount() int {
	return t.trainCount
}

// Use records that a forward consumer took this tensor as input.
func (t *Tensor) Use() {
	t.useCount++
}

// Release records that a consumer sent its gradient back.
func (t *Tensor) Release() error {
	if t.useCount == 0 {
		return errs.Graph("Tensor.Release", "use count of %q would become negative", t.name)
	}
	t.useCount--
	return nil
}

// UseCount returns the consumers that have not sent their gradient back yet.
func (t *Tensor) UseCount() int {
	return t.useCount
}

// ResetUse drops all pending consumer records.
func (t *Tensor) ResetUse() {
	t.useCount = 0
}

// SetProducer records the node that computed this tensor and the sequence
// number of the invocation that did it. Only a weak pointer to the origin is
// kept. A nil origin turns the tensor back into a leaf.
func (t *Tensor) SetProducer(o *Origin, seq uint64) {
	if o == nil {
		t.producer = weak.Pointer[Origin]{}
		t.seq = 0
		return
	}
	t.producer = weak.Make(o)
	t.seq = seq
}

// Sequence returns the forward sequence number of the invocation that
// produced this tensor, or 0 for leaves.
func (t *Tensor) Sequence() uint64 {
	return t.seq
}

// Producer returns the node that computed this tensor, or nil for leaves and
// for tensors whose producer has been collected.
func (t *Tensor) Producer() Producer {
	o := t.producer.Value()
	if o == nil {
		return nil
	}
	return o.node
}

// Clone creates a deep copy of data and gradient.
// The copy is a leaf: it has no producer and fresh counters.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		name:  t.name,
		shape: t.shape.Clone(),
		batch: t.batch,
		data:  append([]float32(nil), t.data...),
	}
	if t.grad != nil {
		c.grad = append([]float32(nil), t.grad...)
	}
	return c
}

// SameLayout reports whether other has the same shape and batch count.
func (t *Tensor) SameLayout(other *Tensor) bool {
	return t.batch == other.batch && t.shape.Equal(other.shape)
}

// Validate checks the buffer invariants.
func (t *Tensor) Validate() error {
	if want := t.shape.NumElements() * t.batch; len(t.data) != want {
		return errs.Shape("Tensor.Validate", "%q: data length %d, want %d", t.name, len(t.data), want)
	}
	if t.grad != nil && len(t.grad) != len(t.data) {
		return errs.Shape("Tensor.Validate", "%q: grad length %d, want %d", t.name, len(t.grad), len(t.data))
	}
	if t.useCount < 0 {
		return errs.Graph("Tensor.Validate", "%q: negative use count %d", t.name, t.useCount)
	}
	return nil
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	if t.name != "" {
		return fmt.Sprintf("Tensor(%s)%v x%d", t.name, t.shape, t.batch)
	}
	return fmt.Sprintf("Tensor%v x%d", t.shape, t.batch)
}
