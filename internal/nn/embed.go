package nn

import (
	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/tensor"
)

// EmbedID maps integer ids to rows of a [Vocab, Dim] table.
//
// The input holds ids stored as float32, one per element. A sample of
// shape [n] produces a sample of shape [n, Dim]. Only the rows looked up
// receive gradient; ids carry no gradient.
type EmbedID struct {
	*function.SingleInput

	vocab, dim int
	weight     *tensor.Tensor
}

// NewEmbedID creates an embedding table initialized from N(0, 1).
func NewEmbedID(name string, vocab, dim int) *EmbedID {
	if vocab <= 0 || dim <= 0 {
		panic(errs.Shape("nn.NewEmbedID", "invalid sizes vocab=%d dim=%d", vocab, dim))
	}
	e := &EmbedID{vocab: vocab, dim: dim}
	e.weight = tensor.Zeros(tensor.Shape{vocab, dim}, 1).SetName(name + ".w")
	Normal(e.weight, 1)
	e.SingleInput = function.NewSingleInput(name, e, e.weight)
	return e
}

// Weight returns the embedding table.
func (e *EmbedID) Weight() *tensor.Tensor {
	return e.weight
}

func (e *EmbedID) id(op string, v float32) (int, error) {
	id := int(v)
	if float32(id) != v || id < 0 || id >= e.vocab {
		return 0, errs.Shape(op, "id %v outside vocabulary of %d", v, e.vocab)
	}
	return id, nil
}

// Compute implements function.UnaryKernel.
func (e *EmbedID) Compute(x *tensor.Tensor) (*tensor.Tensor, error) {
	n := x.Length()
	y := tensor.Zeros(tensor.Shape{n, e.dim}, x.BatchCount())
	w, yd := e.weight.Data(), y.Data()
	for i, v := range x.Data() {
		id, err := e.id(e.Name()+".Forward", v)
		if err != nil {
			return nil, err
		}
		copy(yd[i*e.dim:(i+1)*e.dim], w[id*e.dim:(id+1)*e.dim])
	}
	return y, nil
}

// Differentiate implements function.UnaryKernel.
func (e *EmbedID) Differentiate(y, x *tensor.Tensor) error {
	gw, gy := e.weight.Grad(), y.Grad()
	for i, v := range x.Data() {
		id, err := e.id(e.Name()+".Backward", v)
		if err != nil {
			return err
		}
		row := gw[id*e.dim : (id+1)*e.dim]
		for j, g := range gy[i*e.dim : (i+1)*e.dim] {
			row[j] += g
		}
	}
	return nil
}
