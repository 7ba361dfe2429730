package function

import (
	"container/heap"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/tensor"
)

// Backward propagates gradients from y through every node reachable via
// producer links.
//
// If y has no gradient yet it is seeded with ones, the usual choice for a
// scalar loss. A node's inputs are only visited once all their consumers
// have sent their gradient back (use count reached zero), so a tensor that
// feeds several branches is differentiated exactly once, with the sum of
// all branch contributions.
//
// Among the tensors ready to be differentiated the one produced last is
// always taken first. Tensors produced by one node are therefore visited in
// reverse forward order, which is the order the node's pending stack pops
// them in.
//
// An error leaves the nodes visited so far in their popped state; call
// ResetState on them before retrying.
func Backward(y *tensor.Tensor) error {
	if y == nil {
		return errs.Arity("function.Backward", "nil output")
	}
	if !y.HasGrad() {
		if err := y.InitGradOnes(); err != nil {
			return err
		}
	}

	ready := &readyQueue{y}
	for ready.Len() > 0 {
		t := heap.Pop(ready).(*tensor.Tensor)

		p := t.Producer()
		if p == nil {
			continue
		}
		node, ok := p.(Node)
		if !ok {
			return errs.Graph("function.Backward", "producer %q of %v is not a node", p.Name(), t)
		}

		xs, err := node.Backward(t)
		if err != nil {
			return err
		}
		for i, x := range xs {
			if x.UseCount() == 0 && !seenBefore(xs, i) {
				heap.Push(ready, x)
			}
		}
	}
	return nil
}

// seenBefore reports whether xs[i] already appears earlier in xs, so a tensor
// fed twice into the same node is only queued once.
func seenBefore(xs []*tensor.Tensor, i int) bool {
	for j := range i {
		if xs[j] == xs[i] {
			return true
		}
	}
	return false
}

// readyQueue is a max-heap of tensors keyed by their forward sequence number.
type readyQueue []*tensor.Tensor

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i].Sequence() > q[j].Sequence() }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) {
	*q = append(*q, x.(*tensor.Tensor))
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
