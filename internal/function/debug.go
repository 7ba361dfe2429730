package function

import (
	"k8s.io/klog/v2"

	"github.com/born-ml/fnstack/internal/tensor"
)

// verify checks buffer invariants of every tensor touched by a graph step.
// It compiles to nothing unless built with -tags fnstackdebug.
func (b *Base) verify(op string, groups ...[]*tensor.Tensor) error {
	if !tensor.DebugChecks {
		return nil
	}
	for _, group := range groups {
		for _, t := range group {
			if err := t.Validate(); err != nil {
				klog.ErrorS(err, "invariant violated", "op", op, "node", b.name)
				return err
			}
		}
	}
	for _, p := range b.params {
		if err := p.Validate(); err != nil {
			klog.ErrorS(err, "parameter invariant violated", "op", op, "node", b.name)
			return err
		}
	}
	klog.V(5).InfoS("graph step verified", "op", op, "pending", len(b.pending), "resolved", len(b.resolved))
	return nil
}
