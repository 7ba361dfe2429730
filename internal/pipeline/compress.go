package pipeline

import (
	"k8s.io/klog/v2"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
)

// Compress fuses every compressible function that is directly followed by a
// compressible activation into a single node, removing the activation node.
//
// Fusion only rewrites structure: the fused node computes the same
// "output, then activation" it did as two nodes. It must run before any
// Forward has been recorded; a stack carrying recorded invocations is a
// StateError (call ResetState first). Compress is idempotent: a stack with
// no fusible pair left is returned unchanged. Nested stacks are compressed
// too, even when they are the only node of their parent.
func (s *FunctionStack) Compress() error {
	if s.HasState() {
		return errs.State(s.name+".Compress", "stack has recorded invocations")
	}
	for _, f := range s.functions {
		if nested, ok := f.(*FunctionStack); ok {
			if err := nested.Compress(); err != nil {
				return err
			}
		}
	}
	if len(s.functions) < 2 {
		return nil
	}

	fused := 0
	out := make([]function.Node, 0, len(s.functions))
	for i := 0; i < len(s.functions); i++ {
		f := s.functions[i]
		if i+1 < len(s.functions) {
			if ok, err := fuse(f, s.functions[i+1]); err != nil {
				return err
			} else if ok {
				out = append(out, f)
				fused++
				i++
				continue
			}
		}
		out = append(out, f)
	}

	if fused > 0 {
		s.functions = out
		klog.V(2).InfoS("compressed pipeline", "pipeline", s.name, "fused", fused, "nodes", len(out))
	}
	return nil
}

// fuse moves next's activation into f when the pair qualifies.
func fuse(f, next function.Node) (bool, error) {
	cf, ok := f.(function.CompressibleFunction)
	if !ok || cf.Activation() != nil {
		return false, nil
	}
	ca, ok := next.(function.CompressibleActivation)
	if !ok {
		return false, nil
	}
	if err := cf.SetActivation(ca.Activator()); err != nil {
		return false, err
	}

	// The fused node now answers for the activation's outputs.
	if named, ok := f.(interface{ SetIONames(in, out []string) }); ok && len(next.OutputNames()) > 0 {
		named.SetIONames(f.InputNames(), next.OutputNames())
	}
	// Re-derive the execution path from the node's own prior setting so any
	// kernel choice picks up the new activation.
	if acc, ok := f.(function.Accelerable); ok {
		acc.SetAccelerated(acc.Accelerated())
	}

	klog.V(3).InfoS("fused activation", "function", f.Name(), "activation", next.Name())
	return true, nil
}
