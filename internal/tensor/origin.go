package tensor

// Producer is implemented by the function node that computed a tensor.
type Producer interface {
	Name() string
}

// Origin anchors a Producer so that tensors can point back at it without
// keeping it alive. A node owns exactly one Origin for its whole lifetime and
// hands it to every output it creates; the tensors only hold a weak pointer.
type Origin struct {
	node Producer
}

// NewOrigin creates the anchor for a producing node.
func NewOrigin(p Producer) *Origin {
	return &Origin{node: p}
}

// Producer returns the anchored node.
func (o *Origin) Producer() Producer {
	return o.node
}
