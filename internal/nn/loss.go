package nn

import (
	"math"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/tensor"
)

// MeanSquaredError returns mean((y - t)²) over every element and adds
// dLoss/dy into y's gradient, ready for Backward.
func MeanSquaredError(y, target *tensor.Tensor) (float32, error) {
	if !y.SameLayout(target) {
		return 0, errs.Shape("nn.MeanSquaredError", "prediction %v and target %v differ", y, target)
	}
	if err := y.InitGrad(); err != nil {
		return 0, err
	}
	n := float32(y.Size())
	var loss float32
	gy := y.Grad()
	for i, v := range y.Data() {
		d := v - target.Data()[i]
		loss += d * d
		gy[i] += 2 * d / n
	}
	return loss / n, nil
}

// SoftmaxCrossEntropy returns the mean over the batch of
// -log(softmax(y)[label]) and adds dLoss/dy into y's gradient.
// labels holds one class index per sample.
func SoftmaxCrossEntropy(y *tensor.Tensor, labels []int) (float32, error) {
	batch, classes := y.BatchCount(), y.Length()
	if len(labels) != batch {
		return 0, errs.Arity("nn.SoftmaxCrossEntropy", "%d labels for batch of %d", len(labels), batch)
	}
	if err := y.InitGrad(); err != nil {
		return 0, err
	}

	var loss float64
	probs := make([]float64, classes)
	for b := 0; b < batch; b++ {
		label := labels[b]
		if label < 0 || label >= classes {
			return 0, errs.Shape("nn.SoftmaxCrossEntropy", "label %d outside %d classes", label, classes)
		}
		logits := y.Sample(b)
		maxLogit := float64(logits[0])
		for _, v := range logits[1:] {
			maxLogit = math.Max(maxLogit, float64(v))
		}
		var sum float64
		for i, v := range logits {
			probs[i] = math.Exp(float64(v) - maxLogit)
			sum += probs[i]
		}
		loss -= math.Log(probs[label] / sum)

		g := y.GradSample(b)
		for i := range probs {
			p := probs[i] / sum
			if i == label {
				p--
			}
			g[i] += float32(p / float64(batch))
		}
	}
	return float32(loss / float64(batch)), nil
}
