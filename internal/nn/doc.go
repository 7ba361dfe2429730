// Package nn provides concrete operators built on the function node shapes.
//
// Operators only supply pure math; bookkeeping comes from the embedded
// function.SingleInput / DualInput / DualInputConst:
//   - Linear: dense layer, compressible function, BLAS accelerated path
//   - Elementwise (ReLU, LeakyReLU, Sigmoid, Tanh, ELU): compressible activations
//   - Add, Mul: two-input elementwise arithmetic
//   - AddScaled: a + alpha*b with alpha fixed on the node
//   - EmbedID: table lookup with sparse gradients
//
// MeanSquaredError and SoftmaxCrossEntropy are loss helpers that seed the
// gradient of a prediction tensor before Backward.
package nn
