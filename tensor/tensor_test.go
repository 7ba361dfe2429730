// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnstack/tensor"
)

func TestFacade(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, x.Sample(1))

	_, err = tensor.New(tensor.Shape{0}, 1)
	assert.Error(t, err)

	assert.Equal(t, float32(7), tensor.Scalar(7).At(0, 0))
	assert.Equal(t, 6, tensor.Zeros(tensor.Shape{3}, 2).Size())
}
