package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainAndInspect(t *testing.T) {
	out := filepath.Join(t.TempDir(), "spiral.fnck")
	require.NoError(t, runTrain([]string{"-epochs", "5", "-batch", "8", "-accelerated", "-out", out}))
	require.NoError(t, runInspect([]string{out}))
}

func TestTrainUnknownOptimizer(t *testing.T) {
	err := runTrain([]string{"-epochs", "1", "-optimizer", "lbfgs"})
	assert.ErrorContains(t, err, "unknown optimizer")
}

func TestInspectArgs(t *testing.T) {
	assert.Error(t, runInspect(nil))
	assert.Error(t, runInspect([]string{filepath.Join(t.TempDir(), "missing")}))
}
