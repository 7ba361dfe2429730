// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and restores pipeline parameters.
package checkpoint

import (
	"io"

	"github.com/born-ml/fnstack/internal/checkpoint"
	"github.com/born-ml/fnstack/internal/tensor"
)

// StateDicter exposes named parameters.
type StateDicter = checkpoint.StateDicter

// Target is what Load restores into.
type Target = checkpoint.Target

// Errors.
var (
	ErrChecksumMismatch   = checkpoint.ErrChecksumMismatch
	ErrInvalidMagic       = checkpoint.ErrInvalidMagic
	ErrUnsupportedVersion = checkpoint.ErrUnsupportedVersion
	ErrMalformed          = checkpoint.ErrMalformed
)

// Save writes every parameter of src to w.
func Save(w io.Writer, src StateDicter) error { return checkpoint.Save(w, src) }

// Load restores dst from r and re-selects the execution path.
func Load(r io.Reader, dst Target, accelerated bool) error {
	return checkpoint.Load(r, dst, accelerated)
}

// SaveFile writes every parameter of src to path.
func SaveFile(path string, src StateDicter) error { return checkpoint.SaveFile(path, src) }

// LoadFile restores dst from path.
func LoadFile(path string, dst Target, accelerated bool) error {
	return checkpoint.LoadFile(path, dst, accelerated)
}

// Read decodes a checkpoint into named tensors.
func Read(r io.Reader) (map[string]*tensor.Tensor, error) { return checkpoint.Read(r) }

// Write encodes named tensors.
func Write(w io.Writer, dict map[string]*tensor.Tensor) error { return checkpoint.Write(w, dict) }
