package checkpoint

import (
	"encoding/binary"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"k8s.io/klog/v2"

	"github.com/born-ml/fnstack/internal/tensor"
)

// StateDicter exposes named parameters, e.g. a pipeline.FunctionStack.
type StateDicter interface {
	StateDict() map[string]*tensor.Tensor
}

// Save writes every parameter of src to w.
func Save(w io.Writer, src StateDicter) error {
	return Write(w, src.StateDict())
}

// Write encodes dict to w.
func Write(w io.Writer, dict map[string]*tensor.Tensor) error {
	if len(dict) > MaxTensorCount {
		return errors.Wrapf(ErrTooManyTensors, "got %d, max %d", len(dict), MaxTensorCount)
	}

	var body []byte
	for _, name := range slices.Sorted(maps.Keys(dict)) {
		if len(name) > MaxTensorNameLen {
			return errors.Wrapf(ErrTensorNameTooLong, "%d bytes", len(name))
		}
		body = protowire.AppendTag(body, fieldParameter, protowire.BytesType)
		body = protowire.AppendBytes(body, appendRecord(nil, name, dict[name]))
	}

	header := make([]byte, HeaderSize)
	copy(header, MagicBytes)
	binary.LittleEndian.PutUint32(header[4:], FormatVersion)
	sum := ComputeChecksum(body)

	for _, chunk := range [][]byte{header, body, sum[:]} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, "failed to write checkpoint")
		}
	}
	klog.V(2).InfoS("checkpoint written", "tensors", len(dict), "bytes", HeaderSize+len(body)+ChecksumSize)
	return nil
}

func appendRecord(b []byte, name string, t *tensor.Tensor) []byte {
	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, name)

	var shape []byte
	for _, d := range t.Shape() {
		shape = protowire.AppendVarint(shape, uint64(d))
	}
	b = protowire.AppendTag(b, fieldShape, protowire.BytesType)
	b = protowire.AppendBytes(b, shape)

	b = protowire.AppendTag(b, fieldBatch, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.BatchCount()))

	data := make([]byte, 0, 4*t.Size())
	for _, v := range t.Data() {
		data = protowire.AppendFixed32(data, math.Float32bits(v))
	}
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	return protowire.AppendBytes(b, data)
}

// SaveFile writes the parameters of src to path.
func SaveFile(path string, src StateDicter) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return Save(f, src)
}
