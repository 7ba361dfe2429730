package checkpoint

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"k8s.io/klog/v2"

	"github.com/born-ml/fnstack/internal/tensor"
)

// Target is what Load restores into, e.g. a pipeline.FunctionStack.
type Target interface {
	StateDicter
	LoadStateDict(dict map[string]*tensor.Tensor) error
	ResetState()
	SetAccelerated(on bool)
}

// Load restores dst's parameters from r. Every parameter of dst must be
// present with an identical layout; records dst does not know are skipped.
// Recorded invocations are dropped and the execution path is re-selected
// with accelerated.
func Load(r io.Reader, dst Target, accelerated bool) error {
	dict, err := Read(r)
	if err != nil {
		return err
	}
	if err := dst.LoadStateDict(dict); err != nil {
		return err
	}
	dst.ResetState()
	dst.SetAccelerated(accelerated)
	klog.V(2).InfoS("checkpoint loaded", "tensors", len(dict), "accelerated", accelerated)
	return nil
}

// LoadFile restores dst's parameters from path.
func LoadFile(path string, dst Target, accelerated bool) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()
	return Load(f, dst, accelerated)
}

// Read decodes a checkpoint into named tensors. At most MaxFileSize bytes
// are read; a longer stream fails with ErrFileTooLarge.
func Read(r io.Reader) (map[string]*tensor.Tensor, error) {
	raw, err := readLimited(r, MaxFileSize)
	if err != nil {
		return nil, err
	}
	if len(raw) < HeaderSize+ChecksumSize {
		return nil, errors.Wrapf(ErrMalformed, "file too short (%d bytes)", len(raw))
	}
	if !bytes.Equal(raw[:4], []byte(MagicBytes)) {
		return nil, errors.Wrapf(ErrInvalidMagic, "got %q", raw[:4])
	}
	if v := binary.LittleEndian.Uint32(raw[4:HeaderSize]); v != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", v)
	}

	body := raw[HeaderSize : len(raw)-ChecksumSize]
	var stored [ChecksumSize]byte
	copy(stored[:], raw[len(raw)-ChecksumSize:])
	if err := ValidateChecksum(ComputeChecksum(body), stored); err != nil {
		return nil, err
	}

	dict := make(map[string]*tensor.Tensor)
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return nil, errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
		}
		body = body[n:]
		if num != fieldParameter || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return nil, errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
			}
			body = body[n:]
			continue
		}
		rec, n := protowire.ConsumeBytes(body)
		if n < 0 {
			return nil, errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
		}
		body = body[n:]

		name, t, err := parseRecord(rec)
		if err != nil {
			return nil, err
		}
		if _, ok := dict[name]; ok {
			return nil, errors.Wrapf(ErrDuplicateTensor, "%q", name)
		}
		if len(dict) == MaxTensorCount {
			return nil, errors.Wrapf(ErrTooManyTensors, "max %d", MaxTensorCount)
		}
		dict[name] = t
	}
	return dict, nil
}

//nolint:gocyclo // one case per wire field
func parseRecord(b []byte) (string, *tensor.Tensor, error) {
	var (
		name  string
		shape tensor.Shape
		batch int
		data  []float32
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
		}
		b = b[n:]

		switch {
		case num == fieldName && typ == protowire.BytesType:
			name, n = protowire.ConsumeString(b)
			if n >= 0 && len(name) > MaxTensorNameLen {
				return "", nil, errors.Wrapf(ErrTensorNameTooLong, "%d bytes", len(name))
			}
		case num == fieldShape && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			for len(packed) > 0 && n >= 0 {
				d, m := protowire.ConsumeVarint(packed)
				if m < 0 || len(shape) == MaxTensorRank || d > math.MaxInt32 {
					return "", nil, errors.Wrapf(ErrMalformed, "tensor %q: bad shape", name)
				}
				shape = append(shape, int(d))
				packed = packed[m:]
			}
		case num == fieldBatch && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if v > math.MaxInt32 {
				return "", nil, errors.Wrapf(ErrMalformed, "tensor %q: bad batch %d", name, v)
			}
			batch = int(v)
		case num == fieldData && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 && len(packed)%4 != 0 {
				return "", nil, errors.Wrapf(ErrMalformed, "tensor %q: data length %d", name, len(packed))
			}
			data = make([]float32, 0, len(packed)/4)
			for len(packed) > 0 {
				bits, m := protowire.ConsumeFixed32(packed)
				data = append(data, math.Float32frombits(bits))
				packed = packed[m:]
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", nil, errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
		}
		b = b[n:]
	}

	if name == "" {
		return "", nil, errors.Wrap(ErrMalformed, "record without name")
	}
	t, err := tensor.FromSlice(data, shape, batch)
	if err != nil {
		return "", nil, errors.Wrapf(ErrMalformed, "tensor %q: %v", name, err)
	}
	return name, t.SetName(name), nil
}

// readLimited reads all of r, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read checkpoint")
	}
	if int64(len(raw)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "more than %d bytes", limit)
	}
	return raw, nil
}
