package checkpoint

import "google.golang.org/protobuf/encoding/protowire"

// Format constants.
const (
	MagicBytes    = "FNCK"
	FormatVersion = 1
	HeaderSize    = 8
	ChecksumSize  = 32 // SHA-256
)

// Validation limits for resource protection.
const (
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
	MaxTensorRank    = 16

	// MaxFileSize bounds how many bytes Read accepts from its reader.
	MaxFileSize = 1 << 31
)

// Wire field numbers.
const (
	fieldParameter protowire.Number = 1

	fieldName  protowire.Number = 1
	fieldShape protowire.Number = 2
	fieldBatch protowire.Number = 3
	fieldData  protowire.Number = 4
)
