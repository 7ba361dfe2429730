// Package checkpoint saves and restores the parameters of a pipeline.
//
// File layout:
//
//	offset  size  field
//	0       4     magic "FNCK"
//	4       4     format version (uint32, little endian)
//	8       n     body: protobuf wire records, one per parameter
//	8+n     32    SHA-256 of the body
//
// Each parameter record is a length-delimited field 1 holding:
//
//	1  name   string
//	2  shape  packed varint
//	3  batch  varint
//	4  data   packed fixed32 (IEEE 754 float32 bits)
//
// Records are written in sorted name order, so saving the same parameters
// twice produces identical bytes.
package checkpoint
