package checkpoint

import "crypto/sha256"

// ComputeChecksum computes the SHA-256 checksum of a body.
func ComputeChecksum(body []byte) [ChecksumSize]byte {
	return sha256.Sum256(body)
}

// ValidateChecksum compares the computed checksum against the stored one.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
