package domain

import "fmt"

// KeyEncryptionKey is an intermediate key that wraps data keys locally in double
// wrapping mode. Bytes never leave the process; only EncodedWrappedKEK, produced by
// the KMS, is persisted.
type KeyEncryptionKey struct {
	Bytes             []byte
	ID                []byte
	EncodedID         string
	EncodedWrappedKEK string
}

// KeyWithMasterID is an unwrapped data key together with the master key that protects it.
type KeyWithMasterID struct {
	DataKey  []byte
	MasterID string
}

// Zero clears the data key.
func (k *KeyWithMasterID) Zero() {
	Zero(k.DataKey)
}

// ValidateKeyLengthBits checks a configured DEK or KEK length.
func ValidateKeyLengthBits(bits int) error {
	switch bits {
	case 128, 192, 256:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidKeyLength, bits)
	}
}
