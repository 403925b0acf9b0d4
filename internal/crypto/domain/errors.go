package domain

import (
	"github.com/allisson/parquet-keytools/internal/errors"
)

// Key protocol error definitions.
//
// Each error wraps one of the sentinels in internal/errors so callers and the HTTP
// layer can classify failures with errors.Is.
var (
	// ErrUnsupportedAlgorithm indicates the local key cipher algorithm is unknown.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrConfiguration, "unsupported algorithm")

	// ErrInvalidKeySize indicates key bytes that do not match a supported AES key size.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidKeyLength indicates a configured key length outside 128, 192 or 256 bits.
	ErrInvalidKeyLength = errors.Wrap(errors.ErrConfiguration, "wrong key length")

	// ErrDecryptionFailed indicates an authentication failure while unwrapping locally.
	// A wrong key, a different AAD and tampered bytes are not distinguished.
	ErrDecryptionFailed = errors.Wrap(errors.ErrProtocol, "decryption failed")

	// ErrMalformedKeyMaterial indicates key material or key metadata that cannot be parsed.
	ErrMalformedKeyMaterial = errors.Wrap(errors.ErrProtocol, "malformed key material")

	// ErrWrongKeyMaterialType indicates a keyMaterialType other than PKMT1.
	ErrWrongKeyMaterialType = errors.Wrap(errors.ErrProtocol, "wrong key material type")

	// ErrKeyMaterialNotFound indicates the store has no material for the requested key id.
	ErrKeyMaterialNotFound = errors.Wrap(errors.ErrProtocol, "key material not found")

	// ErrKeyMaterialStoreMissing indicates external key material without a store to read it from.
	ErrKeyMaterialStoreMissing = errors.Wrap(errors.ErrProtocol, "key material store is missing")

	// ErrStorageIO indicates a failed bucket operation on key material or data files.
	// The underlying cause stays in the chain.
	ErrStorageIO = errors.Wrap(errors.ErrProtocol, "storage i/o failed")

	// ErrKmsInstanceIDMissing indicates neither configuration nor key material name a KMS instance.
	ErrKmsInstanceIDMissing = errors.Wrap(
		errors.ErrProtocol,
		"kms instance id is missing both in properties and file key material",
	)

	// ErrKmsInstanceURLMissing indicates neither configuration nor key material name a KMS URL.
	ErrKmsInstanceURLMissing = errors.Wrap(
		errors.ErrProtocol,
		"kms instance url is missing both in properties and file key material",
	)

	// ErrKmsClientUnspecified indicates no KMS client was selected in configuration.
	ErrKmsClientUnspecified = errors.Wrap(errors.ErrConfiguration, "kms client is not specified")

	// ErrKmsClientNotRegistered indicates a KMS client name with no registered factory.
	ErrKmsClientNotRegistered = errors.Wrap(errors.ErrConfiguration, "kms client is not registered")

	// ErrMasterKeyNotFound indicates the KMS does not know the master key id.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrAccessDenied, "master key not found")

	// ErrMasterKeysNotSet indicates the local KMS has no master keys configured.
	ErrMasterKeysNotSet = errors.Wrap(errors.ErrConfiguration, "MASTER_KEYS not set")

	// ErrInvalidMasterKeysFormat indicates a MASTER_KEYS entry not in id:base64 form.
	ErrInvalidMasterKeysFormat = errors.Wrap(errors.ErrConfiguration, "invalid MASTER_KEYS format")

	// ErrInvalidMasterKeyBase64 indicates a master key that is not valid standard base64.
	ErrInvalidMasterKeyBase64 = errors.Wrap(errors.ErrConfiguration, "invalid master key base64")

	// ErrInternalKeyMaterialRotation indicates a rotation request while key material is kept in files.
	ErrInternalKeyMaterialRotation = errors.Wrap(
		errors.ErrUnsupportedOperation,
		"key rotation is not supported for internal key material",
	)

	// ErrFolderNotFound indicates a rotation folder that is missing or is not a directory.
	ErrFolderNotFound = errors.Wrap(errors.ErrProtocol, "folder doesn't exist or is not a directory")

	// ErrEmptyFolder indicates a rotation folder without visible data files.
	ErrEmptyFolder = errors.Wrap(errors.ErrProtocol, "no files in folder")

	// ErrRotationFailed indicates at least one file in the folder was not rotated.
	ErrRotationFailed = errors.Wrap(errors.ErrProtocol, "master key rotation failed")
)
