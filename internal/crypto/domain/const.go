package domain

import "time"

// Algorithm is the AEAD used by the local key cipher.
type Algorithm string

const (
	// AESGCM accepts 128, 192 and 256-bit keys with a 12-byte nonce.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305. It only accepts 256-bit keys.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Key identifiers used inside a single file's key material.
const (
	FooterKeyID       = "footerKey"
	ColumnKeyIDPrefix = "columnKey"
)

// KeyMaterialTypePKMT1 is the only key material format version produced and accepted.
const KeyMaterialTypePKMT1 = "PKMT1"

// Defaults applied when the corresponding setting is absent.
const (
	DefaultKmsInstanceID  = "DEFAULT"
	DefaultKmsInstanceURL = "DEFAULT"
	DefaultAccessToken    = "DEFAULT"

	DefaultDoubleWrapping      = true
	DefaultKeyMaterialInternal = true
	DefaultCacheLifetime       = 600 * time.Second

	DefaultDataKeyLengthBits = 128
	DefaultKekLengthBits     = 128

	// DefaultRotationCacheCleanPeriod bounds how often a rotation may clear the KEK write cache.
	DefaultRotationCacheCleanPeriod = time.Hour
)

// KekIDLength is the size in bytes of a randomly generated KEK identifier.
const KekIDLength = 16
