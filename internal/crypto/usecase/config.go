package usecase

import (
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// Config holds the key protocol settings shared by wrappers, unwrappers and rotation.
//
// An empty KmsInstanceID or KmsInstanceURL means "not configured": wrappers use the
// DEFAULT placeholders and unwrappers fall back to the footer key material.
type Config struct {
	KmsInstanceID            string
	KmsInstanceURL           string
	DoubleWrapping           bool
	KeyMaterialInternal      bool
	CacheLifetime            time.Duration
	DataKeyLengthBits        int
	KekLengthBits            int
	RotationCacheCleanPeriod time.Duration
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{
		DoubleWrapping:           cryptoDomain.DefaultDoubleWrapping,
		KeyMaterialInternal:      cryptoDomain.DefaultKeyMaterialInternal,
		CacheLifetime:            cryptoDomain.DefaultCacheLifetime,
		DataKeyLengthBits:        cryptoDomain.DefaultDataKeyLengthBits,
		KekLengthBits:            cryptoDomain.DefaultKekLengthBits,
		RotationCacheCleanPeriod: cryptoDomain.DefaultRotationCacheCleanPeriod,
	}
}

// Validate rejects settings the protocol cannot run with.
func (c Config) Validate() error {
	if err := cryptoDomain.ValidateKeyLengthBits(c.DataKeyLengthBits); err != nil {
		return fmt.Errorf("data key length: %w", err)
	}
	if err := cryptoDomain.ValidateKeyLengthBits(c.KekLengthBits); err != nil {
		return fmt.Errorf("kek length: %w", err)
	}
	if c.CacheLifetime <= 0 {
		return fmt.Errorf("%w: cache lifetime must be positive", errors.ErrConfiguration)
	}
	if c.RotationCacheCleanPeriod < 0 {
		return fmt.Errorf("%w: rotation cache clean period must not be negative", errors.ErrConfiguration)
	}
	return nil
}

func (c Config) wrapperKmsInstanceID() string {
	if c.KmsInstanceID == "" {
		return cryptoDomain.DefaultKmsInstanceID
	}
	return c.KmsInstanceID
}

func (c Config) wrapperKmsInstanceURL() string {
	if c.KmsInstanceURL == "" {
		return cryptoDomain.DefaultKmsInstanceURL
	}
	return c.KmsInstanceURL
}

func normalizeAccessToken(accessToken string) string {
	if accessToken == "" {
		return cryptoDomain.DefaultAccessToken
	}
	return accessToken
}

// formatTokenForLog keeps only the last five characters of a token.
func formatTokenForLog(accessToken string) string {
	const visible = 5
	if len(accessToken) <= visible {
		return "*****"
	}
	return "..." + accessToken[len(accessToken)-visible:]
}
