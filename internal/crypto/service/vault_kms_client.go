package service

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"gocloud.dev/secrets/hashivault"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/errors"
)

// VaultKmsClient wraps keys with HashiCorp Vault's transit engine.
//
// The KMS instance URL is the Vault address and the access token is the Vault
// token, so each caller token gets its own Vault client. Master key ids are transit
// key names.
type VaultKmsClient struct {
	keepers *keeperSet
}

// NewVaultKmsClientFactory returns a factory for Vault transit clients.
func NewVaultKmsClientFactory() KmsClientFactory {
	return func() cryptoDomain.KmsClient {
		return &VaultKmsClient{}
	}
}

func (v *VaultKmsClient) Initialize(ctx context.Context, kmsInstanceID, kmsInstanceURL, accessToken string) error {
	if kmsInstanceURL == "" || kmsInstanceURL == cryptoDomain.DefaultKmsInstanceURL {
		return fmt.Errorf("%w: vault requires a kms instance url", errors.ErrConfiguration)
	}
	if accessToken == "" || accessToken == cryptoDomain.DefaultAccessToken {
		return fmt.Errorf("%w: vault token not provided", errors.ErrAccessDenied)
	}

	client, err := hashivault.Dial(ctx, &hashivault.Config{
		Token:     accessToken,
		APIConfig: api.Config{Address: kmsInstanceURL},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to connect to vault: %v", errors.ErrConfiguration, err)
	}

	v.keepers = newKeeperSet(func(ctx context.Context, masterKeyID string) (Keeper, error) {
		return hashivault.OpenKeeper(client, masterKeyID, nil), nil
	})
	return nil
}

// Close releases the transit keepers. A client that never initialized holds none.
func (v *VaultKmsClient) Close() error {
	if v.keepers == nil {
		return nil
	}
	return v.keepers.close()
}

func (v *VaultKmsClient) WrapKey(ctx context.Context, keyBytes []byte, masterKeyID string) (string, error) {
	if v.keepers == nil {
		return "", fmt.Errorf("%w: vault client is not initialized", errors.ErrConfiguration)
	}
	return v.keepers.wrap(ctx, keyBytes, masterKeyID)
}

func (v *VaultKmsClient) UnwrapKey(ctx context.Context, wrappedKey string, masterKeyID string) ([]byte, error) {
	if v.keepers == nil {
		return nil, fmt.Errorf("%w: vault client is not initialized", errors.ErrConfiguration)
	}
	return v.keepers.unwrap(ctx, wrappedKey, masterKeyID)
}
