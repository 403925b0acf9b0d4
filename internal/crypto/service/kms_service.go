package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService opens gocloud.dev secrets keepers.
//
// Supported URL schemes:
//   - base64key://   local keys, development and tests
//   - gcpkms://      Google Cloud KMS
//   - awskms://      AWS KMS
//   - azurekeyvault:// Azure Key Vault
//   - hashivault://  HashiCorp Vault transit, credentials from VAULT_* variables
type KMSService interface {
	OpenKeeper(ctx context.Context, keeperURL string) (Keeper, error)
}

type kmsService struct{}

// NewKMSService creates a KMSService backed by secrets.OpenKeeper.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens the keeper addressed by keeperURL. The caller closes it; KMS
// clients do so from their Close method.
func (k *kmsService) OpenKeeper(ctx context.Context, keeperURL string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keeperURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}
