package service

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// LocalKmsClient wraps keys with master keys held in process.
//
// It is meant for development and tests. The master key id is bound to every
// wrapped key as AAD, so a key wrapped under one master key id cannot be unwrapped
// under another even if both ids share key bytes. The access token is not checked.
type LocalKmsClient struct {
	masterKeys *cryptoDomain.MasterKeyChain
	keyCipher  LocalKeyCipher

	kmsInstanceID string
}

// NewLocalKmsClientFactory returns a factory for clients sharing masterKeys.
func NewLocalKmsClientFactory(masterKeys *cryptoDomain.MasterKeyChain, keyCipher LocalKeyCipher) KmsClientFactory {
	return func() cryptoDomain.KmsClient {
		return &LocalKmsClient{masterKeys: masterKeys, keyCipher: keyCipher}
	}
}

func (l *LocalKmsClient) Initialize(ctx context.Context, kmsInstanceID, kmsInstanceURL, accessToken string) error {
	if l.masterKeys == nil {
		return cryptoDomain.ErrMasterKeysNotSet
	}
	l.kmsInstanceID = kmsInstanceID
	return nil
}

func (l *LocalKmsClient) WrapKey(ctx context.Context, keyBytes []byte, masterKeyID string) (string, error) {
	masterKey, err := l.masterKey(masterKeyID)
	if err != nil {
		return "", err
	}
	return l.keyCipher.WrapLocally(keyBytes, masterKey.Key, []byte(masterKeyID))
}

func (l *LocalKmsClient) UnwrapKey(ctx context.Context, wrappedKey string, masterKeyID string) ([]byte, error) {
	masterKey, err := l.masterKey(masterKeyID)
	if err != nil {
		return nil, err
	}
	return l.keyCipher.UnwrapLocally(wrappedKey, masterKey.Key, []byte(masterKeyID))
}

func (l *LocalKmsClient) masterKey(masterKeyID string) (*cryptoDomain.MasterKey, error) {
	masterKey, ok := l.masterKeys.Get(masterKeyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in kms instance %s", cryptoDomain.ErrMasterKeyNotFound, masterKeyID, l.kmsInstanceID)
	}
	return masterKey, nil
}
