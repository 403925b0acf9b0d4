package app

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/allisson/parquet-keytools/internal/config"
	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	cryptoRepository "github.com/allisson/parquet-keytools/internal/crypto/repository"
	cryptoService "github.com/allisson/parquet-keytools/internal/crypto/service"
	cryptoUseCase "github.com/allisson/parquet-keytools/internal/crypto/usecase"
	apperrors "github.com/allisson/parquet-keytools/internal/errors"
)

type cryptoComponents struct {
	keyCipher       cryptoService.LocalKeyCipher
	masterKeyChain  *cryptoDomain.MasterKeyChain
	registry        *cryptoService.KmsClientRegistry
	storeFactory    cryptoDomain.KeyMaterialStoreFactory
	fileLister      cryptoDomain.FileLister
	toolkit         *cryptoUseCase.KeyToolkit
	keyUseCase      cryptoUseCase.KeyUseCase
	rotationUseCase cryptoUseCase.RotationUseCase

	keyCipherInit       sync.Once
	registryInit        sync.Once
	storeFactoryInit    sync.Once
	fileListerInit      sync.Once
	toolkitInit         sync.Once
	keyUseCaseInit      sync.Once
	rotationUseCaseInit sync.Once
}

// KeyCipher returns the local AEAD key cipher used for double wrapping and by the
// local KMS client.
func (c *Container) KeyCipher() cryptoService.LocalKeyCipher {
	c.crypto.keyCipherInit.Do(func() {
		c.crypto.keyCipher = cryptoService.NewKeyCipher(
			cryptoService.NewAEADManager(),
			cryptoDomain.Algorithm(c.config.KeyWrapAlgorithm),
		)
	})
	return c.crypto.keyCipher
}

// KmsClientRegistry returns the registry of KMS client factories.
func (c *Container) KmsClientRegistry() (*cryptoService.KmsClientRegistry, error) {
	c.crypto.registryInit.Do(func() {
		registry, err := c.initKmsClientRegistry()
		if err != nil {
			c.setInitError("kmsClientRegistry", err)
			return
		}
		c.crypto.registry = registry
	})
	if err := c.initError("kmsClientRegistry"); err != nil {
		return nil, err
	}
	return c.crypto.registry, nil
}

// KeyMaterialStoreFactory returns the factory of external key material stores, or
// nil when key material is kept inside the files.
func (c *Container) KeyMaterialStoreFactory() (cryptoDomain.KeyMaterialStoreFactory, error) {
	c.crypto.storeFactoryInit.Do(func() {
		factory, err := c.initKeyMaterialStoreFactory()
		if err != nil {
			c.setInitError("keyMaterialStoreFactory", err)
			return
		}
		c.crypto.storeFactory = factory
	})
	if err := c.initError("keyMaterialStoreFactory"); err != nil {
		return nil, err
	}
	return c.crypto.storeFactory, nil
}

// FileLister returns the lister of data files in rotation folders.
func (c *Container) FileLister() (cryptoDomain.FileLister, error) {
	c.crypto.fileListerInit.Do(func() {
		bucket, err := c.Bucket()
		if err != nil {
			c.setInitError("fileLister", err)
			return
		}
		c.crypto.fileLister = cryptoRepository.NewBlobFileLister(bucket)
	})
	if err := c.initError("fileLister"); err != nil {
		return nil, err
	}
	return c.crypto.fileLister, nil
}

// KeyToolkit returns the toolkit holding the KMS client and KEK caches.
func (c *Container) KeyToolkit() (*cryptoUseCase.KeyToolkit, error) {
	c.crypto.toolkitInit.Do(func() {
		toolkit, err := c.initKeyToolkit()
		if err != nil {
			c.setInitError("keyToolkit", err)
			return
		}
		c.crypto.toolkit = toolkit
	})
	if err := c.initError("keyToolkit"); err != nil {
		return nil, err
	}
	return c.crypto.toolkit, nil
}

// KeyUseCase returns the file key use case wrapped with metrics.
func (c *Container) KeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	c.crypto.keyUseCaseInit.Do(func() {
		useCase, err := c.initKeyUseCase()
		if err != nil {
			c.setInitError("keyUseCase", err)
			return
		}
		c.crypto.keyUseCase = useCase
	})
	if err := c.initError("keyUseCase"); err != nil {
		return nil, err
	}
	return c.crypto.keyUseCase, nil
}

// RotationUseCase returns the master key rotation use case wrapped with metrics.
func (c *Container) RotationUseCase() (cryptoUseCase.RotationUseCase, error) {
	c.crypto.rotationUseCaseInit.Do(func() {
		useCase, err := c.initRotationUseCase()
		if err != nil {
			c.setInitError("rotationUseCase", err)
			return
		}
		c.crypto.rotationUseCase = useCase
	})
	if err := c.initError("rotationUseCase"); err != nil {
		return nil, err
	}
	return c.crypto.rotationUseCase, nil
}

// initKmsClientRegistry registers every KMS client kind that can be built from the
// configuration. The local client needs MASTER_KEYS and is only registered when
// they are set, or required when it is selected.
func (c *Container) initKmsClientRegistry() (*cryptoService.KmsClientRegistry, error) {
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	registry := cryptoService.NewKmsClientRegistry(c.config.KMSClient, businessMetrics)

	if strings.TrimSpace(c.config.MasterKeys) != "" || c.config.KMSClient == cryptoService.LocalKmsClientName {
		chain, err := cryptoDomain.ParseMasterKeyChain(c.config.MasterKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to load master keys: %w", err)
		}
		if err := checkMasterKeyLengths(chain, cryptoDomain.Algorithm(c.config.KeyWrapAlgorithm)); err != nil {
			chain.Close()
			return nil, err
		}
		c.crypto.masterKeyChain = chain
		registry.Register(cryptoService.LocalKmsClientName, cryptoService.NewLocalKmsClientFactory(chain, c.KeyCipher()))
	}

	keeperURLs, err := cryptoService.ParseKeeperURLs(c.config.KMSKeeperURLs)
	if err != nil {
		return nil, err
	}
	registry.Register(
		cryptoService.GocloudKmsClientName,
		cryptoService.NewGocloudKmsClientFactory(cryptoService.NewKMSService(), keeperURLs),
	)
	registry.Register(cryptoService.VaultKmsClientName, cryptoService.NewVaultKmsClientFactory())

	c.Logger().Info("kms clients registered",
		slog.Any("clients", registry.Names()),
		slog.String("selected", c.config.KMSClient),
	)
	return registry, nil
}

// checkMasterKeyLengths rejects local master keys the key cipher cannot use.
// ChaCha20-Poly1305 only takes 256-bit keys; AES-GCM takes every parsed length.
func checkMasterKeyLengths(chain *cryptoDomain.MasterKeyChain, algorithm cryptoDomain.Algorithm) error {
	if algorithm != cryptoDomain.ChaCha20 {
		return nil
	}
	for _, id := range chain.IDs() {
		masterKey, _ := chain.Get(id)
		if len(masterKey.Key) != 32 {
			return fmt.Errorf(
				"%w: master key %s is %d bytes, %s requires 32",
				apperrors.ErrConfiguration,
				id,
				len(masterKey.Key),
				algorithm,
			)
		}
	}
	return nil
}

func (c *Container) initKeyMaterialStoreFactory() (cryptoDomain.KeyMaterialStoreFactory, error) {
	if c.config.KeyMaterialInternal {
		return nil, nil
	}

	switch c.config.KeyMaterialStore {
	case config.KeyMaterialStoreBlob:
		bucket, err := c.Bucket()
		if err != nil {
			return nil, err
		}
		return cryptoRepository.NewBlobKeyMaterialStoreFactory(bucket), nil
	case config.KeyMaterialStoreDatabase:
		db, err := c.DB()
		if err != nil {
			return nil, err
		}
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		switch c.config.DBDriver {
		case "postgres":
			return cryptoRepository.NewPostgreSQLKeyMaterialStoreFactory(db, txManager), nil
		case "mysql":
			return cryptoRepository.NewMySQLKeyMaterialStoreFactory(db, txManager), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported key material store: %s", c.config.KeyMaterialStore)
	}
}

func (c *Container) initKeyToolkit() (*cryptoUseCase.KeyToolkit, error) {
	registry, err := c.KmsClientRegistry()
	if err != nil {
		return nil, err
	}

	toolkit, err := cryptoUseCase.NewKeyToolkit(
		cryptoUseCase.Config{
			KmsInstanceID:            c.config.KMSInstanceID,
			KmsInstanceURL:           c.config.KMSInstanceURL,
			DoubleWrapping:           c.config.DoubleWrapping,
			KeyMaterialInternal:      c.config.KeyMaterialInternal,
			CacheLifetime:            c.config.CacheLifetime,
			DataKeyLengthBits:        c.config.DataKeyLengthBits,
			KekLengthBits:            c.config.KEKLengthBits,
			RotationCacheCleanPeriod: c.config.RotationCacheCleanPeriod,
		},
		registry,
		c.KeyCipher(),
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create key toolkit: %w", err)
	}
	return toolkit, nil
}

func (c *Container) initKeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	toolkit, err := c.KeyToolkit()
	if err != nil {
		return nil, err
	}
	storeFactory, err := c.KeyMaterialStoreFactory()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := cryptoUseCase.NewKeyUseCase(toolkit, storeFactory)
	return cryptoUseCase.NewKeyUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initRotationUseCase() (cryptoUseCase.RotationUseCase, error) {
	toolkit, err := c.KeyToolkit()
	if err != nil {
		return nil, err
	}
	storeFactory, err := c.KeyMaterialStoreFactory()
	if err != nil {
		return nil, err
	}
	fileLister, err := c.FileLister()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := cryptoUseCase.NewRotationUseCase(toolkit, storeFactory, fileLister, c.Logger())
	return cryptoUseCase.NewRotationUseCaseWithMetrics(useCase, businessMetrics), nil
}
