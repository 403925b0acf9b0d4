package domain

import "context"

// KeyMaterialStore holds the key material of one data file when key material is
// stored outside the file.
//
// Added material is buffered until SaveMaterial. Reads see persisted material only.
// A store instance belongs to a single file and goroutine.
type KeyMaterialStore interface {
	AddKeyMaterial(ctx context.Context, keyIDInFile string, keyMaterial []byte) error
	GetKeyMaterial(ctx context.Context, keyIDInFile string) ([]byte, error)
	KeyIDs(ctx context.Context) ([]string, error)
	SaveMaterial(ctx context.Context) error
	RemoveMaterial(ctx context.Context) error

	// MoveMaterialTo replaces the target's persisted material with this store's and
	// removes this store's copy. The target must be a store of the same kind.
	MoveMaterialTo(ctx context.Context, target KeyMaterialStore) error
}

// KeyMaterialStoreFactory opens the key material store of a data file. The temporary
// store is a sibling used while rotating master keys.
type KeyMaterialStoreFactory interface {
	Open(ctx context.Context, fileLocation string, temporary bool) (KeyMaterialStore, error)
}

// FileLister lists the data files of a folder, skipping hidden entries.
type FileLister interface {
	ListFiles(ctx context.Context, folder string) ([]string, error)
}
