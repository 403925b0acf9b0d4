package domain

import (
	"encoding/json"
	"fmt"
)

// KeyMaterial is the self-describing record that lets a reader recover one data key.
//
// Footer key material also names the KMS instance so a reader can resolve the KMS
// client without any configuration. KekID and EncodedWrappedKEK are only present
// when IsDoubleWrapped is true.
type KeyMaterial struct {
	IsFooterKey       bool
	KmsInstanceID     string
	KmsInstanceURL    string
	MasterKeyID       string
	IsDoubleWrapped   bool
	KekID             string
	EncodedWrappedKEK string
	EncodedWrappedDEK string
	IsInternalStorage bool
}

// keyMaterialJSON is the wire form shared by key material and key metadata.
type keyMaterialJSON struct {
	KeyMaterialType    string `json:"keyMaterialType"`
	InternalStorage    *bool  `json:"internalStorage,omitempty"`
	KeyReference       string `json:"keyReference,omitempty"`
	IsFooterKey        *bool  `json:"isFooterKey,omitempty"`
	KmsInstanceID      string `json:"kmsInstanceID,omitempty"`
	KmsInstanceURL     string `json:"kmsInstanceURL,omitempty"`
	MasterKeyID        string `json:"masterKeyID,omitempty"`
	WrappedDEK         string `json:"wrappedDEK,omitempty"`
	DoubleWrapping     *bool  `json:"doubleWrapping,omitempty"`
	KeyEncryptionKeyID string `json:"keyEncryptionKeyID,omitempty"`
	WrappedKEK         string `json:"wrappedKEK,omitempty"`
}

// Serialize encodes the key material as PKMT1 JSON.
func (k *KeyMaterial) Serialize() ([]byte, error) {
	w := keyMaterialJSON{
		KeyMaterialType: KeyMaterialTypePKMT1,
		InternalStorage: &k.IsInternalStorage,
		IsFooterKey:     &k.IsFooterKey,
		MasterKeyID:     k.MasterKeyID,
		WrappedDEK:      k.EncodedWrappedDEK,
		DoubleWrapping:  &k.IsDoubleWrapped,
	}
	if k.IsFooterKey {
		w.KmsInstanceID = k.KmsInstanceID
		w.KmsInstanceURL = k.KmsInstanceURL
	}
	if k.IsDoubleWrapped {
		w.KeyEncryptionKeyID = k.KekID
		w.WrappedKEK = k.EncodedWrappedKEK
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key material: %w", err)
	}
	return data, nil
}

// ParseKeyMaterial decodes PKMT1 key material.
func ParseKeyMaterial(data []byte) (*KeyMaterial, error) {
	var w keyMaterialJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyMaterial, err)
	}
	return keyMaterialFromJSON(&w)
}

func keyMaterialFromJSON(w *keyMaterialJSON) (*KeyMaterial, error) {
	if w.KeyMaterialType != KeyMaterialTypePKMT1 {
		return nil, fmt.Errorf("%w: %q", ErrWrongKeyMaterialType, w.KeyMaterialType)
	}
	if w.IsFooterKey == nil || w.DoubleWrapping == nil {
		return nil, fmt.Errorf("%w: isFooterKey and doubleWrapping are required", ErrMalformedKeyMaterial)
	}
	if w.MasterKeyID == "" || w.WrappedDEK == "" {
		return nil, fmt.Errorf("%w: masterKeyID and wrappedDEK are required", ErrMalformedKeyMaterial)
	}
	if *w.DoubleWrapping && (w.KeyEncryptionKeyID == "" || w.WrappedKEK == "") {
		return nil, fmt.Errorf(
			"%w: keyEncryptionKeyID and wrappedKEK are required for double wrapping",
			ErrMalformedKeyMaterial,
		)
	}

	km := &KeyMaterial{
		IsFooterKey:       *w.IsFooterKey,
		MasterKeyID:       w.MasterKeyID,
		IsDoubleWrapped:   *w.DoubleWrapping,
		EncodedWrappedDEK: w.WrappedDEK,
		IsInternalStorage: w.InternalStorage != nil && *w.InternalStorage,
	}
	if km.IsFooterKey {
		km.KmsInstanceID = w.KmsInstanceID
		km.KmsInstanceURL = w.KmsInstanceURL
	}
	if km.IsDoubleWrapped {
		km.KekID = w.KeyEncryptionKeyID
		km.EncodedWrappedKEK = w.WrappedKEK
	}
	return km, nil
}

// KeyMetadata is what a file stores next to each encrypted column or footer.
//
// With internal storage it carries the key material itself. With external storage
// it only carries KeyReference, the key id inside the file's key material store.
type KeyMetadata struct {
	IsInternalStorage bool
	KeyReference      string
	KeyMaterial       *KeyMaterial
}

// ParseKeyMetadata decodes key metadata in either storage mode.
func ParseKeyMetadata(data []byte) (*KeyMetadata, error) {
	var w keyMaterialJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyMaterial, err)
	}
	if w.KeyMaterialType != KeyMaterialTypePKMT1 {
		return nil, fmt.Errorf("%w: %q", ErrWrongKeyMaterialType, w.KeyMaterialType)
	}
	if w.InternalStorage == nil {
		return nil, fmt.Errorf("%w: internalStorage is required", ErrMalformedKeyMaterial)
	}

	if !*w.InternalStorage {
		if w.KeyReference == "" {
			return nil, fmt.Errorf("%w: keyReference is required", ErrMalformedKeyMaterial)
		}
		return &KeyMetadata{KeyReference: w.KeyReference}, nil
	}

	km, err := keyMaterialFromJSON(&w)
	if err != nil {
		return nil, err
	}
	return &KeyMetadata{IsInternalStorage: true, KeyMaterial: km}, nil
}

// SerializeExternalKeyMetadata builds the metadata that points at externally stored material.
func SerializeExternalKeyMetadata(keyReference string) ([]byte, error) {
	internal := false
	data, err := json.Marshal(keyMaterialJSON{
		KeyMaterialType: KeyMaterialTypePKMT1,
		InternalStorage: &internal,
		KeyReference:    keyReference,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key metadata: %w", err)
	}
	return data, nil
}
