package domain

// FileKey is a generated data key together with the key metadata to store in the file.
type FileKey struct {
	KeyMetadata []byte
	DataKey     []byte
}

// GenerateFileKeysInput asks for a footer key and one key per encrypted column.
//
// ColumnMasterKeyIDs maps column paths to master key ids. FileLocation is required
// when key material is stored externally.
type GenerateFileKeysInput struct {
	FileLocation       string
	AccessToken        string
	FooterMasterKeyID  string
	ColumnMasterKeyIDs map[string]string
}

// GenerateFileKeysOutput holds the generated keys. Callers zero the data keys once
// the file has been written.
type GenerateFileKeysOutput struct {
	FooterKey  FileKey
	ColumnKeys map[string]FileKey
}

// UnwrapFileKeysInput carries the key metadata read back from a file.
type UnwrapFileKeysInput struct {
	FileLocation      string
	AccessToken       string
	FooterKeyMetadata []byte
	ColumnKeyMetadata map[string][]byte
}

// UnwrapFileKeysOutput holds the recovered data keys by column path.
type UnwrapFileKeysOutput struct {
	FooterKey  *KeyWithMasterID
	ColumnKeys map[string]*KeyWithMasterID
}

// FileRotationFailure records why one file of a folder was not rotated.
type FileRotationFailure struct {
	File string
	Err  error
}

// RotationResult summarizes a folder rotation.
type RotationResult struct {
	Folder       string
	RotatedFiles []string
	Failures     []FileRotationFailure
}
