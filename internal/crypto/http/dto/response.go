package dto

import (
	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// FileKeyResponse is a generated key. DataKey is plaintext key material and is
// base64 encoded by encoding/json.
type FileKeyResponse struct {
	KeyMetadata string `json:"key_metadata"`
	DataKey     []byte `json:"data_key"`
}

// GenerateFileKeysResponse holds the keys of a file.
type GenerateFileKeysResponse struct {
	FooterKey  FileKeyResponse            `json:"footer_key"`
	ColumnKeys map[string]FileKeyResponse `json:"column_keys"`
}

// MapGenerateFileKeysOutput converts generated keys to a response. The response
// shares the data key slices with output.
func MapGenerateFileKeysOutput(output *cryptoDomain.GenerateFileKeysOutput) GenerateFileKeysResponse {
	columns := make(map[string]FileKeyResponse, len(output.ColumnKeys))
	for column, key := range output.ColumnKeys {
		columns[column] = mapFileKey(key)
	}
	return GenerateFileKeysResponse{
		FooterKey:  mapFileKey(output.FooterKey),
		ColumnKeys: columns,
	}
}

func mapFileKey(key cryptoDomain.FileKey) FileKeyResponse {
	return FileKeyResponse{KeyMetadata: string(key.KeyMetadata), DataKey: key.DataKey}
}

// UnwrappedKeyResponse is a recovered data key with its master key id.
type UnwrappedKeyResponse struct {
	DataKey     []byte `json:"data_key"`
	MasterKeyID string `json:"master_key_id"`
}

// UnwrapFileKeysResponse holds the recovered keys of a file.
type UnwrapFileKeysResponse struct {
	FooterKey  UnwrappedKeyResponse            `json:"footer_key"`
	ColumnKeys map[string]UnwrappedKeyResponse `json:"column_keys"`
}

// MapUnwrapFileKeysOutput converts recovered keys to a response.
func MapUnwrapFileKeysOutput(output *cryptoDomain.UnwrapFileKeysOutput) UnwrapFileKeysResponse {
	columns := make(map[string]UnwrappedKeyResponse, len(output.ColumnKeys))
	for column, key := range output.ColumnKeys {
		columns[column] = UnwrappedKeyResponse{DataKey: key.DataKey, MasterKeyID: key.MasterID}
	}
	return UnwrapFileKeysResponse{
		FooterKey: UnwrappedKeyResponse{
			DataKey:     output.FooterKey.DataKey,
			MasterKeyID: output.FooterKey.MasterID,
		},
		ColumnKeys: columns,
	}
}

// RotationFailureResponse is a file that could not be rotated.
type RotationFailureResponse struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// RotationResponse reports the outcome of a folder rotation.
type RotationResponse struct {
	Folder       string                    `json:"folder"`
	RotatedFiles []string                  `json:"rotated_files"`
	Failures     []RotationFailureResponse `json:"failures"`
}

// MapRotationResult converts a rotation result to a response.
func MapRotationResult(result *cryptoDomain.RotationResult) RotationResponse {
	response := RotationResponse{
		Folder:       result.Folder,
		RotatedFiles: make([]string, 0, len(result.RotatedFiles)),
		Failures:     make([]RotationFailureResponse, 0, len(result.Failures)),
	}
	response.RotatedFiles = append(response.RotatedFiles, result.RotatedFiles...)
	for _, failure := range result.Failures {
		response.Failures = append(response.Failures, RotationFailureResponse{
			File:  failure.File,
			Error: failure.Err.Error(),
		})
	}
	return response
}
