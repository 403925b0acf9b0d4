// Package dto provides data transfer objects for the key endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	customValidation "github.com/allisson/parquet-keytools/internal/validation"
)

// GenerateFileKeysRequest asks for a footer key and one key per column of a file.
type GenerateFileKeysRequest struct {
	// FileLocation is required when key material is stored outside the file.
	FileLocation       string            `json:"file_location"`
	FooterMasterKeyID  string            `json:"footer_master_key_id"`
	ColumnMasterKeyIDs map[string]string `json:"column_master_key_ids"`
}

// Validate checks if the generate request is valid.
func (r *GenerateFileKeysRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileLocation, customValidation.NoWhitespace, customValidation.RelativePath),
		validation.Field(&r.FooterMasterKeyID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.MasterKeyID,
		),
		validation.Field(&r.ColumnMasterKeyIDs,
			validation.Each(validation.Required, customValidation.MasterKeyID),
		),
	)
}

// ToInput maps the request to the use case input.
func (r *GenerateFileKeysRequest) ToInput(accessToken string) *cryptoDomain.GenerateFileKeysInput {
	return &cryptoDomain.GenerateFileKeysInput{
		FileLocation:       r.FileLocation,
		AccessToken:        accessToken,
		FooterMasterKeyID:  r.FooterMasterKeyID,
		ColumnMasterKeyIDs: r.ColumnMasterKeyIDs,
	}
}

// UnwrapFileKeysRequest carries the key metadata read from a file.
type UnwrapFileKeysRequest struct {
	FileLocation      string            `json:"file_location"`
	FooterKeyMetadata string            `json:"footer_key_metadata"`
	ColumnKeyMetadata map[string]string `json:"column_key_metadata"`
}

// Validate checks if the unwrap request is valid.
func (r *UnwrapFileKeysRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileLocation, customValidation.NoWhitespace, customValidation.RelativePath),
		validation.Field(&r.FooterKeyMetadata, validation.Required, customValidation.JSONObject),
		validation.Field(&r.ColumnKeyMetadata,
			validation.Each(validation.Required, customValidation.JSONObject),
		),
	)
}

// ToInput maps the request to the use case input.
func (r *UnwrapFileKeysRequest) ToInput(accessToken string) *cryptoDomain.UnwrapFileKeysInput {
	columns := make(map[string][]byte, len(r.ColumnKeyMetadata))
	for column, metadata := range r.ColumnKeyMetadata {
		columns[column] = []byte(metadata)
	}
	return &cryptoDomain.UnwrapFileKeysInput{
		FileLocation:      r.FileLocation,
		AccessToken:       accessToken,
		FooterKeyMetadata: []byte(r.FooterKeyMetadata),
		ColumnKeyMetadata: columns,
	}
}

// RotateMasterKeysRequest names the folder whose files are rotated.
type RotateMasterKeysRequest struct {
	Folder string `json:"folder"`
}

// Validate checks if the rotation request is valid.
func (r *RotateMasterKeysRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Folder,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			customValidation.RelativePath,
		),
	)
}
