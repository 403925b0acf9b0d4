// Package validation provides custom validation rules for request payloads.
package validation

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/parquet-keytools/internal/errors"
)

// masterKeyIDRegex matches ids that survive the "id:key,..." and "id=url,..." lists.
var masterKeyIDRegex = regexp.MustCompile(`^[A-Za-z0-9._/\-]+$`)

// WrapValidationError wraps validation errors as ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that a string has no leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// MasterKeyID validates a master key identifier.
var MasterKeyID = validation.NewStringRuleWithError(
	masterKeyIDRegex.MatchString,
	validation.NewError("validation_master_key_id", "must contain only letters, digits, '.', '_', '/' or '-'"),
)

// RelativePath validates a bucket path: no leading slash and no ".." segments.
var RelativePath = validation.NewStringRuleWithError(
	func(s string) bool {
		if strings.HasPrefix(s, "/") {
			return false
		}
		for _, segment := range strings.Split(s, "/") {
			if segment == ".." {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_relative_path", "must be a relative path without '..' segments"),
)

// Base64 validates that a string is valid standard base64.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// JSONObject validates that a string is a JSON object, as key metadata is.
var JSONObject = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_json_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return validation.NewError("validation_json_object", "must be a JSON object")
	}
	return nil
})
