package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/parquet-keytools/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(validation.NewError("code", "must not be blank"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "must not be blank")
}

func TestRules(t *testing.T) {
	tests := []struct {
		name      string
		rule      validation.Rule
		value     string
		shouldErr bool
	}{
		{name: "not blank", rule: NotBlank, value: "kf"},
		{name: "blank", rule: NotBlank, value: "   ", shouldErr: true},
		{name: "no whitespace", rule: NoWhitespace, value: "kf"},
		{name: "trailing whitespace", rule: NoWhitespace, value: "kf ", shouldErr: true},
		{name: "master key id", rule: MasterKeyID, value: "projects/p1/keys/footer-key_1.v2"},
		{name: "master key id with separator", rule: MasterKeyID, value: "kf:1", shouldErr: true},
		{name: "master key id with comma", rule: MasterKeyID, value: "kf,kc", shouldErr: true},
		{name: "relative path", rule: RelativePath, value: "warehouse/t1/part-0.parquet"},
		{name: "absolute path", rule: RelativePath, value: "/etc/passwd", shouldErr: true},
		{name: "parent segment", rule: RelativePath, value: "warehouse/../secret", shouldErr: true},
		{name: "dots in name", rule: RelativePath, value: "warehouse/..data"},
		{name: "base64", rule: Base64, value: "AAECAw=="},
		{name: "invalid base64", rule: Base64, value: "not base64!", shouldErr: true},
		{name: "empty base64", rule: Base64, value: ""},
		{name: "json object", rule: JSONObject, value: `{"keyMaterialType":"PKMT1"}`},
		{name: "json array", rule: JSONObject, value: `["PKMT1"]`, shouldErr: true},
		{name: "invalid json", rule: JSONObject, value: `{`, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, tt.rule)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
