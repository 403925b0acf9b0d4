package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	customValidation "github.com/allisson/parquet-keytools/internal/validation"
)

// RunCreateMasterKey generates a random master key for the local KMS client and
// prints it as a MASTER_KEYS entry. If keyID is empty a dated id is used. When
// existingMasterKeys is set the new entry is appended to it.
//
// The local client is meant for development; production deployments keep master
// keys in a real KMS (KMS_CLIENT=gocloud or vault).
func RunCreateMasterKey(writer io.Writer, keyID string, bits int, existingMasterKeys string) error {
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().UTC().Format("2006-01-02"))
	}
	if err := customValidation.MasterKeyID.Validate(keyID); err != nil {
		return fmt.Errorf("invalid master key id %q: %w", keyID, err)
	}
	if err := cryptoDomain.ValidateKeyLengthBits(bits); err != nil {
		return err
	}

	masterKey := make([]byte, bits/8)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	entry := keyID + ":" + base64.StdEncoding.EncodeToString(masterKey)
	masterKeys := entry
	if existingMasterKeys != "" {
		masterKeys = existingMasterKeys + "," + entry
	}

	_, _ = fmt.Fprintln(writer, "# Local KMS master key (development only)")
	_, _ = fmt.Fprintln(writer, "# Copy this variable to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s\"\n", masterKeys)
	_, _ = fmt.Fprintln(writer, "KMS_CLIENT=\"local\"")
	return nil
}
