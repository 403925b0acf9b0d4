package domain

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MasterKey is a master key held in process by the local KMS client.
//
// Local master keys exist for development and tests. Production deployments keep
// master keys inside a real KMS and never see their bytes.
type MasterKey struct {
	ID  string
	Key []byte
}

// MasterKeyChain is a concurrent set of local master keys indexed by id.
type MasterKeyChain struct {
	keys sync.Map
}

// Get retrieves a master key by id.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// IDs returns the ids of all master keys in sorted order.
func (m *MasterKeyChain) IDs() []string {
	ids := make([]string, 0)
	m.keys.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}

// Close zeroes every master key and empties the chain.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(_, value any) bool {
		Zero(value.(*MasterKey).Key)
		return true
	})
	m.keys.Clear()
}

// ParseMasterKeyChain parses master keys from the MASTER_KEYS format.
//
// The value is a comma-separated list of "id:base64key" entries, for example:
//
//	MASTER_KEYS="kf:AAECAwQFBgcICQoLDA0ODw==,kc1:AAECAwQFBgcICQoLDA0ODw=="
//
// Keys must decode to 16, 24 or 32 bytes. On error no partial chain is returned.
func ParseMasterKeyChain(raw string) (*MasterKeyChain, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMasterKeysNotSet
	}

	mkc := &MasterKeyChain{}

	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 || p[0] == "" {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		if err := ValidateKeyLengthBits(len(key) * 8); err != nil {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf("%w: master key %s has %d bytes", ErrInvalidKeySize, id, len(key))
		}
		mkc.keys.Store(id, &MasterKey{ID: id, Key: key})
	}

	return mkc, nil
}
