package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("zero non-empty slice", func(t *testing.T) {
		b := []byte{1, 2, 3, 4, 5}
		Zero(b)
		assert.Equal(t, []byte{0, 0, 0, 0, 0}, b)
	})

	t.Run("zero nil slice", func(t *testing.T) {
		var b []byte
		assert.NotPanics(t, func() { Zero(b) })
	})

	t.Run("zero data key of key with master id", func(t *testing.T) {
		k := &KeyWithMasterID{DataKey: []byte{9, 9, 9}, MasterID: "kf"}
		k.Zero()
		assert.Equal(t, []byte{0, 0, 0}, k.DataKey)
		assert.Equal(t, "kf", k.MasterID)
	})
}
