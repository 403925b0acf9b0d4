package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestWrap(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(baseErr, "wrapped")
		require.Error(t, wrapped)
		assert.Equal(t, "wrapped: base error", wrapped.Error())
		assert.ErrorIs(t, wrapped, baseErr)
	})

	t.Run("wrap nil error", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "wrapped"))
	})
}

func TestWrapf(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrapf non-nil error", func(t *testing.T) {
		wrapped := Wrapf(baseErr, "wrapped %s", "footerKey")
		require.Error(t, wrapped)
		assert.Equal(t, "wrapped footerKey: base error", wrapped.Error())
		assert.ErrorIs(t, wrapped, baseErr)
	})

	t.Run("wrapf nil error", func(t *testing.T) {
		assert.NoError(t, Wrapf(nil, "wrapped %d", 1))
	})
}

func TestIsAndAs(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrAccessDenied,
		ErrConfiguration,
		ErrUnsupportedOperation,
		ErrProtocol,
	}

	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			wrapped := Wrap(Wrap(sentinel, "inner"), "outer")
			assert.True(t, Is(wrapped, sentinel))
			for _, other := range sentinels {
				if other != sentinel {
					assert.False(t, Is(wrapped, other))
				}
			}
		})
	}

	t.Run("as custom error", func(t *testing.T) {
		wrapped := Wrap(customError{Msg: "custom"}, "outer")
		var target customError
		require.True(t, As(wrapped, &target))
		assert.Equal(t, "custom", target.Msg)
	})
}

func TestJoin(t *testing.T) {
	assert.Nil(t, Join(nil, nil))

	joined := Join(Wrap(ErrAccessDenied, "file a"), Wrap(ErrProtocol, "file b"))
	assert.True(t, Is(joined, ErrAccessDenied))
	assert.True(t, Is(joined, ErrProtocol))
	assert.False(t, Is(joined, ErrNotFound))
}
