package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/parquet-keytools/internal/crypto/usecase/mocks"
)

func TestCacheHandler(t *testing.T) {
	t.Run("RevokeToken", func(t *testing.T) {
		mockUseCase := &mocks.MockKeyUseCase{}
		handler := NewCacheHandler(mockUseCase, testLogger())
		mockUseCase.On("RevokeToken", mock.Anything, "token-1").Return(nil).Once()

		c, w := createTestContext(t, http.MethodDelete, "/v1/cache/tokens/self", nil, "token-1")
		handler.RevokeTokenHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("RevokeAll", func(t *testing.T) {
		mockUseCase := &mocks.MockKeyUseCase{}
		handler := NewCacheHandler(mockUseCase, testLogger())
		mockUseCase.On("RevokeAllTokens", mock.Anything).Return(nil).Once()

		c, w := createTestContext(t, http.MethodDelete, "/v1/cache", nil, "")
		handler.RevokeAllHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		mockUseCase := &mocks.MockKeyUseCase{}
		handler := NewCacheHandler(mockUseCase, testLogger())
		mockUseCase.On("RevokeAllTokens", mock.Anything).Return(errors.New("boom")).Once()

		c, w := createTestContext(t, http.MethodDelete, "/v1/cache", nil, "")
		handler.RevokeAllHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
