package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/crypto/http/dto"
	"github.com/allisson/parquet-keytools/internal/crypto/usecase/mocks"
)

func setupRotationHandler() (*RotationHandler, *mocks.MockRotationUseCase) {
	mockUseCase := &mocks.MockRotationUseCase{}
	return NewRotationHandler(mockUseCase, testLogger()), mockUseCase
}

func TestRotationHandler_RotateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupRotationHandler()
		mockUseCase.On("RotateMasterKeys", mock.Anything, "warehouse/t1", "token-1").
			Return(&cryptoDomain.RotationResult{
				Folder:       "warehouse/t1",
				RotatedFiles: []string{"warehouse/t1/a.parquet", "warehouse/t1/b.parquet"},
			}, nil).
			Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/rotations",
			dto.RotateMasterKeysRequest{Folder: "warehouse/t1"}, "token-1")
		handler.RotateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.RotationResponse
		decodeBody(t, w, &response)
		assert.Equal(t, "warehouse/t1", response.Folder)
		assert.Len(t, response.RotatedFiles, 2)
		assert.Empty(t, response.Failures)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("PartialFailure", func(t *testing.T) {
		handler, mockUseCase := setupRotationHandler()
		fileErr := errors.New("kms unavailable")
		mockUseCase.On("RotateMasterKeys", mock.Anything, "t1", "").
			Return(&cryptoDomain.RotationResult{
				Folder:       "t1",
				RotatedFiles: []string{"t1/a.parquet"},
				Failures:     []cryptoDomain.FileRotationFailure{{File: "t1/b.parquet", Err: fileErr}},
			}, fmt.Errorf("%w: 1 of 2 files failed: %w", cryptoDomain.ErrRotationFailed, fileErr)).
			Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/rotations", dto.RotateMasterKeysRequest{Folder: "t1"}, "")
		handler.RotateHandler(c)

		assert.Equal(t, http.StatusMultiStatus, w.Code)
		var response dto.RotationResponse
		decodeBody(t, w, &response)
		assert.Equal(t, []string{"t1/a.parquet"}, response.RotatedFiles)
		assert.Equal(t, []dto.RotationFailureResponse{{File: "t1/b.parquet", Error: "kms unavailable"}}, response.Failures)
	})

	t.Run("Error_InternalKeyMaterial", func(t *testing.T) {
		handler, mockUseCase := setupRotationHandler()
		mockUseCase.On("RotateMasterKeys", mock.Anything, "t1", "").
			Return(nil, cryptoDomain.ErrInternalKeyMaterialRotation).
			Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/rotations", dto.RotateMasterKeysRequest{Folder: "t1"}, "")
		handler.RotateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_Canceled", func(t *testing.T) {
		handler, mockUseCase := setupRotationHandler()
		mockUseCase.On("RotateMasterKeys", mock.Anything, "t1", "").
			Return(&cryptoDomain.RotationResult{Folder: "t1"}, context.Canceled).
			Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/rotations", dto.RotateMasterKeysRequest{Folder: "t1"}, "")
		handler.RotateHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Error_Validation", func(t *testing.T) {
		for _, folder := range []string{"", "   ", "/abs", "a/../b"} {
			handler, mockUseCase := setupRotationHandler()

			c, w := createTestContext(t, http.MethodPost, "/v1/rotations", dto.RotateMasterKeysRequest{Folder: folder}, "")
			handler.RotateHandler(c)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, folder)
			mockUseCase.AssertNotCalled(t, "RotateMasterKeys", mock.Anything, mock.Anything, mock.Anything)
		}
	})
}
