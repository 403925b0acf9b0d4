// Package http provides HTTP handlers for data key generation, key recovery, master
// key rotation and KMS cache revocation.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/parquet-keytools/internal/crypto/usecase"
	"github.com/allisson/parquet-keytools/internal/httputil"
	customValidation "github.com/allisson/parquet-keytools/internal/validation"
)

// KeyHandler handles the per-file key endpoints.
type KeyHandler struct {
	keyUseCase cryptoUseCase.KeyUseCase
	logger     *slog.Logger
}

// NewKeyHandler creates a new key handler.
func NewKeyHandler(keyUseCase cryptoUseCase.KeyUseCase, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{
		keyUseCase: keyUseCase,
		logger:     logger,
	}
}

// GenerateHandler creates the footer and column keys of a new file.
// POST /v1/files/keys - Returns 201 Created with plaintext keys and their metadata.
// SECURITY: Data keys are zeroed after the response is written.
func (h *KeyHandler) GenerateHandler(c *gin.Context) {
	var req dto.GenerateFileKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.keyUseCase.GenerateFileKeys(c.Request.Context(), req.ToInput(httputil.GetAccessToken(c)))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer zeroGeneratedKeys(output)

	c.JSON(http.StatusCreated, dto.MapGenerateFileKeysOutput(output))
}

// UnwrapHandler recovers the data keys of a file from its key metadata.
// POST /v1/files/keys/unwrap - Returns 200 OK with plaintext keys.
// SECURITY: Data keys are zeroed after the response is written.
func (h *KeyHandler) UnwrapHandler(c *gin.Context) {
	var req dto.UnwrapFileKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.keyUseCase.UnwrapFileKeys(c.Request.Context(), req.ToInput(httputil.GetAccessToken(c)))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer zeroUnwrappedKeys(output)

	c.JSON(http.StatusOK, dto.MapUnwrapFileKeysOutput(output))
}

func zeroGeneratedKeys(output *cryptoDomain.GenerateFileKeysOutput) {
	cryptoDomain.Zero(output.FooterKey.DataKey)
	for _, key := range output.ColumnKeys {
		cryptoDomain.Zero(key.DataKey)
	}
}

func zeroUnwrappedKeys(output *cryptoDomain.UnwrapFileKeysOutput) {
	if output.FooterKey != nil {
		output.FooterKey.Zero()
	}
	for _, key := range output.ColumnKeys {
		key.Zero()
	}
}
