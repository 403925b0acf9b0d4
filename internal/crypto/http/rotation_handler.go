package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	"github.com/allisson/parquet-keytools/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/parquet-keytools/internal/crypto/usecase"
	"github.com/allisson/parquet-keytools/internal/errors"
	"github.com/allisson/parquet-keytools/internal/httputil"
	customValidation "github.com/allisson/parquet-keytools/internal/validation"
)

// RotationHandler handles master key rotation of folders.
type RotationHandler struct {
	rotationUseCase cryptoUseCase.RotationUseCase
	logger          *slog.Logger
}

// NewRotationHandler creates a new rotation handler.
func NewRotationHandler(rotationUseCase cryptoUseCase.RotationUseCase, logger *slog.Logger) *RotationHandler {
	return &RotationHandler{
		rotationUseCase: rotationUseCase,
		logger:          logger,
	}
}

// RotateHandler re-wraps every file key of a folder under the latest master key versions.
// POST /v1/rotations - Returns 200 OK when every file was rotated and 207 Multi-Status
// when some files failed. Other errors are mapped as usual.
func (h *RotationHandler) RotateHandler(c *gin.Context) {
	var req dto.RotateMasterKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.rotationUseCase.RotateMasterKeys(c.Request.Context(), req.Folder, httputil.GetAccessToken(c))
	if err != nil {
		if result != nil && errors.Is(err, cryptoDomain.ErrRotationFailed) {
			h.logger.Warn("master key rotation partially failed",
				slog.String("folder", req.Folder),
				slog.Int("failed", len(result.Failures)),
			)
			c.JSON(http.StatusMultiStatus, dto.MapRotationResult(result))
			return
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRotationResult(result))
}
