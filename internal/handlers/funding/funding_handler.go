// internal/handlers/funding/funding_handler.go
package funding

import (
	"errors"
	"net/http"

	"instaup-service/internal/middleware"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/pkg/response"
	fundingUsecase "instaup-service/internal/service/funding"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type FundingHandler struct {
	fundingService *fundingUsecase.Service
	logger         *zap.Logger
}

func NewFundingHandler(fundingService *fundingUsecase.Service, logger *zap.Logger) *FundingHandler {
	return &FundingHandler{
		fundingService: fundingService,
		logger:         logger,
	}
}

// Deposit settles a confirmed deposit and replays a stashed submission if one
// is pending (requires auth)
func (h *FundingHandler) Deposit(c *gin.Context) {
	userCore := middleware.MustGetCore(c)

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.fundingService.Settle(c.Request.Context(), userCore, req.Amount)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			response.Unauthorized(c, "session expired")
			return
		}
		h.logger.Error("deposit failed",
			zap.String("user_id", userCore.UserID),
			zap.Int64("amount", req.Amount),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "deposit failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "deposit settled", result)
}
