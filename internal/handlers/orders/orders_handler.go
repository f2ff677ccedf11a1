// internal/handlers/orders/orders_handler.go
package orders

import (
	"errors"
	"net/http"

	"instaup-service/internal/domain/order"
	"instaup-service/internal/middleware"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/pkg/response"
	orderUsecase "instaup-service/internal/service/orders"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *orderUsecase.Service
	logger       *zap.Logger
}

func NewOrderHandler(orderService *orderUsecase.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Create submits a new order (requires auth)
func (h *OrderHandler) Create(c *gin.Context) {
	userCore := middleware.MustGetCore(c)

	var req order.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.orderService.Submit(c.Request.Context(), userCore, req)
	if err != nil {
		var orderErr *apperr.OrderError
		switch {
		case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrSessionExpired):
			response.Unauthorized(c, "session expired")

		case errors.Is(err, apperr.ErrInsufficientFunds):
			response.Error(c, http.StatusPaymentRequired, "insufficient funds", err, gin.H{
				"hint": "top up your balance; the order will be offered for resume",
			})

		case errors.Is(err, apperr.ErrNetworkUnavailable):
			response.Error(c, http.StatusServiceUnavailable, "backend unavailable, try again", err)

		case errors.Is(err, apperr.ErrUnknownOutcome):
			// The order may or may not exist upstream. The UI must re-check
			// the order list instead of resubmitting.
			response.Error(c, http.StatusGatewayTimeout, "order outcome unknown", err)

		case errors.As(err, &orderErr):
			response.Error(c, http.StatusBadRequest, "order rejected", err)

		default:
			h.logger.Error("order submission failed",
				zap.String("user_id", userCore.UserID),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "order submission failed", nil)
		}
		return
	}

	response.Success(c, http.StatusCreated, "order submitted", result)
}

// List returns the ledger snapshot, newest first (requires auth)
func (h *OrderHandler) List(c *gin.Context) {
	userCore := middleware.MustGetCore(c)

	listed, err := h.orderService.Orders(userCore)
	if err != nil {
		response.Unauthorized(c, "session expired")
		return
	}

	response.Success(c, http.StatusOK, "orders", listed)
}

// Get returns a single order (requires auth)
func (h *OrderHandler) Get(c *gin.Context) {
	userCore := middleware.MustGetCore(c)

	o, err := h.orderService.Get(userCore, c.Param("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.NotFound(c, "order not found")
			return
		}
		response.Unauthorized(c, "session expired")
		return
	}

	response.Success(c, http.StatusOK, "order", o)
}
