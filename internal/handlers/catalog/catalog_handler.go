// internal/handlers/catalog/catalog_handler.go
package catalog

import (
	"context"
	"net/http"

	"instaup-service/internal/domain/catalog"
	"instaup-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Lister serves the storefront catalog read model.
type Lister interface {
	ListActive(ctx context.Context) ([]catalog.ServiceItem, error)
}

type CatalogHandler struct {
	catalog Lister
	logger  *zap.Logger
}

func NewCatalogHandler(lister Lister, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: lister,
		logger:  logger,
	}
}

// List returns all active services (public endpoint)
func (h *CatalogHandler) List(c *gin.Context) {
	items, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("catalog listing failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "catalog unavailable", nil)
		return
	}

	response.Success(c, http.StatusOK, "services", items)
}
