package catalog

import (
	"errors"
	"net/http"

	"gymbeta/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Create a package
// @Description  Admin-only: add a GYM or PT package to the catalog
// @Tags         admin,packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body catalog.CreatePackageRequest true "Package payload"
// @Success      201 {object} catalog.Package
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/packages [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownPackageType), errors.Is(err, ErrInvalidPackage):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create package"})
		}
		return
	}

	c.JSON(http.StatusCreated, p)
}

// @Summary      List packages
// @Tags         packages
// @Produce      json
// @Param        type query string false "GYM or PT"
// @Success      200 {array} catalog.Package
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	packages, err := h.service.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		if errors.Is(err, ErrUnknownPackageType) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch packages"})
		return
	}

	c.JSON(http.StatusOK, packages)
}
