package training

import (
	"errors"
	"net/http"
	"strconv"

	"gymbeta/internal/api"
	"gymbeta/internal/auth"
	"gymbeta/internal/logger"

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

// @Summary      List exercises
// @Tags         training
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} training.Exercise
// @Failure      500 {object} api.ErrorResponse
// @Router       /exercises [get]
func (h *Handler) ListExercises(c *gin.Context) {
	exercises, err := h.service.ListExercises(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// @Summary      Create a training plan
// @Tags         trainer
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body training.CreatePlanRequest true "Plan"
// @Success      201 {object} training.Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /trainer/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	trainerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), trainerID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// @Summary      List my training plans
// @Tags         trainer
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} training.Plan
// @Router       /trainer/plans [get]
func (h *Handler) ListTrainerPlans(c *gin.Context) {
	trainerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	plans, err := h.service.ListTrainerPlans(c.Request.Context(), trainerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// @Summary      Get a training plan
// @Tags         trainer
// @Security     BearerAuth
// @Produce      json
// @Param        planID path int true "Plan ID"
// @Success      200 {object} training.Plan
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /trainer/plans/{planID} [get]
func (h *Handler) GetPlan(c *gin.Context) {
	trainerID, planID, ok := planTarget(c)
	if !ok {
		return
	}

	plan, err := h.service.GetPlan(c.Request.Context(), trainerID, planID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// @Summary      Replace a training plan
// @Tags         trainer
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        planID  path int true "Plan ID"
// @Param        request body training.UpdatePlanRequest true "Plan"
// @Success      200 {object} training.Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /trainer/plans/{planID} [put]
func (h *Handler) UpdatePlan(c *gin.Context) {
	trainerID, planID, ok := planTarget(c)
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	plan, err := h.service.UpdatePlan(c.Request.Context(), trainerID, planID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// @Summary      Delete a training plan
// @Tags         trainer
// @Security     BearerAuth
// @Param        planID path int true "Plan ID"
// @Success      204
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /trainer/plans/{planID} [delete]
func (h *Handler) DeletePlan(c *gin.Context) {
	trainerID, planID, ok := planTarget(c)
	if !ok {
		return
	}

	if err := h.service.DeletePlan(c.Request.Context(), trainerID, planID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      My training plans
// @Tags         member
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} training.Plan
// @Failure      403 {object} api.ErrorResponse
// @Router       /me/plans [get]
func (h *Handler) MyPlans(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "No member profile"})
		return
	}

	plans, err := h.service.MemberPlans(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func planTarget(c *gin.Context) (trainerID, planID int, ok bool) {
	trainerID, ok = auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return 0, 0, false
	}

	planID, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid plan ID"})
		return 0, 0, false
	}
	return trainerID, planID, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrExerciseNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotPlanOwner):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidPlan), errors.Is(err, ErrTooManyDays):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("training request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
