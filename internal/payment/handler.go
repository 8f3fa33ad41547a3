package payment

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"gymbeta/internal/api"
	"gymbeta/internal/auth"
	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"
	"gymbeta/internal/membership"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = int64(65536)

type Handler struct {
	reconciler *Reconciler
	checkout   *Checkout
}

func NewHandler(reconciler *Reconciler, checkout *Checkout) *Handler {
	return &Handler{
		reconciler: reconciler,
		checkout:   checkout,
	}
}

// @Summary      Sell a package at the counter
// @Description  Receptionist records an in-person payment; the package is placed immediately
// @Tags         desk
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        memberID path int true "Member ID"
// @Param        request body payment.CounterPurchaseRequest true "Purchase"
// @Success      201 {object} payment.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /desk/members/{memberID}/packages [post]
func (h *Handler) CounterPurchase(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	var req CounterPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.reconciler.PurchaseAtCounter(c.Request.Context(), memberID, req.PackageID, req.Note)
	if err != nil {
		writeError(c, err, "Failed to record purchase")
		return
	}

	c.JSON(http.StatusCreated, res)
}

// @Summary      Start checkout
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CheckoutRequest true "Package to buy"
// @Success      201 {object} payment.CheckoutSession
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /payments/checkout [post]
func (h *Handler) StartCheckout(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Member profile required"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	email, _ := auth.GetUserEmail(c)
	sess, err := h.checkout.Start(c.Request.Context(), memberID, email, req.PackageID)
	if err != nil {
		writeError(c, err, "Failed to start checkout")
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// @Summary      Confirm checkout
// @Description  Called from the success page; reconciles the session if it is paid
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        session_id query string true "Checkout session ID"
// @Success      200 {object} payment.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /payments/checkout/confirm [get]
func (h *Handler) ConfirmCheckout(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Member profile required"})
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "session_id is required"})
		return
	}

	res, err := h.checkout.Confirm(c.Request.Context(), memberID, sessionID)
	if err != nil {
		writeError(c, err, "Failed to confirm checkout")
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Stripe webhook
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      413 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /webhooks/stripe [post]
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "Payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid payload"})
		return
	}

	if _, err := h.checkout.HandleWebhook(c.Request.Context(), body, c.GetHeader("Stripe-Signature")); err != nil {
		// 4xx stops gateway retries, 5xx asks for redelivery
		writeError(c, err, "Failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
}

// @Summary      My payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} payment.Payment
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /me/payments [get]
func (h *Handler) MyPayments(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Member profile required"})
		return
	}
	h.listPayments(c, memberID)
}

// @Summary      Member payments
// @Tags         desk
// @Produce      json
// @Security     BearerAuth
// @Param        memberID path int true "Member ID"
// @Success      200 {array} payment.Payment
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /desk/members/{memberID}/payments [get]
func (h *Handler) MemberPayments(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}
	h.listPayments(c, memberID)
}

func (h *Handler) listPayments(c *gin.Context, memberID int) {
	payments, err := h.checkout.Payments(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err, "Failed to fetch payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, membership.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, catalog.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Package not found"})
	case errors.Is(err, membership.ErrGymCoverageRequired):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "PT packages require an active GYM membership"})
	case errors.Is(err, ErrForeignCheckout):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Checkout belongs to another member"})
	case errors.Is(err, ErrCheckoutNotPaid):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Checkout is not paid yet"})
	case errors.Is(err, ErrGatewayDisabled):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Online payments are not configured"})
	case isClientError(err):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}
