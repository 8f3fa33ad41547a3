package membership

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gymbeta/internal/api"
	"gymbeta/internal/auth"
	"gymbeta/internal/catalog"
	"gymbeta/internal/logger"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const cardSize = 256

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

// CardPayload is the text encoded in a member's check-in QR code.
func CardPayload(memberID int) string {
	return fmt.Sprintf("GYMBETA-MEMBER:%d", memberID)
}

// @Summary      My memberships
// @Description  Sweeps both ledgers and returns current coverage with history
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} membership.Overview
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /me/memberships [get]
func (h *Handler) MyMemberships(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Member profile required"})
		return
	}

	ov, err := h.service.Overview(c.Request.Context(), memberID, h.now())
	if err != nil {
		h.writeError(c, err, "Failed to load memberships")
		return
	}

	c.JSON(http.StatusOK, ov)
}

// @Summary      Member card
// @Description  PNG QR code identifying the member at the front desk
// @Tags         memberships
// @Produce      png
// @Security     BearerAuth
// @Success      200 {file} binary
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /me/card.png [get]
func (h *Handler) MemberCard(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Member profile required"})
		return
	}

	png, err := qrcode.Encode(CardPayload(memberID), qrcode.Medium, cardSize)
	if err != nil {
		logger.WithError(err).Error("render member card", "member_id", memberID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to render card"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// @Summary      Member detail
// @Description  Front desk view of a member's GYM and PT coverage
// @Tags         desk
// @Produce      json
// @Security     BearerAuth
// @Param        memberID path int true "Member ID"
// @Success      200 {object} membership.Overview
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /desk/members/{memberID} [get]
func (h *Handler) MemberDetail(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	ov, err := h.service.Overview(c.Request.Context(), memberID, h.now())
	if err != nil {
		h.writeError(c, err, "Failed to load member")
		return
	}

	c.JSON(http.StatusOK, ov)
}

// @Summary      Pending PT subscriptions
// @Tags         trainer
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} membership.LedgerEntry
// @Failure      500 {object} api.ErrorResponse
// @Router       /trainer/pt/pending [get]
func (h *Handler) ListPendingPT(c *gin.Context) {
	entries, err := h.service.ListPendingPT(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch pending subscriptions"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// @Summary      Accept a PT subscription
// @Description  Starts the subscription now with the calling trainer assigned
// @Tags         trainer
// @Produce      json
// @Security     BearerAuth
// @Param        entryID path int true "Ledger entry ID"
// @Success      200 {object} membership.LedgerEntry
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /trainer/pt/{entryID}/accept [post]
func (h *Handler) AcceptPT(c *gin.Context) {
	entryID, trainerID, ok := h.trainerTarget(c)
	if !ok {
		return
	}

	entry, err := h.service.AcceptPT(c.Request.Context(), trainerID, entryID, h.now())
	if err != nil {
		h.writeError(c, err, "Failed to accept subscription")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// @Summary      Reject a PT subscription
// @Tags         trainer
// @Produce      json
// @Security     BearerAuth
// @Param        entryID path int true "Ledger entry ID"
// @Success      200 {object} membership.LedgerEntry
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /trainer/pt/{entryID}/reject [post]
func (h *Handler) RejectPT(c *gin.Context) {
	entryID, trainerID, ok := h.trainerTarget(c)
	if !ok {
		return
	}

	entry, err := h.service.RejectPT(c.Request.Context(), trainerID, entryID)
	if err != nil {
		h.writeError(c, err, "Failed to reject subscription")
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) trainerTarget(c *gin.Context) (entryID, trainerID int, ok bool) {
	entryID, err := strconv.Atoi(c.Param("entryID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid entry ID"})
		return 0, 0, false
	}

	trainerID, ok = auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return 0, 0, false
	}
	return entryID, trainerID, true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, catalog.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Subscription not found"})
	case errors.Is(err, ErrNotPending):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Subscription is not pending"})
	case errors.Is(err, ErrPTCoverageActive):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Member still has running PT coverage"})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}
