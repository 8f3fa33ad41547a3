package user

import (
	"errors"
	"net/http"

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

// Register godoc
// @Summary      Register as a member
// @Description  Creates a member account and returns access and refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      user.RegisterRequest  true  "Registration data"
// @Success      201      {object}  user.LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary      Login
// @Description  Authenticates by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      user.LoginRequest  true  "Credentials"
// @Success      200      {object}  user.LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      user.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  user.LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refresh_token is required"})
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe godoc
// @Summary      Current account
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  user.Profile
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	profile, err := h.service.Me(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// CreateStaff godoc
// @Summary      Create a staff account
// @Description  Admin-only: create a trainer, receptionist or admin account.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      user.CreateStaffRequest  true  "Staff account"
// @Success      201      {object}  user.User
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/staff [post]
func (h *Handler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	u, err := h.service.CreateStaff(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to create staff account")
		return
	}

	c.JSON(http.StatusCreated, u)
}

// RegisterMember godoc
// @Summary      Register a member at the desk
// @Tags         desk
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      user.RegisterRequest  true  "Member data"
// @Success      201      {object}  user.Member
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /desk/members [post]
func (h *Handler) RegisterMember(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	m, err := h.service.RegisterMember(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to register member")
		return
	}

	c.JSON(http.StatusCreated, m)
}

// ListMembers godoc
// @Summary      Search members
// @Tags         desk
// @Security     BearerAuth
// @Produce      json
// @Param        q       query  string  false  "Name, email or phone fragment"
// @Param        status  query  string  false  "active or inactive"
// @Success      200     {array}   user.Member
// @Failure      400     {object}  api.ErrorResponse
// @Router       /desk/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	filter := MemberFilter{
		Search: c.Query("q"),
		Status: MemberStatus(c.Query("status")),
	}

	members, err := h.service.ListMembers(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "Failed to list members")
		return
	}

	c.JSON(http.StatusOK, members)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEmailExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrUnknownRole), errors.Is(err, ErrNotStaffRole), errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("user request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}
