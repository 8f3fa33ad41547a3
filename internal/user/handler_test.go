package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymbeta/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResponse), args.Error(1)
}

func (m *MockService) RegisterMember(ctx context.Context, req RegisterRequest) (*Member, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Member), args.Error(1)
}

func (m *MockService) CreateStaff(ctx context.Context, req CreateStaffRequest) (*User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResponse), args.Error(1)
}

func (m *MockService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResponse), args.Error(1)
}

func (m *MockService) Me(ctx context.Context, actor auth.Actor) (*Profile, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Profile), args.Error(1)
}

func (m *MockService) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Member), args.Error(1)
}

func setupRouter(svc Service, actor *auth.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if actor != nil {
		r.Use(func(c *gin.Context) {
			auth.SetActor(c, *actor)
			c.Next()
		})
	}

	h := NewHandler(svc)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
	r.GET("/me", h.GetMe)
	r.POST("/admin/staff", h.CreateStaff)
	r.GET("/desk/members", h.ListMembers)
	r.POST("/desk/members", h.RegisterMember)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Register(t *testing.T) {
	req := RegisterRequest{Name: "Mai", Email: "m@example.com", Password: "secret123"}

	tests := []struct {
		name       string
		body       interface{}
		setup      func(*MockService)
		wantStatus int
	}{
		{
			name: "created",
			body: req,
			setup: func(m *MockService) {
				m.On("Register", mock.Anything, req).Return(&LoginResponse{AccessToken: "a", RefreshToken: "r"}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: req,
			setup: func(m *MockService) {
				m.On("Register", mock.Anything, req).Return(nil, ErrEmailExists)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid body",
			body:       map[string]string{"email": "not-an-email"},
			setup:      func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)

			w := doJSON(setupRouter(svc, nil), http.MethodPost, "/auth/register", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Login(t *testing.T) {
	req := LoginRequest{Email: "m@example.com", Password: "secret123"}

	svc := new(MockService)
	svc.On("Login", mock.Anything, req).Return(nil, ErrInvalidCredentials).Once()
	svc.On("Login", mock.Anything, req).Return(&LoginResponse{AccessToken: "a"}, nil).Once()
	r := setupRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/auth/login", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a", resp.AccessToken)
}

func TestHandler_RefreshToken(t *testing.T) {
	svc := new(MockService)
	svc.On("Refresh", mock.Anything, "bad").Return(nil, auth.ErrInvalidToken)
	r := setupRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/auth/refresh", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_GetMe(t *testing.T) {
	actor := auth.Actor{UserID: 1, Role: auth.RoleMember}

	svc := new(MockService)
	svc.On("Me", mock.Anything, actor).Return(&Profile{User: User{ID: 1, Name: "Mai"}}, nil)

	w := doJSON(setupRouter(svc, &actor), http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(setupRouter(svc, nil), http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_CreateStaff(t *testing.T) {
	admin := auth.Actor{UserID: 1, Role: auth.RoleAdmin}
	req := CreateStaffRequest{Name: "Coach", Email: "c@example.com", Password: "secret123", Role: "member"}

	svc := new(MockService)
	svc.On("CreateStaff", mock.Anything, req).Return(nil, ErrNotStaffRole)

	w := doJSON(setupRouter(svc, &admin), http.MethodPost, "/admin/staff", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Desk(t *testing.T) {
	desk := auth.Actor{UserID: 2, Role: auth.RoleReceptionist}

	svc := new(MockService)
	svc.On("ListMembers", mock.Anything, MemberFilter{Search: "mai", Status: MemberActive}).
		Return([]Member{{ID: 4, Name: "Mai"}}, nil)
	req := RegisterRequest{Name: "Lan", Email: "l@example.com", Password: "secret123"}
	svc.On("RegisterMember", mock.Anything, req).Return(&Member{ID: 5, Name: "Lan"}, nil)
	r := setupRouter(svc, &desk)

	w := doJSON(r, http.MethodGet, "/desk/members?q=mai&status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var members []Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Len(t, members, 1)

	w = doJSON(r, http.MethodPost, "/desk/members", req)
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}
