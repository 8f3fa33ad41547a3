package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymbeta/internal/auth"
	"gymbeta/internal/catalog"
	"gymbeta/internal/config"
	"gymbeta/internal/logger"
	"gymbeta/internal/membership"
	"gymbeta/internal/payment"
	"gymbeta/internal/training"
	"gymbeta/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	User       *user.Handler
	Catalog    *catalog.Handler
	Membership *membership.Handler
	Payment    *payment.Handler
	Training   *training.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, checks map[string]Check) *Server {
	router := NewRouter(cfg, h, checks)
	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func NewRouter(cfg *config.Config, h Handlers, checks map[string]Check) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware(cfg.FrontendURL))

	router.GET("/health", Health(checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	router.GET("/packages", h.Catalog.ListPackages)
	router.POST("/webhooks/stripe", h.Payment.StripeWebhook)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.POST("/register", h.User.Register)
		public.POST("/login", h.User.Login)
		public.POST("/refresh", h.User.RefreshToken)
	}

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/me", h.User.GetMe)
		protected.GET("/exercises", h.Training.ListExercises)
	}

	member := protected.Group("/")
	member.Use(auth.RequireRole(auth.RoleMember))
	{
		member.GET("/me/memberships", h.Membership.MyMemberships)
		member.GET("/me/card.png", h.Membership.MemberCard)
		member.GET("/me/payments", h.Payment.MyPayments)
		member.GET("/me/plans", h.Training.MyPlans)
		member.POST("/payments/checkout", h.Payment.StartCheckout)
		member.GET("/payments/checkout/confirm", h.Payment.ConfirmCheckout)
	}

	desk := protected.Group("/desk")
	desk.Use(auth.RequireRole(auth.RoleReceptionist, auth.RoleAdmin))
	{
		desk.GET("/members", h.User.ListMembers)
		desk.POST("/members", h.User.RegisterMember)
		desk.GET("/members/:memberID", h.Membership.MemberDetail)
		desk.POST("/members/:memberID/packages", h.Payment.CounterPurchase)
		desk.GET("/members/:memberID/payments", h.Payment.MemberPayments)
	}

	trainer := protected.Group("/trainer")
	trainer.Use(auth.RequireRole(auth.RoleTrainer))
	{
		trainer.GET("/pt/pending", h.Membership.ListPendingPT)
		trainer.POST("/pt/:entryID/accept", h.Membership.AcceptPT)
		trainer.POST("/pt/:entryID/reject", h.Membership.RejectPT)
		trainer.GET("/plans", h.Training.ListTrainerPlans)
		trainer.POST("/plans", h.Training.CreatePlan)
		trainer.GET("/plans/:planID", h.Training.GetPlan)
		trainer.PUT("/plans/:planID", h.Training.UpdatePlan)
		trainer.DELETE("/plans/:planID", h.Training.DeletePlan)
	}

	admin := protected.Group("/admin")
	admin.Use(auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/packages", h.Catalog.CreatePackage)
		admin.POST("/staff", h.User.CreateStaff)
	}

	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware(frontendURL string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if frontendURL == "" || frontendURL == "*" {
		cfg.AllowCredentials = false
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{frontendURL}
	}
	return cors.New(cfg)
}
