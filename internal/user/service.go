package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gymbeta/internal/auth"
	"gymbeta/internal/logger"
	"gymbeta/internal/metrics"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNotStaffRole       = errors.New("role cannot be assigned to staff")
	ErrInvalidStatus      = errors.New("invalid member status")
)

// Mailer sends account emails. Delivery is best effort.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	RegisterMember(ctx context.Context, req RegisterRequest) (*Member, error)
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	Me(ctx context.Context, actor auth.Actor) (*Profile, error)
	ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error)
}

type service struct {
	repo      Repository
	jwtSecret string
	mailer    Mailer
}

func NewService(repo Repository, jwtSecret string, mailer Mailer) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
		mailer:    mailer,
	}
}

// Register creates a member account and signs the new member in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	u, m, err := s.createMember(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(*u, &m.ID)
}

// RegisterMember is the front-desk variant of Register; no tokens are issued.
func (s *service) RegisterMember(ctx context.Context, req RegisterRequest) (*Member, error) {
	_, m, err := s.createMember(ctx, req)
	return m, err
}

func (s *service) createMember(ctx context.Context, req RegisterRequest) (*User, *Member, error) {
	email := normalizeEmail(req.Email)

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	var (
		u *User
		m *Member
	)
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailExists
		}

		u, err = repo.Create(ctx, strings.TrimSpace(req.Name), email, req.Phone, passwordHash, auth.RoleMember)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		m, err = repo.CreateMember(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("create member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordUserRegistered(string(auth.RoleMember))
	logger.Info("member registered", "user_id", u.ID, "member_id", m.ID)

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, u.Email, u.Name); err != nil {
			logger.WithError(err).Warn("welcome email not queued", "user_id", u.ID)
		}
	}
	return u, m, nil
}

func (s *service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*User, error) {
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() {
		return nil, fmt.Errorf("%w: %s", ErrNotStaffRole, role)
	}

	email := normalizeEmail(req.Email)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, strings.TrimSpace(req.Name), email, req.Phone, passwordHash, role)
	if err != nil {
		return nil, err
	}

	metrics.RecordUserRegistered(string(role))
	logger.Info("staff account created", "user_id", u.ID, "role", role)
	return u, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	var memberID *int
	if u.Role == auth.RoleMember {
		memberID, err = s.repo.FindMemberIDByUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
	}

	return s.issue(*u, memberID)
}

// Refresh issues a new access token for the actor carried by the refresh
// token. The account must still exist.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	accessToken, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: accessToken,
		User:        *u,
		Actor:       claims.Actor,
	}, nil
}

func (s *service) Me(ctx context.Context, actor auth.Actor) (*Profile, error) {
	u, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: *u, MemberID: actor.MemberID}, nil
}

func (s *service) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	switch filter.Status {
	case "", MemberActive, MemberInactive:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	return s.repo.ListMembers(ctx, filter)
}

func (s *service) issue(u User, memberID *int) (*LoginResponse, error) {
	actor := auth.Actor{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		MemberID: memberID,
	}

	accessToken, refreshToken, err := auth.GenerateTokens(actor, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
		Actor:        actor,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
