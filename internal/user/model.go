package user

import (
	"time"

	"gymbeta/internal/auth"
)

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         auth.Role `json:"role" db:"role"`
	Phone        string    `json:"phone" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Member is a member profile joined with its login account.
type Member struct {
	ID           int          `json:"id" db:"id"`
	UserID       int          `json:"user_id" db:"user_id"`
	Name         string       `json:"name" db:"name"`
	Email        string       `json:"email" db:"email"`
	Phone        string       `json:"phone" db:"phone"`
	Status       MemberStatus `json:"status" db:"status"`
	RegisterDate time.Time    `json:"register_date" db:"register_date"`
}

type Profile struct {
	User
	MemberID *int `json:"member_id,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120" example:"Nguyen Van A"`
	Email    string `json:"email" binding:"required,email" example:"a@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"secret123"`
	Phone    string `json:"phone" binding:"max=20" example:"0901234567"`
}

type CreateStaffRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"max=20"`
	Role     string `json:"role" binding:"required" example:"trainer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	User         User       `json:"user"`
	Actor        auth.Actor `json:"actor"`
}

type MemberFilter struct {
	Search string
	Status MemberStatus
}
