package user

import (
	"context"

	"gymbeta/internal/auth"
)

type Repository interface {
	Create(ctx context.Context, name, email, phone, passwordHash string, role auth.Role) (*User, error)
	CreateMember(ctx context.Context, userID int) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FindMemberIDByUser(ctx context.Context, userID int) (*int, error)
	GetMember(ctx context.Context, memberID int) (*Member, error)
	ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error)
	FindMemberContact(ctx context.Context, memberID int) (address, name string, err error)

	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
