package user

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"gymbeta/internal/auth"
	"gymbeta/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, password_hash, role, phone, created_at`

const memberSelect = `
	SELECT m.id, m.user_id, u.name, u.email, u.phone, m.status, m.register_date
	FROM members m
	JOIN users u ON u.id = m.user_id`

type repository struct {
	conn *sqlx.DB
	q    sqlx.ExtContext
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn, q: conn}
}

func (r *repository) WithTx(ctx context.Context, fn func(Repository) error) error {
	return db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		return fn(&repository{conn: r.conn, q: tx})
	})
}

func (r *repository) Create(ctx context.Context, name, email, phone, passwordHash string, role auth.Role) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	var u User
	if err := sqlx.GetContext(ctx, r.q, &u, query, name, email, passwordHash, role, phone); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateMember(ctx context.Context, userID int) (*Member, error) {
	query := `
		WITH m AS (
			INSERT INTO members (user_id) VALUES ($1)
			RETURNING id, user_id, status, register_date
		)
		SELECT m.id, m.user_id, u.name, u.email, u.phone, m.status, m.register_date
		FROM m JOIN users u ON u.id = m.user_id`

	var m Member
	if err := sqlx.GetContext(ctx, r.q, &m, query, userID); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) findOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, r.q, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.q, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) FindMemberIDByUser(ctx context.Context, userID int) (*int, error) {
	var id int
	err := sqlx.GetContext(ctx, r.q, &id, `SELECT id FROM members WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *repository) GetMember(ctx context.Context, memberID int) (*Member, error) {
	var m Member
	err := sqlx.GetContext(ctx, r.q, &m, memberSelect+` WHERE m.id = $1`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, `(u.name ILIKE $1 OR u.email ILIKE $1 OR u.phone ILIKE $1)`)
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, `m.status = $`+strconv.Itoa(len(args)))
	}

	query := memberSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY m.register_date DESC, m.id DESC`

	members := []Member{}
	if err := sqlx.SelectContext(ctx, r.q, &members, query, args...); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) FindMemberContact(ctx context.Context, memberID int) (string, string, error) {
	m, err := r.GetMember(ctx, memberID)
	if err != nil {
		return "", "", err
	}
	return m.Email, m.Name, nil
}
