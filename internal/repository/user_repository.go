package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/iliyamo/skillgraph/internal/model"
)

// UserRepo is the MySQL credential store backed by the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, password_hash, phone_number, metadata, created_at"

// Create inserts u and fills in its ID and CreatedAt.  A duplicate email
// yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	meta, err := encodeMetadata(u.Metadata)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, phone_number, metadata) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.PhoneNumber, meta)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)

	if err := r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM users WHERE id=?", id).Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("reload user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user by its (already normalised) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.  Ids that are not decimal numbers cannot
// exist in this store and yield ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrUserNotFound
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", n)
	return scanUser(row)
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Delete removes the user and returns the record as it was.
func (r *UserRepo) Delete(ctx context.Context, id string) (*model.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", u.ID)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u     model.User
		id    uint64
		phone sql.NullString
		meta  []byte
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &phone, &meta, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = strconv.FormatUint(id, 10)
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	m, err := decodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	u.Metadata = m
	return &u, nil
}
