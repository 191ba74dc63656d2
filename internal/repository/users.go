package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/course-reviews/internal/domain"
)

// UsersRepository persists user accounts.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id::text, email, name, password_hash, created_at, updated_at`

// UserCreateParams bundles the fields required to register a user.
type UserCreateParams struct {
	Email        string
	Name         string
	PasswordHash string
}

// Create inserts a user. A taken email yields ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users (email, name, password_hash)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, params.Email, params.Name, params.PasswordHash))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.getOne(ctx, query, id)
}

// GetByEmail fetches a user by email address.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.getOne(ctx, query, email)
}

func (r *UsersRepository) getOne(ctx context.Context, query string, arg interface{}) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
