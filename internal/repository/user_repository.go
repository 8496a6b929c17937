package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/townhall-portal/internal/domain"
)

// UserRepository is the User Directory: citizen records keyed by email or national id.
type UserRepository interface {
	FindByEmailOrNationalID(ctx context.Context, email, nationalID string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	InsertGuest(ctx context.Context, profile domain.Profile) (*domain.User, error)
	InsertRegistered(ctx context.Context, profile domain.Profile, credential string) (*domain.User, error)
	UpgradeGuestToRegistered(ctx context.Context, id int64, profile domain.Profile, credential string) error
	UpdateCredential(ctx context.Context, id int64, credential string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, first_name, middle_name, last_name, national_id, phone, email, credential, active, created_at, updated_at`

func (r *userRepository) FindByEmailOrNationalID(ctx context.Context, email, nationalID string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE email=$1 OR national_id=$2
        ORDER BY id LIMIT 1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email, nationalID))
	return user, classify("find user by email or national id", err)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE email=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	return user, classify("find user by email", err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE id=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	return user, classify("get user", err)
}

func (r *userRepository) InsertGuest(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	user := domain.NewGuest(profile)
	return user, r.insert(ctx, "insert guest", user, nil)
}

func (r *userRepository) InsertRegistered(ctx context.Context, profile domain.Profile, credential string) (*domain.User, error) {
	user := domain.NewRegistered(profile, credential)
	return user, r.insert(ctx, "insert registered user", user, &credential)
}

func (r *userRepository) insert(ctx context.Context, op string, user *domain.User, credential *string) error {
	const query = `
        INSERT INTO users (first_name, middle_name, last_name, national_id, phone, email, credential, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	p := user.Profile
	err := r.pool.QueryRow(ctx, query,
		p.FirstName,
		nullIfEmpty(p.MiddleName),
		p.LastName,
		p.NationalID,
		nullIfEmpty(p.Phone),
		p.Email,
		credential,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return classify(op, err)
}

// UpgradeGuestToRegistered only touches guest rows, so a concurrent second upgrade
// surfaces as ErrDuplicateKey instead of silently replacing the first credential.
func (r *userRepository) UpgradeGuestToRegistered(ctx context.Context, id int64, profile domain.Profile, credential string) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, phone=$3, credential=$4, active=TRUE, updated_at=NOW()
        WHERE id=$5 AND credential IS NULL`

	cmd, err := r.pool.Exec(ctx, query,
		profile.FirstName,
		profile.LastName,
		nullIfEmpty(profile.Phone),
		credential,
		id,
	)
	if err != nil {
		return classify("upgrade guest", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists); err != nil {
		return classify("upgrade guest", err)
	}
	if exists {
		return fmt.Errorf("upgrade guest %d: already registered: %w", id, ErrDuplicateKey)
	}
	return fmt.Errorf("upgrade guest %d: %w", id, ErrNotFound)
}

func (r *userRepository) UpdateCredential(ctx context.Context, id int64, credential string) error {
	const query = `
        UPDATE users SET credential=$1, active=TRUE, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, credential, id)
	if err != nil {
		return classify("update credential", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update credential %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user       domain.User
		middleName *string
		phone      *string
		credential *string
	)
	if err := row.Scan(
		&user.ID,
		&user.Profile.FirstName,
		&middleName,
		&user.Profile.LastName,
		&user.Profile.NationalID,
		&phone,
		&user.Profile.Email,
		&credential,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Profile.MiddleName = emptyIfNull(middleName)
	user.Profile.Phone = emptyIfNull(phone)
	user.Account = domain.AccountFromCredential(credential)
	return &user, nil
}
