package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/models"
)

// Error variables
var (
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

const uniqueViolation = "23505"

// executor is satisfied by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

const userColumns = `id, username, email, password, is_confirmed, confirmation_token,
		reset_password_token, reset_password_expires, wallet_address, wallet_private_key, created_at`

type UserReadRepository struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

func NewUserReadRepository(db *sqlx.DB, log *zap.SugaredLogger) *UserReadRepository {
	return &UserReadRepository{db: db, log: log}
}

// GetByEmail returns the account with the given email, or nil when absent.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.get(ctx, query, email)
}

// GetByID returns the account with the given id, or nil when absent.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByResetToken returns the account holding an unexpired reset token.
// An expired token is indistinguishable from an absent one.
func (r *UserReadRepository) GetByResetToken(ctx context.Context, token string) (*models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE reset_password_token = $1 AND reset_password_expires > NOW()`
	return r.get(ctx, query, token)
}

func (r *UserReadRepository) get(ctx context.Context, query string, args ...any) (*models.UserDB, error) {
	var user models.UserDB
	err := r.ext(ctx).GetContext(ctx, &user, query, args...)

	r.log.Debugw("user query",
		"query", strings.Join(strings.Fields(query), " "),
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserReadRepository) ext(ctx context.Context) executor {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

type UserWriteRepository struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

func NewUserWriteRepository(db *sqlx.DB, log *zap.SugaredLogger) *UserWriteRepository {
	return &UserWriteRepository{db: db, log: log}
}

// Create inserts a new account in a single statement. Uniqueness is
// enforced by the database constraints, not by a prior lookup, so two
// concurrent registrations cannot both pass a stale existence check.
func (r *UserWriteRepository) Create(ctx context.Context, u *models.NewUser) (*models.UserDB, error) {
	query := `
		INSERT INTO users (username, email, password, confirmation_token, wallet_address, wallet_private_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	var (
		id        int64
		createdAt time.Time
	)
	err := r.ext(ctx).QueryRowxContext(ctx, query,
		u.Username, u.Email, u.Password, u.ConfirmationToken, u.WalletAddress, u.WalletPrivateKey,
	).Scan(&id, &createdAt)

	r.log.Debugw("user insert", "username", u.Username, "email", u.Email, "error", err)

	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	confirmationToken := u.ConfirmationToken
	return &models.UserDB{
		ID:                id,
		Username:          u.Username,
		Email:             u.Email,
		Password:          u.Password,
		ConfirmationToken: &confirmationToken,
		WalletAddress:     u.WalletAddress,
		WalletPrivateKey:  u.WalletPrivateKey,
		CreatedAt:         createdAt,
	}, nil
}

// ConfirmEmail consumes a confirmation token: it flips the flag and clears
// the token in one statement. Returns false when no account holds the token.
// Confirmation tokens carry no expiry; only reset tokens do.
func (r *UserWriteRepository) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE users SET is_confirmed = TRUE, confirmation_token = NULL
		WHERE confirmation_token = $1
		RETURNING id
	`

	var id int64
	err := r.ext(ctx).QueryRowxContext(ctx, query, token).Scan(&id)

	r.log.Debugw("confirm email", "error", err)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveResetToken attaches a reset token and its expiry to the account with
// the given email. Returns false when no such account exists.
func (r *UserWriteRepository) SaveResetToken(ctx context.Context, email, token string, expires time.Time) (bool, error) {
	query := `
		UPDATE users SET reset_password_token = $1, reset_password_expires = $2
		WHERE email = $3
		RETURNING id
	`

	var id int64
	err := r.ext(ctx).QueryRowxContext(ctx, query, token, expires, email).Scan(&id)

	r.log.Debugw("save reset token", "email", email, "error", err)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces the stored hash and clears both reset fields in
// one statement, consuming the reset token.
func (r *UserWriteRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users SET password = $1, reset_password_token = NULL, reset_password_expires = NULL
		WHERE id = $2
	`

	_, err := r.ext(ctx).ExecContext(ctx, query, passwordHash, id)

	r.log.Debugw("update password", "id", id, "error", err)

	return err
}

func (r *UserWriteRepository) ext(ctx context.Context) executor {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// mapUniqueViolation turns a 23505 on one of the users constraints into the
// matching duplicate-field error, so the caller can report which field
// collided without a racy pre-insert lookup.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrDuplicateUsername
	}
	return err
}
