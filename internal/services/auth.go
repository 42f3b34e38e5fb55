package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/libertas-alpha/auth-service/internal/models"
	"github.com/libertas-alpha/auth-service/internal/repositories"
	"github.com/libertas-alpha/auth-service/internal/wallet"
)

// Error variables
var (
	ErrEmailInUse            = errors.New("email already in use")
	ErrUsernameInUse         = errors.New("username already in use")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotConfirmed     = errors.New("email not confirmed")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUserNotFound          = errors.New("user not found")
)

const (
	bcryptCost    = 12
	resetTokenTTL = time.Hour
)

// UserReader defines read-only operations for accounts.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
	GetByResetToken(ctx context.Context, token string) (*models.UserDB, error)
}

// UserWriter defines write operations for accounts.
type UserWriter interface {
	Create(ctx context.Context, u *models.NewUser) (*models.UserDB, error)
	ConfirmEmail(ctx context.Context, token string) (bool, error)
	SaveResetToken(ctx context.Context, email, token string, expires time.Time) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Transactor scopes a function to one database transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// JWTGenerator defines an interface for generating session tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID int64, email string) (string, error)
}

// TokenGenerator produces opaque confirmation and reset tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// WalletGenerator provisions a fresh keypair per registration.
type WalletGenerator interface {
	Generate() (*wallet.Wallet, error)
}

// KeySealer encrypts wallet private keys before they are persisted and
// decrypts them for the wallet endpoint.
type KeySealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// EmailSender delivers confirmation and reset emails.
type EmailSender interface {
	SendConfirmation(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// AuthService orchestrates the credential lifecycle: registration, email
// confirmation, login, and the forgot/reset password flow.
type AuthService struct {
	reader  UserReader
	writer  UserWriter
	tx      Transactor
	jwt     JWTGenerator
	tokens  TokenGenerator
	wallets WalletGenerator
	sealer  KeySealer
	mailer  EmailSender
	log     *zap.SugaredLogger
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	tx Transactor,
	jwt JWTGenerator,
	tokens TokenGenerator,
	wallets WalletGenerator,
	sealer KeySealer,
	mailer EmailSender,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		reader:  reader,
		writer:  writer,
		tx:      tx,
		jwt:     jwt,
		tokens:  tokens,
		wallets: wallets,
		sealer:  sealer,
		mailer:  mailer,
		log:     log,
	}
}

// Register creates an unconfirmed account with a fresh wallet and sends the
// confirmation email. Insert and send share one transaction: a failed send
// rolls the row back, so no account exists whose confirmation email was
// never dispatched.
func (svc *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		svc.log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	confirmationToken, err := svc.tokens.Generate()
	if err != nil {
		svc.log.Errorw("failed to generate confirmation token", "err", err)
		return nil, err
	}

	w, err := svc.wallets.Generate()
	if err != nil {
		svc.log.Errorw("failed to generate wallet", "err", err)
		return nil, err
	}

	sealedKey, err := svc.sealer.Seal(w.PrivateKey)
	if err != nil {
		svc.log.Errorw("failed to seal wallet key", "err", err)
		return nil, err
	}

	var created *models.UserDB
	err = svc.tx.RunInTx(ctx, func(ctx context.Context) error {
		created, err = svc.writer.Create(ctx, &models.NewUser{
			Username:          username,
			Email:             email,
			Password:          string(hash),
			ConfirmationToken: confirmationToken,
			WalletAddress:     w.Address,
			WalletPrivateKey:  sealedKey,
		})
		if err != nil {
			return err
		}
		return svc.mailer.SendConfirmation(ctx, email, confirmationToken)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, ErrEmailInUse
		case errors.Is(err, repositories.ErrDuplicateUsername):
			return nil, ErrUsernameInUse
		}
		svc.log.Errorw("failed to register user", "email", email, "err", err)
		return nil, err
	}

	svc.log.Infow("user registered", "id", created.ID, "username", username)
	return created.Public(), nil
}

// ConfirmEmail consumes a confirmation token. Unknown and already-consumed
// tokens are indistinguishable to the caller.
func (svc *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	ok, err := svc.writer.ConfirmEmail(ctx, token)
	if err != nil {
		svc.log.Errorw("failed to confirm email", "err", err)
		return err
	}
	if !ok {
		return ErrInvalidOrExpiredToken
	}

	svc.log.Infow("email confirmed")
	return nil
}

// Login authenticates by email and password and returns the identity plus a
// session token. The unconfirmed check runs before password verification,
// matching the service's established observable behavior.
func (svc *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		svc.log.Errorw("failed to get user", "err", err)
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsConfirmed {
		return nil, "", ErrEmailNotConfirmed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := svc.jwt.Generate(ctx, user.ID, user.Email)
	if err != nil {
		svc.log.Errorw("failed to generate session token", "err", err)
		return nil, "", err
	}

	return user.Public(), token, nil
}

// ForgotPassword attaches a one-hour reset token to the account and emails
// it. An unknown email is a silent no-op so responses never reveal whether
// an account exists.
func (svc *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		svc.log.Errorw("failed to get user", "err", err)
		return err
	}
	if user == nil {
		return nil
	}

	token, err := svc.tokens.Generate()
	if err != nil {
		svc.log.Errorw("failed to generate reset token", "err", err)
		return err
	}

	expires := time.Now().Add(resetTokenTTL)
	saved, err := svc.writer.SaveResetToken(ctx, email, token, expires)
	if err != nil {
		svc.log.Errorw("failed to save reset token", "err", err)
		return err
	}
	if !saved {
		// account deleted since the lookup; never email a token that was
		// not persisted
		return nil
	}

	if err := svc.mailer.SendPasswordReset(ctx, email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	svc.log.Infow("password reset requested", "id", user.ID)
	return nil
}

// ResetPassword consumes an unexpired reset token and replaces the stored
// hash. Expired tokens are treated exactly like unknown ones.
func (svc *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := svc.reader.GetByResetToken(ctx, token)
	if err != nil {
		svc.log.Errorw("failed to look up reset token", "err", err)
		return err
	}
	if user == nil {
		return ErrInvalidOrExpiredToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		svc.log.Errorw("failed to hash password", "err", err)
		return err
	}

	if err := svc.writer.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		svc.log.Errorw("failed to update password", "err", err)
		return err
	}

	svc.log.Infow("password reset", "id", user.ID)
	return nil
}

// CurrentUser returns the identity behind a validated session token.
func (svc *AuthService) CurrentUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := svc.reader.GetByID(ctx, id)
	if err != nil {
		svc.log.Errorw("failed to get user", "id", id, "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.Public(), nil
}

// Wallet unseals and returns the account's wallet keypair. The cleartext
// key exists only in this response, never at rest.
func (svc *AuthService) Wallet(ctx context.Context, id int64) (*wallet.Wallet, error) {
	user, err := svc.reader.GetByID(ctx, id)
	if err != nil {
		svc.log.Errorw("failed to get user", "id", id, "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	key, err := svc.sealer.Open(user.WalletPrivateKey)
	if err != nil {
		svc.log.Errorw("failed to unseal wallet key", "id", id, "err", err)
		return nil, err
	}

	return &wallet.Wallet{
		Address:    user.WalletAddress,
		PrivateKey: key,
	}, nil
}
