package models

import "time"

// UserDB represents an account row in the users table.
type UserDB struct {
	ID                   int64      `db:"id"`                     // Primary key
	Username             string     `db:"username"`               // Unique username
	Email                string     `db:"email"`                  // Unique email
	Password             string     `db:"password"`               // bcrypt hash, never cleartext
	IsConfirmed          bool       `db:"is_confirmed"`           // Email confirmed flag
	ConfirmationToken    *string    `db:"confirmation_token"`     // Set only while unconfirmed
	ResetPasswordToken   *string    `db:"reset_password_token"`   // Set with expiry, or both NULL
	ResetPasswordExpires *time.Time `db:"reset_password_expires"` // Reset token validity bound
	WalletAddress        string     `db:"wallet_address"`         // Assigned once at creation
	WalletPrivateKey     string     `db:"wallet_private_key"`     // AES-GCM sealed, hex
	CreatedAt            time.Time  `db:"created_at"`
}

// NewUser carries the fields of a single registration insert.
type NewUser struct {
	Username          string
	Email             string
	Password          string // bcrypt hash
	ConfirmationToken string
	WalletAddress     string
	WalletPrivateKey  string // sealed
}

// User is the public identity shape returned by the API.
// It never carries the password hash or the private key.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

// Public strips an account row down to its API identity.
func (u *UserDB) Public() *User {
	return &User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
	}
}
