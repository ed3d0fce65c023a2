package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is a back office or portal account. Portal users are linked to a
// Customer through CustomerID.
type User struct {
	Base
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
}

func (*User) TableName() string { return "users" }

func (*User) Columns() []string {
	return withBase("username", "password_hash", "email", "first_name", "last_name", "customer_id")
}

func (u *User) Values() []any {
	return append(u.baseValues(), u.Username, u.PasswordHash, u.Email, u.FirstName, u.LastName, u.CustomerID)
}

func (u *User) ScanDest() []any {
	return append(u.baseDest(), &u.Username, &u.PasswordHash, &u.Email, &u.FirstName, &u.LastName, &u.CustomerID)
}

// Device is a mobile installation registered for a user.
type Device struct {
	Base
	UserID      uuid.UUID `json:"userId"`
	DeviceToken string    `json:"deviceToken"`
	Platform    string    `json:"platform"`
}

func (*Device) TableName() string { return "devices" }

func (*Device) Columns() []string { return withBase("user_id", "device_token", "platform") }

func (d *Device) Values() []any {
	return append(d.baseValues(), d.UserID, d.DeviceToken, d.Platform)
}

func (d *Device) ScanDest() []any {
	return append(d.baseDest(), &d.UserID, &d.DeviceToken, &d.Platform)
}

// RefreshToken stores the SHA-256 of an issued refresh token. The raw value
// is only ever returned to the client.
type RefreshToken struct {
	Base
	UserID    uuid.UUID  `json:"userId"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

func (*RefreshToken) TableName() string { return "refresh_tokens" }

func (*RefreshToken) Columns() []string {
	return withBase("user_id", "token_hash", "expires_at", "revoked_at")
}

func (t *RefreshToken) Values() []any {
	return append(t.baseValues(), t.UserID, t.TokenHash, t.ExpiresAt, t.RevokedAt)
}

func (t *RefreshToken) ScanDest() []any {
	return append(t.baseDest(), &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt)
}

// Usable reports whether the token is neither revoked nor expired at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
