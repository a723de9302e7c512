// Local account entities for the mock identity store.
package types

import "time"

// User is a stored account. PasswordHash is a bcrypt hash; new accounts
// never persist the raw password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`

	// LegacyPassword is the plaintext field of older user lists. Init
	// replaces it with PasswordHash.
	LegacyPassword string `json:"password,omitempty"`
}

// PublicUser is a User without credentials. It is the shape cached with the
// session.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the credential fields.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// Credentials is the input to registration and login.
type Credentials struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Session is an active login.
type Session struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
