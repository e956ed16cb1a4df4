package model

import (
	"errors"
	"fmt"
)

// Role distinguishes the two identity kinds a client may hold at the same time.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
)

// Profile is the stored identity of a user or a seller.
type Profile struct {
	ID        string `json:"_id,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Role      Role   `json:"role,omitempty"`
	StoreName string `json:"storeName,omitempty"`
}

// Validate rejects profiles that carry no identifying field at all.
func (p Profile) Validate() error {
	if p.ID == "" && p.UserID == "" && p.Name == "" && p.Email == "" {
		return errors.New("profile has no identifying fields")
	}
	switch p.Role {
	case "", RoleUser, RoleSeller:
	default:
		return fmt.Errorf("unknown role %q", p.Role)
	}
	return nil
}

// AuthSession is a token and profile pair. Either half missing means no session.
type AuthSession struct {
	Token   string
	Profile Profile
}

// SessionChange is the payload of login and logout events.
// Session is nil after a logout.
type SessionChange struct {
	Role    Role
	Session *AuthSession
}
