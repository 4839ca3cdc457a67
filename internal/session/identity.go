// Package session holds the operator's identity and backend tokens behind an
// explicit per-session handle. It is the only mutable auth state in the
// console.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the backend role of an operator.
type Role string

// RoleAdmin is the only role allowed into the back office.
const RoleAdmin Role = "admin"

// Identity is the signed-in operator as returned in data.userInfo.
type Identity struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// DisplayName returns Name, falling back to first/last name and then email.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	if full := strings.TrimSpace(i.FirstName + " " + i.LastName); full != "" {
		return full
	}
	return i.Email
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// TokenPair is the backend credential pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AccessExpiry reads the exp claim of a JWT access token without verifying
// it. Opaque tokens report ok=false.
func (p TokenPair) AccessExpiry() (exp time.Time, ok bool) {
	if p.AccessToken == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(p.AccessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// State is everything persisted for one browser session.
type State struct {
	Identity  *Identity `json:"identity,omitempty"`
	Tokens    TokenPair `json:"tokens"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Authenticated is true only while an access token is held, regardless of a
// cached identity.
func (s State) Authenticated() bool {
	return s.Tokens.AccessToken != ""
}

// Admin reports whether the state grants access to the back office.
func (s State) Admin() bool {
	return s.Authenticated() && s.Identity.IsAdmin()
}

func (s State) clone() State {
	s.Identity = s.Identity.clone()
	return s
}
