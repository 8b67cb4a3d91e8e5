// package services defines the collaborators singsync reaches over HTTP: the hosted
// backend's auth service and its REST API.
package services

import (
	"context"
	"time"

	"github.com/desertthunder/singsync/internal/models"
)

// Authenticator registers and signs in users against an identity provider.
type Authenticator interface {
	// Register creates an account. Name, email and password are all required.
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	// Login exchanges credentials for a session.
	Login(ctx context.Context, email, password string) (*Session, error)
}

// Session is a signed-in user and the tokens the backend issued.
type Session struct {
	User         *models.User `json:"-"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Expiry       time.Time    `json:"expiry,omitzero"`
}
