package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
)

// UserMirror stores accounts locally after the backend accepts them.
type UserMirror interface {
	Upsert(user *models.User) error
}

// HostedAuth implements [Authenticator] against the hosted backend's auth endpoints.
type HostedAuth struct {
	backend *BackendClient
	users   UserMirror
	logger  *log.Logger
}

// NewHostedAuth creates the auth collaborator. users may be nil to skip local mirroring.
func NewHostedAuth(backend *BackendClient, users UserMirror, logger *log.Logger) *HostedAuth {
	if logger == nil {
		logger = log.Default()
	}
	return &HostedAuth{backend: backend, users: users, logger: logger}
}

type signupRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

// Register creates an account with the display name stored in the user metadata.
func (a *HostedAuth) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	var missing []string
	for _, f := range [][2]string{{"name", name}, {"email", email}, {"password", password}} {
		if f[1] == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.Join(missing, ", "))
	}

	resp, err := a.backend.PostJSON(ctx, "/auth/v1/signup", signupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]any{"name": name},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: sign-up rejected (%d): %s", shared.ErrAuthFailed, resp.StatusCode, resp.ErrorMessage())
	}

	// Depending on whether confirmation is required the body is either the user or {user, session}.
	body, _ := resp.JSONData.(map[string]any)
	if u, ok := body["user"].(map[string]any); ok {
		body = u
	}
	if e, ok := body["email"].(string); ok && e != "" {
		email = e
	}

	user := models.NewUser(0, email, name)
	if err := a.mirror(user); err != nil {
		return nil, err
	}

	a.logger.Info("registered user", "email", email)
	return user, nil
}

// Login exchanges email and password for tokens with an OAuth2 password grant.
func (a *HostedAuth) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	conf := &oauth2.Config{
		ClientID: "singsync",
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.backend.BaseURL() + "/auth/v1/token?grant_type=password",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	hc := a.backend.HTTPClient()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: &apiKeyTransport{apiKey: a.backend.apiKey, base: hc.Transport},
		Timeout:   hc.Timeout,
	})

	tok, err := conf.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, retrieveMessage(re))
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	name := ""
	if u, ok := tok.Extra("user").(map[string]any); ok {
		if e, ok := u["email"].(string); ok && e != "" {
			email = e
		}
		if meta, ok := u["user_metadata"].(map[string]any); ok {
			name, _ = meta["name"].(string)
		}
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user := models.NewUser(0, email, name)
	if err := a.mirror(user); err != nil {
		return nil, err
	}

	a.logger.Info("signed in", "email", email)
	return &Session{
		User:         user,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

func (a *HostedAuth) mirror(user *models.User) error {
	if a.users == nil {
		return nil
	}
	if err := a.users.Upsert(user); err != nil {
		return fmt.Errorf("failed to store user locally: %w", err)
	}
	return nil
}

func retrieveMessage(re *oauth2.RetrieveError) string {
	switch {
	case re.ErrorDescription != "":
		return re.ErrorDescription
	case re.ErrorCode != "":
		return re.ErrorCode
	case re.Response != nil:
		return fmt.Sprintf("status %d", re.Response.StatusCode)
	default:
		return "token request rejected"
	}
}
