package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"social-client/internal/models"
	"social-client/internal/telemetry"
)

// Login authenticates and persists the new session.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	if err := c.validate.Struct(req); err != nil {
		return models.Session{}, fmt.Errorf("invalid login request: %w", err)
	}
	var resp models.AuthResponse
	if err := c.execute(ctx, call{method: http.MethodPost, route: "/auth/login", path: "/auth/login", body: req, out: &resp, anonymous: true}); err != nil {
		return models.Session{}, err
	}
	return c.startSession(ctx, resp, "login")
}

// Register creates an account and signs in.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.Session, error) {
	if err := c.validate.Struct(req); err != nil {
		return models.Session{}, fmt.Errorf("invalid register request: %w", err)
	}
	var resp models.AuthResponse
	if err := c.execute(ctx, call{method: http.MethodPost, route: "/auth/register", path: "/auth/register", body: req, out: &resp, anonymous: true}); err != nil {
		return models.Session{}, err
	}
	return c.startSession(ctx, resp, "register")
}

func (c *Client) startSession(ctx context.Context, resp models.AuthResponse, how string) (models.Session, error) {
	sess := models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.User.ID,
		Username:     resp.User.Username,
		DisplayName:  resp.User.DisplayName,
		AvatarURL:    resp.User.AvatarURL,
		Email:        resp.User.Email,
		FirstLogin:   resp.FirstLogin,
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	c.audit.Emit(ctx, telemetry.AuditLogin, "INFO", how+" succeeded", "", sess.UserID)
	return sess, nil
}

// Logout revokes the refresh token (best effort) and clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	userID := c.sessions.UserID()
	body := models.RefreshRequest{RefreshToken: c.sessions.RefreshToken()}
	if err := c.execute(ctx, call{method: http.MethodPost, route: "/auth/logout", path: "/auth/logout", body: body}); err != nil {
		log.Printf("api: remote logout failed: %v", err)
	}
	if err := c.sessions.Clear(ctx); err != nil {
		return err
	}
	c.audit.Emit(ctx, telemetry.AuditLogout, "INFO", "logout", "", userID)
	return nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.execute(ctx, call{method: http.MethodGet, route: "/auth/me", path: "/auth/me", out: &user})
	return user, err
}
