package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"social-client/internal/models"
	"social-client/internal/observability"
	"social-client/internal/session"
	"social-client/internal/telemetry"
)

const (
	refreshPath = "/auth/refresh"
	// tokenSkew triggers a proactive refresh shortly before a JWT expires.
	tokenSkew = 10 * time.Second
)

// SessionStore is the part of the session store the client needs.
type SessionStore interface {
	AccessToken() string
	RefreshToken() string
	UserID() string
	UpdateTokens(ctx context.Context, access, refresh string) error
	Save(ctx context.Context, sess models.Session) error
	Clear(ctx context.Context) error
	Expire(ctx context.Context)
}

// Client is an authenticated REST client for the social backend.
type Client struct {
	baseURL  string
	http     *http.Client
	bare     *http.Client
	sessions SessionStore
	audit    *telemetry.AuditEmitter
	validate *validator.Validate
	tracer   trace.Tracer
	refresh  singleflight.Group
	now      func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for regular requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAuditEmitter records login, logout and token events.
func WithAuditEmitter(emitter *telemetry.AuditEmitter) Option {
	return func(c *Client) { c.audit = emitter }
}

// NewClient builds a client for baseURL (e.g. https://host/api/v1).
func NewClient(baseURL string, sessions SessionStore, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		bare:     &http.Client{Timeout: timeout},
		sessions: sessions,
		validate: validator.New(),
		tracer:   otel.Tracer("social-client/api"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	method    string
	route     string
	path      string
	query     url.Values
	body      any
	out       any
	anonymous bool
}

// Do issues an authenticated request and decodes the JSON response into out.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	return c.execute(ctx, call{method: method, route: path, path: path, body: in, out: out})
}

func (c *Client) execute(ctx context.Context, cl call) error {
	var body []byte
	if cl.body != nil {
		var err error
		if body, err = json.Marshal(cl.body); err != nil {
			return fmt.Errorf("encode %s: %w", cl.route, err)
		}
	}

	token := ""
	if !cl.anonymous {
		token = c.sessions.AccessToken()
		if token != "" && session.TokenExpired(token, c.now(), tokenSkew) {
			fresh, err := c.refreshToken(ctx, token)
			if err != nil {
				return err
			}
			token = fresh
		}
	}

	resp, err := c.send(ctx, cl, body, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		original := readError(resp)
		fresh, err := c.refreshToken(ctx, token)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSessionExpired, original)
		}
		if resp, err = c.send(ctx, cl, body, fresh); err != nil {
			return err
		}
	}

	return decode(resp, cl.out)
}

func (c *Client) send(ctx context.Context, cl call, body []byte, token string) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "api "+cl.method+" "+cl.route)
	defer span.End()

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", cl.route, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveAPIRequest(cl.method, cl.route, 0, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, &NetworkError{Op: cl.method + " " + cl.route, Err: err}
	}
	observability.ObserveAPIRequest(cl.method, cl.route, resp.StatusCode, started)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}

// refreshToken exchanges the refresh token for new tokens. Concurrent callers share
// one refresh; a caller whose token was already replaced gets the current token.
func (c *Client) refreshToken(ctx context.Context, stale string) (string, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		current := c.sessions.AccessToken()
		if current == "" {
			return "", ErrSessionExpired
		}
		if current != stale {
			return current, nil
		}
		return c.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	userID := c.sessions.UserID()
	pair, err := c.postRefresh(ctx, c.sessions.RefreshToken())
	if err != nil {
		log.Printf("api: token refresh failed: %v", err)
		observability.IncTokenRefresh("failure")
		c.sessions.Expire(ctx)
		c.audit.Emit(ctx, telemetry.AuditSessionExpired, "WARN", "token refresh failed", "", userID)
		return "", ErrSessionExpired
	}

	if err := c.sessions.UpdateTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		log.Printf("api: persist refreshed tokens: %v", err)
	}
	observability.IncTokenRefresh("success")
	c.audit.Emit(ctx, telemetry.AuditTokenRefreshed, "INFO", "access token refreshed", "", userID)
	return pair.AccessToken, nil
}

// postRefresh calls the refresh endpoint on the bare client, which never recovers from 401.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var pair models.TokenPair
	if refreshToken == "" {
		return pair, errors.New("no refresh token")
	}
	body, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return pair, err
	}

	if c.bare.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.bare.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return pair, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	started := time.Now()
	resp, err := c.bare.Do(req)
	if err != nil {
		observability.ObserveAPIRequest(http.MethodPost, refreshPath, 0, started)
		return pair, &NetworkError{Op: "POST " + refreshPath, Err: err}
	}
	observability.ObserveAPIRequest(http.MethodPost, refreshPath, resp.StatusCode, started)

	if err := decode(resp, &pair); err != nil {
		return pair, err
	}
	if pair.AccessToken == "" {
		return pair, errors.New("refresh response without access token")
	}
	return pair, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return readError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readError drains and closes resp, returning an *APIError.
func readError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func pageQuery(cursor string, limit int) url.Values {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
