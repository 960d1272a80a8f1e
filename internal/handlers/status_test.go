package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-client/internal/mocks"
	"social-client/internal/models"
	"social-client/internal/policy"
	"social-client/internal/telemetry"
	"social-client/internal/ws"
)

type fakeSession struct{ userID string }

func (f fakeSession) UserID() string { return f.userID }
func (f fakeSession) LoggedIn() bool { return f.userID != "" }

type fakeRealtime struct{ info ws.ConnInfo }

func (f fakeRealtime) Connected() bool   { return f.info.ConnID != "" }
func (f fakeRealtime) Info() ws.ConnInfo { return f.info }

type fakeNotifications int

func (f fakeNotifications) Unread() int { return int(f) }

type inboxMock struct {
	mock.Mock
}

func (m *inboxMock) Conversations() []models.Conversation {
	args := m.Called()
	return args.Get(0).([]models.Conversation)
}

func (m *inboxMock) TotalUnread() int {
	return m.Called().Int(0)
}

func (m *inboxMock) MarkRead(ctx context.Context, conversationID string) error {
	return m.Called(ctx, conversationID).Error(0)
}

func setupStatusRouter(inbox *inboxMock, app *policy.AppState, opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStatusHandler(
		fakeSession{userID: "u-1"},
		fakeRealtime{info: ws.ConnInfo{ConnID: "conn-1", UserID: "u-1", Attempt: 0}},
		fakeNotifications(4),
		inbox,
		app,
	)
	if opts.ServiceName == "" {
		opts.ServiceName = "social-client-test"
	}
	return NewRouter(h, opts)
}

func TestHealthz(t *testing.T) {
	router := setupStatusRouter(new(inboxMock), policy.NewAppState(), RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["logged_in"])
	assert.Equal(t, true, resp["connected"])
}

func TestStateReportsClientState(t *testing.T) {
	inbox := new(inboxMock)
	app := policy.NewAppState()
	app.SetOpenConversation("c-1")
	router := setupStatusRouter(inbox, app, RouterOptions{})

	inbox.On("TotalUnread").Return(3).Once()
	inbox.On("Conversations").Return([]models.Conversation{{ID: "c-1", UnreadCount: 3}}).Once()

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		UserID              string                `json:"user_id"`
		UnreadNotifications int                   `json:"unread_notifications"`
		UnreadMessages      int                   `json:"unread_messages"`
		Conversations       []models.Conversation `json:"conversations"`
		Realtime            map[string]any        `json:"realtime"`
		App                 map[string]any        `json:"app"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "u-1", resp.UserID)
	assert.Equal(t, 4, resp.UnreadNotifications)
	assert.Equal(t, 3, resp.UnreadMessages)
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "conn-1", resp.Realtime["conn_id"])
	assert.Equal(t, "c-1", resp.App["open_conversation_id"])
	inbox.AssertExpectations(t)
}

func TestAppLifecycleToggles(t *testing.T) {
	app := policy.NewAppState()
	router := setupStatusRouter(new(inboxMock), app, RouterOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app/background", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, app.Snapshot().Foreground)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app/foreground", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, app.Snapshot().Foreground)
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	app := policy.NewAppState()
	router := setupStatusRouter(new(inboxMock), app, RouterOptions{Token: "s3cret"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app/background", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, app.Snapshot().Foreground)

	req := httptest.NewRequest(http.MethodPost, "/app/background", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, app.Snapshot().Foreground)
}

func TestMarkConversationRead(t *testing.T) {
	inbox := new(inboxMock)
	router := setupStatusRouter(inbox, policy.NewAppState(), RouterOptions{})

	inbox.On("MarkRead", mock.Anything, "c-1").Return(nil).Once()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/c-1/read", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	inbox.On("MarkRead", mock.Anything, "c-2").Return(assert.AnError).Once()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/c-2/read", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	inbox.AssertExpectations(t)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupStatusRouter(new(inboxMock), policy.NewAppState(), RouterOptions{})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestDebugRoutesDisabledByDefault(t *testing.T) {
	router := setupStatusRouter(new(inboxMock), policy.NewAppState(), RouterOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugRouteWithoutEmitter(t *testing.T) {
	router := setupStatusRouter(new(inboxMock), policy.NewAppState(), RouterOptions{Debug: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDebugRouteEmitsAudit(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(pub, "audit.client", "social-client", "test")
	router := setupStatusRouter(new(inboxMock), policy.NewAppState(), RouterOptions{Debug: true, Emitter: emitter})

	pub.On("Publish", mock.Anything, "audit.client", mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.RequestID == "req-42" && env.UserID != nil && *env.UserID == "u-1"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	pub.AssertExpectations(t)
}

func TestSocialAndLogoutRoutesAreGuarded(t *testing.T) {
	social := new(socialAPIMock)
	logout := new(logoutMock)
	tornDown := false
	router := setupStatusRouter(new(inboxMock), policy.NewAppState(), RouterOptions{
		Token:   "s3cret",
		Social:  NewSocialHandler(social),
		Session: NewSessionHandler(logout, func() { tornDown = true }),
	})

	for _, target := range []string{"/feed", "/users/u-2/followers"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, tornDown)

	logout.On("Logout", mock.Anything).Return(nil).Once()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, tornDown)
	social.AssertNotCalled(t, "Feed", mock.Anything, mock.Anything, mock.Anything)
	logout.AssertExpectations(t)
}
