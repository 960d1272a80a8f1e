package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-client/internal/api"
	"social-client/internal/models"
	"social-client/internal/ws"
)

type ChatAPIMock struct {
	mock.Mock
}

func (m *ChatAPIMock) Conversations(ctx context.Context) ([]models.Conversation, error) {
	args := m.Called(ctx)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *ChatAPIMock) DirectConversation(ctx context.Context, userID string) (models.Conversation, error) {
	args := m.Called(ctx, userID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ChatAPIMock) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ChatAPIMock) Messages(ctx context.Context, conversationID, cursor string, limit int) (models.Page[models.Message], error) {
	args := m.Called(ctx, conversationID, cursor, limit)
	var page models.Page[models.Message]
	if val := args.Get(0); val != nil {
		page = val.(models.Page[models.Message])
	}
	return page, args.Error(1)
}

func (m *ChatAPIMock) SendMessage(ctx context.Context, conversationID string, req models.SendMessageRequest) (models.Message, error) {
	args := m.Called(ctx, conversationID, req)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatAPIMock) MarkConversationRead(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type NotificationAPIMock struct {
	mock.Mock
}

func (m *NotificationAPIMock) Notifications(ctx context.Context, cursor string, limit int) (models.Page[models.Notification], error) {
	args := m.Called(ctx, cursor, limit)
	var page models.Page[models.Notification]
	if val := args.Get(0); val != nil {
		page = val.(models.Page[models.Notification])
	}
	return page, args.Error(1)
}

func (m *NotificationAPIMock) UnreadNotificationCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *NotificationAPIMock) MarkNotificationRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationAPIMock) MarkAllNotificationsRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *NotificationAPIMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

// RealtimeMock records room membership calls and hands out subscriptions from real streams.
type RealtimeMock struct {
	mock.Mock
	Messages      *ws.Stream[models.Message]
	Notifications *ws.Stream[models.NotificationEvent]
}

func NewRealtimeMock() *RealtimeMock {
	return &RealtimeMock{
		Messages:      ws.NewStream[models.Message]("messages", 10),
		Notifications: ws.NewStream[models.NotificationEvent]("notifications", 1),
	}
}

func (m *RealtimeMock) JoinConversation(conversationID string) {
	m.Called(conversationID)
}

func (m *RealtimeMock) LeaveConversation(conversationID string) {
	m.Called(conversationID)
}

func (m *RealtimeMock) JoinAllConversations(conversationIDs []string) bool {
	args := m.Called(conversationIDs)
	return args.Bool(0)
}

func (m *RealtimeMock) SubscribeMessages() *ws.Subscription[models.Message] {
	return m.Messages.Subscribe()
}

func (m *RealtimeMock) SubscribeNotifications() *ws.Subscription[models.NotificationEvent] {
	return m.Notifications.Subscribe()
}

var _ api.ChatAPI = (*ChatAPIMock)(nil)
var _ api.NotificationAPI = (*NotificationAPIMock)(nil)
var _ ws.MessageChannel = (*RealtimeMock)(nil)
var _ ws.NotificationChannel = (*RealtimeMock)(nil)
