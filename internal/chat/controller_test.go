package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-client/internal/api"
	"social-client/internal/mocks"
	"social-client/internal/models"
	"social-client/internal/policy"
)

type roomLog struct {
	mu     sync.Mutex
	events []string
}

func (l *roomLog) record(prefix string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, prefix+":"+args.String(0))
	}
}

func (l *roomLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func msg(id, conv, sender string) models.Message {
	return models.Message{ID: id, ConversationID: conv, SenderID: sender, Content: "msg " + id}
}

func ids(list []models.Message) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}

func expectOpen(chatAPI *mocks.ChatAPIMock, otherUserID, convID string, items ...models.Message) {
	chatAPI.On("DirectConversation", mock.Anything, otherUserID).Return(models.Conversation{ID: convID, Type: models.ConversationDirect}, nil).Once()
	chatAPI.On("Messages", mock.Anything, convID, "", defaultPageSize).Return(models.Page[models.Message]{Items: items}, nil).Once()
	chatAPI.On("MarkConversationRead", mock.Anything, convID).Return(nil).Once()
}

func TestOpenAndLoadLoadsFirstPageAndJoinsRoom(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	app := policy.NewAppState()
	ctrl := NewController(chatAPI, realtime, app)
	defer ctrl.Close()

	expectOpen(chatAPI, "u-2", "c-1", msg("m2", "c-1", "u-2"), msg("m1", "c-1", "u-1"))
	realtime.On("JoinConversation", "c-1").Return().Once()
	realtime.On("LeaveConversation", "c-1").Return().Maybe()

	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	st := ctrl.State()
	require.NotNil(t, st.Conversation)
	assert.Equal(t, "c-1", st.Conversation.ID)
	assert.Equal(t, []string{"m2", "m1"}, ids(st.Messages))
	assert.False(t, st.Loading)
	assert.Equal(t, "c-1", app.Snapshot().OpenConversationID)
	chatAPI.AssertExpectations(t)
	realtime.AssertExpectations(t)
}

func TestSwitchingConversationLeavesPreviousRoomFirst(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	app := policy.NewAppState()
	ctrl := NewController(chatAPI, realtime, app)

	rooms := &roomLog{}
	realtime.On("JoinConversation", mock.Anything).Run(rooms.record("join")).Return()
	realtime.On("LeaveConversation", mock.Anything).Run(rooms.record("leave")).Return()

	expectOpen(chatAPI, "u-a", "A")
	expectOpen(chatAPI, "u-b", "B")

	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-a"))
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-b"))

	assert.Equal(t, []string{"join:A", "leave:A", "join:B"}, rooms.snapshot())
	realtime.AssertNumberOfCalls(t, "LeaveConversation", 1)
	assert.Equal(t, "B", app.Snapshot().OpenConversationID)

	realtime.Messages.Publish(msg("late-a", "A", "u-a"))
	realtime.Messages.Publish(msg("b1", "B", "u-b"))

	require.Eventually(t, func() bool {
		return len(ctrl.State().Messages) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"b1"}, ids(ctrl.State().Messages))

	ctrl.Close()
	assert.Equal(t, []string{"join:A", "leave:A", "join:B", "leave:B"}, rooms.snapshot())
	assert.Empty(t, app.Snapshot().OpenConversationID)
}

func TestSendRejectsBlankTextWithoutNetworkCall(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	ctrl := NewController(chatAPI, realtime, policy.NewAppState())
	defer ctrl.Close()

	expectOpen(chatAPI, "u-2", "c-1")
	realtime.On("JoinConversation", "c-1").Return()
	realtime.On("LeaveConversation", "c-1").Return()
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, ctrl.Send(context.Background(), text, ""), ErrEmptyMessage)
	}
	chatAPI.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendWithoutConversation(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	ctrl := NewController(chatAPI, mocks.NewRealtimeMock(), policy.NewAppState())

	assert.ErrorIs(t, ctrl.Send(context.Background(), "hello", ""), ErrNoConversation)
	chatAPI.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendPrependsThenReloads(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	ctrl := NewController(chatAPI, realtime, policy.NewAppState())
	defer ctrl.Close()

	expectOpen(chatAPI, "u-2", "c-1", msg("m1", "c-1", "u-2"))
	realtime.On("JoinConversation", "c-1").Return()
	realtime.On("LeaveConversation", "c-1").Return()
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	sent := msg("m2", "c-1", "u-1")
	chatAPI.On("SendMessage", mock.Anything, "c-1", models.SendMessageRequest{Content: "hi there", ReplyToID: "m1"}).Return(sent, nil).Once()
	chatAPI.On("Messages", mock.Anything, "c-1", "", defaultPageSize).
		Return(models.Page[models.Message]{Items: []models.Message{msg("m3", "c-1", "u-2"), sent, msg("m1", "c-1", "u-2")}, NextCursor: "cur"}, nil).Once()
	chatAPI.On("MarkConversationRead", mock.Anything, "c-1").Return(nil).Once()

	require.NoError(t, ctrl.Send(context.Background(), "  hi there ", "m1"))

	st := ctrl.State()
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(st.Messages))
	assert.Equal(t, "cur", st.NextCursor)
	assert.False(t, st.Sending)
	chatAPI.AssertExpectations(t)
}

func TestSendKeepsOptimisticMessageWhenReloadFails(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	ctrl := NewController(chatAPI, realtime, policy.NewAppState())
	defer ctrl.Close()

	expectOpen(chatAPI, "u-2", "c-1", msg("m1", "c-1", "u-2"))
	realtime.On("JoinConversation", "c-1").Return()
	realtime.On("LeaveConversation", "c-1").Return()
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	sent := msg("m2", "c-1", "u-1")
	realtime.Messages.Publish(sent)
	require.Eventually(t, func() bool {
		return len(ctrl.State().Messages) == 2
	}, time.Second, 10*time.Millisecond)

	chatAPI.On("SendMessage", mock.Anything, "c-1", mock.Anything).Return(sent, nil).Once()
	chatAPI.On("Messages", mock.Anything, "c-1", "", defaultPageSize).Return(nil, assert.AnError).Once()
	chatAPI.On("MarkConversationRead", mock.Anything, "c-1").Return(assert.AnError).Once()

	require.NoError(t, ctrl.Send(context.Background(), "hello", ""))
	assert.Equal(t, []string{"m2", "m1"}, ids(ctrl.State().Messages))
}

func TestRealtimeDuplicatesAreIgnored(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	ctrl := NewController(chatAPI, realtime, policy.NewAppState())
	defer ctrl.Close()

	expectOpen(chatAPI, "u-2", "c-1", msg("m1", "c-1", "u-2"))
	realtime.On("JoinConversation", "c-1").Return()
	realtime.On("LeaveConversation", "c-1").Return()
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	realtime.Messages.Publish(msg("m1", "c-1", "u-2"))
	realtime.Messages.Publish(msg("m2", "c-1", "u-2"))
	realtime.Messages.Publish(msg("m2", "c-1", "u-2"))
	realtime.Messages.Publish(msg("x1", "c-9", "u-3"))

	require.Eventually(t, func() bool {
		return len(ctrl.State().Messages) == 2
	}, time.Second, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{"m2", "m1"}, ids(ctrl.State().Messages))
}

func TestLoadOlderAppendsToTail(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	ctrl := NewController(chatAPI, realtime, policy.NewAppState())
	defer ctrl.Close()

	chatAPI.On("GetConversation", mock.Anything, "g-1").Return(models.Conversation{ID: "g-1", Type: models.ConversationGroup}, nil).Once()
	chatAPI.On("Messages", mock.Anything, "g-1", "", defaultPageSize).
		Return(models.Page[models.Message]{Items: []models.Message{msg("m3", "g-1", "u-2")}, NextCursor: "c1"}, nil).Once()
	chatAPI.On("MarkConversationRead", mock.Anything, "g-1").Return(nil).Once()
	realtime.On("JoinConversation", "g-1").Return()
	realtime.On("LeaveConversation", "g-1").Return()
	require.NoError(t, ctrl.Open(context.Background(), "g-1"))

	chatAPI.On("Messages", mock.Anything, "g-1", "c1", defaultPageSize).
		Return(models.Page[models.Message]{Items: []models.Message{msg("m3", "g-1", "u-2"), msg("m2", "g-1", "u-2"), msg("m1", "g-1", "u-3")}}, nil).Once()
	require.NoError(t, ctrl.LoadOlder(context.Background()))

	st := ctrl.State()
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(st.Messages))
	assert.Empty(t, st.NextCursor)

	require.NoError(t, ctrl.LoadOlder(context.Background()))
	chatAPI.AssertExpectations(t)
}

func TestOpenAndLoadSurfacesErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind ErrorKind
		text string
	}{
		{"permission", &api.APIError{Status: http.StatusForbidden}, ErrorPermissionDenied, errPermissionDenied},
		{"permission with server text", &api.APIError{Status: http.StatusForbidden, Message: "blocked"}, ErrorPermissionDenied, "blocked"},
		{"session", fmt.Errorf("%w: %w", api.ErrSessionExpired, &api.APIError{Status: http.StatusUnauthorized}), ErrorSessionExpired, api.UserMessage(api.ErrSessionExpired)},
		{"generic", &api.APIError{Status: http.StatusInternalServerError, Message: "boom"}, ErrorFailure, "boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chatAPI := new(mocks.ChatAPIMock)
			realtime := mocks.NewRealtimeMock()
			app := policy.NewAppState()
			ctrl := NewController(chatAPI, realtime, app)

			chatAPI.On("DirectConversation", mock.Anything, "u-2").Return(nil, tc.err).Once()

			err := ctrl.OpenAndLoad(context.Background(), "u-2")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err))

			st := ctrl.State()
			assert.Equal(t, tc.kind, st.ErrorKind)
			assert.Equal(t, tc.text, st.Error)
			assert.False(t, st.Loading)
			assert.Empty(t, app.Snapshot().OpenConversationID)
			realtime.AssertNotCalled(t, "JoinConversation", mock.Anything)
		})
	}
}

func TestChangesFiresOnUpdate(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	ctrl := NewController(chatAPI, realtime, policy.NewAppState())
	defer ctrl.Close()

	expectOpen(chatAPI, "u-2", "c-1")
	realtime.On("JoinConversation", "c-1").Return()
	realtime.On("LeaveConversation", "c-1").Return()
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	select {
	case <-ctrl.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestOverlappingOpensLeaveEveryRoom(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	app := policy.NewAppState()
	ctrl := NewController(chatAPI, realtime, app)

	rooms := &roomLog{}
	realtime.On("JoinConversation", mock.Anything).Run(rooms.record("join")).Return()
	realtime.On("LeaveConversation", mock.Anything).Run(rooms.record("leave")).Return()

	started := make(chan struct{})
	release := make(chan struct{})
	chatAPI.On("DirectConversation", mock.Anything, "u-a").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(models.Conversation{ID: "A"}, nil).Once()
	chatAPI.On("Messages", mock.Anything, "A", "", defaultPageSize).Return(models.Page[models.Message]{}, nil).Once()
	chatAPI.On("MarkConversationRead", mock.Anything, "A").Return(nil).Once()
	expectOpen(chatAPI, "u-b", "B")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-a"))
	}()
	<-started
	go func() {
		defer wg.Done()
		assert.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-b"))
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []string{"join:A", "leave:A", "join:B"}, rooms.snapshot())
	assert.Equal(t, "B", app.Snapshot().OpenConversationID)
	assert.Equal(t, 1, realtime.Messages.Subscribers())

	ctrl.Close()
	assert.Equal(t, []string{"join:A", "leave:A", "join:B", "leave:B"}, rooms.snapshot())
	assert.Equal(t, 0, realtime.Messages.Subscribers())
}

func TestOpeningClearsInboxUnread(t *testing.T) {
	chatAPI := new(mocks.ChatAPIMock)
	realtime := mocks.NewRealtimeMock()
	app := policy.NewAppState()
	inbox := NewInbox(chatAPI, realtime, app, staticUser("me"))
	ctrl := NewController(chatAPI, realtime, app, WithReadAcknowledger(inbox))
	defer ctrl.Close()

	chatAPI.On("Conversations", mock.Anything).Return([]models.Conversation{{ID: "c-1", UnreadCount: 3}}, nil).Once()
	realtime.On("JoinAllConversations", []string{"c-1"}).Return(true).Once()
	require.NoError(t, inbox.Load(context.Background()))
	require.Equal(t, 3, inbox.TotalUnread())

	expectOpen(chatAPI, "u-2", "c-1")
	realtime.On("JoinConversation", "c-1").Return()
	realtime.On("LeaveConversation", "c-1").Return()
	require.NoError(t, ctrl.OpenAndLoad(context.Background(), "u-2"))

	assert.Equal(t, 0, inbox.TotalUnread())
	chatAPI.AssertNumberOfCalls(t, "MarkConversationRead", 1)
	chatAPI.AssertExpectations(t)
}
