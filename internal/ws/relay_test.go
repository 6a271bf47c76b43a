package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/models"
)

type push struct {
	connID  string
	event   string
	payload any
}

type fakePusher struct {
	pushes []push
}

func (p *fakePusher) Push(connID, event string, payload any) {
	p.pushes = append(p.pushes, push{connID: connID, event: event, payload: payload})
}

func (p *fakePusher) byEvent(event string) []push {
	var out []push
	for _, pu := range p.pushes {
		if pu.event == event {
			out = append(out, pu)
		}
	}
	return out
}

type fakeMessageStore struct {
	byID       map[string]*models.Message
	failInsert bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{byID: make(map[string]*models.Message)}
}

func (s *fakeMessageStore) Insert(_ context.Context, msg *models.Message) error {
	if s.failInsert {
		return errors.New("write failed")
	}
	msg.ID = primitive.NewObjectID()
	stored := *msg
	s.byID[msg.ID.Hex()] = &stored
	return nil
}

func (s *fakeMessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	msg, ok := s.byID[id]
	if !ok {
		return nil, apperr.ErrMessageNotFound
	}
	out := *msg
	return &out, nil
}

type fakeProfileStore struct {
	users map[string]*models.User
}

func (s *fakeProfileStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return u, nil
}

type fakeContactStore struct {
	contacts map[string]*models.Contact // "owner|linked"
}

func (s *fakeContactStore) FindByOwnerAndLinked(_ context.Context, owner, linked string) (*models.Contact, error) {
	c, ok := s.contacts[owner+"|"+linked]
	if !ok {
		return nil, apperr.ErrContactNotFound
	}
	return c, nil
}

type fakeGroupStore struct {
	groups   map[string]*models.Group
	appended []primitive.ObjectID
}

func (s *fakeGroupStore) GetByID(_ context.Context, id string) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, apperr.ErrGroupNotFound
	}
	return g, nil
}

func (s *fakeGroupStore) AppendMessage(_ context.Context, _ string, messageID primitive.ObjectID) error {
	s.appended = append(s.appended, messageID)
	return nil
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func directFixture() (*Registry, *fakePusher, *fakeMessageStore, *DirectRelay) {
	registry := NewRegistry()
	pusher := &fakePusher{}
	messages := newFakeMessageStore()
	users := &fakeProfileStore{users: map[string]*models.User{
		"alice": {ID: primitive.NewObjectID(), FullName: "Alice"},
		"bob":   {ID: primitive.NewObjectID(), FullName: "Bob"},
	}}
	contacts := &fakeContactStore{contacts: map[string]*models.Contact{}}
	relay := NewDirectRelay(registry, pusher, messages, users, contacts, nil, testLogger())
	return registry, pusher, messages, relay
}

func TestDirectRelayBothOnline(t *testing.T) {
	registry, pusher, messages, relay := directFixture()
	registry.Register("alice", "conn-a")
	registry.Register("bob", "conn-b")

	err := relay.Send(context.Background(), "alice", &SendMessagePayload{
		Recipient: "bob",
		Kind:      models.KindText,
		Content:   "hello",
	})
	require.NoError(t, err)

	received := pusher.byEvent(EventReceiveMessage)
	require.Len(t, received, 2)
	assert.Equal(t, "conn-a", received[0].connID)
	assert.Equal(t, "conn-b", received[1].connID)

	// both pushes carry the same persisted message
	first := received[0].payload.(*models.HydratedMessage)
	second := received[1].payload.(*models.HydratedMessage)
	assert.False(t, first.ID.IsZero())
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "hello", first.Content)

	_, err = messages.GetByID(context.Background(), first.ID.Hex())
	assert.NoError(t, err)
}

func TestDirectRelayRecipientOffline(t *testing.T) {
	registry, pusher, messages, relay := directFixture()
	registry.Register("alice", "conn-a")

	err := relay.Send(context.Background(), "alice", &SendMessagePayload{
		Recipient: "bob",
		Kind:      models.KindText,
		Content:   "hello",
	})
	require.NoError(t, err)

	// only the sender's connection is pushed to; bob sees it on next fetch
	received := pusher.byEvent(EventReceiveMessage)
	require.Len(t, received, 1)
	assert.Equal(t, "conn-a", received[0].connID)

	msg := received[0].payload.(*models.HydratedMessage)
	stored, err := messages.GetByID(context.Background(), msg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
	assert.Equal(t, "alice", stored.Sender)
	assert.Equal(t, "bob", stored.Recipient)
	assert.Equal(t, models.KindText, stored.Kind)
}

func TestDirectRelayContactNameOverride(t *testing.T) {
	registry, pusher, _, relay := directFixture()
	relay.contacts = &fakeContactStore{contacts: map[string]*models.Contact{
		"bob|alice": {Owner: "bob", LinkedUser: "alice", DisplayName: "Work Alice"},
	}}
	registry.Register("bob", "conn-b")

	err := relay.Send(context.Background(), "alice", &SendMessagePayload{
		Recipient: "bob",
		Kind:      models.KindText,
		Content:   "hi",
	})
	require.NoError(t, err)

	received := pusher.byEvent(EventReceiveMessage)
	require.Len(t, received, 1)
	msg := received[0].payload.(*models.HydratedMessage)
	assert.Equal(t, "Work Alice", msg.SenderDisplay)
}

func TestDirectRelayPersistFailure(t *testing.T) {
	registry, pusher, messages, relay := directFixture()
	messages.failInsert = true
	registry.Register("alice", "conn-a")
	registry.Register("bob", "conn-b")

	err := relay.Send(context.Background(), "alice", &SendMessagePayload{
		Recipient: "bob",
		Kind:      models.KindText,
		Content:   "hello",
	})
	require.Error(t, err)

	assert.Empty(t, pusher.byEvent(EventReceiveMessage))
	failures := pusher.byEvent(EventSendError)
	require.Len(t, failures, 1)
	assert.Equal(t, "conn-a", failures[0].connID)
}

func TestDirectRelayInvalidPayload(t *testing.T) {
	registry, pusher, _, relay := directFixture()
	registry.Register("alice", "conn-a")

	err := relay.Send(context.Background(), "alice", &SendMessagePayload{
		Recipient: "bob",
		Kind:      models.KindText, // text without content violates the invariant
	})
	require.Error(t, err)
	assert.Empty(t, pusher.byEvent(EventReceiveMessage))
	assert.Len(t, pusher.byEvent(EventSendError), 1)
}

func TestDirectRelayFileMessage(t *testing.T) {
	registry, pusher, _, relay := directFixture()
	registry.Register("bob", "conn-b")

	err := relay.Send(context.Background(), "alice", &SendMessagePayload{
		Recipient: "bob",
		Kind:      models.KindFile,
		FileURL:   "https://example.com/f.png",
	})
	require.NoError(t, err)

	received := pusher.byEvent(EventReceiveMessage)
	require.Len(t, received, 1)
	msg := received[0].payload.(*models.HydratedMessage)
	assert.Equal(t, "https://example.com/f.png", msg.FileURL)
	assert.Empty(t, msg.Content)
}

func groupFixture(g *models.Group) (*Registry, *fakePusher, *fakeGroupStore, *GroupRelay) {
	registry := NewRegistry()
	pusher := &fakePusher{}
	messages := newFakeMessageStore()
	users := &fakeProfileStore{users: map[string]*models.User{
		"u1": {ID: primitive.NewObjectID(), FullName: "User One"},
	}}
	groups := &fakeGroupStore{groups: map[string]*models.Group{"g1": g}}
	relay := NewGroupRelay(registry, pusher, messages, groups, users, nil, testLogger())
	return registry, pusher, groups, relay
}

func TestGroupRelayFanOutDedupe(t *testing.T) {
	// u1 is both member and admin; must receive exactly one copy
	group := &models.Group{
		Name:    "team",
		Members: []string{"u1", "u2"},
		Admins:  []string{"u1"},
	}
	registry, pusher, groups, relay := groupFixture(group)
	registry.Register("u1", "conn-1")
	registry.Register("u2", "conn-2")

	err := relay.Send(context.Background(), "u1", &SendGroupMessagePayload{
		GroupID: "g1",
		Kind:    models.KindText,
		Content: "hi",
	})
	require.NoError(t, err)

	received := pusher.byEvent(EventReceiveGroupMessage)
	require.Len(t, received, 2)
	conns := []string{received[0].connID, received[1].connID}
	assert.ElementsMatch(t, []string{"conn-1", "conn-2"}, conns)

	// message id landed in the group history
	require.Len(t, groups.appended, 1)
	msg := received[0].payload.(*models.HydratedMessage)
	assert.Equal(t, msg.ID, groups.appended[0])
	assert.Equal(t, "team", msg.GroupName)
	assert.Empty(t, msg.Recipient)
}

func TestGroupRelayOfflineMembersSkipped(t *testing.T) {
	group := &models.Group{
		Name:    "team",
		Members: []string{"u1", "u2", "u3"},
		Admins:  []string{"u1"},
	}
	registry, pusher, _, relay := groupFixture(group)
	registry.Register("u2", "conn-2")

	err := relay.Send(context.Background(), "u1", &SendGroupMessagePayload{
		GroupID: "g1",
		Kind:    models.KindText,
		Content: "hi",
	})
	require.NoError(t, err)

	received := pusher.byEvent(EventReceiveGroupMessage)
	require.Len(t, received, 1)
	assert.Equal(t, "conn-2", received[0].connID)
}

func TestGroupRelayUnknownGroup(t *testing.T) {
	group := &models.Group{Name: "team", Members: []string{"u1"}}
	registry, pusher, _, relay := groupFixture(group)
	registry.Register("u1", "conn-1")

	err := relay.Send(context.Background(), "u1", &SendGroupMessagePayload{
		GroupID: "missing",
		Kind:    models.KindText,
		Content: "hi",
	})
	require.Error(t, err)
	assert.Empty(t, pusher.byEvent(EventReceiveGroupMessage))
}

func TestGroupRelayPersistFailure(t *testing.T) {
	group := &models.Group{Name: "team", Members: []string{"u1", "u2"}}
	registry, pusher, groups, relay := groupFixture(group)
	relay.messages = &fakeMessageStore{failInsert: true}
	registry.Register("u1", "conn-1")

	err := relay.Send(context.Background(), "u1", &SendGroupMessagePayload{
		GroupID: "g1",
		Kind:    models.KindText,
		Content: "hi",
	})
	require.Error(t, err)
	assert.Empty(t, pusher.byEvent(EventReceiveGroupMessage))
	assert.Empty(t, groups.appended)
	assert.Len(t, pusher.byEvent(EventSendError), 1)
}
