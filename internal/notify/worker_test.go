package notify

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/models"
)

type fakeSink struct {
	inserted []*models.Notification
}

func (s *fakeSink) Insert(_ context.Context, n *models.Notification) error {
	s.inserted = append(s.inserted, n)
	return nil
}

type fakeGroups struct {
	groups map[string]*models.Group
}

func (g *fakeGroups) GetByID(_ context.Context, id string) (*models.Group, error) {
	grp, ok := g.groups[id]
	if !ok {
		return nil, apperr.ErrGroupNotFound
	}
	return grp, nil
}

type fakePresence struct {
	online map[string]bool
}

func (p *fakePresence) IsOnline(_ context.Context, userID string) bool {
	return p.online[userID]
}

func TestWorkerDirectMessageOfflineRecipient(t *testing.T) {
	sink := &fakeSink{}
	w := NewWorker(sink, &fakeGroups{}, &fakePresence{online: map[string]bool{}}, zap.NewNop().Sugar())

	w.handle(context.Background(), &messageEvent{
		Sender:        "alice",
		Recipient:     "bob",
		Kind:          models.KindText,
		Content:       "hello there",
		SenderDisplay: "Alice",
	})

	require.Len(t, sink.inserted, 1)
	assert.Equal(t, "bob", sink.inserted[0].UserID)
	assert.Equal(t, "Alice", sink.inserted[0].Title)
	assert.Equal(t, "hello there", sink.inserted[0].Message)
}

func TestWorkerSkipsOnlineRecipient(t *testing.T) {
	sink := &fakeSink{}
	presence := &fakePresence{online: map[string]bool{"bob": true}}
	w := NewWorker(sink, &fakeGroups{}, presence, zap.NewNop().Sugar())

	w.handle(context.Background(), &messageEvent{Sender: "alice", Recipient: "bob", Kind: models.KindText, Content: "hi"})

	assert.Empty(t, sink.inserted)
}

func TestWorkerGroupMessageSkipsSenderAndOnline(t *testing.T) {
	sink := &fakeSink{}
	groups := &fakeGroups{groups: map[string]*models.Group{
		"g1": {Name: "team", Members: []string{"u1", "u2", "u3"}, Admins: []string{"u1"}},
	}}
	presence := &fakePresence{online: map[string]bool{"u2": true}}
	w := NewWorker(sink, groups, presence, zap.NewNop().Sugar())

	w.handle(context.Background(), &messageEvent{
		Sender:    "u1",
		GroupID:   "g1",
		GroupName: "team",
		Kind:      models.KindFile,
	})

	// u1 sent it, u2 is online; only u3 gets a notification
	require.Len(t, sink.inserted, 1)
	assert.Equal(t, "u3", sink.inserted[0].UserID)
	assert.Equal(t, "team", sink.inserted[0].Title)
	assert.Equal(t, "Sent you a file", sink.inserted[0].Message)
}

func TestWorkerPreviewTruncatesMultibyteContent(t *testing.T) {
	sink := &fakeSink{}
	w := NewWorker(sink, &fakeGroups{}, &fakePresence{online: map[string]bool{}}, zap.NewNop().Sugar())

	w.handle(context.Background(), &messageEvent{
		Sender:    "alice",
		Recipient: "bob",
		Kind:      models.KindText,
		Content:   strings.Repeat("héllo ", 30), // 180 runes, multi-byte
	})

	require.Len(t, sink.inserted, 1)
	got := sink.inserted[0].Message
	assert.Equal(t, 120, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestWorkerRunStopsOnContextCancel(t *testing.T) {
	sink := &fakeSink{}
	w := NewWorker(sink, &fakeGroups{}, &fakePresence{online: map[string]bool{}}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []byte, 1)
	done := make(chan struct{})
	go func() {
		w.Run(ctx, in)
		close(done)
	}()

	in <- []byte(`{"sender":"alice","recipient":"bob","kind":"text","content":"hi"}`)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
