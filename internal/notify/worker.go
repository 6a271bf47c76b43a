package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/models"
)

// PresenceChecker reports whether a user currently has a live connection.
// Satisfied by the Redis presence mirror.
type PresenceChecker interface {
	IsOnline(ctx context.Context, userID string) bool
}

// NotificationSink persists notification documents.
type NotificationSink interface {
	Insert(ctx context.Context, n *models.Notification) error
}

// GroupLookup resolves a group's member and admin lists.
type GroupLookup interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
}

// messageEvent is the subset of the persisted-message payload the worker
// cares about.
type messageEvent struct {
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	GroupID       string `json:"group_id"`
	Kind          string `json:"kind"`
	Content       string `json:"content"`
	SenderDisplay string `json:"sender_display"`
	GroupName     string `json:"group_name"`
}

// Worker consumes message-persisted events and writes a notification
// document for each recipient that is not currently online. Online users saw
// the realtime push and need no notification.
type Worker struct {
	notifications NotificationSink
	groups        GroupLookup
	presence      PresenceChecker
	logger        *zap.SugaredLogger
}

func NewWorker(notifications NotificationSink, groups GroupLookup, presence PresenceChecker, logger *zap.SugaredLogger) *Worker {
	return &Worker{notifications: notifications, groups: groups, presence: presence, logger: logger}
}

// Run processes raw event payloads from in until the context is cancelled.
func (w *Worker) Run(ctx context.Context, in <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			var ev messageEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				w.logger.Warnw("malformed message event", "err", err)
				continue
			}
			w.handle(ctx, &ev)
		}
	}
}

func (w *Worker) handle(ctx context.Context, ev *messageEvent) {
	for _, userID := range w.recipients(ctx, ev) {
		if userID == ev.Sender || w.presence.IsOnline(ctx, userID) {
			continue
		}
		n := &models.Notification{
			UserID:  userID,
			Title:   w.title(ev),
			Message: preview(ev),
			Type:    "message",
		}
		if err := w.notifications.Insert(ctx, n); err != nil {
			w.logger.Errorw("notification insert failed", "user", userID, "err", err)
		}
	}
}

func (w *Worker) recipients(ctx context.Context, ev *messageEvent) []string {
	if ev.GroupID == "" {
		if ev.Recipient == "" {
			return nil
		}
		return []string{ev.Recipient}
	}
	group, err := w.groups.GetByID(ctx, ev.GroupID)
	if err != nil {
		w.logger.Warnw("group load failed", "group", ev.GroupID, "err", err)
		return nil
	}
	return group.Recipients()
}

func (w *Worker) title(ev *messageEvent) string {
	if ev.GroupID != "" && ev.GroupName != "" {
		return ev.GroupName
	}
	if ev.SenderDisplay != "" {
		return ev.SenderDisplay
	}
	return "New message"
}

func preview(ev *messageEvent) string {
	if ev.Kind == models.KindText {
		// truncate on rune boundaries so multi-byte content stays valid UTF-8
		if runes := []rune(ev.Content); len(runes) > 120 {
			return string(runes[:120])
		}
		return ev.Content
	}
	return "Sent you a " + ev.Kind
}
