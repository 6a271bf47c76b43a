package ws

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/models"
)

// GroupRelay persists a group message, appends it to the group's history,
// and fans it out once per distinct live connection among members and admins.
type GroupRelay struct {
	registry *Registry
	pusher   Pusher
	messages MessageStore
	groups   GroupStore
	users    ProfileStore
	pub      Publisher
	logger   *zap.SugaredLogger
}

func NewGroupRelay(registry *Registry, pusher Pusher, messages MessageStore, groups GroupStore, users ProfileStore, pub Publisher, logger *zap.SugaredLogger) *GroupRelay {
	return &GroupRelay{
		registry: registry,
		pusher:   pusher,
		messages: messages,
		groups:   groups,
		users:    users,
		pub:      pub,
		logger:   logger,
	}
}

// Send persists the message with an empty recipient, appends its id to the
// group history, and pushes it to every distinct connection in the member
// and admin union. The sender receives their own message back; the client
// reconciles that against its optimistic echo.
func (r *GroupRelay) Send(ctx context.Context, sender string, p *SendGroupMessagePayload) error {
	msg, err := r.buildMessage(sender, p)
	if err != nil {
		r.notifySendError(sender, p.GroupID, err.Error())
		return err
	}

	if err := r.messages.Insert(ctx, msg); err != nil {
		r.notifySendError(sender, p.GroupID, "message could not be saved")
		return fmt.Errorf("persist message: %w", err)
	}

	// second write, not transactional with the insert: a crash between the
	// two leaves a message that is fetchable by query but absent from the
	// group's history pointer
	if err := r.groups.AppendMessage(ctx, p.GroupID, msg.ID); err != nil {
		r.logger.Errorw("group history append failed", "group", p.GroupID, "message", msg.ID.Hex(), "err", err)
	}

	group, err := r.groups.GetByID(ctx, p.GroupID)
	if err != nil {
		return fmt.Errorf("load group: %w", err)
	}

	hydrated := r.hydrate(ctx, msg, group)

	// dedupe by resolved connection id, not by identity: a user in both the
	// member and admin lists still gets exactly one copy
	seen := make(map[string]struct{})
	for _, userID := range group.Recipients() {
		connID, ok := r.registry.Lookup(userID)
		if !ok {
			continue
		}
		if _, dup := seen[connID]; dup {
			continue
		}
		seen[connID] = struct{}{}
		r.pusher.Push(connID, EventReceiveGroupMessage, hydrated)
	}

	if r.pub != nil {
		if err := r.pub.PublishMessagePersisted(ctx, hydrated); err != nil {
			r.logger.Warnw("message event publish failed", "message", msg.ID.Hex(), "err", err)
		}
	}
	return nil
}

func (r *GroupRelay) buildMessage(sender string, p *SendGroupMessagePayload) (*models.Message, error) {
	if p.GroupID == "" {
		return nil, errors.New("group id required")
	}
	switch p.Kind {
	case models.KindText:
		if p.Content == "" {
			return nil, errors.New("content required for text messages")
		}
	case models.KindFile:
		if p.FileURL == "" {
			return nil, errors.New("file url required for file messages")
		}
	default:
		return nil, fmt.Errorf("unknown message kind %q", p.Kind)
	}
	return &models.Message{
		Sender:  sender,
		GroupID: p.GroupID,
		Kind:    p.Kind,
		Content: p.Content,
		FileURL: p.FileURL,
	}, nil
}

// hydrate enriches the message with the sender projection and the group
// metadata clients route on.
func (r *GroupRelay) hydrate(ctx context.Context, msg *models.Message, group *models.Group) *models.HydratedMessage {
	stored, err := r.messages.GetByID(ctx, msg.ID.Hex())
	if err != nil {
		r.logger.Warnw("hydration re-read failed", "message", msg.ID.Hex(), "err", err)
		stored = msg
	}
	h := &models.HydratedMessage{
		Message:       *stored,
		GroupName:     group.Name,
		GroupImageURL: group.ImageURL,
	}
	if u, err := r.users.GetByID(ctx, stored.Sender); err == nil {
		h.SenderProfile = &models.UserProfile{ID: u.ID.Hex(), FullName: u.FullName, AvatarURL: u.AvatarURL}
		h.SenderDisplay = u.FullName
	}
	return h
}

func (r *GroupRelay) notifySendError(sender, groupID, reason string) {
	if connID, ok := r.registry.Lookup(sender); ok {
		r.pusher.Push(connID, EventSendError, &SendErrorPayload{GroupID: groupID, Reason: reason})
	}
}
