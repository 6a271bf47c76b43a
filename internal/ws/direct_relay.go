package ws

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/models"
)

// DirectRelay persists a point-to-point message and pushes it to whichever
// of the two participants are online.
type DirectRelay struct {
	registry *Registry
	pusher   Pusher
	messages MessageStore
	users    ProfileStore
	contacts ContactStore
	pub      Publisher
	logger   *zap.SugaredLogger
}

func NewDirectRelay(registry *Registry, pusher Pusher, messages MessageStore, users ProfileStore, contacts ContactStore, pub Publisher, logger *zap.SugaredLogger) *DirectRelay {
	return &DirectRelay{
		registry: registry,
		pusher:   pusher,
		messages: messages,
		users:    users,
		contacts: contacts,
		pub:      pub,
		logger:   logger,
	}
}

// Send persists the message and pushes the hydrated result to the sender's
// and recipient's connections independently. Either or both being offline is
// not an error. A persistence failure aborts the whole operation; the sender
// is told via a send-error event.
func (r *DirectRelay) Send(ctx context.Context, sender string, p *SendMessagePayload) error {
	msg, err := r.buildMessage(sender, p)
	if err != nil {
		r.notifySendError(sender, p.Recipient, err.Error())
		return err
	}

	if err := r.messages.Insert(ctx, msg); err != nil {
		r.notifySendError(sender, p.Recipient, "message could not be saved")
		return fmt.Errorf("persist message: %w", err)
	}

	hydrated := r.hydrate(ctx, msg)

	if connID, ok := r.registry.Lookup(sender); ok {
		r.pusher.Push(connID, EventReceiveMessage, hydrated)
	}
	if connID, ok := r.registry.Lookup(p.Recipient); ok {
		r.pusher.Push(connID, EventReceiveMessage, hydrated)
	}

	if r.pub != nil {
		if err := r.pub.PublishMessagePersisted(ctx, hydrated); err != nil {
			r.logger.Warnw("message event publish failed", "message", msg.ID.Hex(), "err", err)
		}
	}
	return nil
}

func (r *DirectRelay) buildMessage(sender string, p *SendMessagePayload) (*models.Message, error) {
	if p.Recipient == "" {
		return nil, errors.New("recipient required")
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
	case models.KindAudio, models.KindVideo:
		if p.Call == nil {
			return nil, errors.New("call record required for call messages")
		}
	default:
		return nil, fmt.Errorf("unknown message kind %q", p.Kind)
	}
	return &models.Message{
		Sender:    sender,
		Recipient: p.Recipient,
		Kind:      p.Kind,
		Content:   p.Content,
		FileURL:   p.FileURL,
		Call:      p.Call,
	}, nil
}

// hydrate re-reads the persisted message and merges in sender/recipient
// display projections plus the recipient's contact-name override for the
// sender. Lookup failures degrade to a bare message; the push still happens.
func (r *DirectRelay) hydrate(ctx context.Context, msg *models.Message) *models.HydratedMessage {
	stored, err := r.messages.GetByID(ctx, msg.ID.Hex())
	if err != nil {
		r.logger.Warnw("hydration re-read failed", "message", msg.ID.Hex(), "err", err)
		stored = msg
	}
	h := &models.HydratedMessage{Message: *stored}

	if u, err := r.users.GetByID(ctx, stored.Sender); err == nil {
		h.SenderProfile = &models.UserProfile{ID: u.ID.Hex(), FullName: u.FullName, AvatarURL: u.AvatarURL}
		h.SenderDisplay = u.FullName
	}
	if u, err := r.users.GetByID(ctx, stored.Recipient); err == nil {
		h.RecipientProfile = &models.UserProfile{ID: u.ID.Hex(), FullName: u.FullName, AvatarURL: u.AvatarURL}
	}

	// each side sees their own naming of the other: the recipient's saved
	// contact name for the sender wins over the sender's profile name
	if c, err := r.contacts.FindByOwnerAndLinked(ctx, stored.Recipient, stored.Sender); err == nil {
		if c.DisplayName != "" {
			h.SenderDisplay = c.DisplayName
		}
	} else if !errors.Is(err, apperr.ErrContactNotFound) {
		r.logger.Warnw("contact override lookup failed", "owner", stored.Recipient, "err", err)
	}
	return h
}

func (r *DirectRelay) notifySendError(sender, recipient, reason string) {
	if connID, ok := r.registry.Lookup(sender); ok {
		r.pusher.Push(connID, EventSendError, &SendErrorPayload{Recipient: recipient, Reason: reason})
	}
}
