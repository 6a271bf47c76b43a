package ws

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/whisper-backend/internal/models"
)

// The relays depend on these narrow store interfaces rather than the full
// repository types so they can be exercised with in-memory fakes.

type MessageStore interface {
	Insert(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
}

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type ContactStore interface {
	FindByOwnerAndLinked(ctx context.Context, owner, linkedUser string) (*models.Contact, error)
}

type GroupStore interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
	AppendMessage(ctx context.Context, groupID string, messageID primitive.ObjectID) error
}

// Publisher emits a broker event after a message is durably persisted.
// Publish failures never affect the realtime push path.
type Publisher interface {
	PublishMessagePersisted(ctx context.Context, payload any) error
}
