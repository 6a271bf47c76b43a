package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/whisper-backend/internal/config"
)

// Mongo bundles the client and the collections every repository hangs off.
type Mongo struct {
	Client        *mongo.Client
	DB            *mongo.Database
	Users         *mongo.Collection
	Messages      *mongo.Collection
	Groups        *mongo.Collection
	Contacts      *mongo.Collection
	Notifications *mongo.Collection
}

// NewMongo connects to MongoDB and resolves collections.
func NewMongo(cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Mongo.Database)
	return &Mongo{
		Client:        client,
		DB:            db,
		Users:         db.Collection("users"),
		Messages:      db.Collection("messages"),
		Groups:        db.Collection("groups"),
		Contacts:      db.Collection("contacts"),
		Notifications: db.Collection("notifications"),
	}, nil
}

// Disconnect closes the MongoDB connection.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
