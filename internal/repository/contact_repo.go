package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/models"
)

type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Contact, error)
	FindByOwnerAndLinked(ctx context.Context, owner, linkedUser string) (*models.Contact, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id string) error
}

type mongoContactRepo struct {
	col *mongo.Collection
}

func NewMongoContactRepo(m *Mongo, lg *zap.SugaredLogger) ContactRepository {
	if _, err := m.Contacts.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "linked_user", Value: 1}},
	}); err != nil {
		lg.Warnw("index build failed", "collection", "contacts", "err", err)
	}
	return &mongoContactRepo{col: m.Contacts}
}

func (r *mongoContactRepo) Create(ctx context.Context, c *models.Contact) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoContactRepo) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var c models.Contact
	err = r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoContactRepo) ListByOwner(ctx context.Context, owner string) ([]models.Contact, error) {
	opts := options.Find().SetSort(bson.M{"display_name": 1})
	cursor, err := r.col.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	var contacts []models.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// FindByOwnerAndLinked resolves the display-name override the relay applies
// when pushing a direct message: owner is the recipient, linkedUser the sender.
func (r *mongoContactRepo) FindByOwnerAndLinked(ctx context.Context, owner, linkedUser string) (*models.Contact, error) {
	var c models.Contact
	err := r.col.FindOne(ctx, bson.M{"owner": owner, "linked_user": linkedUser}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoContactRepo) Update(ctx context.Context, c *models.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	set := bson.M{"updated_at": c.UpdatedAt}
	if c.DisplayName != "" {
		set["display_name"] = c.DisplayName
	}
	if c.Email != "" {
		set["email"] = c.Email
	}
	if c.Phone != "" {
		set["phone"] = c.Phone
	}
	res, err := r.col.UpdateByID(ctx, c.ID, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrContactNotFound
	}
	return nil
}

func (r *mongoContactRepo) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrContactNotFound
	}
	return nil
}
