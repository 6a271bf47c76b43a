package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/models"
)

type GroupRepository interface {
	Create(ctx context.Context, g *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
	AppendMessage(ctx context.Context, groupID string, messageID primitive.ObjectID) error
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	PromoteAdmin(ctx context.Context, groupID, userID string) error
	SetName(ctx context.Context, groupID, name string) error
	SetImage(ctx context.Context, groupID, imageURL string) error
}

type mongoGroupRepo struct {
	col *mongo.Collection
}

func NewMongoGroupRepo(m *Mongo, lg *zap.SugaredLogger) GroupRepository {
	if _, err := m.Groups.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "members", Value: 1}},
	}); err != nil {
		lg.Warnw("index build failed", "collection", "groups", "err", err)
	}
	return &mongoGroupRepo{col: m.Groups}
}

func (r *mongoGroupRepo) Create(ctx context.Context, g *models.Group) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Messages == nil {
		g.Messages = []primitive.ObjectID{}
	}
	res, err := r.col.InsertOne(ctx, g)
	if err != nil {
		return err
	}
	g.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoGroupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var g models.Group
	err = r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *mongoGroupRepo) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"members": userID},
		bson.M{"admins": userID},
	}}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var groups []models.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AppendMessage pushes a message id onto the group's ordered history and
// refreshes updated_at. Not transactional with the message insert itself.
func (r *mongoGroupRepo) AppendMessage(ctx context.Context, groupID string, messageID primitive.ObjectID) error {
	return r.update(ctx, groupID, bson.M{
		"$push": bson.M{"messages": messageID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoGroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	return r.update(ctx, groupID, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.update(ctx, groupID, bson.M{
		"$pull": bson.M{"members": userID, "admins": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoGroupRepo) PromoteAdmin(ctx context.Context, groupID, userID string) error {
	return r.update(ctx, groupID, bson.M{
		"$addToSet": bson.M{"admins": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (r *mongoGroupRepo) SetName(ctx context.Context, groupID, name string) error {
	return r.update(ctx, groupID, bson.M{
		"$set": bson.M{"name": name, "updated_at": time.Now().UTC()},
	})
}

func (r *mongoGroupRepo) SetImage(ctx context.Context, groupID, imageURL string) error {
	return r.update(ctx, groupID, bson.M{
		"$set": bson.M{"image_url": imageURL, "updated_at": time.Now().UTC()},
	})
}

func (r *mongoGroupRepo) update(ctx context.Context, groupID string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	res, err := r.col.UpdateByID(ctx, objID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrGroupNotFound
	}
	return nil
}
