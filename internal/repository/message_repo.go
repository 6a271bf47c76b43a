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

type MessageRepository interface {
	Insert(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	DirectHistory(ctx context.Context, userA, userB string, page, limit int) ([]models.Message, error)
	GroupHistory(ctx context.Context, groupID string, page, limit int) ([]models.Message, error)
	UpdateDelivery(ctx context.Context, messageID, userID, status string) error
}

type mongoMessageRepo struct {
	col *mongo.Collection
}

func NewMongoMessageRepo(m *Mongo, lg *zap.SugaredLogger) MessageRepository {
	if _, err := m.Messages.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		lg.Warnw("index build failed", "collection", "messages", "err", err)
	}
	if _, err := m.Messages.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		lg.Warnw("index build failed", "collection", "messages", "err", err)
	}
	return &mongoMessageRepo{col: m.Messages}
}

func (r *mongoMessageRepo) Insert(ctx context.Context, msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var msg models.Message
	err = r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *mongoMessageRepo) DirectHistory(ctx context.Context, userA, userB string, page, limit int) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": userA, "recipient": userB},
		bson.M{"sender": userB, "recipient": userA},
	}}
	return r.history(ctx, filter, page, limit)
}

func (r *mongoMessageRepo) GroupHistory(ctx context.Context, groupID string, page, limit int) ([]models.Message, error) {
	return r.history(ctx, bson.M{"group_id": groupID}, page, limit)
}

func (r *mongoMessageRepo) history(ctx context.Context, filter bson.M, page, limit int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"created_at": 1})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateDelivery sets the delivery status for one recipient, inserting the
// entry if this recipient has no status yet.
func (r *mongoMessageRepo) UpdateDelivery(ctx context.Context, messageID, userID, status string) error {
	objID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": objID, "delivery.user_id": userID},
		bson.M{"$set": bson.M{"delivery.$.status": status, "delivery.$.updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		_, err = r.col.UpdateByID(ctx, objID, bson.M{"$push": bson.M{"delivery": models.DeliveryStatus{
			UserID:    userID,
			Status:    status,
			UpdatedAt: now,
		}}})
	}
	return err
}
