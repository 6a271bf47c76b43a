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

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error)
	Update(ctx context.Context, u *models.User) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	TouchLastSeen(ctx context.Context, id string) error
}

type mongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(m *Mongo, lg *zap.SugaredLogger) UserRepository {
	// unique sparse index so email-less OTP users don't collide
	if _, err := m.Users.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}); err != nil {
		lg.Warnw("index build failed", "collection", "users", "err", err)
	}
	return &mongoUserRepo{col: m.Users}
}

func (r *mongoUserRepo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.ErrUserAlreadyExists
		}
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var u models.User
	err = r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"phone": phone}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmailOrPhone is used at contact-creation time to link an address-book
// entry to a registered user.
func (r *mongoUserRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	or := bson.A{}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if len(or) == 0 {
		return nil, apperr.ErrUserNotFound
	}
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"$or": or}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	u.UpdatedAt = time.Now().UTC()
	set := bson.M{"updated_at": u.UpdatedAt}
	if u.FullName != "" {
		set["full_name"] = u.FullName
	}
	if u.Phone != "" {
		set["phone"] = u.Phone
	}
	if u.AvatarURL != "" {
		set["avatar_url"] = u.AvatarURL
	}
	if _, err := r.col.UpdateByID(ctx, u.ID, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, u.ID.Hex())
}

func (r *mongoUserRepo) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"full_name": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"email": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"phone": bson.M{"$regex": query, "$options": "i"}},
	}}
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *mongoUserRepo) TouchLastSeen(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = r.col.UpdateByID(ctx, objID, bson.M{"$set": bson.M{"last_seen": time.Now().UTC()}})
	return err
}
