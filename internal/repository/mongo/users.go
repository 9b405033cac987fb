package mongo

import (
	"context"
	"strings"

	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository stores users. Emails are stored lower-cased so the unique index ignores case.
type UserRepository struct {
	coll *mongo.Collection
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	doc := *u
	doc.Email = strings.ToLower(doc.Email)
	_, err := r.coll.InsertOne(ctx, doc)
	return translate(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"_id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"email": strings.ToLower(email)})
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"google_id": googleID})
}

// Update saves profile fields; the password hash is left untouched.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	set := bson.M{
		"name":            u.Name,
		"email":           strings.ToLower(u.Email),
		"role":            u.Role,
		"phone":           u.Phone,
		"city":            u.City,
		"province":        u.Province,
		"member_number":   u.MemberNumber,
		"founding_member": u.FoundingMember,
		"updated_at":      u.UpdatedAt.UTC(),
	}
	update := bson.M{"$set": set}
	if u.GoogleID != "" {
		set["google_id"] = u.GoogleID
	} else {
		update["$unset"] = bson.M{"google_id": ""}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limitOrDefault(limit, 50)).
		SetSkip(int64(offset))
	return findAll[models.User](ctx, r.coll, bson.M{}, opts)
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}
