package mongo

import (
	"context"
	"regexp"

	"github.com/tvkcanada/tvk-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ContactRepository stores contact form submissions.
type ContactRepository struct {
	coll *mongo.Collection
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	_, err := r.coll.InsertOne(ctx, c)
	return translate(err)
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	return findOne[models.Contact](ctx, r.coll, bson.M{"_id": id})
}

func (r *ContactRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Contact, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(newestFirst).SetLimit(limitOrDefault(limit, 50)).SetSkip(int64(offset))
	return findAll[models.Contact](ctx, r.coll, filter, opts)
}

func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) error {
	return replace(ctx, r.coll, c.ID, c)
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *ContactRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.coll, bson.M{}, "status")
}

// GalleryRepository stores gallery items.
type GalleryRepository struct {
	coll *mongo.Collection
}

func (r *GalleryRepository) Create(ctx context.Context, item *models.GalleryItem) error {
	_, err := r.coll.InsertOne(ctx, item)
	return translate(err)
}

func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*models.GalleryItem, error) {
	return findOne[models.GalleryItem](ctx, r.coll, bson.M{"_id": id})
}

func (r *GalleryRepository) List(ctx context.Context, category string, limit, offset int) ([]models.GalleryItem, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(limitOrDefault(limit, 60)).
		SetSkip(int64(offset))
	return findAll[models.GalleryItem](ctx, r.coll, filter, opts)
}

func (r *GalleryRepository) Update(ctx context.Context, item *models.GalleryItem) error {
	return replace(ctx, r.coll, item.ID, item)
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

// EventRepository stores club events.
type EventRepository struct {
	coll *mongo.Collection
}

func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	_, err := r.coll.InsertOne(ctx, e)
	return translate(err)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return findOne[models.Event](ctx, r.coll, bson.M{"_id": id})
}

func (r *EventRepository) List(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	filter := bson.M{}
	if f.From != nil {
		filter["starts_at"] = bson.M{"$gte": f.From.UTC()}
	}
	if f.PublishedOnly {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}}).SetLimit(limitOrDefault(f.Limit, 100))
	return findAll[models.Event](ctx, r.coll, filter, opts)
}

func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	return replace(ctx, r.coll, e.ID, e)
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

// NetworkRepository stores global network chapters.
type NetworkRepository struct {
	coll *mongo.Collection
}

func (r *NetworkRepository) Create(ctx context.Context, c *models.NetworkChapter) error {
	_, err := r.coll.InsertOne(ctx, c)
	return translate(err)
}

func (r *NetworkRepository) GetByID(ctx context.Context, id string) (*models.NetworkChapter, error) {
	return findOne[models.NetworkChapter](ctx, r.coll, bson.M{"_id": id})
}

// List matches country case-insensitively.
func (r *NetworkRepository) List(ctx context.Context, country string) ([]models.NetworkChapter, error) {
	filter := bson.M{}
	if country != "" {
		filter["country"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(country) + "$", Options: "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "country", Value: 1}, {Key: "name", Value: 1}})
	return findAll[models.NetworkChapter](ctx, r.coll, filter, opts)
}

func (r *NetworkRepository) Update(ctx context.Context, c *models.NetworkChapter) error {
	return replace(ctx, r.coll, c.ID, c)
}

func (r *NetworkRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

// ActivityRepository stores the admin activity feed.
type ActivityRepository struct {
	coll *mongo.Collection
}

func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	_, err := r.coll.InsertOne(ctx, a)
	return translate(err)
}

func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(limitOrDefault(limit, 50))
	return findAll[models.Activity](ctx, r.coll, bson.M{}, opts)
}
