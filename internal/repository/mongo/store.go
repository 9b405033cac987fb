// Package mongo implements the repository interfaces on MongoDB.
package mongo

import (
	"context"
	"errors"

	"github.com/tvkcanada/tvk-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names. Indexes are created by database.MigrateMongo.
const (
	usersCollection       = "users"
	membershipsCollection = "memberships"
	invoicesCollection    = "invoices"
	contactsCollection    = "contacts"
	galleryCollection     = "gallery_items"
	eventsCollection      = "events"
	networkCollection     = "network_chapters"
	activitiesCollection  = "activities"
	webhooksCollection    = "webhook_events"
	countersCollection    = "counters"
)

// NewStore returns every repository backed by db.
func NewStore(db *mongo.Database) repository.Store {
	return repository.Store{
		Users:       &UserRepository{coll: db.Collection(usersCollection)},
		Memberships: &MembershipRepository{coll: db.Collection(membershipsCollection)},
		Invoices:    &InvoiceRepository{coll: db.Collection(invoicesCollection)},
		Contacts:    &ContactRepository{coll: db.Collection(contactsCollection)},
		Gallery:     &GalleryRepository{coll: db.Collection(galleryCollection)},
		Events:      &EventRepository{coll: db.Collection(eventsCollection)},
		Network:     &NetworkRepository{coll: db.Collection(networkCollection)},
		Activities:  &ActivityRepository{coll: db.Collection(activitiesCollection)},
		Webhooks:    &WebhookRepository{coll: db.Collection(webhooksCollection)},
		Counters:    &CounterRepository{coll: db.Collection(countersCollection)},
	}
}

// translate maps driver errors onto repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// replace overwrites the document with the given _id, returning ErrNotFound when it does not exist.
func replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// countBy groups documents matching match by field.
func countBy(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + field}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Key   string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.Count
	}
	return counts, nil
}

func limitOrDefault(limit, fallback int) int64 {
	if limit <= 0 {
		return int64(fallback)
	}
	return int64(limit)
}
