package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongo connects to MongoDB and returns the named database.
func NewMongo(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(name), nil
}

// MigrateMongo creates the indexes the repositories rely on for lookups and uniqueness.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	indexes := map[string][]mongo.IndexModel{
		"users": {
			unique(bson.D{{Key: "email", Value: 1}}),
			{
				Keys:    bson.D{{Key: "google_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		"memberships": {
			plain(bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}),
			plain(bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}}),
			plain(bson.D{{Key: "stripe_checkout_session_id", Value: 1}}),
			plain(bson.D{{Key: "stripe_subscription_id", Value: 1}}),
			plain(bson.D{{Key: "joinit_membership_id", Value: 1}}),
		},
		"invoices": {
			unique(bson.D{{Key: "number", Value: 1}}),
			unique(bson.D{{Key: "provider", Value: 1}, {Key: "provider_ref", Value: 1}}),
			plain(bson.D{{Key: "user_id", Value: 1}, {Key: "issued_at", Value: -1}}),
		},
		"contacts": {
			unique(bson.D{{Key: "reference", Value: 1}}),
		},
		"events": {
			plain(bson.D{{Key: "starts_at", Value: 1}}),
		},
		"activities": {
			plain(bson.D{{Key: "created_at", Value: -1}}),
		},
		"webhook_events": {
			unique(bson.D{{Key: "provider", Value: 1}, {Key: "event_id", Value: 1}}),
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
