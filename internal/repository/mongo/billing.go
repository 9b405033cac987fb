package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InvoiceRepository stores invoices.
type InvoiceRepository struct {
	coll *mongo.Collection
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	_, err := r.coll.InsertOne(ctx, inv)
	return translate(err)
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return findOne[models.Invoice](ctx, r.coll, bson.M{"_id": id})
}

func (r *InvoiceRepository) GetByProviderRef(ctx context.Context, provider, ref string) (*models.Invoice, error) {
	return findOne[models.Invoice](ctx, r.coll, bson.M{"provider": provider, "provider_ref": ref})
}

func (r *InvoiceRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Invoice, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}, {Key: "number", Value: -1}}).
		SetLimit(limitOrDefault(limit, 50))
	return findAll[models.Invoice](ctx, r.coll, bson.M{"user_id": userID}, opts)
}

// WebhookRepository is the ledger of provider events already processed.
type WebhookRepository struct {
	coll *mongo.Collection
}

func (r *WebhookRepository) Record(ctx context.Context, rec models.WebhookRecord) error {
	rec.ReceivedAt = rec.ReceivedAt.UTC()
	_, err := r.coll.InsertOne(ctx, rec)
	return translate(err)
}

func (r *WebhookRepository) Forget(ctx context.Context, provider, eventID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"provider": provider, "event_id": eventID})
	return err
}

func (r *WebhookRepository) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"received_at": bson.M{"$lt": t.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CounterRepository keeps sequences as {_id: name, value: n} documents.
type CounterRepository struct {
	coll *mongo.Collection
}

type counterDoc struct {
	Name  string `bson:"_id"`
	Value int64  `bson:"value"`
}

func (r *CounterRepository) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc counterDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}

func (r *CounterRepository) Current(ctx context.Context, name string) (int64, error) {
	doc, err := findOne[counterDoc](ctx, r.coll, bson.M{"_id": name})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return doc.Value, nil
}
