package mongo

import (
	"context"
	"time"

	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MembershipRepository stores memberships.
type MembershipRepository struct {
	coll *mongo.Collection
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	_, err := r.coll.InsertOne(ctx, m)
	return translate(err)
}

func (r *MembershipRepository) GetByID(ctx context.Context, id string) (*models.Membership, error) {
	return findOne[models.Membership](ctx, r.coll, bson.M{"_id": id})
}

func (r *MembershipRepository) GetLatestForUser(ctx context.Context, userID string) (*models.Membership, error) {
	return findOne[models.Membership](ctx, r.coll, bson.M{"user_id": userID}, options.FindOne().SetSort(newestFirst))
}

func (r *MembershipRepository) ListForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	return findAll[models.Membership](ctx, r.coll, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
}

func (r *MembershipRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Membership, error) {
	return r.getByRef(ctx, "stripe_checkout_session_id", sessionID)
}

func (r *MembershipRepository) GetBySubscription(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	return r.getByRef(ctx, "stripe_subscription_id", subscriptionID)
}

func (r *MembershipRepository) GetByJoinItID(ctx context.Context, joinItID string) (*models.Membership, error) {
	return r.getByRef(ctx, "joinit_membership_id", joinItID)
}

// getByRef never matches an empty reference, since those fields are omitted when unset.
func (r *MembershipRepository) getByRef(ctx context.Context, field, value string) (*models.Membership, error) {
	if value == "" {
		return nil, repository.ErrNotFound
	}
	return findOne[models.Membership](ctx, r.coll, bson.M{field: value}, options.FindOne().SetSort(newestFirst))
}

func (r *MembershipRepository) Update(ctx context.Context, m *models.Membership) error {
	return replace(ctx, r.coll, m.ID, m)
}

func (r *MembershipRepository) List(ctx context.Context, f models.MembershipFilter) ([]models.Membership, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Plan != "" {
		filter["plan"] = f.Plan
	}
	opts := options.Find().SetSort(newestFirst).SetLimit(limitOrDefault(f.Limit, 100)).SetSkip(int64(f.Offset))
	return findAll[models.Membership](ctx, r.coll, filter, opts)
}

func (r *MembershipRepository) ListActiveEndingBefore(ctx context.Context, t time.Time) ([]models.Membership, error) {
	filter := bson.M{
		"status":   models.StatusActive,
		"end_date": bson.M{"$lt": t.UTC()},
	}
	return findAll[models.Membership](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}}))
}

func (r *MembershipRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.Membership, error) {
	filter := bson.M{
		"status":               models.StatusActive,
		"cancel_at_period_end": false,
		"reminder_sent_at":     nil,
		"end_date":             bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	return findAll[models.Membership](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}}))
}

func (r *MembershipRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.coll, bson.M{}, "status")
}

func (r *MembershipRepository) CountByPlan(ctx context.Context) (map[string]int, error) {
	return countBy(ctx, r.coll, bson.M{"status": models.StatusActive}, "plan")
}
