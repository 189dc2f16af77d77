package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

const collectionOrders = "tracked_orders"

// OrderRegistry implements ports.OrderRegistry on MongoDB.
type OrderRegistry struct {
	col *mongo.Collection
}

func NewOrderRegistry(db *mongo.Database) *OrderRegistry {
	return &OrderRegistry{col: db.Collection(collectionOrders)}
}

// Register inserts the order binding. A second registration for the same
// order_id fails with domain.ErrDuplicateOrder.
func (r *OrderRegistry) Register(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateOrder
	}
	return err
}

// Find retrieves an order by order_id. When userID is non-empty the query is
// additionally scoped to that user.
func (r *OrderRegistry) Find(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"order_id": orderID}
	if userID != "" {
		filter["user_id"] = userID
	}

	var order domain.Order
	if err := r.col.FindOne(ctx, filter).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// EnsureIndexes creates the indexes the registry queries depend on.
func (r *OrderRegistry) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "tracking_number", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
