package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

const collectionPayloads = "carrier_payloads"

// payloadDoc is the stored form of a raw carrier payload. One document per
// order; a newer payload replaces the previous one whole.
type payloadDoc struct {
	OrderID    string           `bson:"order_id"`
	Carrier    string           `bson:"carrier"`
	Payload    primitive.Binary `bson:"payload"`
	ReceivedAt time.Time        `bson:"received_at"`
}

// PayloadStore implements ports.PayloadStore on MongoDB.
type PayloadStore struct {
	col *mongo.Collection
}

func NewPayloadStore(db *mongo.Database) *PayloadStore {
	return &PayloadStore{col: db.Collection(collectionPayloads)}
}

// Save upserts the latest raw payload for an order.
func (s *PayloadStore) Save(ctx context.Context, orderID string, carrier domain.Carrier, payload []byte, receivedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := payloadDoc{
		OrderID:    orderID,
		Carrier:    string(carrier),
		Payload:    primitive.Binary{Data: payload},
		ReceivedAt: receivedAt.UTC(),
	}
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"order_id": orderID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Latest returns the newest payload stored for the order, or
// domain.ErrNoPayload when nothing has arrived yet.
func (s *PayloadStore) Latest(ctx context.Context, orderID string) (domain.Carrier, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc payloadDoc
	if err := s.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil, domain.ErrNoPayload
		}
		return "", nil, err
	}
	return domain.Carrier(doc.Carrier), doc.Payload.Data, nil
}

// EnsureIndexes creates the unique per-order index.
func (s *PayloadStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
