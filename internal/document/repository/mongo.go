package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tsldata/dataserver/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoRecord is the stored shape of one export. The body is kept as raw
// bytes so it is served back exactly as received.
type mongoRecord struct {
	Key       string    `bson:"_id"`
	Body      []byte    `bson:"body"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoRepo implements Repository on a MongoDB collection keyed by storage key.
// Clear drops the collection, which removes every export in one operation;
// Mongo recreates it on the next write.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Put(ctx context.Context, key string, body json.RawMessage, updatedAt time.Time) error {
	rec := mongoRecord{Key: key, Body: []byte(body), UpdatedAt: updatedAt.UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.col.ReplaceOne(ctx, bson.M{"_id": key}, rec, opts); err != nil {
		return fmt.Errorf("mongo put %s: %w", key, err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, key string) (*document.Entry, error) {
	var rec mongoRecord
	if err := m.col.FindOne(ctx, bson.M{"_id": key}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return &document.Entry{Key: rec.Key, Body: json.RawMessage(rec.Body), UpdatedAt: rec.UpdatedAt.UTC()}, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]document.Summary, error) {
	opts := options.Find().SetProjection(bson.M{"body": 0})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)
	out := []document.Summary{}
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, document.Summary{Key: rec.Key, UpdatedAt: rec.UpdatedAt.UTC()})
	}
	return out, cur.Err()
}

func (m *MongoRepo) Clear(ctx context.Context) error {
	if err := m.col.Drop(ctx); err != nil {
		return fmt.Errorf("mongo clear: %w", err)
	}
	return nil
}

func (m *MongoRepo) Len(ctx context.Context) (int, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo count: %w", err)
	}
	return int(n), nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, nil)
}
