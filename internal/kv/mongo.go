package kv

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoEntry struct {
	Key   string `bson:"_id"`
	Value string `bson:"value,omitempty"`
	// counters live in N so $inc can work on a native integer
	N int64 `bson:"n,omitempty"`
}

type Mongo struct {
	col *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{col: db.Collection("kv_store")}
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var e mongoEntry
	err := m.col.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if e.Value == "" {
		return []byte(strconv.FormatInt(e.N, 10)), nil
	}
	return []byte(e.Value), nil
}

func (m *Mongo) Set(ctx context.Context, key string, value []byte) error {
	opts := options.Update().SetUpsert(true)
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": string(value)}},
		opts,
	)
	return err
}

func (m *Mongo) Delete(ctx context.Context, key string) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (m *Mongo) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	cur, err := m.col.Find(ctx, bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([][]byte, 0)
	for cur.Next(ctx) {
		var e mongoEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, []byte(e.Value))
	}
	return out, cur.Err()
}

func (m *Mongo) Incr(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var e mongoEntry
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": bson.M{"n": 1}}, opts).Decode(&e)
	if err != nil {
		return 0, err
	}
	return e.N, nil
}

func (m *Mongo) Close() error {
	return m.col.Database().Client().Disconnect(context.Background())
}
