package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "bpcgraph"
	DefaultMongoCollection = "cache"
)

// MongoCache stores entries as documents in a MongoDB collection. A TTL
// index on expires_at lets the server purge expired entries; Get also
// checks the expiry because the purge runs only periodically.
type MongoCache struct {
	client     *mongo.Client
	coll       *mongo.Collection
	ownsClient bool
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects to uri, verifies the connection and ensures the
// TTL index on database.collection. Empty names use the defaults.
func NewMongoCache(ctx context.Context, uri, database, collection string) (*MongoCache, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %w", ErrUnavailable, err)
	}
	err = RetryWithBackoff(ctx, func() error {
		return transient(client.Ping(ctx, readpref.Primary()))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo ping: %w", ErrUnavailable, err)
	}

	c := NewMongoCacheFromCollection(client.Database(database).Collection(collection))
	c.client = client
	c.ownsClient = true
	if err := c.EnsureIndexes(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewMongoCacheFromCollection wraps an existing collection. Close does not
// disconnect its client.
func NewMongoCacheFromCollection(coll *mongo.Collection) *MongoCache {
	return &MongoCache{coll: coll}
}

// EnsureIndexes creates the TTL index on expires_at.
func (c *MongoCache) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

// Get retrieves a value from the collection.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set upserts a value, retrying transient network failures.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := mongoEntry{Key: key, Data: data}
	if ttl > 0 {
		exp := time.Now().Add(ttl).UTC()
		e.ExpiresAt = &exp
	}
	return RetryWithBackoff(ctx, func() error {
		_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, e, options.Replace().SetUpsert(true))
		return transient(err)
	})
}

// Delete removes a value from the collection.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client if the cache created it.
func (c *MongoCache) Close() error {
	if c.ownsClient && c.client != nil {
		return c.client.Disconnect(context.Background())
	}
	return nil
}

var _ Cache = (*MongoCache)(nil)
