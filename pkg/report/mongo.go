package report

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink stores records in a MongoDB collection.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to MongoDB and targets database/collection. The
// connection is verified with a ping before the sink is returned.
func NewMongoSink(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Store inserts one record.
func (s *MongoSink) Store(ctx context.Context, r Record) error {
	_, err := s.coll.InsertOne(ctx, r)
	return err
}

// Close disconnects from MongoDB.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoSink implements Sink.
var _ Sink = (*MongoSink)(nil)
