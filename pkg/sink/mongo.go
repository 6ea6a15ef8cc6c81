package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgio "github.com/matzehuels/gridcut/pkg/io"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "gridcut"
	DefaultMongoCollection = "cells"
)

// cellDocument is the stored form of a cell.
type cellDocument struct {
	RunID        string    `bson:"run_id"`
	Index        int       `bson:"index"`
	X            int       `bson:"x"`
	Y            int       `bson:"y"`
	Bounds       []float64 `bson:"bounds"`
	FeatureCount int       `bson:"feature_count"`
	FeatureIDs   []string  `bson:"feature_ids"`
	GeoJSON      string    `bson:"geojson"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// upserter is the part of *mongo.Collection the sink needs.
type upserter interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// MongoSink upserts one document per (run_id, index) into a collection.
type MongoSink struct {
	coll       upserter
	disconnect func(context.Context) error
	now        func() time.Time
}

// DialMongo connects to uri, ensures a unique (run_id, index) index on
// database.collection and returns a sink writing there. Empty names use the
// defaults.
func DialMongo(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "index", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoSink{coll: coll, disconnect: client.Disconnect, now: time.Now}, nil
}

// WriteCell implements Sink.
func (s *MongoSink) WriteCell(ctx context.Context, c Cell) error {
	data, err := pkgio.MarshalGeoJSON(c.Features)
	if err != nil {
		return fmt.Errorf("cell %d: %w", c.Index, err)
	}
	doc := cellDocument{
		RunID:        c.RunID,
		Index:        c.Index,
		X:            c.X,
		Y:            c.Y,
		Bounds:       []float64{c.Bounds.MinX, c.Bounds.MinY, c.Bounds.MaxX, c.Bounds.MaxY},
		FeatureCount: len(c.Features),
		FeatureIDs:   make([]string, len(c.Features)),
		GeoJSON:      string(data),
		UpdatedAt:    s.now().UTC(),
	}
	for i, f := range c.Features {
		doc.FeatureIDs[i] = f.ID
	}

	filter := bson.D{{Key: "run_id", Value: c.RunID}, {Key: "index", Value: c.Index}}
	update := bson.D{{Key: "$set", Value: doc}}
	if _, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert cell %d: %w", c.Index, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close() error {
	if s.disconnect == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.disconnect(ctx)
}
