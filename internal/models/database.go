package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// LyricsCollection is the collection holding lyrics entries
const LyricsCollection = "lyrics"

// Database holds the Mongo client and the lyrics database
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase connects to mongoURL and verifies the primary is reachable
// before returning.
func NewDatabase(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	opts := options.Client().
		ApplyURI(mongoURL).
		SetAppName("fossils").
		SetMaxPoolSize(20).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	db := &Database{Client: client, DB: client.Database(dbName)}
	if err := db.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return db, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Ping checks the primary, which every lyrics write goes to
func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

// CreateIndexes creates the indexes behind listing in creation order, album
// lookups and the lazy schema upgrade.
func (d *Database) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("created_order"),
		},
		{
			Keys:    bson.D{{Key: "album_name", Value: 1}, {Key: "song_name", Value: 1}},
			Options: options.Index().SetName("album_song"),
		},
		{
			Keys:    bson.D{{Key: "schema_version", Value: 1}},
			Options: options.Index().SetName("schema_version"),
		},
	}

	if _, err := d.DB.Collection(LyricsCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create lyrics indexes: %w", err)
	}
	return nil
}
