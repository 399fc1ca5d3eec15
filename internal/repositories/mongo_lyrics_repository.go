package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fossils/internal/models"
)

// mongoLyricsRepository implements LyricsRepository using MongoDB
type mongoLyricsRepository struct {
	collection *mongo.Collection
}

// NewMongoLyricsRepository creates a new MongoDB-backed lyrics repository
func NewMongoLyricsRepository(db *models.Database) LyricsRepository {
	return &mongoLyricsRepository{
		collection: db.DB.Collection(models.LyricsCollection),
	}
}

// List returns all entries oldest first
func (r *mongoLyricsRepository) List(ctx context.Context) ([]models.LyricsEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list lyrics: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.LyricsEntry{}
	for cursor.Next(ctx) {
		var entry models.LyricsEntry
		if err := cursor.Decode(&entry); err != nil {
			slog.Error("Failed to decode lyrics entry", "error", err)
			continue
		}
		r.handleSchemaEvolution(&entry)
		entries = append(entries, entry)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return entries, nil
}

// Get finds one entry by id
func (r *mongoLyricsRepository) Get(ctx context.Context, id string) (*models.LyricsEntry, error) {
	var entry models.LyricsEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lyrics by ID: %w", err)
	}

	r.handleSchemaEvolution(&entry)
	return &entry, nil
}

// Create inserts a new entry
func (r *mongoLyricsRepository) Create(ctx context.Context, entry *models.LyricsEntry) error {
	if entry.ID == "" {
		entry.ID = models.NewLyricsID()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().UnixMilli()
	}
	entry.SchemaVersion = models.CurrentSchemaVersion

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert lyrics: %w", err)
	}
	return nil
}

// Update sets the patched fields and returns the stored result
func (r *mongoLyricsRepository) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	set := bson.M{"schema_version": models.CurrentSchemaVersion}
	if patch.AlbumName != nil {
		set["album_name"] = *patch.AlbumName
	}
	if patch.SongName != nil {
		set["song_name"] = *patch.SongName
	}
	if patch.BengaliLyrics != nil {
		set["bengali_lyrics"] = *patch.BengaliLyrics
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var entry models.LyricsEntry
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update lyrics: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry by id
func (r *mongoLyricsRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete lyrics: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Health pings the server behind the collection
func (r *mongoLyricsRepository) Health(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

func (r *mongoLyricsRepository) Backend() string {
	return "mongo"
}

// handleSchemaEvolution upgrades documents written by older versions
func (r *mongoLyricsRepository) handleSchemaEvolution(entry *models.LyricsEntry) {
	if entry.SchemaVersion >= models.CurrentSchemaVersion {
		return
	}

	// version 1 documents may lack created_at
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().UnixMilli()
	}
	entry.SchemaVersion = models.CurrentSchemaVersion

	id := entry.ID
	createdAt := entry.CreatedAt

	// Lazy update the document in the database
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		update := bson.M{"$set": bson.M{
			"schema_version": models.CurrentSchemaVersion,
			"created_at":     createdAt,
		}}
		if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
			slog.Error("Failed to update lyrics schema version", "lyricsID", id, "error", err)
		}
	}()
}
