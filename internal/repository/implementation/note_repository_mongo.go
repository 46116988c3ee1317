package implementation

import (
	"context"
	"time"

	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/mapper"
	"whiteboard-relay/internal/model"
	"whiteboard-relay/internal/repository/contract"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNoteRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	mapper     *mapper.NoteMapper
}

var _ contract.NoteRepository = (*MongoNoteRepository)(nil)

func NewMongoNoteRepository(client *mongo.Client, database string) *MongoNoteRepository {
	return &MongoNoteRepository{
		client:     client,
		collection: client.Database(database).Collection(model.CollectionName),
		mapper:     mapper.NewNoteMapper(),
	}
}

// EnsureIndexes creates the unique id index and the index used by expiry.
func (r *MongoNoteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("id_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("created_at"),
		},
	})
	return err
}

func (r *MongoNoteRepository) Name() string {
	return "mongodb"
}

func (r *MongoNoteRepository) FindAll(ctx context.Context) ([]*entity.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []*model.Note
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MongoNoteRepository) Upsert(ctx context.Context, note *entity.Note) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"id": note.Id},
		r.mapper.ToModel(note),
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *MongoNoteRepository) Merge(ctx context.Context, id string, patch entity.NotePatch) error {
	cols := r.mapper.ToUpdateColumns(patch)
	if len(cols) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M(cols)})
	return err
}

func (r *MongoNoteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoNoteRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"createdAt": bson.M{"$lt": cutoff},
		"timer":     bson.M{"$exists": true, "$ne": nil},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *MongoNoteRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoNoteRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
