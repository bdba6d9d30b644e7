// Package mongo provides a log entry repository that stores its data inside a MongoDB collection
package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// CollectionName is the name of the collection log entries are stored in
const CollectionName = "logs"

type logDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	models.LogEntry `bson:",inline"`
}

// LogRepo stores log entries inside a MongoDB collection
type LogRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// New creates a new log repository on the given database
func New(ctx context.Context, db *mongo.Database, timeout time.Duration) (*LogRepo, error) {
	coll := db.Collection(CollectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "New: cannot create index")
	}
	return &LogRepo{coll: coll, timeout: timeout}, nil
}

// Create stores a new log entry
func (r *LogRepo) Create(entry *models.LogEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	doc := logDocument{ID: primitive.NewObjectID(), LogEntry: *entry}
	if _, err := r.coll.InsertOne(ctx, &doc); err != nil {
		return errors.Wrap(err, "Create")
	}
	entry.ID = doc.ID.Hex()
	return nil
}

// Recent returns the latest log entries of the given category, newest first
func (r *LogRepo) Recent(category string, limit uint) ([]models.LogEntry, error) {
	if limit == 0 {
		limit = repos.DefaultLimit
	}
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "Recent")
	}
	var docs []logDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "Recent")
	}
	ret := make([]models.LogEntry, 0, len(docs))
	for _, d := range docs {
		entry := d.LogEntry
		entry.ID = d.ID.Hex()
		ret = append(ret, entry)
	}
	return ret, nil
}
