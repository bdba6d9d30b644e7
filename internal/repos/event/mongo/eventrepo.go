// Package mongo provides an event repository that stores its data inside a MongoDB collection
package mongo

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// CollectionName is the name of the collection events are stored in
const CollectionName = "events"

// eventDocument is the stored form of an event - the ID becomes the document's ObjectID
type eventDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	models.Event `bson:",inline"`
}

func (d *eventDocument) toEvent() *models.Event {
	ev := d.Event
	ev.ID = d.ID.Hex()
	return &ev
}

// EventRepo is an event repository backed by MongoDB
type EventRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
	logger  *logrus.Entry
}

// New creates a new event repository on the given database. The unique index on the natural key is created if it
// does not exist, yet
func New(ctx context.Context, db *mongo.Database, timeout time.Duration, logger *logrus.Entry) (*EventRepo, error) {
	coll := db.Collection(CollectionName)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "providerEventId", Value: 1}, {Key: "providerName", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("natural_key"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name"),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "New: cannot create indexes")
	}
	return &EventRepo{coll: coll, timeout: timeout, logger: logger}, nil
}

func (r *EventRepo) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, repos.ErrInvalidID
	}
	return oid, nil
}

// Create creates a new event
func (r *EventRepo) Create(ev *models.Event) error {
	if err := repos.ValidateEvent(ev); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		log.FldProvider:        ev.ProviderName,
		log.FldProviderEventID: ev.ProviderEventID,
	}).Debug("Adding new event")
	doc := eventDocument{ID: primitive.NewObjectID(), Event: *ev}
	doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc.ModifiedAt = doc.CreatedAt
	ctx, cancel := r.opContext()
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, &doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repos.ErrEntityExists
		}
		return errors.Wrap(err, "Create")
	}
	*ev = *doc.toEvent()
	return nil
}

// Replace replaces the stored event having the given ID with the event provided
func (r *EventRepo) Replace(id string, ev *models.Event) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := repos.ValidateEvent(ev); err != nil {
		return err
	}
	r.logger.WithField(log.FldID, id).Debug("Replacing event")
	doc := eventDocument{ID: oid, Event: *ev}
	if doc.CreatedAt.IsZero() {
		stored, err := r.GetByID(id)
		if err != nil {
			return err
		}
		doc.CreatedAt = stored.CreatedAt
	}
	doc.ModifiedAt = time.Now().UTC().Truncate(time.Millisecond)
	ctx, cancel := r.opContext()
	defer cancel()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, &doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repos.ErrEntityExists
		}
		return errors.Wrap(err, "Replace")
	}
	if res.MatchedCount == 0 {
		return repos.ErrEntityNotExisting
	}
	*ev = *doc.toEvent()
	return nil
}

func (r *EventRepo) findOne(filter interface{}) (*models.Event, error) {
	ctx, cancel := r.opContext()
	defer cancel()
	var doc eventDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return doc.toEvent(), nil
}

func (r *EventRepo) findMany(filter interface{}, opts *options.FindOptions) ([]models.Event, error) {
	ctx, cancel := r.opContext()
	defer cancel()
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ret := make([]models.Event, 0, len(docs))
	for i := range docs {
		ret = append(ret, *docs[i].toEvent())
	}
	return ret, nil
}

// GetByID returns the event with the given ID
func (r *EventRepo) GetByID(id string) (*models.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(bson.M{"_id": oid})
}

// GetByProviderEventID returns the event a provider knows under the given ID
func (r *EventRepo) GetByProviderEventID(providerName string, providerEventID string) (*models.Event, error) {
	return r.findOne(bson.M{"providerName": providerName, "providerEventId": providerEventID})
}

// Find searches for non-deleted events whose name contains the given search string - supports pagination
func (r *EventRepo) Find(search string, offset uint, limit uint) ([]models.Event, uint, error) {
	if limit == 0 {
		limit = repos.DefaultLimit
	}
	r.logger.WithFields(logrus.Fields{
		log.FldSearch: search,
		log.FldOffset: offset,
		log.FldLimit:  limit,
	}).Debug("Searching for event")
	filter := bson.M{
		"isDeleted": false,
		"name":      primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	ret, err := r.findMany(filter, opts)
	if err != nil {
		return nil, 0, err
	}
	ctx, cancel := r.opContext()
	defer cancel()
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ret, uint(total), nil
}

// All returns all stored events including the deleted ones
func (r *EventRepo) All() ([]models.Event, error) {
	return r.findMany(bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
}

// Delete marks the event with the given ID as deleted
func (r *EventRepo) Delete(id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	r.logger.WithField(log.FldID, id).Debug("Deleting event")
	now := time.Now().UTC().Truncate(time.Millisecond)
	ctx, cancel := r.opContext()
	defer cancel()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "isDeleted": false}, bson.M{"$set": bson.M{
		"isDeleted":  true,
		"deletedAt":  now,
		"modifiedAt": now,
	}})
	if err != nil {
		return errors.Wrap(err, "Delete")
	}
	if res.MatchedCount == 0 {
		// Either already deleted or not existing at all
		_, err := r.GetByID(id)
		return err
	}
	return nil
}
