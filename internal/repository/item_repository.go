package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "media-pipeline/internal/media"
)

// ErrNotFound reports that the target document does not exist. Derivative
// mergers treat it as the delete race, not a fault.
var ErrNotFound = errors.New("repository: item not found")

// ItemRepository is the document-store surface the pipeline needs.
type ItemRepository interface {
	Insert(ctx context.Context, item *models.Item) error
	GetByUID(ctx context.Context, uid string) (*models.Item, error)
	// MergeFields applies a field-level merge. Derivative slot fields are
	// write-once: a slot that already holds a value or an error flag is
	// left untouched and the call succeeds silently.
	MergeFields(ctx context.Context, uid string, fields bson.M) error
	Delete(ctx context.Context, uid string) error
	ListSiblings(ctx context.Context, coll string) ([]models.Item, error)
	// RenumberSiblings rewrites index fields 0..n-1 over the survivors of a
	// delete, restoring contiguity.
	RenumberSiblings(ctx context.Context, coll string) error
}

// slotPairs maps each write-once field to its partner: a slot transitions
// from empty to either a URL or an error flag, never both, never twice.
var slotPairs = map[string]string{
	"thumbnail": "thumbnailError", "thumbnailError": "thumbnail",
	"optimized": "optimizedError", "optimizedError": "optimized",
	"poster": "posterError", "posterError": "poster",
}

type MongoItemRepo struct {
	col *mongo.Collection
}

func NewMongoItemRepo(col *mongo.Collection) *MongoItemRepo {
	return &MongoItemRepo{col: col}
}

func (r *MongoItemRepo) Insert(ctx context.Context, item *models.Item) error {
	_, err := r.col.InsertOne(ctx, item)
	return err
}

func (r *MongoItemRepo) GetByUID(ctx context.Context, uid string) (*models.Item, error) {
	var it models.Item
	err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// mergeFilter builds the guarded filter: the update only matches while every
// slot it touches is still fully unset, url and error flag both.
func mergeFilter(uid string, fields bson.M) bson.M {
	filter := bson.M{"_id": uid}
	for name := range fields {
		if pair, ok := slotPairs[name]; ok {
			filter[name] = bson.M{"$exists": false}
			filter[pair] = bson.M{"$exists": false}
		}
	}
	return filter
}

func (r *MongoItemRepo) MergeFields(ctx context.Context, uid string, fields bson.M) error {
	res, err := r.col.UpdateOne(ctx, mergeFilter(uid, fields), bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// unmatched is either a vanished document or an already-written slot
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": uid})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoItemRepo) Delete(ctx context.Context, uid string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoItemRepo) ListSiblings(ctx context.Context, coll string) ([]models.Item, error) {
	cur, err := r.col.Find(ctx, bson.M{"coll": coll},
		options.Find().SetSort(bson.D{{Key: "index", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Item
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoItemRepo) RenumberSiblings(ctx context.Context, coll string) error {
	items, err := r.ListSiblings(ctx, coll)
	if err != nil {
		return err
	}
	for i, it := range items {
		if it.Index == i {
			continue
		}
		if _, err := r.col.UpdateByID(ctx, it.UID, bson.M{"$set": bson.M{"index": i}}); err != nil {
			return err
		}
	}
	return nil
}
