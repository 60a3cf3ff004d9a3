package formation

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection("formations")}
}

func (r *Repository) Create(ctx context.Context, f *Formation) error {
	res, err := r.collection.InsertOne(ctx, f)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		f.ID = id
	}
	return nil
}

func (r *Repository) CreateMany(ctx context.Context, batch []*Formation) error {
	docs := make([]interface{}, len(batch))
	for i, f := range batch {
		docs[i] = f
	}
	res, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return err
	}
	for i, inserted := range res.InsertedIDs {
		if id, ok := inserted.(primitive.ObjectID); ok {
			batch[i].ID = id
		}
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*Formation, error) {
	var f Formation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Formation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []*Formation
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]*Formation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var found []*Formation
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// AppendPositions pushes allocated positions and persists the advanced
// counter in the same update.
func (r *Repository) AppendPositions(ctx context.Context, id primitive.ObjectID, positions []Position, counter int) (int64, error) {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"positions": bson.M{"$each": positions}},
		"$set":  bson.M{"counter": counter},
	})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// PullPositions removes positions by ID. The counter is untouched: freed IDs
// are never handed out again.
func (r *Repository) PullPositions(ctx context.Context, id primitive.ObjectID, positionIDs []int) (*Formation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var f Formation
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"positions": bson.M{"id": bson.M{"$in": positionIDs}}},
	}, opts).Decode(&f)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// SetPositionName renames one embedded position, matched by its numeric ID.
func (r *Repository) SetPositionName(ctx context.Context, id primitive.ObjectID, positionID int, name []LocalizedName) (*Formation, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"p.id": positionID}},
		})
	var f Formation
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"positions.$[p].name": name},
	}, opts).Decode(&f)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repository) UpdateAndReturn(ctx context.Context, id primitive.ObjectID, set bson.M) (*Formation, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var f Formation
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&f)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *Repository) DeleteManyByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
