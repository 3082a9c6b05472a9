package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
)

// MongoTable stores the single table in one collection. The conditional
// write is a ReplaceOne filtered on {_id, version}, the same shape as a
// FindOneAndUpdate guarded on the fields the caller observed.
//
// Delete leaves a tombstone behind instead of removing the document, so the
// version counter of a key keeps increasing across delete and recreate.
type MongoTable struct {
	coll *mongo.Collection
}

// NewMongoTable constructs a MongoTable over coll.
func NewMongoTable(coll *mongo.Collection) *MongoTable {
	return &MongoTable{coll: coll}
}

type mongoDoc struct {
	ID      string `bson:"_id"`
	PK      string `bson:"pk"`
	SK      string `bson:"sk"`
	GSI1PK  string `bson:"gsi1pk,omitempty"`
	GSI1SK  string `bson:"gsi1sk,omitempty"`
	GSI2PK  string `bson:"gsi2pk,omitempty"`
	GSI2SK  string `bson:"gsi2sk,omitempty"`
	Version int64  `bson:"version"`
	Data    string `bson:"data"`
	Deleted bool   `bson:"deleted,omitempty"`
}

var mongoIndexFields = map[index.Name][2]string{
	index.ByDate:     {"gsi1pk", "gsi1sk"},
	index.ByCategory: {"gsi2pk", "gsi2sk"},
}

func mongoID(pk, sk string) string { return pk + "|" + sk }

var notDeleted = bson.E{Key: "deleted", Value: bson.D{{Key: "$ne", Value: true}}}

func liveFilter(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, notDeleted}
}

func toMongoDoc(it Item, version int64) mongoDoc {
	d := mongoDoc{
		ID:      mongoID(it.PK, it.SK),
		PK:      it.PK,
		SK:      it.SK,
		Version: version,
		Data:    string(it.Data),
	}
	for _, e := range it.Indexes {
		switch e.Index {
		case index.ByDate:
			d.GSI1PK, d.GSI1SK = e.Partition, e.SortKey
		case index.ByCategory:
			d.GSI2PK, d.GSI2SK = e.Partition, e.SortKey
		}
	}
	return d
}

func (d mongoDoc) item() Item {
	it := Item{PK: d.PK, SK: d.SK, Version: d.Version, Data: []byte(d.Data)}
	if d.GSI1PK != "" {
		it.Indexes = append(it.Indexes, index.Entry{Index: index.ByDate, Partition: d.GSI1PK, SortKey: d.GSI1SK})
	}
	if d.GSI2PK != "" {
		it.Indexes = append(it.Indexes, index.Entry{Index: index.ByCategory, Partition: d.GSI2PK, SortKey: d.GSI2SK})
	}
	return it
}

// EnsureIndexes creates the secondary indexes backing partition queries.
func (t *MongoTable) EnsureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(mongoIndexFields))
	for _, f := range mongoIndexFields {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: f[0], Value: 1}, {Key: f[1], Value: 1}},
		})
	}
	if _, err := t.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (t *MongoTable) Get(ctx context.Context, pk, sk string) (Item, error) {
	var d mongoDoc
	err := t.coll.FindOne(ctx, liveFilter(mongoID(pk, sk))).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return d.item(), nil
}

// Put upserts the document and increments its version atomically.
func (t *MongoTable) Put(ctx context.Context, item Item) (int64, error) {
	d := toMongoDoc(item, 0)
	set := bson.M{
		"pk":   d.PK,
		"sk":   d.SK,
		"data": d.Data,
	}
	unset := bson.M{"deleted": ""}
	for name, f := range mongoIndexFields {
		p, s, ok := item.IndexValue(name)
		if ok {
			set[f[0]], set[f[1]] = p, s
		} else {
			unset[f[0]], unset[f[1]] = "", ""
		}
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}, "$unset": unset}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out mongoDoc
	if err := t.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: d.ID}}, update, opts).Decode(&out); err != nil {
		return 0, fmt.Errorf("put item: %w", err)
	}
	return out.Version, nil
}

func (t *MongoTable) Replace(ctx context.Context, item Item, expected int64) (int64, error) {
	d := toMongoDoc(item, expected+1)
	filter := bson.D{
		{Key: "_id", Value: d.ID},
		{Key: "version", Value: expected},
		notDeleted,
	}
	res, err := t.coll.ReplaceOne(ctx, filter, d)
	if err != nil {
		return 0, fmt.Errorf("replace item: %w", err)
	}
	if res.MatchedCount == 1 {
		return d.Version, nil
	}
	n, err := t.coll.CountDocuments(ctx, liveFilter(d.ID))
	if err != nil {
		return 0, fmt.Errorf("check item: %w", err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return 0, ErrVersionMismatch
}

func (t *MongoTable) Delete(ctx context.Context, pk, sk string) error {
	unset := bson.M{"data": ""}
	for _, f := range mongoIndexFields {
		unset[f[0]], unset[f[1]] = "", ""
	}
	update := bson.M{
		"$set":   bson.M{"deleted": true},
		"$unset": unset,
		"$inc":   bson.M{"version": int64(1)},
	}
	res, err := t.coll.UpdateOne(ctx, liveFilter(mongoID(pk, sk)), update)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *MongoTable) Query(ctx context.Context, q Query) ([]Item, error) {
	f, ok := mongoIndexFields[q.Index]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", q.Index)
	}
	filter := bson.D{{Key: f[0], Value: q.Partition}}
	rng := bson.D{}
	if q.Range.From != "" {
		rng = append(rng, bson.E{Key: "$gte", Value: q.Range.From})
	}
	if q.Range.To != "" {
		rng = append(rng, bson.E{Key: "$lte", Value: q.Range.To})
	}
	if len(rng) > 0 {
		filter = append(filter, bson.E{Key: f[1], Value: rng})
	}

	opts := options.Find().SetSort(bson.D{{Key: f[1], Value: 1}, {Key: "pk", Value: 1}})
	if q.Limit > 0 {
		opts = opts.SetLimit(int64(q.Limit))
	}
	cur, err := t.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Index, err)
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", q.Index, err)
	}
	items := make([]Item, len(docs))
	for i, d := range docs {
		items[i] = d.item()
	}
	return items, nil
}

func (t *MongoTable) Count(ctx context.Context, idx index.Name, partition string) (int, error) {
	f, ok := mongoIndexFields[idx]
	if !ok {
		return 0, fmt.Errorf("unknown index %q", idx)
	}
	n, err := t.coll.CountDocuments(ctx, bson.D{{Key: f[0], Value: partition}})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", idx, err)
	}
	return int(n), nil
}
