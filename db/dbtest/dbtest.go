// Package dbtest provides an in-memory db.Collection for package tests.
// It supports the filter and update operators the handlers actually issue:
// top-level equality, $gt/$gte/$lt/$lte/$ne/$in, and $set updates. Results
// are surfaced through the driver's own testing constructors so Decode and
// cursor iteration behave exactly like the real collection.
package dbtest

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collection struct {
	mu   sync.Mutex
	docs []bson.M
}

func NewCollection() *Collection {
	return &Collection{}
}

// Docs returns a snapshot of the stored documents.
func (c *Collection) Docs() []bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bson.M, len(c.docs))
	copy(out, c.docs)
	return out
}

func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func valuesEqual(a, b interface{}) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func matchValue(stored, cond interface{}) bool {
	ops, ok := cond.(bson.M)
	if !ok {
		return valuesEqual(stored, cond)
	}
	for op, arg := range ops {
		switch op {
		case "$ne":
			if valuesEqual(stored, arg) {
				return false
			}
		case "$in":
			list := reflect.ValueOf(arg)
			found := false
			for i := 0; i < list.Len(); i++ {
				if valuesEqual(stored, list.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			sf, sok := asFloat(stored)
			af, aok := asFloat(arg)
			if !sok || !aok {
				return false
			}
			switch op {
			case "$gt":
				if !(sf > af) {
					return false
				}
			case "$gte":
				if !(sf >= af) {
					return false
				}
			case "$lt":
				if !(sf < af) {
					return false
				}
			case "$lte":
				if !(sf <= af) {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func matches(doc bson.M, filter interface{}) bool {
	f, ok := filter.(bson.M)
	if !ok {
		return false
	}
	for key, cond := range f {
		if !matchValue(doc[key], cond) {
			return false
		}
	}
	return true
}

func (c *Collection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		if matches(doc, filter) {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (c *Collection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := make([]interface{}, 0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			found = append(found, doc)
		}
	}
	return mongo.NewCursorFromDocuments(found, nil, nil)
}

func (c *Collection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	doc, err := toDoc(document)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (c *Collection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	u, ok := update.(bson.M)
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		if !matches(doc, filter) {
			continue
		}
		if set, ok := u["$set"].(bson.M); ok {
			for k, v := range set {
				c.docs[i][k] = v
			}
		}
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		if matches(doc, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (c *Collection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, doc := range c.docs {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}
