// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/store/uploads"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes for an index that collides with an existing one.
const (
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// collections lists every index set owned by a store.
func collections() []collectionIndexes {
	return []collectionIndexes{
		{sessions.CollectionName, sessions.Indexes()},
		{audit.CollectionName, audit.Indexes()},
		{drafts.CollectionName, drafts.Indexes()},
		{uploads.FilesCollection, uploads.Indexes()},
	}
}

type collectionIndexes struct {
	name   string
	models []mongo.IndexModel
}

// EnsureAll reconciles the indexes of every collection at startup. An index
// whose keys already exist is kept if its name and uniqueness match and is
// replaced otherwise. All failures are collected into one error.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var errs []error
	for _, c := range collections() {
		if err := ensure(ctx, db.Collection(c.name), c.models); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

// signature identifies an index by its ordered key spec.
func signature(keys bson.D) string {
	var b strings.Builder
	for i, e := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%v", e.Key, e.Value)
	}
	return b.String()
}

func existingBySignature(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var all []existingIndex
	if err := cur.All(ctx, &all); err != nil {
		return nil, err
	}
	out := make(map[string]existingIndex, len(all))
	for _, ix := range all {
		out[signature(ix.Key)] = ix
	}
	return out, nil
}

func isConflict(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == codeIndexOptionsConflict || ce.Code == codeIndexKeySpecsConflict
	}
	return false
}

func ensure(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := existingBySignature(ctx, coll)
	if err != nil {
		// A collection that does not exist yet lists no indexes on some servers
		// and errors on others; treat both as empty.
		existing = map[string]existingIndex{}
	}

	var errs []error
	for _, m := range models {
		keys, ok := m.Keys.(bson.D)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: index keys must be bson.D", coll.Name()))
			continue
		}
		var name string
		var unique bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			if m.Options.Unique != nil {
				unique = *m.Options.Unique
			}
		}
		sig := signature(keys)
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("index", name),
			zap.String("keys", sig))
		start := time.Now()

		cur, found := existing[sig]
		if found && cur.Unique == unique && (name == "" || cur.Name == name) {
			log.Debug("index up to date")
			continue
		}

		if found {
			log.Info("replacing index", zap.String("existing", cur.Name))
			err = replace(ctx, coll, cur.Name, m)
		} else {
			_, err = coll.Indexes().CreateOne(ctx, m)
			if isConflict(err) {
				if fresh, lerr := existingBySignature(ctx, coll); lerr == nil {
					if other, ok := fresh[sig]; ok {
						err = replace(ctx, coll, other.Name, m)
					}
				}
			}
		}
		if err != nil {
			log.Warn("index ensure failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("%s(%s): %w", coll.Name(), name, err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}
	return errors.Join(errs...)
}

func replace(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s: %w", old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("unique index blocked by duplicate documents: %w", err)
		}
		return err
	}
	return nil
}
