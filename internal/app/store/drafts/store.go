// internal/app/store/drafts/store.go
package drafts

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTTL is how long an untouched draft survives.
const DefaultTTL = 24 * time.Hour

// ErrDraftNotFound is returned for missing, expired or foreign drafts.
var ErrDraftNotFound = errors.New("drafts: draft not found")

// Draft is one wizard run persisted between steps.
type Draft struct {
	ID       primitive.ObjectID `bson:"_id"`
	Kind     string             `bson:"kind"`
	RecordID string             `bson:"record_id,omitempty"` // "" for create
	OwnerID  string             `bson:"owner_id"`            // backend user id

	State wizard.State `bson:"state"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// IsEdit reports whether the draft edits an existing record.
func (d Draft) IsEdit() bool { return d.RecordID != "" }

// StagedFiles returns the GridFS ids the draft holds.
func (d Draft) StagedFiles() []string {
	var ids []string
	for _, f := range []*wizard.StagedFile{d.State.Image, d.State.Document} {
		if f == nil {
			continue
		}
		if f.FileID != "" {
			ids = append(ids, f.FileID)
		}
		if f.ThumbID != "" {
			ids = append(ids, f.ThumbID)
		}
	}
	return ids
}

// NewDraft is the input to Start.
type NewDraft struct {
	Kind     string
	RecordID string
	OwnerID  string
	State    wizard.State
}

// CollectionName is the wizard drafts collection.
const CollectionName = "wizard_drafts"

// Store persists wizard drafts.
type Store struct {
	c   *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// New creates a drafts Store. A non-positive ttl means DefaultTTL.
func New(db *mongo.Database, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{c: db.Collection(CollectionName), ttl: ttl, now: time.Now}
}

// Indexes are the expiry and owner indexes of the drafts collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_drafts_expires"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "record_id", Value: 1}},
			Options: options.Index().SetName("idx_drafts_owner"),
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}

// Start opens a fresh draft. Earlier drafts by the same owner for the same
// target are discarded; their staged file ids are returned so the caller can
// delete the files.
func (s *Store) Start(ctx context.Context, in NewDraft) (Draft, []string, error) {
	target := bson.M{"owner_id": in.OwnerID, "kind": in.Kind, "record_id": in.RecordID}
	if in.RecordID == "" {
		target["record_id"] = bson.M{"$in": bson.A{"", nil}}
	}

	var stale []string
	cur, err := s.c.Find(ctx, target)
	if err != nil {
		return Draft{}, nil, err
	}
	var old []Draft
	if err := cur.All(ctx, &old); err != nil {
		return Draft{}, nil, err
	}
	for _, d := range old {
		stale = append(stale, d.StagedFiles()...)
	}
	if len(old) > 0 {
		if _, err := s.c.DeleteMany(ctx, target); err != nil {
			return Draft{}, nil, err
		}
	}

	now := s.now().UTC()
	d := Draft{
		ID:        primitive.NewObjectID(),
		Kind:      in.Kind,
		RecordID:  in.RecordID,
		OwnerID:   in.OwnerID,
		State:     in.State,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return Draft{}, stale, err
	}
	return d, stale, nil
}

// Get loads a live draft belonging to owner.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID, owner string) (Draft, error) {
	var d Draft
	err := s.c.FindOne(ctx, bson.M{
		"_id":        id,
		"owner_id":   owner,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, err
	}
	if d.State.Values.Extra == nil {
		d.State.Values.Extra = map[string]string{}
	}
	return d, nil
}

// Save stores the wizard state and pushes the expiry forward.
func (s *Store) Save(ctx context.Context, d Draft) error {
	now := s.now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": d.ID, "owner_id": d.OwnerID},
		bson.M{"$set": bson.M{
			"state":      d.State,
			"updated_at": now,
			"expires_at": now.Add(s.ttl),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// Delete removes a draft and returns it so its staged files can be released.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, owner string) (Draft, error) {
	var d Draft
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "owner_id": owner}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Draft{}, ErrDraftNotFound
	}
	return d, err
}

// DeleteExpired removes up to limit drafts that expired before now and
// returns them.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time, limit int64) ([]Draft, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expires_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}}, opts)
	if err != nil {
		return nil, err
	}
	var expired []Draft
	if err := cur.All(ctx, &expired); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, len(expired))
	for i, d := range expired {
		ids[i] = d.ID
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return expired, nil
}

// CountByOwner counts live drafts held by owner.
func (s *Store) CountByOwner(ctx context.Context, owner string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": owner, "expires_at": bson.M{"$gt": s.now().UTC()}})
}

// LiveIDs returns the hex ids of every draft that has not expired.
func (s *Store) LiveIDs(ctx context.Context) ([]string, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"expires_at": bson.M{"$gt": s.now().UTC()}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	return ids, nil
}
