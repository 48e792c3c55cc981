// internal/app/store/uploads/store.go
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketName is the GridFS bucket holding files staged by the wizard.
const BucketName = "wizard_uploads"

// FilesCollection holds the bucket's file documents.
const FilesCollection = BucketName + ".files"

// ErrNotFound is returned for unknown or malformed file ids.
var ErrNotFound = errors.New("uploads: file not found")

// Meta describes a staged file.
type Meta struct {
	ID          string
	Name        string
	ContentType string
	DraftID     string
	Size        int64
	UploadedAt  time.Time
}

type metadata struct {
	Name        string `bson:"name"`
	ContentType string `bson:"content_type"`
	DraftID     string `bson:"draft_id"`
}

// Store stages wizard uploads in GridFS until the record is submitted.
type Store struct {
	db *mongo.Database
}

// New creates a new uploads Store.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// bucket opens the bucket with deadlines taken from ctx. A bucket is cheap
// and its deadlines are per instance, so each call gets its own.
func (s *Store) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(BucketName))
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = b.SetReadDeadline(dl)
		_ = b.SetWriteDeadline(dl)
	}
	return b, nil
}

// Indexes cover file metadata for draft and age lookups. GridFS creates
// its own files/chunks indexes on first write.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "metadata.draft_id", Value: 1}},
			Options: options.Index().SetName("idx_uploads_draft"),
		},
		{
			Keys:    bson.D{{Key: "uploadDate", Value: 1}},
			Options: options.Index().SetName("idx_uploads_uploaded"),
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(FilesCollection).Indexes().CreateMany(ctx, Indexes())
	return err
}

// Put stores data and returns the new file id. The GridFS filename is a
// random token; the name the user uploaded is kept in the metadata.
func (s *Store) Put(ctx context.Context, draftID, name, contentType string, data []byte) (string, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(metadata{Name: name, ContentType: contentType, DraftID: draftID})
	id, err := b.UploadFromStream(uuid.NewString()+path.Ext(name), bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", name, err)
	}
	return id.Hex(), nil
}

// Open returns a reader over the file and its metadata. The caller closes
// the reader.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, Meta, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, Meta{}, ErrNotFound
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, Meta{}, err
	}
	stream, err := b.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, Meta{}, ErrNotFound
	}
	if err != nil {
		return nil, Meta{}, err
	}
	f := stream.GetFile()
	meta := Meta{ID: id, Name: f.Name, Size: f.Length, UploadedAt: f.UploadDate}
	var md metadata
	if len(f.Metadata) > 0 && bson.Unmarshal(f.Metadata, &md) == nil {
		meta.ContentType = md.ContentType
		meta.DraftID = md.DraftID
		if md.Name != "" {
			meta.Name = md.Name
		}
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}
	return stream, meta, nil
}

// Read loads a whole file into memory.
func (s *Store) Read(ctx context.Context, id string) ([]byte, Meta, error) {
	rc, meta, err := s.Open(ctx, id)
	if err != nil {
		return nil, Meta{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, Meta{}, err
	}
	return data, meta, nil
}

// Delete removes the given files. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if err := b.Delete(oid); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteOlderThan removes files uploaded before cutoff, catching files whose
// draft vanished without cleanup. Files staged by a draft in keepDrafts are
// left alone. It returns the number removed.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time, keepDrafts []string) (int, error) {
	filter := bson.M{"uploadDate": bson.M{"$lt": cutoff}}
	if len(keepDrafts) > 0 {
		filter["metadata.draft_id"] = bson.M{"$nin": keepDrafts}
	}
	cur, err := s.db.Collection(FilesCollection).Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return 0, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return 0, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	if err := s.Delete(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}
