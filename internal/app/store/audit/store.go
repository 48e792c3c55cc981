// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess    = "login_success"
	EventLoginFailed     = "login_failed"
	EventLoginRateLimit  = "login_failed_rate_limit"
	EventLogout          = "logout"
	EventSessionRejected = "session_rejected" // backend refused the stored token
)

// Admin event types
const (
	EventRecordCreated       = "record_created"
	EventRecordUpdated       = "record_updated"
	EventRecordDeleted       = "record_deleted"
	EventRecordFeatured      = "record_featured_toggled"
	EventRecordStatusChanged = "record_status_changed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: backend user id and login name
	UserID string `bson:"user_id,omitempty"`
	Actor  string `bson:"actor,omitempty"`

	// What: catalog kind slug and backend record id for admin events
	Kind     string `bson:"kind,omitempty"`
	RecordID string `bson:"record_id,omitempty"`

	// Context
	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query and CountByFilter. Zero fields match anything.
type QueryFilter struct {
	UserID    string
	Category  string
	EventType string
	Kind      string
	RecordID  string
	Limit     int64 // Query only; defaults to defaultQueryLimit
	Offset    int64 // Query only
}

const defaultQueryLimit = 100

func (f QueryFilter) toBSON() bson.M {
	q := bson.M{}
	for field, v := range map[string]string{
		"user_id":    f.UserID,
		"category":   f.Category,
		"event_type": f.EventType,
		"kind":       f.Kind,
		"record_id":  f.RecordID,
	} {
		if v != "" {
			q[field] = v
		}
	}
	return q
}

// CollectionName is the audit events collection.
const CollectionName = "audit_events"

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Indexes are the audit collection indexes.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_time"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user"),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "record_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_record"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type"),
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}

// Log inserts event, assigning an id and timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns the events matching filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter counts the events matching filter, ignoring Limit and Offset.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.toBSON())
}
