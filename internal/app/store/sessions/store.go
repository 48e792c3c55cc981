// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// End reasons recorded when a session closes.
const (
	EndLogout     = "logout"
	EndInactive   = "inactive"
	EndSuperseded = "superseded" // the same user signed in again
	EndRejected   = "rejected"   // the backend refused the token
)

// ErrNotActive is returned by GetActive for missing or closed sessions.
var ErrNotActive = errors.New("sessions: session is not active")

// Session is a signed-in admin. The cookie carries only the session id; the
// backend bearer token lives here and is removed when the session closes.
type Session struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	UserID   string             `bson:"user_id"` // backend user id
	Username string             `bson:"username"`
	Name     string             `bson:"name"`
	Email    string             `bson:"email,omitempty"`
	Role     string             `bson:"role"`
	Token    string             `bson:"token,omitempty"`

	LoginAt      time.Time  `bson:"login_at"`
	LogoutAt     *time.Time `bson:"logout_at,omitempty"`
	LastActiveAt time.Time  `bson:"last_active_at"`
	EndReason    string     `bson:"end_reason,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Computed on session close
	DurationSecs int64 `bson:"duration_secs,omitempty"`
}

// Open reports whether the session has not been closed.
func (s Session) Open() bool { return s.LogoutAt == nil }

// NewSession is the input to Create.
type NewSession struct {
	UserID    string
	Username  string
	Name      string
	Email     string
	Role      string
	Token     string
	IP        string
	UserAgent string
}

// CollectionName is the sessions collection.
const CollectionName = "sessions"

// Store manages admin sessions.
type Store struct {
	c *mongo.Collection
}

// New creates a new sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Indexes are the session collection indexes.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Open sessions by activity (inactive-session cleanup)
		{
			Keys:    bson.D{{Key: "logout_at", Value: 1}, {Key: "last_active_at", Value: -1}},
			Options: options.Index().SetName("idx_sessions_active"),
		},
		// User session history
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "login_at", Value: -1}},
			Options: options.Index().SetName("idx_sessions_user"),
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return err
}

// Create starts a new session. Any open session of the same backend user is
// closed as superseded first.
func (s *Store) Create(ctx context.Context, in NewSession) (Session, error) {
	now := time.Now().UTC()

	cur, err := s.c.Find(ctx, bson.M{"user_id": in.UserID, "logout_at": nil})
	if err == nil {
		var open []Session
		if err := cur.All(ctx, &open); err == nil {
			for _, old := range open {
				_ = s.close(ctx, old, now, EndSuperseded)
			}
		}
	}

	sess := Session{
		ID:           primitive.NewObjectID(),
		UserID:       in.UserID,
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		Token:        in.Token,
		LoginAt:      now,
		LastActiveAt: now,
		IP:           in.IP,
		UserAgent:    in.UserAgent,
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// GetByID retrieves a session by its ID, open or closed.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	return sess, err
}

// GetActive returns the open session with id, or ErrNotActive.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": id, "logout_at": nil}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, ErrNotActive
	}
	return sess, err
}

// GetByUser returns up to limit sessions of a backend user, open or closed,
// newest sign-in first.
func (s *Store) GetByUser(ctx context.Context, userID string, limit int64) ([]Session, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "login_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Touch moves last_active_at forward on an open session. It reports false
// when the session is missing or already closed.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "logout_at": nil},
		bson.M{"$set": bson.M{"last_active_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Close ends a session with the given reason, records its duration and
// drops the stored token.
func (s *Store) Close(ctx context.Context, id primitive.ObjectID, reason string) error {
	var sess Session
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return err
	}
	return s.close(ctx, sess, time.Now().UTC(), reason)
}

func (s *Store) close(ctx context.Context, sess Session, now time.Time, reason string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": sess.ID}, bson.M{
		"$set": bson.M{
			"logout_at":     now,
			"end_reason":    reason,
			"duration_secs": int64(now.Sub(sess.LoginAt).Seconds()),
		},
		"$unset": bson.M{"token": ""},
	})
	return err
}

// CloseInactive closes open sessions idle for longer than threshold and
// drops their tokens.
func (s *Store) CloseInactive(ctx context.Context, threshold time.Duration) (int64, error) {
	now := time.Now().UTC()
	result, err := s.c.UpdateMany(ctx,
		bson.M{
			"logout_at":      nil,
			"last_active_at": bson.M{"$lt": now.Add(-threshold)},
		},
		bson.M{
			"$set":   bson.M{"logout_at": now, "end_reason": EndInactive},
			"$unset": bson.M{"token": ""},
		},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
