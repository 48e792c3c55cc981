package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/system/indexes"
	"github.com/dalemusser/neurohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestEnsureAll_Twice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 1; i <= 2; i++ {
		if err := indexes.EnsureAll(ctx, db); err != nil {
			t.Fatalf("EnsureAll run %d: %v", i, err)
		}
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll string
		want []string
	}{
		{"sessions", []string{"idx_sessions_active", "idx_sessions_user"}},
		{"audit_events", []string{"idx_audit_time", "idx_audit_user", "idx_audit_record", "idx_audit_category_type"}},
		{"wizard_drafts", []string{"idx_drafts_expires", "idx_drafts_owner"}},
		{"wizard_uploads.files", []string{"idx_uploads_draft", "idx_uploads_uploaded"}},
	}
	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			names := indexNames(t, ctx, db.Collection(tt.coll))
			for _, name := range tt.want {
				if !names[name] {
					t.Errorf("expected index %q to exist on %s", name, tt.coll)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesDriftedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection(drafts.CollectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("expires_old"),
	})
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, ctx, coll)
	if names["expires_old"] {
		t.Error("old index name should be gone")
	}
	if !names["idx_drafts_expires"] {
		t.Error("index should carry the desired name")
	}
}

func indexNames(t *testing.T, ctx context.Context, coll *mongo.Collection) map[string]bool {
	t.Helper()
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}
