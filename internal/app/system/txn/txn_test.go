package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/pairup/internal/app/system/txn"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset"), false},
		{"standalone txn number", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"illegal operation code", mongo.CommandError{Code: 51}, true},
		{"operation not supported in txn", mongo.CommandError{Code: 263}, true},
		{"duplicate key is not a txn problem", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"wrapped text mentioning replica set", errors.New("roster: Transaction requires a Replica Set"), true},
		{"sessions unsupported", errors.New("sessions are not supported by this server"), true},
		{"bare transaction word", errors.New("transaction aborted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// Works against either deployment type: a replica set commits inside the
// transaction, a standalone server runs the fallback. Either way the write
// lands exactly once.
func TestRunOrFallback_WritesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_probe")
	if err := db.CreateCollection(ctx, "txn_probe"); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	write := func(ctx context.Context) error {
		_, err := coll.InsertOne(ctx, bson.M{"k": "v"})
		return err
	}

	transactional, err := txn.RunOrFallback(ctx, db.Client(), write, write)
	if err != nil {
		t.Fatalf("RunOrFallback: %v", err)
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("documents = %d, want 1 (transactional=%v)", n, transactional)
	}
}

func TestRunOrFallback_PropagatesFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }
	if _, err := txn.RunOrFallback(ctx, db.Client(), fail, fail); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
