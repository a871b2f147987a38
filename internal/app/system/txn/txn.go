// Package txn runs multi-document writes inside a MongoDB transaction when
// the deployment supports it (replica set or sharded cluster) and reports
// when it does not, so callers can fall back to sequential idempotent steps.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotSupported is returned by Run when the server cannot run transactions.
var ErrNotSupported = errors.New("transactions not supported by this deployment")

// Run executes fn inside a session transaction. fn must use the ctx it is
// given so its operations join the transaction. If the deployment rejects
// transactions (standalone server), Run returns ErrNotSupported and fn's
// writes have not been committed.
func Run(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return ErrNotSupported
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return ErrNotSupported
	}
	return err
}

// RunOrFallback tries fn inside a transaction and, if transactions are
// unavailable, runs fallback with the plain context instead.
func RunOrFallback(ctx context.Context, client *mongo.Client, fn, fallback func(ctx context.Context) error) (transactional bool, err error) {
	err = Run(ctx, client, fn)
	if errors.Is(err, ErrNotSupported) {
		return false, fallback(ctx)
	}
	return true, err
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // codes returned by standalone servers
			return true
		}
	}
	s := strings.ToLower(err.Error())
	has := func(sub string) bool { return strings.Contains(s, sub) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}
