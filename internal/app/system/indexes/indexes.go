// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection set is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var err error
	for _, set := range collectionSets() {
		if e := ensureIndexSet(ctx, db.Collection(set.collection), set.models); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", set.collection, e))
		}
	}
	return err
}

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

func asc(k string) bson.E  { return bson.E{Key: k, Value: 1} }
func desc(k string) bson.E { return bson.E{Key: k, Value: -1} }

func collectionSets() []indexSet {
	return []indexSet{
		{"users", []mongo.IndexModel{
			idx("uniq_users_email", true, asc("email")),
			idx("idx_users_role_name", false, asc("role"), asc("full_name_ci")),
		}},
		{"events", []mongo.IndexModel{
			idx("uniq_events_slug", true, asc("slug")),
			idx("idx_events_coordinators", false, asc("coordinator_ids")),
			idx("idx_events_participants", false, asc("participant_ids")),
			idx("idx_events_created", false, desc("created_at")),
		}},
		// Each participant is interviewer exactly once per round. The unordered
		// combination cannot be unique: with two participants the cycle is (a,b),(b,a).
		{"pairs", []mongo.IndexModel{
			idx("uniq_pairs_event_round_interviewer", true, asc("event_id"), asc("round"), asc("interviewer_id")),
			idx("idx_pairs_interviewee", false, asc("interviewee_id"), desc("created_at")),
			idx("idx_pairs_interviewer", false, asc("interviewer_id"), desc("created_at")),
			idx("idx_pairs_status_scheduled", false, asc("status"), asc("scheduled_at")),
		}},
		{"slot_proposals", []mongo.IndexModel{
			idx("uniq_proposals_pair_participant", true, asc("pair_id"), asc("participant_id")),
			idx("idx_proposals_event", false, asc("event_id")),
		}},
		{"feedback", []mongo.IndexModel{
			idx("uniq_feedback_pair_from", true, asc("pair_id"), asc("from_id")),
			idx("idx_feedback_to", false, asc("to_id"), desc("created_at")),
			idx("idx_feedback_event", false, asc("event_id")),
		}},
		{"semesters", []mongo.IndexModel{
			idx("idx_semesters_order", false, asc("order")),
		}},
		{"subjects", []mongo.IndexModel{
			idx("idx_subjects_semester_order", false, asc("semester_id"), asc("order")),
		}},
		{"chapters", []mongo.IndexModel{
			idx("idx_chapters_subject_order", false, asc("subject_id"), asc("order")),
		}},
		{"topics", []mongo.IndexModel{
			idx("idx_topics_chapter_order", false, asc("chapter_id"), asc("order")),
			idx("idx_topics_subject", false, asc("subject_id")),
		}},
		{"topic_progress", []mongo.IndexModel{
			idx("uniq_progress_user_topic", true, asc("user_id"), asc("topic_id")),
			idx("idx_progress_user_subject", false, asc("user_id"), asc("subject_id")),
		}},
		{"activity_events", []mongo.IndexModel{
			idx("idx_activity_user", false, asc("user_id"), desc("timestamp")),
			idx("idx_activity_time_type", false, desc("timestamp"), asc("event_type")),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs error
	existing := listExisting(ctx, coll)

	for _, m := range models {
		desiredName := *m.Options.Name
		desiredUnique := m.Options.Unique
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && ex.Name == desiredName {
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			// Name or uniqueness differs: drop and recreate under the desired definition.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: drop %s: %w", desiredName, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = multierr.Append(errs, fmt.Errorf("%s: cannot create unique index (duplicates present)", desiredName))
				continue
			}
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", desiredName, err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}
	return errs
}
