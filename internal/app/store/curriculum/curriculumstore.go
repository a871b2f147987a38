// internal/app/store/curriculum/curriculumstore.go
package curriculumstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/normalize"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrParentNotFound is returned when a node's parent does not exist.
	ErrParentNotFound = errors.New("parent not found")
	// ErrHasChildren is returned when deleting a node that still has children.
	ErrHasChildren  = errors.New("node still has children")
	errNameRequired = errors.New("name is required")
)

// Level names one tier of the curriculum tree.
type Level string

const (
	LevelSemester Level = "semesters"
	LevelSubject  Level = "subjects"
	LevelChapter  Level = "chapters"
	LevelTopic    Level = "topics"
)

// parentField is the field linking a level to its parent, and child is the
// level below it.
var (
	parentField = map[Level]string{LevelSubject: "semester_id", LevelChapter: "subject_id", LevelTopic: "chapter_id"}
	child       = map[Level]Level{LevelSemester: LevelSubject, LevelSubject: LevelChapter, LevelChapter: LevelTopic}
)

// Store manages semesters, subjects, chapters and topics.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) coll(l Level) *mongo.Collection { return s.db.Collection(string(l)) }

func (s *Store) exists(ctx context.Context, l Level, id primitive.ObjectID) error {
	n, err := s.coll(l).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrParentNotFound
	}
	return nil
}

// CreateSemester inserts a semester.
func (s *Store) CreateSemester(ctx context.Context, name string, order int) (models.Semester, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Semester{}, errNameRequired
	}
	now := time.Now().UTC()
	sem := models.Semester{ID: primitive.NewObjectID(), Name: name, Order: order, CreatedAt: now, UpdatedAt: now}
	_, err := s.coll(LevelSemester).InsertOne(ctx, sem)
	return sem, err
}

// CreateSubject inserts a subject under semesterID.
func (s *Store) CreateSubject(ctx context.Context, semesterID primitive.ObjectID, name string, order int) (models.Subject, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Subject{}, errNameRequired
	}
	if err := s.exists(ctx, LevelSemester, semesterID); err != nil {
		return models.Subject{}, err
	}
	now := time.Now().UTC()
	sub := models.Subject{ID: primitive.NewObjectID(), SemesterID: semesterID, Name: name, Order: order, CreatedAt: now, UpdatedAt: now}
	_, err := s.coll(LevelSubject).InsertOne(ctx, sub)
	return sub, err
}

// CreateChapter inserts a chapter under subjectID.
func (s *Store) CreateChapter(ctx context.Context, subjectID primitive.ObjectID, name string, order int) (models.Chapter, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Chapter{}, errNameRequired
	}
	if err := s.exists(ctx, LevelSubject, subjectID); err != nil {
		return models.Chapter{}, err
	}
	now := time.Now().UTC()
	ch := models.Chapter{ID: primitive.NewObjectID(), SubjectID: subjectID, Name: name, Order: order, CreatedAt: now, UpdatedAt: now}
	_, err := s.coll(LevelChapter).InsertOne(ctx, ch)
	return ch, err
}

// CreateTopic inserts t under t.ChapterID. SubjectID is copied from the chapter.
func (s *Store) CreateTopic(ctx context.Context, t models.Topic) (models.Topic, error) {
	t.Title = normalize.Name(t.Title)
	if t.Title == "" {
		return models.Topic{}, errNameRequired
	}
	var ch models.Chapter
	if err := s.coll(LevelChapter).FindOne(ctx, bson.M{"_id": t.ChapterID}).Decode(&ch); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Topic{}, ErrParentNotFound
		}
		return models.Topic{}, err
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.SubjectID = ch.SubjectID
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := s.coll(LevelTopic).InsertOne(ctx, t)
	return t, err
}

// GetTopic loads a topic. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetTopic(ctx context.Context, id primitive.ObjectID) (*models.Topic, error) {
	var t models.Topic
	if err := s.coll(LevelTopic).FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// NodeUpdate holds the editable fields shared by every level. Topic-only
// fields are ignored for the other levels.
type NodeUpdate struct {
	Name            *string
	Order           *int
	VideoURL        *string
	DurationSeconds *int
}

// Update applies upd to the node. Returns mongo.ErrNoDocuments if not found.
func (s *Store) Update(ctx context.Context, l Level, id primitive.ObjectID, upd NodeUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return errNameRequired
		}
		if l == LevelTopic {
			set["title"] = name
		} else {
			set["name"] = name
		}
	}
	if upd.Order != nil {
		set["order"] = *upd.Order
	}
	if l == LevelTopic {
		if upd.VideoURL != nil {
			set["video_url"] = *upd.VideoURL
		}
		if upd.DurationSeconds != nil {
			set["duration_seconds"] = *upd.DurationSeconds
		}
	}
	res, err := s.coll(l).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a node with no children. Deleting a topic also removes
// its progress records.
func (s *Store) Delete(ctx context.Context, l Level, id primitive.ObjectID) error {
	if c, ok := child[l]; ok {
		n, err := s.coll(c).CountDocuments(ctx, bson.M{parentField[c]: id}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasChildren
		}
	}
	res, err := s.coll(l).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if l == LevelTopic {
		_, err = s.db.Collection("topic_progress").DeleteMany(ctx, bson.M{"topic_id": id})
	}
	return err
}

// TreeChapter is a chapter with its topics.
type TreeChapter struct {
	models.Chapter
	Topics []models.Topic `json:"topics"`
}

// TreeSubject is a subject with its chapters.
type TreeSubject struct {
	models.Subject
	Chapters []TreeChapter `json:"chapters"`
}

// TreeSemester is a semester with its subjects.
type TreeSemester struct {
	models.Semester
	Subjects []TreeSubject `json:"subjects"`
}

func findSorted[T any](ctx context.Context, c *mongo.Collection) ([]T, error) {
	cur, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tree returns the whole curriculum with every level sorted by order.
func (s *Store) Tree(ctx context.Context) ([]TreeSemester, error) {
	sems, err := findSorted[models.Semester](ctx, s.coll(LevelSemester))
	if err != nil {
		return nil, err
	}
	subs, err := findSorted[models.Subject](ctx, s.coll(LevelSubject))
	if err != nil {
		return nil, err
	}
	chs, err := findSorted[models.Chapter](ctx, s.coll(LevelChapter))
	if err != nil {
		return nil, err
	}
	tops, err := findSorted[models.Topic](ctx, s.coll(LevelTopic))
	if err != nil {
		return nil, err
	}

	topicsByChapter := map[primitive.ObjectID][]models.Topic{}
	for _, t := range tops {
		topicsByChapter[t.ChapterID] = append(topicsByChapter[t.ChapterID], t)
	}
	chaptersBySubject := map[primitive.ObjectID][]TreeChapter{}
	for _, c := range chs {
		tc := TreeChapter{Chapter: c, Topics: topicsByChapter[c.ID]}
		if tc.Topics == nil {
			tc.Topics = []models.Topic{}
		}
		chaptersBySubject[c.SubjectID] = append(chaptersBySubject[c.SubjectID], tc)
	}
	subjectsBySemester := map[primitive.ObjectID][]TreeSubject{}
	for _, sub := range subs {
		ts := TreeSubject{Subject: sub, Chapters: chaptersBySubject[sub.ID]}
		if ts.Chapters == nil {
			ts.Chapters = []TreeChapter{}
		}
		subjectsBySemester[sub.SemesterID] = append(subjectsBySemester[sub.SemesterID], ts)
	}

	out := make([]TreeSemester, 0, len(sems))
	for _, sem := range sems {
		ts := TreeSemester{Semester: sem, Subjects: subjectsBySemester[sem.ID]}
		if ts.Subjects == nil {
			ts.Subjects = []TreeSubject{}
		}
		out = append(out, ts)
	}
	return out, nil
}
