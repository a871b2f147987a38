// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/normalize"
	"github.com/dalemusser/pairup/internal/app/system/paging"
	"github.com/dalemusser/pairup/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when another user already has the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"coordinator"|"admin"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// PasswordHash must already be hashed.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	if u.Status == "" {
		u.Status = models.UserActive
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !validStatus(u.Status) {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Update holds the editable fields. Nil pointers are left unchanged.
type Update struct {
	FullName     *string
	Email        *string
	Role         *string
	Status       *string
	PasswordHash *string
	Headline     *string
	Batch        *string
	TimeZone     *string
}

// Update applies upd and returns the updated user.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.Role != nil {
		role := normalize.Role(*upd.Role)
		if !models.IsValidRole(role) {
			return nil, errBadRole
		}
		set["role"] = role
	}
	if upd.Status != nil {
		st := normalize.Status(*upd.Status)
		if !validStatus(st) {
			return nil, errBadStatus
		}
		set["status"] = st
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}
	if upd.Headline != nil {
		set["headline"] = *upd.Headline
	}
	if upd.Batch != nil {
		set["batch"] = *upd.Batch
	}
	if upd.TimeZone != nil {
		set["time_zone"] = *upd.TimeZone
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// Disable marks a user disabled. Their existing tokens stop resolving on the
// next request.
func (s *Store) Disable(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     models.UserDisabled,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// TouchLogin records a successful sign-in.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
	return err
}

// ListFilter narrows List. Empty fields do not filter.
type ListFilter struct {
	Role   string
	Status string
	Search string // prefix match on the folded name
	Before string
	After  string
}

// List returns one keyset page of users ordered by folded name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, paging.Page, error) {
	filter := bson.M{}
	if role := normalize.Role(f.Role); role != "" {
		filter["role"] = role
	}
	if st := normalize.Status(f.Status); st != "" {
		filter["status"] = st
	}
	if q := text.Fold(f.Search); q != "" {
		hi := q + "\uffff"
		filter["full_name_ci"] = bson.M{"$gte": q, "$lt": hi}
	}

	ks := paging.ConfigureKeyset(f.Before, f.After)
	if w := ks.KeysetWindow("full_name_ci"); w != nil {
		filter = bson.M{"$and": []bson.M{filter, w}}
	}
	find := options.Find().SetProjection(bson.M{"password_hash": 0})
	ks.ApplyToFind(find, "full_name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, paging.Page{}, err
	}
	defer cur.Close(ctx)

	var rows []models.User
	if err := cur.All(ctx, &rows); err != nil {
		return nil, paging.Page{}, err
	}
	res := paging.TrimPage(&rows, f.Before, f.After)
	if ks.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := paging.BuildPage(rows, res,
		func(u models.User) string { return u.FullNameCI },
		func(u models.User) primitive.ObjectID { return u.ID })
	return rows, page, nil
}

// CountActiveStudents returns how many of ids are active students.
func (s *Store) CountActiveStudents(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"role":   models.RoleStudent,
		"status": models.UserActive,
	})
}

// ContactsByID returns the users with the given ids keyed by id, with only
// the fields notifications need.
func (s *Store) ContactsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"full_name": 1, "email": 1, "time_zone": 1, "role": 1, "status": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// EnsureAdmin creates the admin account if no user has the email, or
// promotes and re-activates the existing one. The password is only set on
// creation. created reports whether a new user was inserted.
func (s *Store) EnsureAdmin(ctx context.Context, fullName, email, passwordHash string) (created bool, err error) {
	email = normalize.Email(email)
	now := time.Now().UTC()
	name := normalize.Name(fullName)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"role":       models.RoleAdmin,
				"status":     models.UserActive,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":           primitive.NewObjectID(),
				"full_name":     name,
				"full_name_ci":  text.Fold(name),
				"password_hash": passwordHash,
				"created_at":    now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func validStatus(s string) bool {
	return s == models.UserActive || s == models.UserDisabled
}
