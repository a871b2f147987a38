package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Ada   Lovelace ",
		Email:    " Ada@Example.COM ",
		Role:     "Student",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Ada Lovelace" {
		t.Errorf("FullName = %q, want normalized", created.FullName)
	}
	if created.FullNameCI != text.Fold("Ada Lovelace") {
		t.Errorf("FullNameCI = %q", created.FullNameCI)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q, want folded", created.Email)
	}
	if created.Role != models.RoleStudent {
		t.Errorf("Role = %q", created.Role)
	}
	if created.Status != models.UserActive {
		t.Errorf("expected default status active, got %q", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_Invalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		user models.User
	}{
		{"unknown role", models.User{FullName: "X", Email: "x@example.com", Role: "member"}},
		{"unknown status", models.User{FullName: "Y", Email: "y@example.com", Role: "admin", Status: "banned"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.user); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com", Role: "student"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "DUP@example.com", Role: "student"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "Grace Hopper", "grace@example.com")

	got, err := store.GetByEmail(ctx, "  GRACE@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got %v, want %v", got.ID, u.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "Alan Turing", "alan@example.com")
	other := fixtures.CreateStudent(ctx, "Other", "other@example.com")

	name := "Alan M. Turing"
	role := "coordinator"
	got, err := store.Update(ctx, u.ID, userstore.Update{FullName: &name, Role: &role})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.FullName != name || got.FullNameCI != text.Fold(name) || got.Role != models.RoleCoordinator {
		t.Errorf("unexpected user after update: %+v", got)
	}
	if got.Email != "alan@example.com" {
		t.Error("untouched fields must be preserved")
	}

	taken := other.Email
	if _, err := store.Update(ctx, u.ID, userstore.Update{Email: &taken}); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	bad := "superuser"
	if _, err := store.Update(ctx, u.ID, userstore.Update{Role: &bad}); err == nil {
		t.Error("expected error for invalid role")
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), userstore.Update{FullName: &name}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_DisableAndTouchLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "Linus", "linus@example.com")

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.TouchLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("TouchLogin failed: %v", err)
	}
	if err := store.Disable(ctx, u.ID); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserDisabled {
		t.Errorf("Status = %q, want disabled", got.Status)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}

	if err := store.Disable(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateStudent(ctx, "Bob Student", "bob@example.com")
	fixtures.CreateStudent(ctx, "Barbara Student", "barbara@example.com")
	fixtures.CreateCoordinator(ctx, "Carol Coord", "carol@example.com")
	fixtures.CreateDisabledUser(ctx, "Dave Disabled", "dave@example.com")

	tests := []struct {
		name   string
		filter userstore.ListFilter
		want   []string
	}{
		{"all sorted by name", userstore.ListFilter{}, []string{"Barbara Student", "Bob Student", "Carol Coord", "Dave Disabled"}},
		{"role", userstore.ListFilter{Role: "coordinator"}, []string{"Carol Coord"}},
		{"status", userstore.ListFilter{Status: "disabled"}, []string{"Dave Disabled"}},
		{"prefix search", userstore.ListFilter{Search: "BA"}, []string{"Barbara Student"}},
		{"search and role", userstore.ListFilter{Search: "b", Role: "student"}, []string{"Barbara Student", "Bob Student"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, page, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if page.HasNext || page.HasPrev {
				t.Errorf("unexpected paging: %+v", page)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.want))
			}
			for i, name := range tt.want {
				if rows[i].FullName != name {
					t.Errorf("rows[%d] = %q, want %q", i, rows[i].FullName, name)
				}
				if rows[i].PasswordHash != "" {
					t.Error("password hash must not be listed")
				}
			}
		})
	}
}

func TestStore_CountActiveStudents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateStudent(ctx, "A", "a@example.com")
	b := fixtures.CreateStudent(ctx, "B", "b@example.com")
	c := fixtures.CreateCoordinator(ctx, "C", "c@example.com")
	d := fixtures.CreateDisabledUser(ctx, "D", "d@example.com")

	n, err := store.CountActiveStudents(ctx, []primitive.ObjectID{a.ID, b.ID, c.ID, d.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("CountActiveStudents failed: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d, want 2", n)
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.EnsureAdmin(ctx, "Root", "root@example.com", "hash-1")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin = (%v, %v), want created", created, err)
	}
	created, err = store.EnsureAdmin(ctx, "Root", "ROOT@example.com", "hash-2")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin = (%v, %v), want existing", created, err)
	}
	u, err := store.GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if u.PasswordHash != "hash-1" {
		t.Error("existing password must not be overwritten")
	}

	// Promotes and re-enables an existing account.
	d := fixtures.CreateDisabledUser(ctx, "Ops", "ops@example.com")
	if _, err := store.EnsureAdmin(ctx, "Ops", d.Email, "x"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	u, _ = store.GetByID(ctx, d.ID)
	if u.Role != models.RoleAdmin || u.Status != models.UserActive {
		t.Errorf("got role=%q status=%q, want active admin", u.Role, u.Status)
	}
}
