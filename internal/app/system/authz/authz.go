// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, ObjectID and a found flag.
// Without a user, or with a malformed id, it returns
// "visitor", "", NilObjectID, false, so ok=true always means a usable id.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, valid := user.ObjectID()
	if !valid {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current user is an admin.
func IsAdmin(r *http.Request) bool { return HasRole(r, models.RoleAdmin) }

// IsCoordinator reports whether the current user is a coordinator.
func IsCoordinator(r *http.Request) bool { return HasRole(r, models.RoleCoordinator) }

// IsStudent reports whether the current user is a student.
func IsStudent(r *http.Request) bool { return HasRole(r, models.RoleStudent) }
