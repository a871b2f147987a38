// internal/app/features/curriculum/curriculum.go
package curriculum

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	curriculumstore "github.com/dalemusser/pairup/internal/app/store/curriculum"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var levels = map[string]curriculumstore.Level{
	"semesters": curriculumstore.LevelSemester,
	"subjects":  curriculumstore.LevelSubject,
	"chapters":  curriculumstore.LevelChapter,
	"topics":    curriculumstore.LevelTopic,
}

func levelParam(r *http.Request) (curriculumstore.Level, error) {
	l, ok := levels[chi.URLParam(r, "level")]
	if !ok {
		return "", apperr.NotFound("unknown curriculum level")
	}
	return l, nil
}

// nodeInput covers every level. ParentID is required below semesters;
// video fields only apply to topics.
type nodeInput struct {
	ParentID        string `json:"parent_id" validate:"omitempty,objectid"`
	Name            string `json:"name" validate:"required,max=200"`
	Order           int    `json:"order" validate:"min=0"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"min=0"`
}

type nodeEdit struct {
	Name            *string `json:"name" validate:"omitempty,max=200"`
	Order           *int    `json:"order" validate:"omitempty,min=0"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url"`
	DurationSeconds *int    `json:"duration_seconds" validate:"omitempty,min=0"`
}

// ServeTree handles GET /api/curriculum.
func (h *Handler) ServeTree(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "curriculum tree")
	defer cancel()

	tree, err := h.Store.Tree(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if tree == nil {
		tree = []curriculumstore.TreeSemester{}
	}
	respond.OK(w, map[string]any{"semesters": tree})
}

// HandleCreate handles POST /api/curriculum/{level}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	level, err := levelParam(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in nodeInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		respond.Error(w, h.Log, apperr.Validation("name is required"))
		return
	}
	var parent primitive.ObjectID
	if level != curriculumstore.LevelSemester {
		if in.ParentID == "" {
			respond.Error(w, h.Log, apperr.Validation("parent_id is required"))
			return
		}
		parent, _ = primitive.ObjectIDFromHex(in.ParentID)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create curriculum node")
	defer cancel()

	var node any
	switch level {
	case curriculumstore.LevelSemester:
		node, err = h.Store.CreateSemester(ctx, in.Name, in.Order)
	case curriculumstore.LevelSubject:
		node, err = h.Store.CreateSubject(ctx, parent, in.Name, in.Order)
	case curriculumstore.LevelChapter:
		node, err = h.Store.CreateChapter(ctx, parent, in.Name, in.Order)
	case curriculumstore.LevelTopic:
		node, err = h.Store.CreateTopic(ctx, models.Topic{
			ChapterID:       parent,
			Title:           in.Name,
			VideoURL:        in.VideoURL,
			DurationSeconds: in.DurationSeconds,
			Order:           in.Order,
		})
	}
	if errors.Is(err, curriculumstore.ErrParentNotFound) {
		respond.Error(w, h.Log, apperr.Wrap(apperr.KindValidation, err, "parent_id does not exist"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("curriculum node created", zap.String("level", string(level)))
	respond.Created(w, node)
}

// HandleEdit handles PATCH /api/curriculum/{level}/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	level, err := levelParam(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in nodeEdit
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		respond.Error(w, h.Log, apperr.Validation("name cannot be empty"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update curriculum node")
	defer cancel()

	err = h.Store.Update(ctx, level, id, curriculumstore.NodeUpdate{
		Name:            in.Name,
		Order:           in.Order,
		VideoURL:        in.VideoURL,
		DurationSeconds: in.DurationSeconds,
	})
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "node"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /api/curriculum/{level}/{id}. Nodes with
// children cannot be deleted.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	level, err := levelParam(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete curriculum node")
	defer cancel()

	err = h.Store.Delete(ctx, level, id)
	if errors.Is(err, curriculumstore.ErrHasChildren) {
		respond.Error(w, h.Log, apperr.Wrap(apperr.KindInvalidState, err, "delete the children first"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "node"))
		return
	}
	h.Log.Info("curriculum node deleted", zap.String("level", string(level)), zap.String("id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
