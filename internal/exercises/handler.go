package exercises

import (
	"context"
	"net/http"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/telemetry/metrics"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

type exercisesRepo interface {
	List(ctx context.Context) ([]Exercise, error)
	Get(ctx context.Context, id string) (Exercise, error)
	FindByName(ctx context.Context, name string) ([]Exercise, error)
	Create(ctx context.Context, name, description string) (Exercise, error)
	Update(ctx context.Context, id, name, description string) (Exercise, error)
	Delete(ctx context.Context, id string) error
}

type exerciseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Handler struct {
	repo    exercisesRepo
	metrics *metrics.Manager
}

func NewHandler(repo exercisesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/exercises", handler.handleList).Methods("GET", "OPTIONS").Name("exercises-list")
	router.HandleFunc("/api/exercises", handler.handleCreate).Methods("POST").Name("exercises-create")
	router.HandleFunc("/api/exercises/{id}", handler.handleGet).Methods("GET", "OPTIONS").Name("exercises-get")
	router.HandleFunc("/api/exercises/{id}", handler.handleUpdate).Methods("PUT").Name("exercises-update")
	router.HandleFunc("/api/exercises/{id}", handler.handleDelete).Methods("DELETE").Name("exercises-delete")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	var (
		exercises []Exercise
		err       error
	)
	if name := r.URL.Query().Get("name"); name != "" {
		exercises, err = handler.repo.FindByName(ctx, name)
	} else {
		exercises, err = handler.repo.List(ctx)
	}
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	if exercises == nil {
		exercises = []Exercise{}
	}
	pkg.WriteJSON(w, exercises, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	exercise, err := handler.repo.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	pkg.WriteJSON(w, exercise, http.StatusOK)
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.create")
	defer span.End()

	var req exerciseRequest
	if err := pkg.ReadJSONBody(r, &req); err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid exercise: %s", err))
		return
	}

	exercise, err := handler.repo.Create(ctx, req.Name, req.Description)
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterExercisesCreated.Inc()
	}

	log.Printf("new exercise added: [%s] %s", exercise.ID, exercise.Name)
	pkg.WriteJSON(w, exercise, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
	defer span.End()

	var req exerciseRequest
	if err := pkg.ReadJSONBody(r, &req); err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid exercise: %s", err))
		return
	}

	exercise, err := handler.repo.Update(ctx, mux.Vars(r)["id"], req.Name, req.Description)
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	log.Debugf("exercise updated: [%s] %s", exercise.ID, exercise.Name)
	pkg.WriteJSON(w, exercise, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := handler.repo.Delete(ctx, id); err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	log.Printf("exercise deleted: [%s]", id)
	pkg.WriteJSONMessage(w, "Exercise deleted", http.StatusOK)
}
