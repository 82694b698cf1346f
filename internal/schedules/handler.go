package schedules

import (
	"context"
	"net/http"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=schedules_test

type schedulesRepo interface {
	Get(ctx context.Context, group, yearWeek string) (Entry, error)
	ListGroup(ctx context.Context, group string) ([]WeekEntry, error)
	Put(ctx context.Context, group, yearWeek string, entry Entry) (Entry, error)
	Delete(ctx context.Context, group, yearWeek string) error
}

type Handler struct {
	repo schedulesRepo
}

func NewHandler(repo schedulesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/schedules/{group}", handler.handleListGroup).Methods("GET", "OPTIONS").Name("schedules-list-group")
	router.HandleFunc("/api/schedules/{group}/{yearWeek}", handler.handleGet).Methods("GET", "OPTIONS").Name("schedules-get")
	router.HandleFunc("/api/schedules/{group}/{yearWeek}", handler.handlePut).Methods("PUT").Name("schedules-put")
	router.HandleFunc("/api/schedules/{group}/{yearWeek}", handler.handleDelete).Methods("DELETE").Name("schedules-delete")
}

func (handler *Handler) handleListGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.listGroup")
	defer span.End()

	entries, err := handler.repo.ListGroup(ctx, mux.Vars(r)["group"])
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}
	if entries == nil {
		entries = []WeekEntry{}
	}

	pkg.WriteJSON(w, entries, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.get")
	defer span.End()

	vars := mux.Vars(r)
	entry, err := handler.repo.Get(ctx, vars["group"], vars["yearWeek"])
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	pkg.WriteJSON(w, entry, http.StatusOK)
}

func (handler *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.put")
	defer span.End()

	var entry Entry
	if err := pkg.ReadJSONBody(r, &entry); err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid schedule: %s", err))
		return
	}

	vars := mux.Vars(r)
	stored, err := handler.repo.Put(ctx, vars["group"], vars["yearWeek"], entry)
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	pkg.WriteJSON(w, stored, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.delete")
	defer span.End()

	vars := mux.Vars(r)
	if err := handler.repo.Delete(ctx, vars["group"], vars["yearWeek"]); err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	log.Printf("schedule deleted: %s %s", vars["group"], vars["yearWeek"])
	pkg.WriteJSONMessage(w, "Schedule deleted", http.StatusOK)
}
