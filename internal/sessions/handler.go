package sessions

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/telemetry/metrics"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultUpcomingDays = 7
	maxUpcomingDays     = 366
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sessions_test

type sessionsRepo interface {
	List(ctx context.Context, f Filter) ([]Session, error)
	Upcoming(ctx context.Context, now time.Time, days int, group string) ([]Session, error)
	Month(ctx context.Context, year, month int, group string) ([]Session, error)
	Week(ctx context.Context, now time.Time, startDay time.Weekday, group string) ([]Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Create(ctx context.Context, s Session) (Session, error)
	Update(ctx context.Context, id string, s Session) (Session, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	repo    sessionsRepo
	metrics *metrics.Manager
	// ability to inject the clock (for unit testing)
	Now func() time.Time
}

func NewHandler(repo sessionsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
		Now:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	// static paths first, so they are not taken for a session id
	router.HandleFunc("/api/sessions/upcoming", handler.handleUpcoming).Methods("GET", "OPTIONS").Name("sessions-upcoming")
	router.HandleFunc("/api/sessions/week", handler.handleWeek).Methods("GET", "OPTIONS").Name("sessions-week")
	router.HandleFunc("/api/sessions/month/{year}/{month}", handler.handleMonth).Methods("GET", "OPTIONS").Name("sessions-month")

	router.HandleFunc("/api/sessions", handler.handleList).Methods("GET", "OPTIONS").Name("sessions-list")
	router.HandleFunc("/api/sessions", handler.handleCreate).Methods("POST").Name("sessions-create")
	router.HandleFunc("/api/sessions/{id}", handler.handleGet).Methods("GET", "OPTIONS").Name("sessions-get")
	router.HandleFunc("/api/sessions/{id}", handler.handleUpdate).Methods("PUT").Name("sessions-update")
	router.HandleFunc("/api/sessions/{id}", handler.handleDelete).Methods("DELETE").Name("sessions-delete")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.list")
	defer span.End()

	query := r.URL.Query()
	sessions, err := handler.repo.List(ctx, Filter{
		Group:     query.Get("group"),
		Date:      query.Get("date"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	})
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	writeSessions(w, sessions)
}

func (handler *Handler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.upcoming")
	defer span.End()

	days := defaultUpcomingDays
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		var err error
		days, err = strconv.Atoi(daysParam)
		if err != nil || days < 0 || days > maxUpcomingDays {
			apperr.WriteResponse(w, apperr.Validation("invalid days %q", daysParam))
			return
		}
	}

	sessions, err := handler.repo.Upcoming(ctx, handler.Now(), days, r.URL.Query().Get("group"))
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	writeSessions(w, sessions)
}

func (handler *Handler) handleWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.week")
	defer span.End()

	startDay := time.Sunday
	if startDayParam := r.URL.Query().Get("startDay"); startDayParam != "" {
		d, err := strconv.Atoi(startDayParam)
		if err != nil || d < 0 || d > 6 {
			apperr.WriteResponse(w, apperr.Validation("invalid start day %q, expected 0-6", startDayParam))
			return
		}
		startDay = time.Weekday(d)
	}

	sessions, err := handler.repo.Week(ctx, handler.Now(), startDay, r.URL.Query().Get("group"))
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	writeSessions(w, sessions)
}

func (handler *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.month")
	defer span.End()

	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid year %q", vars["year"]))
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid month %q", vars["month"]))
		return
	}

	sessions, err := handler.repo.Month(ctx, year, month, r.URL.Query().Get("group"))
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	writeSessions(w, sessions)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.get")
	defer span.End()

	session, err := handler.repo.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	pkg.WriteJSON(w, session, http.StatusOK)
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.create")
	defer span.End()

	var req Session
	if err := pkg.ReadJSONBody(r, &req); err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid session: %s", err))
		return
	}

	session, err := handler.repo.Create(ctx, req)
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterSessionsCreated.Inc()
	}

	log.Printf("new session added: [%s] group %s, %s %s-%s", session.ID, session.Group, session.Date, session.StartTime, session.EndTime)
	pkg.WriteJSON(w, session, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.update")
	defer span.End()

	var req Session
	if err := pkg.ReadJSONBody(r, &req); err != nil {
		apperr.WriteResponse(w, apperr.Validation("invalid session: %s", err))
		return
	}

	session, err := handler.repo.Update(ctx, mux.Vars(r)["id"], req)
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	log.Debugf("session updated: [%s]", session.ID)
	pkg.WriteJSON(w, session, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := handler.repo.Delete(ctx, id); err != nil {
		apperr.WriteResponse(w, err)
		return
	}

	log.Printf("session deleted: [%s]", id)
	pkg.WriteJSONMessage(w, "Session deleted", http.StatusOK)
}

func writeSessions(w http.ResponseWriter, sessions []Session) {
	if sessions == nil {
		sessions = []Session{}
	}
	pkg.WriteJSON(w, sessions, http.StatusOK)
}
