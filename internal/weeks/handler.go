package weeks

import (
	"net/http"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/pkg"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
)

type WeekResponse struct {
	YearWeek  string `json:"yearWeek"`
	Year      int    `json:"year"`
	Week      int    `json:"week"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Formatted string `json:"formatted"`
	Previous  string `json:"previous"`
	Next      string `json:"next"`
}

func NewWeekResponse(yw YearWeek, loc *time.Location) WeekResponse {
	r := yw.DateRange(loc)
	return WeekResponse{
		YearWeek:  yw.String(),
		Year:      yw.Year,
		Week:      yw.Week,
		Start:     FormatDate(r.Start),
		End:       FormatDate(r.End),
		Formatted: r.Formatted,
		Previous:  yw.Previous().String(),
		Next:      yw.Next().String(),
	}
}

type Handler struct {
	// ability to inject the clock (for unit testing)
	Now func() time.Time
}

func NewHandler() *Handler {
	return &Handler{
		Now: time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/weeks/current", handler.handleCurrent).Methods("GET", "OPTIONS").Name("weeks-current")
	router.HandleFunc("/api/weeks/{yearWeek}", handler.handleGet).Methods("GET", "OPTIONS").Name("weeks-get")
}

func (handler *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.weeks.current")
	defer span.End()

	now := handler.Now()
	yw := Current(now)
	span.SetAttributes(attribute.String("year_week", yw.String()))

	pkg.WriteJSON(w, NewWeekResponse(yw, now.Location()), http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.weeks.get")
	defer span.End()

	yw, err := ParseYearWeek(mux.Vars(r)["yearWeek"])
	if err != nil {
		apperr.WriteResponse(w, err)
		return
	}
	span.SetAttributes(attribute.String("year_week", yw.String()))

	pkg.WriteJSON(w, NewWeekResponse(yw, handler.Now().Location()), http.StatusOK)
}
