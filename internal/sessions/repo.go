package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/store"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/internal/weeks"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	monthMinYear = 2000
	monthMaxYear = 3000
	// days shown around a month in the calendar view
	monthPaddingDays = 5
)

var ErrSessionNotFound = apperr.NotFound("session")

type Repo struct {
	store *store.Store
	// dates are interpreted in this location
	loc *time.Location
	// ability to inject id generator (for unit testing)
	NewID func() string
}

func NewRepo(s *store.Store, loc *time.Location) *Repo {
	if loc == nil {
		loc = time.Local
	}
	return &Repo{
		store: s,
		loc:   loc,
		NewID: uuid.NewString,
	}
}

// List returns the sessions matching f, in storage order
func (r *Repo) List(ctx context.Context, f Filter) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.list")
	span.SetAttributes(
		attribute.String("filter.group", f.Group),
		attribute.String("filter.date", f.Date),
		attribute.String("filter.startDate", f.StartDate),
		attribute.String("filter.endDate", f.EndDate),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := f.compile(r.loc)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, m)
}

func (r *Repo) list(ctx context.Context, m matcher) ([]Session, error) {
	sessions, err := store.Load[[]Session](ctx, r.store, store.Sessions)
	if err != nil {
		return nil, err
	}

	found := []Session{}
	for _, s := range sessions {
		if m.match(s) {
			found = append(found, s)
		}
	}
	return found, nil
}

func (r *Repo) listDays(ctx context.Context, group string, from, to time.Time) ([]Session, error) {
	days := newDayRange(from.In(r.loc), to.In(r.loc))
	return r.list(ctx, matcher{
		group: group,
		days:  &days,
		loc:   r.loc,
	})
}

// Upcoming returns the sessions from today until days from now, both inclusive
func (r *Repo) Upcoming(ctx context.Context, now time.Time, days int, group string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.upcoming")
	span.SetAttributes(attribute.Int("days", days), attribute.String("group", group))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if days < 0 {
		return nil, apperr.Validation("days must not be negative")
	}
	return r.listDays(ctx, group, now, now.AddDate(0, 0, days))
}

// Month returns the sessions of a month, padded with a few days on both
// sides, as shown by the calendar.
func (r *Repo) Month(ctx context.Context, year, month int, group string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.month")
	span.SetAttributes(
		attribute.Int("year", year),
		attribute.Int("month", month),
		attribute.String("group", group),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if year < monthMinYear || year > monthMaxYear {
		return nil, apperr.Validation("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return nil, apperr.Validation("invalid month %d", month)
	}

	from := time.Date(year, time.Month(month), -monthPaddingDays, 0, 0, 0, 0, r.loc)
	to := time.Date(year, time.Month(month+1), monthPaddingDays, 0, 0, 0, 0, r.loc)
	return r.listDays(ctx, group, from, to)
}

// Week returns the sessions of the week now is in
func (r *Repo) Week(ctx context.Context, now time.Time, startDay time.Weekday, group string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.week")
	span.SetAttributes(attribute.String("group", group))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now = now.In(r.loc)
	return r.listDays(ctx, group, weeks.StartOfWeek(now, startDay), weeks.EndOfWeek(now, startDay))
}

func (r *Repo) Get(ctx context.Context, id string) (_ Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.get")
	span.SetAttributes(attribute.String("session.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessions, err := store.Load[[]Session](ctx, r.store, store.Sessions)
	if err != nil {
		return Session{}, err
	}

	i := slices.IndexFunc(sessions, func(s Session) bool { return s.ID == id })
	if i < 0 {
		return Session{}, ErrSessionNotFound
	}
	return sessions[i], nil
}

// Create stores a new session under a fresh id, any id in s is ignored
func (r *Repo) Create(ctx context.Context, s Session) (_ Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s, err = s.normalized(r.loc)
	if err != nil {
		return Session{}, err
	}
	s.ID = r.NewID()
	span.SetAttributes(attribute.String("session.id", s.ID))
	raw, err := json.Marshal(s)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}

	if err := store.Mutate(ctx, r.store, store.Sessions, func(sessions *[]json.RawMessage) error {
		*sessions = append(*sessions, raw)
		return nil
	}); err != nil {
		return Session{}, err
	}

	log.Debugf("session created: [%s] %s %s", s.ID, s.Group, s.Date)
	return s, nil
}

// Update replaces the whole session, it keeps the given id whatever s.ID is
func (r *Repo) Update(ctx context.Context, id string, s Session) (_ Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.update")
	span.SetAttributes(attribute.String("session.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s, err = s.normalized(r.loc)
	if err != nil {
		return Session{}, err
	}
	s.ID = id
	raw, err := json.Marshal(s)
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}

	if err := store.Mutate(ctx, r.store, store.Sessions, func(sessions *[]json.RawMessage) error {
		i := slices.IndexFunc(*sessions, hasID(id))
		if i < 0 {
			return ErrSessionNotFound
		}
		(*sessions)[i] = raw
		return nil
	}); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.delete")
	span.SetAttributes(attribute.String("session.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return store.Mutate(ctx, r.store, store.Sessions, func(sessions *[]json.RawMessage) error {
		i := slices.IndexFunc(*sessions, hasID(id))
		if i < 0 {
			return ErrSessionNotFound
		}
		*sessions = slices.Delete(*sessions, i, i+1)
		return nil
	})
}

// hasID matches a stored session by id, decoding nothing else of it.
// Mutations work on raw sessions so the untouched ones are written back as they were.
func hasID(id string) func(raw json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var stored struct {
			ID string `json:"id"`
		}
		return json.Unmarshal(raw, &stored) == nil && stored.ID == id
	}
}
