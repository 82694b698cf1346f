package schedules

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/leaders"
	"github.com/2beens/skischeduler/internal/store"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/internal/weeks"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrScheduleNotFound = apperr.NotFound("schedule")

// WeekEntry is an entry together with the week it is planned for
type WeekEntry struct {
	YearWeek string `json:"yearWeek"`
	Entry
}

type Repo struct {
	store *store.Store
}

func NewRepo(s *store.Store) *Repo {
	return &Repo{
		store: s,
	}
}

// key validates group and yearWeek, and returns the canonical yearWeek key
func key(span trace.Span, group, yearWeek string) (string, string, error) {
	span.SetAttributes(attribute.String("group", group), attribute.String("yearWeek", yearWeek))

	group = strings.TrimSpace(group)
	if group == "" {
		return "", "", apperr.Validation("schedule group is required")
	}
	yw, err := weeks.ParseYearWeek(yearWeek)
	if err != nil {
		return "", "", err
	}
	return group, yw.String(), nil
}

func (r *Repo) Get(ctx context.Context, group, yearWeek string) (_ Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	group, yearWeek, err = key(span, group, yearWeek)
	if err != nil {
		return Entry{}, err
	}

	doc, err := store.Load[Document](ctx, r.store, store.Schedules)
	if err != nil {
		return Entry{}, err
	}

	raw, ok := doc[group][yearWeek]
	if !ok {
		return Entry{}, ErrScheduleNotFound
	}
	entry, err := decodeEntry(group, yearWeek, raw)
	if err != nil {
		return Entry{}, err
	}
	if entry.Leaders == nil {
		entry.Leaders = leaders.List{}
	}
	return entry, nil
}

// ListGroup returns all planned weeks of a group, ordered by week
func (r *Repo) ListGroup(ctx context.Context, group string) (_ []WeekEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.listGroup")
	span.SetAttributes(attribute.String("group", group))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	doc, err := store.Load[Document](ctx, r.store, store.Schedules)
	if err != nil {
		return nil, err
	}

	bucket := doc[strings.TrimSpace(group)]
	entries := make([]WeekEntry, 0, len(bucket))
	for _, yearWeek := range slices.SortedFunc(maps.Keys(bucket), compareYearWeeks) {
		entry, err := decodeEntry(group, yearWeek, bucket[yearWeek])
		if err != nil {
			return nil, err
		}
		entries = append(entries, WeekEntry{YearWeek: yearWeek, Entry: entry})
	}
	return entries, nil
}

func decodeEntry(group, yearWeek string, raw json.RawMessage) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, apperr.Storage("decode schedule "+group+" "+yearWeek, err)
	}
	return entry, nil
}

// compareYearWeeks orders "2025-9" before "2025-10", unparsable keys last
func compareYearWeeks(a, b string) int {
	ywA, errA := weeks.ParseYearWeek(a)
	ywB, errB := weeks.ParseYearWeek(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	case ywA.Year != ywB.Year:
		return ywA.Year - ywB.Year
	default:
		return ywA.Week - ywB.Week
	}
}

// Put stores the entry, replacing any previous one for the same week
func (r *Repo) Put(ctx context.Context, group, yearWeek string, entry Entry) (_ Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	group, yearWeek, err = key(span, group, yearWeek)
	if err != nil {
		return Entry{}, err
	}
	if entry.Leaders == nil {
		entry.Leaders = leaders.List{}
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encode schedule: %w", err)
	}

	if err := store.Mutate(ctx, r.store, store.Schedules, func(doc *Document) error {
		if *doc == nil {
			*doc = Document{}
		}
		if (*doc)[group] == nil {
			(*doc)[group] = map[string]json.RawMessage{}
		}
		(*doc)[group][yearWeek] = raw
		return nil
	}); err != nil {
		return Entry{}, err
	}

	log.Debugf("schedule stored: %s %s", group, yearWeek)
	return entry, nil
}

// Delete removes the entry, and the group with it when it was its last one
func (r *Repo) Delete(ctx context.Context, group, yearWeek string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	group, yearWeek, err = key(span, group, yearWeek)
	if err != nil {
		return err
	}

	return store.Mutate(ctx, r.store, store.Schedules, func(doc *Document) error {
		bucket, ok := (*doc)[group]
		if !ok {
			return ErrScheduleNotFound
		}
		if _, ok := bucket[yearWeek]; !ok {
			return ErrScheduleNotFound
		}

		delete(bucket, yearWeek)
		if len(bucket) == 0 {
			delete(*doc, group)
		}
		return nil
	})
}
