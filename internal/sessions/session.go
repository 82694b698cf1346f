package sessions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/leaders"
	"github.com/2beens/skischeduler/internal/weeks"
	"github.com/2beens/skischeduler/pkg"
)

const DefaultTitle = "Training Session"

type Session struct {
	ID        string       `json:"id"`
	Group     string       `json:"group"`
	Date      string       `json:"date"`
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime"`
	Title     string       `json:"title"`
	Location  string       `json:"location"`
	Leaders   leaders.List `json:"leaders"`
	// names, not ids: renaming or deleting an exercise leaves past sessions as they were
	Exercises []string `json:"exercises"`
	Notes     string   `json:"notes"`
	// any other field the client sent, stored and returned as is
	Extra map[string]json.RawMessage `json:"-"`
}

type sessionFields Session

func (s *Session) UnmarshalJSON(data []byte) error {
	var fields sessionFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := pkg.ExtraFields(data,
		"id", "group", "date", "startTime", "endTime", "title", "location", "leaders", "exercises", "notes",
	)
	if err != nil {
		return err
	}
	*s = Session(fields)
	s.Extra = extra
	return nil
}

func (s Session) MarshalJSON() ([]byte, error) {
	return pkg.MarshalWithExtra(sessionFields(s), s.Extra)
}

// Duration returns the session length like "1h 30m", overnight sessions wrap
func (s Session) Duration() string {
	return weeks.FormatDuration(s.StartTime, s.EndTime)
}

// normalized validates s and returns it in its stored form:
// trimmed group, canonical date, HH:MM times, default title, non-nil lists.
func (s Session) normalized(loc *time.Location) (Session, error) {
	s.Group = strings.TrimSpace(s.Group)
	if s.Group == "" {
		return Session{}, apperr.Validation("session group is required")
	}

	if strings.TrimSpace(s.Date) == "" {
		return Session{}, apperr.Validation("session date is required")
	}
	date, err := weeks.ParseDate(s.Date, loc)
	if err != nil {
		return Session{}, err
	}
	s.Date = weeks.FormatDate(date)

	if strings.TrimSpace(s.StartTime) == "" || strings.TrimSpace(s.EndTime) == "" {
		return Session{}, apperr.Validation("session start and end time are required")
	}
	if s.StartTime, err = weeks.FormatTime(s.StartTime); err != nil {
		return Session{}, err
	}
	if s.EndTime, err = weeks.FormatTime(s.EndTime); err != nil {
		return Session{}, err
	}

	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	s.Location = strings.TrimSpace(s.Location)

	if s.Leaders == nil {
		s.Leaders = leaders.List{}
	}
	exercises := make([]string, 0, len(s.Exercises))
	for _, name := range s.Exercises {
		if name = strings.TrimSpace(name); name != "" {
			exercises = append(exercises, name)
		}
	}
	s.Exercises = exercises

	return s, nil
}

// Filter narrows a session listing. Empty fields do not filter.
// StartDate and EndDate only apply together; Date is ignored then.
type Filter struct {
	Group     string
	Date      string
	StartDate string
	EndDate   string
}

func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// dayRange is an inclusive range of calendar days
type dayRange struct {
	from, to time.Time
}

func newDayRange(from, to time.Time) dayRange {
	return dayRange{from: startOfDay(from), to: startOfDay(to)}
}

func (dr dayRange) contains(day time.Time) bool {
	day = startOfDay(day)
	return !day.Before(dr.from) && !day.After(dr.to)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// matcher is a compiled Filter
type matcher struct {
	group string
	date  string
	days  *dayRange
	loc   *time.Location
}

func (f Filter) compile(loc *time.Location) (matcher, error) {
	m := matcher{
		group: strings.TrimSpace(f.Group),
		loc:   loc,
	}

	if f.StartDate != "" && f.EndDate != "" {
		from, err := weeks.ParseDate(f.StartDate, loc)
		if err != nil {
			return matcher{}, err
		}
		to, err := weeks.ParseDate(f.EndDate, loc)
		if err != nil {
			return matcher{}, err
		}
		dr := newDayRange(from, to)
		m.days = &dr
		return m, nil
	}

	if f.Date != "" {
		date, err := weeks.ParseDate(f.Date, loc)
		if err != nil {
			return matcher{}, err
		}
		m.date = weeks.FormatDate(date)
	}

	return m, nil
}

func (m matcher) match(s Session) bool {
	if m.group != "" && s.Group != m.group {
		return false
	}
	if m.date != "" && s.Date != m.date {
		return false
	}
	if m.days != nil {
		date, err := weeks.ParseDate(s.Date, m.loc)
		if err != nil {
			return false
		}
		return m.days.contains(date)
	}
	return true
}
