package schedules

import (
	"encoding/json"

	"github.com/2beens/skischeduler/internal/leaders"
	"github.com/2beens/skischeduler/pkg"
)

// Entry is the plan of one group for one week, in the shape older clients use.
// Slots hold exercise names.
type Entry struct {
	Warmup       string `json:"warmup"`
	Exercise1    string `json:"exercise1"`
	Exercise2    string `json:"exercise2"`
	Exercise3    string `json:"exercise3"`
	MainActivity string `json:"mainActivity"`
	Cooldown     string `json:"cooldown"`
	// sent by newer clients instead of the numbered slots
	Exercises []string     `json:"exercises,omitempty"`
	Leaders   leaders.List `json:"leaders"`
	// any other field the client sent, stored and returned as is
	Extra map[string]json.RawMessage `json:"-"`
}

// slot keys written by the first version of the client
var hyphenatedSlots = map[string]func(e *Entry) *string{
	"warm-up":       func(e *Entry) *string { return &e.Warmup },
	"exercise-1":    func(e *Entry) *string { return &e.Exercise1 },
	"exercise-2":    func(e *Entry) *string { return &e.Exercise2 },
	"exercise-3":    func(e *Entry) *string { return &e.Exercise3 },
	"main-activity": func(e *Entry) *string { return &e.MainActivity },
	"cool-down":     func(e *Entry) *string { return &e.Cooldown },
}

type entryFields Entry

func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields entryFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := pkg.ExtraFields(data,
		"warmup", "exercise1", "exercise2", "exercise3", "mainActivity", "cooldown", "exercises", "leaders",
	)
	if err != nil {
		return err
	}

	*e = Entry(fields)
	e.Extra = extra

	// hyphenated keys stay in Extra, so the first client still reads them back
	for key, slot := range hyphenatedSlots {
		raw, ok := extra[key]
		if !ok || *slot(e) != "" {
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			*slot(e) = name
		}
	}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return pkg.MarshalWithExtra(entryFields(e), e.Extra)
}

// Document is the whole schedules collection: group -> yearWeek -> entry.
// Entries stay raw, so writing one week never re-encodes the others.
type Document map[string]map[string]json.RawMessage
