package exercises

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/2beens/skischeduler/pkg"
)

type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// fields written by other clients, kept as they are
	Extra map[string]json.RawMessage `json:"-"`
}

type exerciseFields Exercise

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var fields exerciseFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := pkg.ExtraFields(data, "id", "name", "description")
	if err != nil {
		return err
	}
	*e = Exercise(fields)
	e.Extra = extra
	return nil
}

func (e Exercise) MarshalJSON() ([]byte, error) {
	return pkg.MarshalWithExtra(exerciseFields(e), e.Extra)
}

var (
	blankLinesRegex = regexp.MustCompile(`\n\s*\n`)
	newLinesRegex   = regexp.MustCompile(`\n+`)
)

// NormalizeDescription trims the description and separates its lines
// by exactly one empty line.
func NormalizeDescription(description string) string {
	description = strings.TrimSpace(description)
	description = blankLinesRegex.ReplaceAllString(description, "\n\n")
	return newLinesRegex.ReplaceAllString(description, "\n\n")
}
