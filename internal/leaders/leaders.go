package leaders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// List holds the leaders of a session or a schedule entry.
// Older clients send a comma separated string, newer ones an array;
// both are accepted and it is always written back as an array.
type List []string

// Parse splits a comma separated leaders string, dropping empty names
func Parse(s string) List {
	return clean(strings.Split(s, ","))
}

func clean(names []string) List {
	l := List{}
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			l = append(l, name)
		}
	}
	return l
}

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = List{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Parse(s)
	case '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("leaders: %w", err)
		}
		*l = clean(names)
	default:
		return fmt.Errorf("leaders: expected string or array, got %s", data)
	}

	return nil
}

func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l List) String() string {
	return strings.Join(l, ", ")
}
