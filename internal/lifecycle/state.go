package lifecycle

import (
	"fmt"
	"strings"
)

// AppState is the presence of the application.
type AppState int

const (
	StateActive AppState = iota
	StateBackground
)

func (s AppState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateBackground:
		return "background"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState accepts "active"/"foreground" and "background".
func ParseState(value string) (AppState, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active", "foreground":
		return StateActive, nil
	case "background":
		return StateBackground, nil
	default:
		return StateActive, fmt.Errorf("unknown app state %q", value)
	}
}
