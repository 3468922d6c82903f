package tlp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is a Traffic Light Protocol sensitivity level.
// Ordered: higher values are more restrictive.
type Level int

const (
	Clear Level = 0
	Green Level = 1
	Amber Level = 2
	Red   Level = 3
)

// Default is the level for paths no policy rule matches.
// Unknown content requires discretion; it is never treated as public.
const Default = Amber

func (l Level) String() string {
	switch l {
	case Clear:
		return "CLEAR"
	case Green:
		return "GREEN"
	case Amber:
		return "AMBER"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level name (case-insensitive).
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseLevel(s)
	if !ok {
		return fmt.Errorf("unknown TLP level %q", s)
	}
	*l = parsed
	return nil
}

// ParseLevel parses a level name, case-insensitive and trimmed.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RED":
		return Red, true
	case "AMBER":
		return Amber, true
	case "GREEN":
		return Green, true
	case "CLEAR":
		return Clear, true
	default:
		return Clear, false
	}
}

// MostRestrictive returns the more restrictive of two levels.
// Commutative and idempotent; Red dominates every level.
func MostRestrictive(a, b Level) Level {
	if a >= b {
		return a
	}
	return b
}
