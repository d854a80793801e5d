package policy

import (
	"fmt"
	"strings"

	"github.com/okian/elrobot/internal/domain/model"
)

// Direction names one of the four unit commands a named identity maps to.
type Direction string

// Supported directions.
const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
	Left     Direction = "left"
	Right    Direction = "right"
)

// ParseDirection validates a direction name (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Forward, Backward, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Motion returns the unit command of the direction. Left is a positive
// rotation around z.
func (d Direction) Motion() model.Motion {
	switch d {
	case Forward:
		return model.Motion{Linear: 1}
	case Backward:
		return model.Motion{Linear: -1}
	case Left:
		return model.Motion{Angular: 1}
	case Right:
		return model.Motion{Angular: -1}
	}
	return model.Motion{}
}

// NamedMotions converts a name->direction table into unit motions.
func NamedMotions(table map[string]string) (map[string]model.Motion, error) {
	out := make(map[string]model.Motion, len(table))
	for name, raw := range table {
		d, err := ParseDirection(raw)
		if err != nil {
			return nil, fmt.Errorf("identity %q: %w", name, err)
		}
		out[name] = d.Motion()
	}
	return out, nil
}
